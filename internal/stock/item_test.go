package stock

import "testing"

func TestParsePrice(t *testing.T) {
	cases := []struct {
		raw  string
		want float64
		ok   bool
	}{
		{"€ 199,00", 199, true},
		{"1 234,56 €", 1234.56, true},
		{"1.234,56", 1234.56, true},
		{"249.99", 249.99, true},
		{"350", 350, true},
		{"sur demande", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, ok := ParsePrice(tc.raw)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("ParsePrice(%q) = %v, %v; want %v, %v", tc.raw, got, ok, tc.want, tc.ok)
		}
	}
}

func TestBrandTag(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"Apple iPhone 13 128GB Noir", BrandIPhone},
		{"iPad Pro 11 2021", BrandIPad},
		{"Apple iPad Air 64GB", BrandIPad},
		{"Samsung Galaxy S21", BrandSamsung},
		{"Galaxy Z Flip 4", BrandSamsung},
		{"Note 20 Ultra", BrandSamsung},
		{"Xiaomi Redmi 9", BrandOther},
		{"", BrandOther},
	}
	for _, tc := range cases {
		if got := BrandTag(tc.name); got != tc.want {
			t.Fatalf("BrandTag(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestFallbackCapacity(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"iPhone 12 128 Go Bleu", "128 GB"},
		{"iPhone 13 256GB", "256 GB"},
		{"iPad Pro 1 TB", "1 TB"},
		{"iPhone SE", ""},
	}
	for _, tc := range cases {
		if got := FallbackCapacity(tc.name); got != tc.want {
			t.Fatalf("FallbackCapacity(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestEnrichPrefersRawPrice(t *testing.T) {
	e := Enrich(Item{Name: "iPhone 13 128 Go", Price: "€ 199,00", PriceRaw: 189.5})
	if e.PriceEUR == nil || *e.PriceEUR != 189.5 {
		t.Fatalf("price = %v, want 189.5", e.PriceEUR)
	}
	if e.Capacity != "128 GB" {
		t.Fatalf("capacity = %q", e.Capacity)
	}
	if e.Brand != BrandIPhone {
		t.Fatalf("brand = %q", e.Brand)
	}
}

func TestEnrichFallsBackToDisplayedPrice(t *testing.T) {
	e := Enrich(Item{Name: "Samsung Galaxy S22", Price: "449,00 €", Capacity: "256 GB"})
	if e.PriceEUR == nil || *e.PriceEUR != 449 {
		t.Fatalf("price = %v, want 449", e.PriceEUR)
	}
	if e.Capacity != "256 GB" {
		t.Fatalf("feed capacity overwritten: %q", e.Capacity)
	}

	unpriced := Enrich(Item{Name: "iPad Air", Price: "sur demande"})
	if unpriced.PriceEUR != nil {
		t.Fatalf("expected nil price, got %v", *unpriced.PriceEUR)
	}
}

func TestRecencyOrdersModels(t *testing.T) {
	pairs := []struct {
		newer string
		older string
	}{
		{"iPhone 14", "iPhone 13"},
		{"iPhone 13 Pro Max", "iPhone 13 Pro"},
		{"iPhone 13 Pro", "iPhone 13 Plus"},
		{"iPhone SE 2022", "iPad Pro"},
		{"Galaxy Z Fold 4", "Galaxy S21"},
		{"Galaxy S21", "Note 20"},
	}
	for _, p := range pairs {
		if recencyScore(p.newer) <= recencyScore(p.older) {
			t.Fatalf("recency(%q)=%v not above recency(%q)=%v",
				p.newer, recencyScore(p.newer), p.older, recencyScore(p.older))
		}
	}
}
