package stock

import (
	"regexp"
	"strconv"
	"strings"
)

// Brand buckets used by the storefront browser. Anything outside the
// three sold families is filtered out of the public listing.
const (
	BrandIPhone  = "iPhone"
	BrandIPad    = "iPad"
	BrandSamsung = "Samsung"
	BrandOther   = "Autre"
)

// AllowedBrands are the families shown on the refurbished page.
var AllowedBrands = []string{BrandIPhone, BrandSamsung, BrandIPad}

// Item is one supplier feed entry as published in the scraped JSON.
type Item struct {
	SKU       string  `json:"sku"`
	Name      string  `json:"name"`
	Price     string  `json:"price"`
	PriceRaw  float64 `json:"price_raw_eur,omitempty"`
	Capacity  string  `json:"capacity"`
	Grade     string  `json:"grade"`
	State     string  `json:"state"`
	Stock     string  `json:"stock"`
	URL       string  `json:"url"`
	Image     string  `json:"image"`
	ScrapedAt int64   `json:"scraped_at"`
}

// Enriched is an item with the derived fields the storefront needs.
type Enriched struct {
	Item
	Brand    string   `json:"brand"`
	PriceEUR *float64 `json:"price_eur"`
	Recency  float64  `json:"-"`
}

var (
	priceJunk     = regexp.MustCompile(`[^\d,.\-]`)
	capacityRe    = regexp.MustCompile(`(?i)(\d+)\s?(GB|Go|TB)`)
	ipadRe        = regexp.MustCompile(`\bipad\b`)
	iphoneRe      = regexp.MustCompile(`\biphone`)
	appleRe       = regexp.MustCompile(`\bapple\b`)
	samsungRe     = regexp.MustCompile(`samsung|galaxy|note|z\s?(flip|fold)`)
	iphoneModelRe = regexp.MustCompile(`iphone\s*(\d{1,2})`)
	galaxySRe     = regexp.MustCompile(`galaxy\s*s\d`)
)

// ParsePrice reads supplier price strings like "€ 199,00" or
// "1 234,56 €". When both separators appear the rightmost one is the
// decimal mark; a lone comma is always decimal.
func ParsePrice(raw string) (float64, bool) {
	cleaned := priceJunk.ReplaceAllString(raw, "")
	if cleaned == "" {
		return 0, false
	}
	if strings.Contains(cleaned, ",") && strings.LastIndex(cleaned, ",") > strings.LastIndex(cleaned, ".") {
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.Replace(cleaned, ",", ".", 1)
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// BrandTag classifies a product name by keyword. iPad wins over iPhone
// so "iPad Pro" does not land in the phone bucket.
func BrandTag(name string) string {
	s := strings.ToLower(name)
	if s == "" {
		return BrandOther
	}
	switch {
	case ipadRe.MatchString(s):
		return BrandIPad
	case iphoneRe.MatchString(s), appleRe.MatchString(s):
		return BrandIPhone
	case samsungRe.MatchString(s):
		return BrandSamsung
	default:
		return BrandOther
	}
}

// FallbackCapacity extracts "128 GB" style capacity from the name when
// the feed did not fill the field. "Go" normalizes to "GB".
func FallbackCapacity(name string) string {
	m := capacityRe.FindStringSubmatch(name)
	if m == nil {
		return ""
	}
	unit := strings.ToUpper(m[2])
	if unit == "GO" {
		unit = "GB"
	}
	return m[1] + " " + unit
}

// recencyScore orders models newest-ish first without a release table:
// numbered iPhones sort by number with Pro/Max/Plus nudges, iPads and
// Samsung flagships get fixed bands.
func recencyScore(name string) float64 {
	s := strings.ToLower(name)
	if s == "" {
		return 0
	}

	if m := iphoneModelRe.FindStringSubmatch(s); m != nil {
		base, _ := strconv.ParseFloat(m[1], 64)
		switch {
		case strings.Contains(s, "pro max"):
			base += 0.3
		case strings.Contains(s, "pro"):
			base += 0.2
		case strings.Contains(s, "plus"):
			base += 0.1
		}
		return 1000 + base
	}
	if strings.Contains(s, "iphone se") {
		return 1010
	}
	if ipadRe.MatchString(s) {
		base := 920.0
		switch {
		case strings.Contains(s, "pro"):
			base += 0.3
		case strings.Contains(s, "air"):
			base += 0.2
		case strings.Contains(s, "mini"):
			base += 0.1
		}
		return base
	}
	if samsungRe.MatchString(s) {
		switch {
		case strings.Contains(s, "fold"), strings.Contains(s, "flip"):
			return 910
		case galaxySRe.MatchString(s):
			return 900
		case strings.Contains(s, "note"):
			return 890
		default:
			return 880
		}
	}
	return 0
}

// Enrich derives the storefront fields for one feed item.
func Enrich(item Item) Enriched {
	e := Enriched{Item: item, Brand: BrandTag(item.Name), Recency: recencyScore(item.Name)}
	if e.Capacity == "" {
		e.Capacity = FallbackCapacity(item.Name)
	}
	if item.PriceRaw > 0 {
		v := item.PriceRaw
		e.PriceEUR = &v
	} else if v, ok := ParsePrice(item.Price); ok {
		e.PriceEUR = &v
	}
	return e
}
