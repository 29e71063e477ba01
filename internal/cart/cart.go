package cart

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineType discriminates what a cart line sells.
type LineType string

const (
	LineRepair       LineType = "REPAIR"
	LineAccessory    LineType = "ACCESSORY"
	LineSubscription LineType = "SUBSCRIPTION"
)

// Valid reports whether the type is one of the known line types.
func (t LineType) Valid() bool {
	switch t {
	case LineRepair, LineAccessory, LineSubscription:
		return true
	default:
		return false
	}
}

// VATRate is a Belgian VAT percentage. 21 is the default rate.
type VATRate int

const (
	VATZero     VATRate = 0
	VATReduced  VATRate = 6
	VATMiddle   VATRate = 12
	VATStandard VATRate = 21
)

// Valid reports whether the rate is one of the legal Belgian rates.
func (v VATRate) Valid() bool {
	switch v {
	case VATZero, VATReduced, VATMiddle, VATStandard:
		return true
	default:
		return false
	}
}

// Line is a single priced entry in the cart. UnitPrice is excl. VAT.
type Line struct {
	ID        string         `json:"id"`
	Type      LineType       `json:"type"`
	Title     string         `json:"title"`
	Subtitle  string         `json:"subtitle,omitempty"`
	UnitPrice float64        `json:"unitPrice"`
	VATRate   VATRate        `json:"vatRate"`
	Quantity  int            `json:"quantity"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// mergeable reports whether two lines describe the same sellable thing.
// Matching lines are combined by summing quantities instead of appearing
// twice in the cart.
func (l Line) mergeable(other Line) bool {
	return l.Type == other.Type &&
		l.Title == other.Title &&
		l.Subtitle == other.Subtitle &&
		l.VATRate == other.VATRate &&
		l.UnitPrice == other.UnitPrice
}

// State is the whole cart, stored as one JSON blob. UpdatedAt is unix
// milliseconds and drives last-write-wins reconciliation across tabs.
type State struct {
	Items      []Line `json:"items"`
	CouponCode string `json:"couponCode,omitempty"`
	UpdatedAt  int64  `json:"updatedAt"`
}

// NewState returns an empty cart stamped at now.
func NewState(now time.Time) *State {
	return &State{Items: []Line{}, UpdatedAt: now.UnixMilli()}
}

// NewLineID allocates an opaque line identifier.
func NewLineID() string {
	return strings.ToUpper(uuid.NewString()[:13])
}

// Add merges the line into an existing matching one or appends it.
func (s *State) Add(line Line, now time.Time) {
	if line.Quantity < 1 {
		line.Quantity = 1
	}
	for i := range s.Items {
		if s.Items[i].mergeable(line) {
			s.Items[i].Quantity += line.Quantity
			s.touch(now)
			return
		}
	}
	if line.ID == "" {
		line.ID = NewLineID()
	}
	s.Items = append(s.Items, line)
	s.touch(now)
}

// Remove deletes the line with the given id. Unknown ids are a no-op.
func (s *State) Remove(id string, now time.Time) {
	kept := s.Items[:0]
	for _, it := range s.Items {
		if it.ID != id {
			kept = append(kept, it)
		}
	}
	s.Items = kept
	s.touch(now)
}

// UpdateQuantity sets the line's quantity, clamped to a minimum of 1.
// Removal is an explicit separate action, never a zero quantity.
func (s *State) UpdateQuantity(id string, quantity int, now time.Time) {
	if quantity < 1 {
		quantity = 1
	}
	for i := range s.Items {
		if s.Items[i].ID == id {
			s.Items[i].Quantity = quantity
			break
		}
	}
	s.touch(now)
}

// Clear empties the cart and drops any coupon.
func (s *State) Clear(now time.Time) {
	s.Items = []Line{}
	s.CouponCode = ""
	s.touch(now)
}

// ApplyCoupon records the coupon code. An empty code clears it.
func (s *State) ApplyCoupon(code string, now time.Time) {
	s.CouponCode = strings.TrimSpace(code)
	s.touch(now)
}

func (s *State) touch(now time.Time) {
	s.UpdatedAt = now.UnixMilli()
}

// Totals is the derived price summary shown at checkout.
type Totals struct {
	SubtotalExcl float64 `json:"subtotalExcl"`
	VATTotal     float64 `json:"vatTotal"`
	TotalIncl    float64 `json:"totalIncl"`
}

var hundred = decimal.NewFromInt(100)

// Totals computes the cart totals. Subtotal, VAT and total are each
// rounded to 2 decimals independently to match currency display.
func (s *State) Totals() Totals {
	subtotal := decimal.Zero
	vat := decimal.Zero
	for _, it := range s.Items {
		lineExcl := decimal.NewFromFloat(it.UnitPrice).Mul(decimal.NewFromInt(int64(it.Quantity)))
		subtotal = subtotal.Add(lineExcl)
		vat = vat.Add(lineExcl.Mul(decimal.NewFromInt(int64(it.VATRate))).Div(hundred))
	}
	subtotal = subtotal.Round(2)
	vat = vat.Round(2)
	total := subtotal.Add(vat).Round(2)
	return Totals{
		SubtotalExcl: subtotal.InexactFloat64(),
		VATTotal:     vat.InexactFloat64(),
		TotalIncl:    total.InexactFloat64(),
	}
}
