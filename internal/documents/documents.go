package documents

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/recophone/recophone-backend/internal/catalog"
)

var hundred = decimal.NewFromInt(100)

// Company is the letterhead block printed on every document.
type Company struct {
	Name    string
	Slogan  string
	Email   string
	Phone   string
	Website string
	Address string
	VAT     string
}

// DefaultCompany returns the shop identity.
func DefaultCompany() Company {
	return Company{
		Name:    "RecoPhone",
		Slogan:  "Réparations éco-responsables, au prix juste",
		Email:   "hello@recophone.be",
		Phone:   "+32/492.09.05.33",
		Website: "recophone.be",
		Address: "Rte de Saussin 38/23a, 5190 Jemeppe-sur-Sambre",
		VAT:     "BE06 95 86 62 21",
	}
}

// Client is the customer block printed under the header.
type Client struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Address   string
}

// Item is one priced repair line. Color and PartKind are only set for
// parts that carry a color choice; a nil Color prints as "Je ne sais pas".
type Item struct {
	Label    string
	Price    decimal.Decimal
	Qty      int
	Color    *string
	PartKind catalog.PartKind
	HasMeta  bool
}

// Detail renders the color column of the repairs table.
func (it Item) Detail() string {
	if !it.HasMeta {
		return ""
	}
	part := "Châssis"
	if it.PartKind == catalog.PartBack {
		part = "Face arrière"
	}
	color := "Je ne sais pas"
	if it.Color != nil {
		color = *it.Color
	}
	return part + " : " + color
}

// Device groups the repair lines of one device.
type Device struct {
	Category string
	Model    string
	Items    []Item
}

// Quote is everything the quote document needs.
type Quote struct {
	Number           string
	IssuedAt         time.Time
	Client           Client
	Devices          []Device
	TravelFee        decimal.Decimal
	PayInTwo         bool
	SignatureDataURL string
}

// Total recomputes the grand total from the lines rather than trusting a
// client-supplied figure.
func (q Quote) Total() decimal.Decimal {
	total := decimal.Zero
	for _, d := range q.Devices {
		for _, it := range d.Items {
			qty := it.Qty
			if qty < 1 {
				qty = 1
			}
			total = total.Add(it.Price.Mul(decimal.NewFromInt(int64(qty))))
		}
	}
	return total.Add(q.TravelFee)
}

// ScheduleEntry is one installment of the pay-in-two contract.
type ScheduleEntry struct {
	Label     string
	Due       string
	AmountPct float64
}

// PayInTwoSchedule is the fixed 50/50 installment plan.
func PayInTwoSchedule() []ScheduleEntry {
	return []ScheduleEntry{
		{Label: "Acompte (50%)", Due: "à la validation", AmountPct: 50},
		{Label: "Solde (50%)", Due: "à la livraison/retrait", AmountPct: 50},
	}
}

// LegalClauses are the contract terms printed above the signature.
var LegalClauses = []string{
	"Le client reconnaît avoir été informé des conditions d'intervention et des tarifs.",
	"Garantie pièces et main d'œuvre : 12 mois (hors dommages accidentels, oxydation, casse, micro-rayures).",
	"Les données du client sont traitées conformément au RGPD, uniquement pour la gestion de sa réparation.",
	"En cas de paiement échelonné, le matériel peut être retenu jusqu'au paiement complet.",
	"Des intérêts de retard et/ou une indemnité forfaitaire peuvent être appliqués en cas de non-paiement.",
}

// Contract is everything the pay-in-two contract document needs.
type Contract struct {
	Number           string
	QuoteRef         string
	IssuedAt         time.Time
	Client           Client
	AmountTotal      decimal.Decimal
	Schedule         []ScheduleEntry
	Legal            []string
	SignatureDataURL string
}

// InstallmentAmount resolves one schedule entry against the total,
// rounded to the cent.
func (c Contract) InstallmentAmount(entry ScheduleEntry) decimal.Decimal {
	return c.AmountTotal.Mul(decimal.NewFromFloat(entry.AmountPct)).Div(hundred).Round(2)
}

// Euro formats an amount the Belgian way: comma decimals, the sign after.
func Euro(v decimal.Decimal) string {
	cents := v.Round(2).Shift(2).IntPart()
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	whole := cents / 100
	frac := cents % 100
	digits := fmt.Sprintf("%d", whole)
	var grouped strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			grouped.WriteByte(' ')
		}
		grouped.WriteRune(r)
	}
	return fmt.Sprintf("%s%s,%02d €", sign, grouped.String(), frac)
}

func formatDate(t time.Time) string {
	return t.Format("02/01/2006 15:04")
}
