package documents

import (
	"encoding/base64"
	"strings"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/image"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/extension"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	pkgerrors "github.com/recophone/recophone-backend/pkg/errors"
)

var (
	inkColor   = &props.Color{Red: 30, Green: 30, Blue: 30}
	mutedColor = &props.Color{Red: 90, Green: 90, Blue: 90}
	tableBg    = &props.Color{Red: 242, Green: 250, Blue: 237}
)

// Builder renders the customer-facing PDF documents.
type Builder struct {
	company Company
}

// NewBuilder returns a builder printing the given letterhead.
func NewBuilder(company Company) *Builder {
	return &Builder{company: company}
}

func (b *Builder) newDocument() core.Maroto {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(15).
		WithTopMargin(15).
		WithRightMargin(15).
		Build()
	return maroto.New(cfg)
}

// registerHeader installs the letterhead as the page header so maroto
// redraws it on every page an overflowing table or clause list opens.
func (b *Builder) registerHeader(m core.Maroto, title string) error {
	rows := []core.Row{
		row.New(8).Add(
			text.NewCol(7, b.company.Name, props.Text{Size: 14, Style: fontstyle.Bold, Color: inkColor}),
			text.NewCol(5, title, props.Text{Size: 14, Style: fontstyle.Bold, Align: align.Right, Color: inkColor}),
		),
	}
	if b.company.Slogan != "" {
		rows = append(rows, row.New(5).Add(text.NewCol(12, b.company.Slogan, props.Text{Size: 9, Color: mutedColor})))
	}
	for _, detail := range []string{
		b.company.Address,
		"Tél: " + b.company.Phone,
		"Email: " + b.company.Email,
		"Site: " + b.company.Website,
		"TVA: " + b.company.VAT,
	} {
		rows = append(rows, row.New(4).Add(text.NewCol(12, detail, props.Text{Size: 8, Color: mutedColor})))
	}
	rows = append(rows, row.New(4).Add(line.NewCol(12, props.Line{SizePercent: 100, Color: mutedColor})))
	return m.RegisterHeader(rows...)
}

func (b *Builder) addClientBlock(m core.Maroto, client Client) {
	m.AddRow(6, text.NewCol(12, "Client", props.Text{Size: 11, Style: fontstyle.Bold, Color: inkColor}))
	for _, l := range []string{
		strings.TrimSpace(client.FirstName + " " + client.LastName),
		client.Email,
		client.Phone,
		client.Address,
	} {
		if l == "" {
			continue
		}
		m.AddRow(5, text.NewCol(12, l, props.Text{Size: 9, Color: inkColor}))
	}
}

// QuotePDF renders the quote: letterhead, client, repairs table with a
// per-part color column, optional travel-fee line and the recomputed total.
func (b *Builder) QuotePDF(q Quote) ([]byte, error) {
	m := b.newDocument()
	if err := b.registerHeader(m, "DEVIS"); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "register quote header")
	}
	m.AddRow(6, text.NewCol(12,
		"Devis n° "+q.Number+" — "+formatDate(q.IssuedAt),
		props.Text{Size: 8, Color: mutedColor},
	))
	b.addClientBlock(m, q.Client)
	m.AddRow(3)

	m.AddRows(row.New(7).WithStyle(&props.Cell{BackgroundColor: tableBg}).Add(
		text.NewCol(4, "Appareil", props.Text{Size: 9, Style: fontstyle.Bold, Color: inkColor}),
		text.NewCol(4, "Réparation", props.Text{Size: 9, Style: fontstyle.Bold, Color: inkColor}),
		text.NewCol(2, "Détails", props.Text{Size: 9, Style: fontstyle.Bold, Color: inkColor}),
		text.NewCol(2, "Prix", props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right, Color: inkColor}),
	))
	for _, d := range q.Devices {
		for _, it := range d.Items {
			qty := it.Qty
			if qty < 1 {
				qty = 1
			}
			m.AddRow(6,
				text.NewCol(4, d.Model, props.Text{Size: 9, Color: inkColor}),
				text.NewCol(4, it.Label, props.Text{Size: 9, Color: inkColor}),
				text.NewCol(2, it.Detail(), props.Text{Size: 8, Color: mutedColor}),
				text.NewCol(2, Euro(it.Price.Mul(decimal.NewFromInt(int64(qty)))), props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right, Color: inkColor}),
			)
		}
	}
	if q.TravelFee.IsPositive() {
		m.AddRow(6,
			text.NewCol(4, "—", props.Text{Size: 9, Color: inkColor}),
			text.NewCol(4, "Frais de déplacement", props.Text{Size: 9, Color: inkColor}),
			text.NewCol(2, "", props.Text{Size: 8}),
			text.NewCol(2, Euro(q.TravelFee), props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right, Color: inkColor}),
		)
	}

	m.AddRow(4)
	m.AddRow(8,
		text.NewCol(8, "", props.Text{}),
		text.NewCol(2, "Total estimé", props.Text{Size: 10, Color: mutedColor}),
		text.NewCol(2, Euro(q.Total()), props.Text{Size: 12, Style: fontstyle.Bold, Align: align.Right, Color: inkColor}),
	)
	m.AddRow(8, text.NewCol(12,
		"Prix indicatifs. Confirmation finale au moment de la prise de rendez-vous. "+
			"Garantie 12 mois pièces et main d'œuvre (hors casse, oxydation, micro-rayures).",
		props.Text{Size: 8, Color: mutedColor},
	))

	doc, err := m.Generate()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render quote pdf")
	}
	return doc.GetBytes(), nil
}

// ContractPDF renders the pay-in-two contract: installment schedule,
// legal clauses and the customer's signature when one was captured.
func (b *Builder) ContractPDF(c Contract) ([]byte, error) {
	m := b.newDocument()
	if err := b.registerHeader(m, "CONTRAT DE PAIEMENT EN DEUX FOIS"); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "register contract header")
	}
	m.AddRow(6, text.NewCol(12,
		"Contrat n° "+c.Number+" — "+formatDate(c.IssuedAt)+" | Réf. devis "+c.QuoteRef,
		props.Text{Size: 8, Color: mutedColor},
	))
	b.addClientBlock(m, c.Client)
	m.AddRow(3)

	m.AddRow(6, text.NewCol(12, "Échéancier", props.Text{Size: 11, Style: fontstyle.Bold, Color: inkColor}))
	m.AddRows(row.New(7).WithStyle(&props.Cell{BackgroundColor: tableBg}).Add(
		text.NewCol(5, "Échéance", props.Text{Size: 9, Style: fontstyle.Bold, Color: inkColor}),
		text.NewCol(5, "Exigibilité", props.Text{Size: 9, Style: fontstyle.Bold, Color: inkColor}),
		text.NewCol(2, "Montant", props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right, Color: inkColor}),
	))
	for _, entry := range c.Schedule {
		m.AddRow(6,
			text.NewCol(5, entry.Label, props.Text{Size: 9, Color: inkColor}),
			text.NewCol(5, entry.Due, props.Text{Size: 9, Color: inkColor}),
			text.NewCol(2, Euro(c.InstallmentAmount(entry)), props.Text{Size: 9, Align: align.Right, Color: inkColor}),
		)
	}
	m.AddRow(8,
		text.NewCol(5, "", props.Text{}),
		text.NewCol(5, "Total", props.Text{Size: 10, Color: mutedColor}),
		text.NewCol(2, Euro(c.AmountTotal), props.Text{Size: 12, Style: fontstyle.Bold, Align: align.Right, Color: inkColor}),
	)
	m.AddRow(3)

	m.AddRow(6, text.NewCol(12, "Conditions légales", props.Text{Size: 11, Style: fontstyle.Bold, Color: inkColor}))
	for _, clause := range c.Legal {
		m.AddRow(8, text.NewCol(12, "• "+clause, props.Text{Size: 8, Color: mutedColor}))
	}
	m.AddRow(3)

	m.AddRow(6, text.NewCol(12, "Signature du client", props.Text{Size: 11, Style: fontstyle.Bold, Color: inkColor}))
	if raw, ext, ok := decodeSignature(c.SignatureDataURL); ok {
		m.AddRow(30, image.NewFromBytesCol(6, raw, ext, props.Rect{Percent: 100}))
	} else {
		m.AddRow(10, line.NewCol(6, props.Line{SizePercent: 100, Color: inkColor}))
	}
	m.AddRow(6, text.NewCol(12, "Fait le "+formatDate(c.IssuedAt), props.Text{Size: 8, Color: mutedColor}))

	doc, err := m.Generate()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render contract pdf")
	}
	return doc.GetBytes(), nil
}

// decodeSignature splits a data URL captured by the signature pad into
// its decoded image bytes and type. Anything unrecognized falls back to
// a blank signature line.
func decodeSignature(dataURL string) ([]byte, extension.Type, bool) {
	if !strings.HasPrefix(dataURL, "data:image") {
		return nil, "", false
	}
	head, payload, found := strings.Cut(dataURL, ",")
	if !found || payload == "" {
		return nil, "", false
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", false
	}
	switch {
	case strings.Contains(head, "image/png"):
		return raw, extension.Png, true
	case strings.Contains(head, "image/jpeg"), strings.Contains(head, "image/jpg"):
		return raw, extension.Jpg, true
	default:
		return nil, "", false
	}
}
