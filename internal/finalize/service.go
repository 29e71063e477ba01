package finalize

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/recophone/recophone-backend/internal/documents"
	"github.com/recophone/recophone-backend/internal/quote"
	"github.com/recophone/recophone-backend/pkg/db/models"
	pkgerrors "github.com/recophone/recophone-backend/pkg/errors"
	"github.com/recophone/recophone-backend/pkg/logger"
	"github.com/recophone/recophone-backend/pkg/mail"
	"github.com/recophone/recophone-backend/pkg/metrics"
)

const jobName = "finalize-quote"

// Outcome is what the customer gets back after finalizing.
type Outcome struct {
	QuoteNumber string `json:"quote_number"`
	QuoteURL    string `json:"quote_url"`
	ContractURL string `json:"contract_url,omitempty"`
}

// Service runs the finalization sequence: render the documents, upload
// them, email the customer, record the quote and discard the draft.
type Service interface {
	Finalize(ctx context.Context, sessionID string, draft *quote.Draft) (*Outcome, error)
}

type uploader interface {
	Upload(ctx context.Context, folderName, fileName string, content []byte) (string, error)
}

type draftCleaner interface {
	Delete(ctx context.Context, sessionID string) error
}

type recorder interface {
	Save(ctx context.Context, record *models.QuoteRecord) error
}

type service struct {
	documents *documents.Builder
	company   documents.Company
	uploader  uploader
	mailer    mail.Sender
	records   recorder
	drafts    draftCleaner
	jobs      *metrics.JobMetrics
	logg      *logger.Logger
	now       func() time.Time
}

// ServiceParams bundles the dependencies required to build the service.
type ServiceParams struct {
	Documents *documents.Builder
	Company   documents.Company
	Uploader  uploader
	Mailer    mail.Sender
	Records   recorder
	Drafts    draftCleaner
	Jobs      *metrics.JobMetrics
	Logger    *logger.Logger
	Now       func() time.Time
}

// NewService constructs the finalize service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Documents == nil {
		return nil, fmt.Errorf("document builder is required")
	}
	if params.Uploader == nil {
		return nil, fmt.Errorf("uploader is required")
	}
	if params.Mailer == nil {
		return nil, fmt.Errorf("mail sender is required")
	}
	if params.Records == nil {
		return nil, fmt.Errorf("quote recorder is required")
	}
	if params.Drafts == nil {
		return nil, fmt.Errorf("draft store is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		documents: params.Documents,
		company:   params.Company,
		uploader:  params.Uploader,
		mailer:    params.Mailer,
		records:   params.Records,
		drafts:    params.Drafts,
		jobs:      params.Jobs,
		logg:      params.Logger,
		now:       now,
	}, nil
}

// Finalize runs every step in order and stops at the first failure. The
// draft is only discarded after everything else succeeded, so a failed
// attempt leaves the customer free to retry from the same state.
func (s *service) Finalize(ctx context.Context, sessionID string, draft *quote.Draft) (outcome *Outcome, err error) {
	started := s.now()
	defer func() {
		s.jobs.ObserveDuration(jobName, s.now().Sub(started))
		if err != nil {
			s.jobs.IncFailure(jobName)
		} else {
			s.jobs.IncSuccess(jobName)
		}
	}()

	if err = validateDraft(draft); err != nil {
		return nil, err
	}

	now := s.now()
	quoteNumber := NewQuoteNumber(now)
	ctx = s.logg.WithQuoteNumber(ctx, quoteNumber)

	docQuote := buildDocumentQuote(draft, quoteNumber, now)
	quotePDF, err := s.documents.QuotePDF(docQuote)
	if err != nil {
		return nil, err
	}

	var contractPDF []byte
	if draft.Client.PayInTwo {
		contract := documents.Contract{
			Number:           NewContractNumber(now),
			QuoteRef:         quoteNumber,
			IssuedAt:         now,
			Client:           docQuote.Client,
			AmountTotal:      docQuote.Total(),
			Schedule:         documents.PayInTwoSchedule(),
			Legal:            documents.LegalClauses,
			SignatureDataURL: draft.Client.SignatureDataURL,
		}
		if contractPDF, err = s.documents.ContractPDF(contract); err != nil {
			return nil, err
		}
	}

	folder := FolderName(draft.Client.LastName, quoteNumber)
	quoteURL, err := s.uploader.Upload(ctx, folder, QuoteFileName(draft.Client.LastName, quoteNumber), quotePDF)
	if err != nil {
		return nil, err
	}
	contractURL := ""
	if contractPDF != nil {
		if contractURL, err = s.uploader.Upload(ctx, folder, ContractFileName(draft.Client.LastName, quoteNumber), contractPDF); err != nil {
			return nil, err
		}
	}

	if err = s.mailer.Send(ctx, confirmationEmail(s.company, draft.Client, quoteNumber, quoteURL, contractURL, quotePDF, contractPDF)); err != nil {
		return nil, err
	}

	record := buildRecord(draft, quoteNumber, folder, quoteURL, contractURL, now)
	if err = s.records.Save(ctx, record); err != nil {
		return nil, err
	}

	if cleanupErr := s.drafts.Delete(ctx, sessionID); cleanupErr != nil {
		// The quote is sent and recorded; the leftover draft just
		// expires on its own.
		s.logg.Warn(s.logg.WithField(ctx, "error", cleanupErr.Error()), "draft cleanup failed after finalize")
	}

	s.logg.Info(ctx, "quote finalized")
	return &Outcome{QuoteNumber: quoteNumber, QuoteURL: quoteURL, ContractURL: contractURL}, nil
}

func validateDraft(draft *quote.Draft) error {
	if draft == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "no draft to finalize")
	}
	if !draft.CanAdvance(quote.StepRepairs) {
		return pkgerrors.New(pkgerrors.CodeValidation, "no repairs selected")
	}
	if !draft.Client.Valid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "client information incomplete")
	}
	if draft.Client.AtHome && draft.SlotISO == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "no appointment slot selected")
	}
	return nil
}

func buildDocumentQuote(draft *quote.Draft, quoteNumber string, now time.Time) documents.Quote {
	client := documents.Client{
		FirstName: draft.Client.FirstName,
		LastName:  draft.Client.LastName,
		Email:     draft.Client.Email,
		Phone:     draft.Client.Phone,
	}
	if draft.Client.AtHome && draft.Client.Address != nil {
		client.Address = draft.Client.Address.Text()
	}

	devices := make([]documents.Device, 0, len(draft.Devices))
	for _, dev := range draft.Devices {
		if len(dev.Items) == 0 {
			continue
		}
		items := make([]documents.Item, 0, len(dev.Items))
		for _, it := range dev.Items {
			item := documents.Item{Label: it.Label, Price: it.Price, Qty: it.Quantity}
			if it.Meta != nil {
				item.HasMeta = true
				item.Color = it.Meta.Color
				item.PartKind = it.Meta.PartKind
			}
			items = append(items, item)
		}
		devices = append(devices, documents.Device{Category: dev.Category, Model: dev.Model, Items: items})
	}

	travelFee := decimal.Zero
	if draft.Client.AtHome && draft.Client.TravelFee != nil {
		travelFee = *draft.Client.TravelFee
	}

	return documents.Quote{
		Number:           quoteNumber,
		IssuedAt:         now,
		Client:           client,
		Devices:          devices,
		TravelFee:        travelFee,
		PayInTwo:         draft.Client.PayInTwo,
		SignatureDataURL: draft.Client.SignatureDataURL,
	}
}

func confirmationEmail(company documents.Company, client quote.ClientInfo, quoteNumber, quoteURL, contractURL string, quotePDF, contractPDF []byte) mail.Message {
	attachments := []mail.Attachment{
		{Name: "devis_" + quoteNumber + ".pdf", Content: quotePDF},
	}
	contractHTML := ""
	contractText := ""
	if contractPDF != nil {
		attachments = append(attachments, mail.Attachment{Name: "contrat_" + quoteNumber + ".pdf", Content: contractPDF})
		contractHTML = fmt.Sprintf(`<li>Contrat : <a href="%s">%s</a></li>`, contractURL, contractURL)
		contractText = "- Contrat : " + contractURL + "\n"
	}

	html := fmt.Sprintf(`<p>Bonjour %s,</p>
<p>Merci pour votre demande. Vous trouverez ci-joint votre <strong>devis</strong>%s.</p>
<p>Liens de téléchargement :</p>
<ul>
<li>Devis : <a href="%s">%s</a></li>
%s</ul>
<p>Nous restons à votre disposition.<br/>%s</p>`,
		client.FirstName, contractSuffixHTML(contractPDF), quoteURL, quoteURL, contractHTML, company.Name)

	text := fmt.Sprintf(`Bonjour %s,

Merci pour votre demande. Vous trouverez ci-joint votre devis%s.
Liens de téléchargement :
- Devis : %s
%s
Nous restons à votre disposition.
%s`,
		client.FirstName, contractSuffixText(contractPDF), quoteURL, contractText, company.Name)

	return mail.Message{
		To:          client.Email,
		Subject:     fmt.Sprintf("Votre devis %s – %s", company.Name, quoteNumber),
		HTML:        html,
		Text:        text,
		Attachments: attachments,
	}
}

func contractSuffixHTML(contractPDF []byte) string {
	if contractPDF == nil {
		return ""
	}
	return " et le <strong>contrat</strong>"
}

func contractSuffixText(contractPDF []byte) string {
	if contractPDF == nil {
		return ""
	}
	return " et le contrat"
}

func buildRecord(draft *quote.Draft, quoteNumber, folder, quoteURL, contractURL string, now time.Time) *models.QuoteRecord {
	total := draft.Total().Round(2)
	deposit := decimal.Zero
	balance := total
	if draft.Client.PayInTwo {
		deposit = total.Div(decimal.NewFromInt(2)).Round(2)
		balance = total.Sub(deposit)
	}

	serviceMode := "atelier"
	address := ""
	if draft.Client.AtHome {
		serviceMode = "domicile"
		if draft.Client.Address != nil {
			address = draft.Client.Address.Text()
		}
	}

	// Amounts are rounded to the cent above; the numeric columns store
	// the exact same figure.
	var travelFee *float64
	if draft.Client.TravelFee != nil {
		v := draft.Client.TravelFee.Round(2).InexactFloat64()
		travelFee = &v
	}

	record := &models.QuoteRecord{
		ID:             uuid.New(),
		QuoteNumber:    quoteNumber,
		FirstName:      draft.Client.FirstName,
		LastName:       draft.Client.LastName,
		Email:          draft.Client.Email,
		Phone:          draft.Client.Phone,
		Address:        address,
		ServiceMode:    serviceMode,
		TravelKm:       draft.Client.DistanceKm,
		TravelFeeEUR:   travelFee,
		TotalEUR:       total.InexactFloat64(),
		DepositEUR:     deposit.InexactFloat64(),
		BalanceEUR:     balance.InexactFloat64(),
		QuotePDFURL:    quoteURL,
		ContractPDFURL: contractURL,
		FolderName:     folder,
	}

	if raw, err := json.Marshal(draft.Devices); err == nil {
		record.Devices = raw
	}
	if draft.SlotISO != "" {
		if slot, err := time.Parse(time.RFC3339, draft.SlotISO); err == nil {
			day := time.Date(slot.Year(), slot.Month(), slot.Day(), 0, 0, 0, 0, slot.Location())
			record.AppointmentDate = &day
			record.AppointmentSlot = slot.Format("15:04")
		}
	}

	sent := now
	record.EmailSentAt = &sent
	return record
}
