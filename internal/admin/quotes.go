package admin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/recophone/recophone-backend/pkg/db"
	"github.com/recophone/recophone-backend/pkg/db/models"
	pkgerrors "github.com/recophone/recophone-backend/pkg/errors"
)

const (
	defaultPerPage = 25
	maxPerPage     = 100
)

// ListQuotesParams filters and paginates the back-office quote list.
type ListQuotesParams struct {
	Page    int    `json:"page"`
	PerPage int    `json:"per_page"`
	Search  string `json:"search"`
}

func (p ListQuotesParams) normalized() ListQuotesParams {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PerPage < 1 {
		p.PerPage = defaultPerPage
	}
	if p.PerPage > maxPerPage {
		p.PerPage = maxPerPage
	}
	p.Search = strings.TrimSpace(p.Search)
	return p
}

// QuoteSummary is the back-office view of one finalized quote.
type QuoteSummary struct {
	QuoteNumber     string          `json:"quote_number"`
	FirstName       string          `json:"first_name"`
	LastName        string          `json:"last_name"`
	Email           string          `json:"email"`
	Phone           string          `json:"phone"`
	Address         string          `json:"address,omitempty"`
	ServiceMode     string          `json:"service_mode"`
	TravelKm        *float64        `json:"travel_km,omitempty"`
	TravelFeeEUR    *float64        `json:"travel_fee_eur,omitempty"`
	Devices         json.RawMessage `json:"devices,omitempty"`
	TotalEUR        float64         `json:"total_eur"`
	DepositEUR      float64         `json:"deposit_eur"`
	BalanceEUR      float64         `json:"balance_eur"`
	AppointmentDate *time.Time      `json:"appointment_date,omitempty"`
	AppointmentSlot string          `json:"appointment_slot,omitempty"`
	QuotePDFURL     string          `json:"quote_pdf_url,omitempty"`
	ContractPDFURL  string          `json:"contract_pdf_url,omitempty"`
	FolderName      string          `json:"folder_name"`
	CreatedAt       time.Time       `json:"created_at"`
}

// QuoteList is one page of results.
type QuoteList struct {
	Items   []QuoteSummary `json:"items"`
	Page    int            `json:"page"`
	PerPage int            `json:"per_page"`
	Total   int64          `json:"total"`
}

type quoteLister interface {
	List(ctx context.Context, params ListQuotesParams) (*QuoteList, error)
	Get(ctx context.Context, quoteNumber string) (*QuoteSummary, error)
}

// QuoteRepository reads finalized quotes for the back office.
type QuoteRepository struct {
	db *db.Client
}

// NewQuoteRepository wraps the shared database client.
func NewQuoteRepository(client *db.Client) (*QuoteRepository, error) {
	if client == nil {
		return nil, fmt.Errorf("db client is required")
	}
	return &QuoteRepository{db: client}, nil
}

// List returns a page of quotes, newest first. Search matches the quote
// number, last name or email.
func (r *QuoteRepository) List(ctx context.Context, params ListQuotesParams) (*QuoteList, error) {
	params = params.normalized()

	query := r.db.DB().WithContext(ctx).Model(&models.QuoteRecord{})
	if params.Search != "" {
		needle := "%" + strings.ToLower(params.Search) + "%"
		query = query.Where(
			"lower(quote_number) LIKE ? OR lower(last_name) LIKE ? OR lower(email) LIKE ?",
			needle, needle, needle,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count quotes")
	}

	var records []models.QuoteRecord
	err := query.
		Order("created_at DESC").
		Limit(params.PerPage).
		Offset((params.Page - 1) * params.PerPage).
		Find(&records).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list quotes")
	}

	items := make([]QuoteSummary, 0, len(records))
	for i := range records {
		items = append(items, toSummary(&records[i]))
	}
	return &QuoteList{Items: items, Page: params.Page, PerPage: params.PerPage, Total: total}, nil
}

// Get resolves one quote by its display number.
func (r *QuoteRepository) Get(ctx context.Context, quoteNumber string) (*QuoteSummary, error) {
	var record models.QuoteRecord
	err := r.db.DB().WithContext(ctx).
		Where("quote_number = ?", quoteNumber).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "quote not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load quote")
	}
	summary := toSummary(&record)
	return &summary, nil
}

func toSummary(record *models.QuoteRecord) QuoteSummary {
	return QuoteSummary{
		QuoteNumber:     record.QuoteNumber,
		FirstName:       record.FirstName,
		LastName:        record.LastName,
		Email:           record.Email,
		Phone:           record.Phone,
		Address:         record.Address,
		ServiceMode:     record.ServiceMode,
		TravelKm:        record.TravelKm,
		TravelFeeEUR:    record.TravelFeeEUR,
		Devices:         json.RawMessage(record.Devices),
		TotalEUR:        record.TotalEUR,
		DepositEUR:      record.DepositEUR,
		BalanceEUR:      record.BalanceEUR,
		AppointmentDate: record.AppointmentDate,
		AppointmentSlot: record.AppointmentSlot,
		QuotePDFURL:     record.QuotePDFURL,
		ContractPDFURL:  record.ContractPDFURL,
		FolderName:      record.FolderName,
		CreatedAt:       record.CreatedAt,
	}
}
