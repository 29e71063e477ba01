package models

import (
	"time"

	"github.com/google/uuid"
)

// QuoteRecord is the persisted trace of a finalized quote. The live draft
// lives in Redis; once a customer finalizes, the outcome is recorded here so
// the admin back office can list past quotes and re-download the documents.
type QuoteRecord struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	QuoteNumber string    `gorm:"column:quote_number;type:text;not null;uniqueIndex"`

	FirstName string `gorm:"column:first_name;not null"`
	LastName  string `gorm:"column:last_name;not null"`
	Email     string `gorm:"column:email;not null"`
	Phone     string `gorm:"column:phone;not null"`
	Address   string `gorm:"column:address;not null"`

	ServiceMode  string   `gorm:"column:service_mode;not null"`
	TravelKm     *float64 `gorm:"column:travel_km"`
	TravelFeeEUR *float64 `gorm:"column:travel_fee_eur"`

	// Devices and repair lines as selected in the wizard, stored as JSON.
	Devices    []byte  `gorm:"column:devices;type:text"`
	TotalEUR   float64 `gorm:"column:total_eur;not null;default:0"`
	DepositEUR float64 `gorm:"column:deposit_eur"`
	BalanceEUR float64 `gorm:"column:balance_eur"`

	AppointmentDate *time.Time `gorm:"column:appointment_date"`
	AppointmentSlot string     `gorm:"column:appointment_slot"`

	QuotePDFURL    string `gorm:"column:quote_pdf_url"`
	ContractPDFURL string `gorm:"column:contract_pdf_url"`
	FolderName     string `gorm:"column:folder_name;not null"`

	EmailSentAt *time.Time `gorm:"column:email_sent_at"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName keeps the table name stable across drivers.
func (QuoteRecord) TableName() string {
	return "quote_records"
}
