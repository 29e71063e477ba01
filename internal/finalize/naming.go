package finalize

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// File and folder names follow the back-office convention:
// folder "DUPONT_Q202508201430AB12 DEVIS", files "DUPONT_DEVIS<ref>.pdf"
// and "DUPONT_CONTRAT<ref>.pdf".

var (
	accentStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	nonRefChars    = regexp.MustCompile(`[^A-Za-z0-9]+`)
	nonNameChars   = regexp.MustCompile(`[^A-Z0-9 ]+`)
	spaceRuns      = regexp.MustCompile(`\s+`)
)

// SafeLastName turns a customer last name into its folder-safe form:
// accents stripped, uppercased, punctuation collapsed to spaces.
func SafeLastName(name string) string {
	stripped, _, err := transform.String(accentStripper, name)
	if err != nil {
		stripped = name
	}
	upper := strings.ToUpper(stripped)
	upper = nonNameChars.ReplaceAllString(upper, " ")
	upper = strings.TrimSpace(spaceRuns.ReplaceAllString(upper, " "))
	if upper == "" {
		return "CLIENT"
	}
	return upper
}

// CompactRef strips separators from a document number so it can sit
// inside a file name.
func CompactRef(ref string) string {
	return nonRefChars.ReplaceAllString(ref, "")
}

// FolderName is the per-customer folder both PDFs land in.
func FolderName(lastName, quoteNumber string) string {
	return SafeLastName(lastName) + "_" + CompactRef(quoteNumber) + " DEVIS"
}

// QuoteFileName names the quote PDF inside the folder.
func QuoteFileName(lastName, quoteNumber string) string {
	return SafeLastName(lastName) + "_DEVIS" + CompactRef(quoteNumber) + ".pdf"
}

// ContractFileName names the contract PDF inside the folder.
func ContractFileName(lastName, quoteNumber string) string {
	return SafeLastName(lastName) + "_CONTRAT" + CompactRef(quoteNumber) + ".pdf"
}

// NewQuoteNumber allocates a display number like Q-20250820-143000-AB12.
func NewQuoteNumber(now time.Time) string {
	return newDocumentNumber("Q", now)
}

// NewContractNumber allocates the matching contract number.
func NewContractNumber(now time.Time) string {
	return newDocumentNumber("C", now)
}

func newDocumentNumber(prefix string, now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:4]
	return fmt.Sprintf("%s-%s-%s", prefix, now.Format("20060102-150405"), suffix)
}
