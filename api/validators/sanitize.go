package validators

import (
	"strings"
	"unicode"
)

func SanitizeString(input string, maxLen int) string {
	trimmed := strings.TrimSpace(input)
	if maxLen > 0 && len(trimmed) > maxLen {
		return trimmed[:maxLen]
	}
	return trimmed
}

// CountDigits returns how many decimal digits the string contains. Phone
// numbers are validated on digit count, not format.
func CountDigits(input string) int {
	count := 0
	for _, r := range input {
		if unicode.IsDigit(r) {
			count++
		}
	}
	return count
}
