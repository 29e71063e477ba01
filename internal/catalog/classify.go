package catalog

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Brand is the coarse manufacturer grouping used to organize model
// selection. It never influences pricing.
type Brand string

const (
	BrandApple   Brand = "Apple"
	BrandSamsung Brand = "Samsung"
	BrandXiaomi  Brand = "Xiaomi"
	BrandOther   Brand = "Autre"
)

// BrandKey identifies a color-database namespace. Samsung splits into the
// S and A series because their color palettes differ per series.
type BrandKey string

const (
	BrandKeyApple    BrandKey = "apple"
	BrandKeySamsungS BrandKey = "samsung_s"
	BrandKeySamsungA BrandKey = "samsung_a"
	BrandKeyXiaomi   BrandKey = "xiaomi"
)

// PartKind tags which physical part a color selection applies to.
type PartKind string

const (
	PartBack  PartKind = "back"
	PartFrame PartKind = "frame"
)

// Label classification is keyword based and intentionally permissive: the
// pricing file is hand-maintained and label wording drifts. Patterns run
// against lowercased, accent-stripped text.
var colorPromptPatterns = []struct {
	part PartKind
	re   *regexp.Regexp
}{
	{PartBack, regexp.MustCompile(`face arriere|dos|back (glass|cover)|coque arriere`)},
	{PartFrame, regexp.MustCompile(`chassis|frame`)},
}

// RequiresColor reports whether a repair label calls for a color prompt
// and, if so, for which part. Unrecognized labels need no color.
func RequiresColor(label string) (PartKind, bool) {
	l := normalizeLabel(label)
	for _, p := range colorPromptPatterns {
		if p.re.MatchString(l) {
			return p.part, true
		}
	}
	return "", false
}

// BrandOfCategory infers the manufacturer from a category label by
// substring matching.
func BrandOfCategory(label string) Brand {
	s := normalizeLabel(label)
	switch {
	case strings.Contains(s, "iphone") || strings.Contains(s, "ipad") || strings.HasPrefix(s, "apple"):
		return BrandApple
	case strings.Contains(s, "samsung") || strings.Contains(s, "galaxy"):
		return BrandSamsung
	case strings.Contains(s, "xiaomi") || strings.Contains(s, "redmi") || strings.Contains(s, "poco") || strings.Contains(s, " mi"):
		return BrandXiaomi
	default:
		return BrandOther
	}
}

// BrandKeyOfCategory maps a category label to its color-database key.
// Categories outside the color database report ok=false.
func BrandKeyOfCategory(label string) (BrandKey, bool) {
	if label == "" {
		return "", false
	}
	c := normalizeLabel(label)
	switch {
	case strings.HasPrefix(c, "iphone"):
		return BrandKeyApple, true
	case strings.Contains(c, "samsung") && samsungSRe.MatchString(c):
		return BrandKeySamsungS, true
	case strings.Contains(c, "samsung") && samsungARe.MatchString(c):
		return BrandKeySamsungA, true
	case strings.Contains(c, "xiaomi") || strings.Contains(c, "redmi") || strings.Contains(c, "poco"):
		return BrandKeyXiaomi, true
	default:
		return "", false
	}
}

// Anchored on the series letter so "galaxy serie a" cannot match the S
// pattern through the "galaxy s" prefix of "galaxy serie".
var (
	samsungSRe = regexp.MustCompile(`serie s\b|galaxy s\d`)
	samsungARe = regexp.MustCompile(`serie a\b|galaxy a\d`)
)

var accentStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

func normalizeLabel(s string) string {
	out, _, err := transform.String(accentStripper, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}
