package locations

import (
	"regexp"
	"strings"

	"github.com/expopass/server/internal/sanitize"
)

var collapseSpaces = regexp.MustCompile(`\s{2,}`)

// NormalizeCode canonicalizes a country or state code: trimmed and
// uppercased, so "in" and "IN" key the same country.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// NormalizeName produces the collation key used for case-insensitive
// name matching: sanitized plain text, trimmed, internal whitespace
// collapsed, lowercased. "Mumbai" and " mumbai " collate equal.
func NormalizeName(name string) string {
	cleaned := CleanText(name)
	return strings.ToLower(cleaned)
}

// CleanText strips markup and normalizes whitespace without changing
// case. Used for the display form of imported free text.
func CleanText(value string) string {
	cleaned := sanitize.Text(value)
	cleaned = strings.TrimSpace(cleaned)
	return collapseSpaces.ReplaceAllString(cleaned, " ")
}

// NormalizeArea canonicalizes the area component of the postal-code
// compound key. Empty string stays empty: it is a valid, distinct area
// and must match exactly on dedup.
func NormalizeArea(area string) string {
	return CleanText(area)
}

var pincodePattern = regexp.MustCompile(`^[0-9A-Za-z][0-9A-Za-z -]{1,9}$`)

// ValidPincode reports whether a postal code passes the length/pattern
// check. Country-specific validation is out of scope.
func ValidPincode(code string) bool {
	return pincodePattern.MatchString(strings.TrimSpace(code))
}

// ValidCountryCode reports whether code is a 2-letter country code.
var countryCodePattern = regexp.MustCompile(`^[A-Za-z]{2}$`)

func ValidCountryCode(code string) bool {
	return countryCodePattern.MatchString(strings.TrimSpace(code))
}
