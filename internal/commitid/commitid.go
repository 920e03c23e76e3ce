package commitid

import "strings"

const (
	// ShortLength is the abbreviated hash length stored in marker lines.
	ShortLength = 12

	minimumPlausibleLengthConstant = 7
	maximumPlausibleLengthConstant = 40
)

// Equal compares two commit identifiers ignoring case and abbreviation length.
// Identifiers are considered equal when the shorter one is a prefix of the
// longer one, so a 12-character marker hash matches the full 40-character id.
func Equal(firstIdentifier string, secondIdentifier string) bool {
	trimmedFirst := strings.ToLower(strings.TrimSpace(firstIdentifier))
	trimmedSecond := strings.ToLower(strings.TrimSpace(secondIdentifier))
	if len(trimmedFirst) == 0 || len(trimmedSecond) == 0 {
		return false
	}

	comparisonLength := len(trimmedFirst)
	if len(trimmedSecond) < comparisonLength {
		comparisonLength = len(trimmedSecond)
	}

	return trimmedFirst[:comparisonLength] == trimmedSecond[:comparisonLength]
}

// Shorten abbreviates a commit identifier to the marker hash length.
func Shorten(identifier string) string {
	trimmedIdentifier := strings.TrimSpace(identifier)
	if len(trimmedIdentifier) <= ShortLength {
		return trimmedIdentifier
	}
	return trimmedIdentifier[:ShortLength]
}

// IsPlausible reports whether the value has the shape of a git commit
// identifier: hexadecimal characters within abbreviation bounds.
func IsPlausible(value string) bool {
	trimmedValue := strings.TrimSpace(value)
	if len(trimmedValue) < minimumPlausibleLengthConstant || len(trimmedValue) > maximumPlausibleLengthConstant {
		return false
	}

	for _, character := range trimmedValue {
		isDigit := character >= '0' && character <= '9'
		isLowerHex := character >= 'a' && character <= 'f'
		isUpperHex := character >= 'A' && character <= 'F'
		if !isDigit && !isLowerHex && !isUpperHex {
			return false
		}
	}

	return true
}
