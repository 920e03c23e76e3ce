package shared

import (
	"strings"
	"time"
	"unicode"
)

// ReviewDateLayout is the date stamp format recorded in review markers.
const ReviewDateLayout = "2006-01-02"

// Clock yields the current time; injectable for deterministic tests.
type Clock func() time.Time

// ResolveClock returns the provided clock or the system clock.
func ResolveClock(existingClock Clock) Clock {
	if existingClock != nil {
		return existingClock
	}
	return time.Now
}

// FormatReviewDate renders the clock's current day in marker form.
func FormatReviewDate(clock Clock) string {
	return ResolveClock(clock)().Format(ReviewDateLayout)
}

// DeriveInitials builds reviewer initials from a full name, taking the first
// letter of each word. An empty or letterless name yields an empty string.
func DeriveInitials(fullName string) string {
	var initialsBuilder strings.Builder
	for _, nameWord := range strings.Fields(fullName) {
		for _, wordRune := range nameWord {
			if unicode.IsLetter(wordRune) {
				initialsBuilder.WriteRune(unicode.ToUpper(wordRune))
			}
			break
		}
	}
	return initialsBuilder.String()
}
