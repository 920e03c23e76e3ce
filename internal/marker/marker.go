package marker

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// DefaultCommentToken introduces marker lines in Python-style sources.
	DefaultCommentToken = "#"

	validatedKeywordConstant           = "validated:"
	notrackKeywordConstant             = "notrack"
	novalidateKeywordConstant          = "novalidate"
	markerFieldSeparatorConstant       = " "
	markerAbsentMessageConstant        = "review marker not present"
	markerConflictTemplateConstant     = "%s: multiple review markers in leading block"
	malformedMarkerTemplateConstant    = "%s: malformed review marker %q"
	validatedMinimumFieldCountConstant = 3
)

// ErrMarkerAbsent indicates a file carries no review marker.
var ErrMarkerAbsent = errors.New(markerAbsentMessageConstant)

// ConflictError reports a file whose leading block contains more than one marker.
type ConflictError struct {
	FilePath string
}

// Error describes the conflicting markers.
func (conflictError ConflictError) Error() string {
	return fmt.Sprintf(markerConflictTemplateConstant, conflictError.FilePath)
}

// MalformedError reports a marker line that could not be parsed.
type MalformedError struct {
	FilePath string
	Line     string
}

// Error describes the unparsable marker line.
func (malformedError MalformedError) Error() string {
	return fmt.Sprintf(malformedMarkerTemplateConstant, malformedError.FilePath, malformedError.Line)
}

// Marker records the review provenance of one validated file.
type Marker struct {
	NoTrack          bool
	ReviewDate       string
	ReviewerInitials string
	CommitHash       string
	UpstreamPaths    []string
}

// Convention controls how marker lines are written for a source dialect.
type Convention struct {
	CommentToken string
}

// DefaultConvention returns the convention for hash-commented sources.
func DefaultConvention() Convention {
	return Convention{CommentToken: DefaultCommentToken}
}

// Format renders the marker as a comment line without a trailing newline.
func (convention Convention) Format(reviewMarker Marker) string {
	commentToken := convention.commentToken()
	if reviewMarker.NoTrack {
		return commentToken + markerFieldSeparatorConstant + notrackKeywordConstant
	}

	markerFields := []string{commentToken, validatedKeywordConstant, reviewMarker.ReviewDate, reviewMarker.ReviewerInitials, reviewMarker.CommitHash}
	markerFields = append(markerFields, reviewMarker.UpstreamPaths...)
	return strings.Join(markerFields, markerFieldSeparatorConstant)
}

func (convention Convention) commentToken() string {
	if len(strings.TrimSpace(convention.CommentToken)) == 0 {
		return DefaultCommentToken
	}
	return convention.CommentToken
}

// parseLine interprets one comment line as a marker. The second return value
// reports whether the line is a marker line at all.
func (convention Convention) parseLine(line string) (Marker, bool, error) {
	trimmedLine := strings.TrimSpace(line)
	commentToken := convention.commentToken()
	if !strings.HasPrefix(trimmedLine, commentToken) {
		return Marker{}, false, nil
	}

	commentBody := strings.TrimSpace(strings.TrimPrefix(trimmedLine, commentToken))
	if commentBody == notrackKeywordConstant || commentBody == novalidateKeywordConstant {
		return Marker{NoTrack: true}, true, nil
	}

	if !strings.HasPrefix(commentBody, validatedKeywordConstant) {
		return Marker{}, false, nil
	}

	fieldText := strings.TrimSpace(strings.TrimPrefix(commentBody, validatedKeywordConstant))
	markerFields := strings.Fields(fieldText)
	if len(markerFields) < validatedMinimumFieldCountConstant {
		return Marker{}, true, errors.New(line)
	}

	parsedMarker := Marker{
		ReviewDate:       markerFields[0],
		ReviewerInitials: markerFields[1],
		CommitHash:       markerFields[2],
	}
	if len(markerFields) > validatedMinimumFieldCountConstant {
		parsedMarker.UpstreamPaths = append([]string{}, markerFields[validatedMinimumFieldCountConstant:]...)
	}
	return parsedMarker, true, nil
}
