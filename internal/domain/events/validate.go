package events

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/alumni-informatik/events-server/internal/validation"
)

// localDateTimeLayout is the shape of the datetime-local form inputs:
// naive wall-clock time with no offset.
const localDateTimeLayout = "2006-01-02T15:04"

const maxTagLength = 50

var validate = validator.New(validator.WithRequiredStructEnabled())

// SanitizeText trims surrounding whitespace and truncates to maxLen
// Unicode code points. An empty result is valid unless the field is
// required.
func SanitizeText(input string, maxLen int) string {
	input = strings.TrimSpace(input)
	if maxLen > 0 && utf8.RuneCountInString(input) > maxLen {
		runes := []rune(input)
		input = strings.TrimSpace(string(runes[:maxLen]))
	}
	return input
}

// ParseTags splits a comma-separated string into an ordered tag list.
// Pieces are trimmed; empty pieces and pieces longer than 50 code
// points are dropped. Order is preserved, duplicates are not removed.
func ParseTags(raw string) []string {
	tags := []string{}
	for _, piece := range strings.Split(raw, ",") {
		tag := strings.TrimSpace(piece)
		if tag == "" || utf8.RuneCountInString(tag) > maxTagLength {
			continue
		}
		tags = append(tags, tag)
	}
	return tags
}

// ParseLocalDateTime interprets a naive YYYY-MM-DDTHH:MM string as
// wall-clock time in loc, producing an absolute instant with offset.
// Returns ErrInvalidDate when the string does not match the expected
// shape or does not name a real calendar time.
func ParseLocalDateTime(value string, loc *time.Location) (time.Time, error) {
	parsed, err := time.ParseInLocation(localDateTimeLayout, value, loc)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	// ParseInLocation normalizes impossible dates (Feb 30 becomes Mar 2);
	// a round-trip mismatch means the input was not a real calendar time.
	if parsed.Format(localDateTimeLayout) != value {
		return time.Time{}, ErrInvalidDate
	}
	return parsed, nil
}

// sanitizeInput trims and truncates every text field in place, the same
// way for create and update.
func sanitizeInput(input *EventInput) {
	input.Title = SanitizeText(input.Title, 140)
	input.Start = strings.TrimSpace(input.Start)
	input.End = strings.TrimSpace(input.End)
	input.Location = SanitizeText(input.Location, 140)
	input.URL = SanitizeText(input.URL, 500)
	input.Tags = SanitizeText(input.Tags, 500)
	input.Description = SanitizeText(input.Description, 5000)
}

// validateInput checks the sanitized input and resolves the date fields.
// All text and date validation happens here, before any image handling
// or file write, so a malformed request is never partially applied.
func validateInput(input EventInput, loc *time.Location) (start time.Time, end *time.Time, err error) {
	if verr := validate.Struct(input); verr != nil {
		var invalid validator.ValidationErrors
		if errors.As(verr, &invalid) && len(invalid) > 0 {
			return time.Time{}, nil, fieldErrorFor(invalid[0])
		}
		return time.Time{}, nil, verr
	}

	start, err = ParseLocalDateTime(input.Start, loc)
	if err != nil {
		return time.Time{}, nil, FieldError{Field: "start", Message: "invalid date"}
	}

	if input.End != "" {
		parsed, perr := ParseLocalDateTime(input.End, loc)
		if perr != nil {
			return time.Time{}, nil, FieldError{Field: "end", Message: "invalid date"}
		}
		if !parsed.After(start) {
			return time.Time{}, nil, FieldError{Field: "end", Message: "end must be after start"}
		}
		end = &parsed
	}

	if uerr := validation.ValidateURL(input.URL, "url", false); uerr != nil {
		return time.Time{}, nil, FieldError{Field: "url", Message: "invalid URL"}
	}

	return start, end, nil
}

func fieldErrorFor(fe validator.FieldError) FieldError {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return FieldError{Field: field, Message: "is required"}
	case "max":
		return FieldError{Field: field, Message: "exceeds maximum length of " + fe.Param() + " characters"}
	default:
		return FieldError{Field: field, Message: "is invalid"}
	}
}
