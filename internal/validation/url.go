package validation

import (
	"fmt"
	"net/url"
	"strings"
)

// URLValidationError reports which field held a bad URL and why it
// was rejected.
type URLValidationError struct {
	Field   string
	Message string
	URL     string
}

func (e URLValidationError) Error() string {
	return fmt.Sprintf("%s: %s (url: %s)", e.Field, e.Message, e.URL)
}

// ValidateURL checks that a value is an absolute http or https URL with
// a host. An empty value passes; whether the field is required at all is
// the caller's concern. With requireHTTPS set, plain http is rejected
// too, which production config enforces for the public base URL.
func ValidateURL(urlString, fieldName string, requireHTTPS bool) error {
	if urlString == "" {
		return nil
	}

	parsedURL, err := url.Parse(urlString)
	if err != nil {
		return URLValidationError{
			Field:   fieldName,
			Message: "invalid URL format",
			URL:     urlString,
		}
	}

	if parsedURL.Scheme == "" {
		return URLValidationError{
			Field:   fieldName,
			Message: "URL must include a scheme (http:// or https://)",
			URL:     urlString,
		}
	}

	if parsedURL.Host == "" {
		return URLValidationError{
			Field:   fieldName,
			Message: "URL must include a host",
			URL:     urlString,
		}
	}

	scheme := strings.ToLower(parsedURL.Scheme)
	if requireHTTPS && scheme != "https" {
		return URLValidationError{
			Field:   fieldName,
			Message: "URL must use HTTPS in production",
			URL:     urlString,
		}
	}

	if scheme != "http" && scheme != "https" {
		return URLValidationError{
			Field:   fieldName,
			Message: "URL scheme must be http or https",
			URL:     urlString,
		}
	}

	return nil
}

// ValidateBaseURL validates the configured public base URL.
// Base URLs must not have paths, query parameters, or fragments.
func ValidateBaseURL(urlString, fieldName string, requireHTTPS bool) error {
	if err := ValidateURL(urlString, fieldName, requireHTTPS); err != nil {
		return err
	}

	if urlString == "" {
		return nil
	}

	parsedURL, _ := url.Parse(urlString) // Already validated above

	if parsedURL.Path != "" && parsedURL.Path != "/" {
		return URLValidationError{
			Field:   fieldName,
			Message: "base URL must not contain a path",
			URL:     urlString,
		}
	}

	if parsedURL.RawQuery != "" {
		return URLValidationError{
			Field:   fieldName,
			Message: "base URL must not contain query parameters",
			URL:     urlString,
		}
	}

	if parsedURL.Fragment != "" {
		return URLValidationError{
			Field:   fieldName,
			Message: "base URL must not contain a fragment",
			URL:     urlString,
		}
	}

	return nil
}
