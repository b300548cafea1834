package places

import "fmt"

// APIStatusError reports a non-success response from a Maps API endpoint,
// either at the HTTP layer or in the body's status field.
type APIStatusError struct {
	Status   string // API status field, e.g. "REQUEST_DENIED"; empty for pure HTTP failures
	HTTPCode int
	URL      string // request URL with the API key redacted
}

func (e *APIStatusError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("places: api status %s (http %d): %s", e.Status, e.HTTPCode, e.URL)
	}
	return fmt.Sprintf("places: http %d: %s", e.HTTPCode, e.URL)
}

// ResolutionError reports a postal code the geocoder could not resolve.
type ResolutionError struct {
	PostalCode  string
	CountryCode string
	URL         string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("places: postal code %s (%s) not found by geocoder: %s",
		e.PostalCode, e.CountryCode, e.URL)
}
