package tastypie

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Usage errors: the caller broke the contract of an operation.
var (
	ErrResourceTypeMissing   = errors.New("resource type is missing")
	ErrResourceIDMissing     = errors.New("resource id is missing and no filter was given")
	ErrNoMatch               = errors.New("no resource matches the filters")
	ErrTooManyResources      = errors.New("too many resources match the filters")
	ErrFlattenMultipleFields = errors.New("can't flatten more than one field")
	ErrIndexOutOfRange       = errors.New("index out of range")
	ErrFieldNotFound         = errors.New("field not found")
	ErrUnknownEndpoint       = errors.New("unknown endpoint")
	ErrServiceURLRequired    = errors.New("service URL is required")
	ErrConfigRequired        = errors.New("config is required")
)

// Data errors: the remote service broke the wire contract.
var (
	ErrMissingFromBatch     = errors.New("id neither returned nor reported as not found")
	ErrMalformedResourceURL = errors.New("malformed resource URL")
	ErrMalformedPayload     = errors.New("malformed payload")
	ErrIncompleteWindow     = errors.New("window response is missing objects")
	ErrNotAResource         = errors.New("item is not a resource")
	ErrInvalidServiceURL    = errors.New("invalid service URL")
)

// BadHTTPStatusError is returned for any GET that does not answer 200.
type BadHTTPStatusError struct {
	URL        string
	StatusCode int
	// Message is the server's error_message, when the body carried one.
	Message string
	Body    []byte
}

// Error implements the error interface.
func (e *BadHTTPStatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s returned an invalid status code: %d (%s)", e.URL, e.StatusCode, e.Message)
	}

	return fmt.Sprintf("%s returned an invalid status code: %d", e.URL, e.StatusCode)
}

// NewBadHTTPStatusError builds the error for a non-200 response, picking up
// the Tastypie error_message when the body is a JSON object carrying one.
func NewBadHTTPStatusError(url string, statusCode int, body []byte) *BadHTTPStatusError {
	statusErr := &BadHTTPStatusError{
		URL:        url,
		StatusCode: statusCode,
		Body:       body,
	}

	var payload struct {
		ErrorMessage string `json:"error_message"`
	}

	if json.Unmarshal(body, &payload) == nil {
		statusErr.Message = payload.ErrorMessage
	}

	return statusErr
}

// IsBadHTTPStatus reports whether err carries a non-200 response.
func IsBadHTTPStatus(err error) bool {
	statusErr := &BadHTTPStatusError{}

	return errors.As(err, &statusErr)
}

// IsNotFound checks if the error is a 404 from the service.
func IsNotFound(err error) bool {
	statusErr := &BadHTTPStatusError{}
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode == http.StatusNotFound
	}

	return false
}
