package response

import "strconv"

// StatusCode represents HTTP status codes
type StatusCode int

const (
	StatusOK                  StatusCode = 200
	StatusMovedPermanently    StatusCode = 301
	StatusBadRequest          StatusCode = 400
	StatusForbidden           StatusCode = 403
	StatusNotFound            StatusCode = 404
	StatusInternalServerError StatusCode = 500
)

// statusText maps status codes to reason phrases
var statusText = map[StatusCode]string{
	StatusOK:                  "OK",
	StatusMovedPermanently:    "Moved Permanently",
	StatusBadRequest:          "Bad Request",
	StatusForbidden:           "Forbidden",
	StatusNotFound:            "Not Found",
	StatusInternalServerError: "Internal Server Error",
}

// defaultMessage is the sentence shown on error pages when the caller has
// nothing more specific to say.
var defaultMessage = map[StatusCode]string{
	StatusBadRequest:          "Your browser sent a request that this server could not understand.",
	StatusForbidden:           "You don't have permission to access the requested URL.",
	StatusNotFound:            "The requested URL was not found on this server.",
	StatusInternalServerError: "The server encountered an internal error and was unable to complete your request.",
}

// StatusText returns the text description for a status code
func StatusText(code StatusCode) string {
	if text, ok := statusText[code]; ok {
		return text
	}
	return "Unknown Status"
}

// StatusLine returns "<code> <text>", the form used in logs.
func (code StatusCode) StatusLine() string {
	return strconv.Itoa(int(code)) + " " + StatusText(code)
}

// IsSuccess returns true for 2xx status codes
func (code StatusCode) IsSuccess() bool {
	return code >= 200 && code < 300
}

// IsRedirect returns true for 3xx status codes
func (code StatusCode) IsRedirect() bool {
	return code >= 300 && code < 400
}

// IsClientError returns true for 4xx status codes
func (code StatusCode) IsClientError() bool {
	return code >= 400 && code < 500
}

// IsServerError returns true for 5xx status codes
func (code StatusCode) IsServerError() bool {
	return code >= 500 && code < 600
}

// IsError returns true for 4xx or 5xx status codes
func (code StatusCode) IsError() bool {
	return code.IsClientError() || code.IsServerError()
}
