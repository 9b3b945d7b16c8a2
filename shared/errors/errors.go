package errors

import "net/http"

// default error is internal service error at handler level
// if error has different status code use ErrorWithStatusCode
type ErrorWithStatusCode struct {
	Message    string
	StatusCode int
}

func (e *ErrorWithStatusCode) Error() string {
	return e.Message
}

// Error kinds returned by the image service. Callers wrap them with fmt.Errorf("%w")
// and compare with errors.Is.
var (
	ErrUnsupportedMediaType = &ErrorWithStatusCode{Message: "unsupported media type", StatusCode: http.StatusUnsupportedMediaType}
	ErrInvalidIdentifier    = &ErrorWithStatusCode{Message: "invalid identifier", StatusCode: http.StatusBadRequest}
	ErrRecordNotFound       = &ErrorWithStatusCode{Message: "image record not found", StatusCode: http.StatusNoContent}
	ErrFileNotFound         = &ErrorWithStatusCode{Message: "image file not found", StatusCode: http.StatusNotFound}
	ErrStorageIO            = &ErrorWithStatusCode{Message: "storage I/O failure", StatusCode: http.StatusInternalServerError}
)
