package validation

import (
	"net/http"

	"github.com/itchan-dev/imagestore/shared/errors"
)

// ErrPayloadTooLarge is returned when the request body exceeds size limits
var ErrPayloadTooLarge = &errors.ErrorWithStatusCode{Message: "payload too large", StatusCode: http.StatusRequestEntityTooLarge}

// ErrMissingFile is returned when the multipart form has no file under the expected field
var ErrMissingFile = &errors.ErrorWithStatusCode{Message: "missing file", StatusCode: http.StatusBadRequest}
