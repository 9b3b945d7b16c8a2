package utils

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/itchan-dev/imagestore/shared/errors"
	"github.com/itchan-dev/imagestore/shared/logger"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// WriteErrorAndStatusCode maps err onto an HTTP response.
// Client errors carry their message, server errors are logged and answered generically.
func WriteErrorAndStatusCode(w http.ResponseWriter, err error) {
	var e *errors.ErrorWithStatusCode
	if stderrors.As(err, &e) && e.StatusCode < http.StatusInternalServerError {
		http.Error(w, err.Error(), e.StatusCode)
		return
	}
	// default error is 500
	logger.Log.Error("request failed", "error", err)
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}

// ParseUUID parses an identifier taken from a path or form field.
func ParseUUID(raw, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s %q", errors.ErrInvalidIdentifier, name, raw)
	}
	return id, nil
}

// Validate runs struct tag validation and reports failures as a 400.
func Validate(v any) error {
	if err := validate.Struct(v); err != nil {
		logger.Log.Debug("validation failed", "error", err)
		return &errors.ErrorWithStatusCode{Message: "Required fields missing", StatusCode: http.StatusBadRequest}
	}
	return nil
}
