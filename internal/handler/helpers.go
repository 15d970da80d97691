package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	internal_errors "github.com/opchan-dev/opchan/internal/errors"
	"github.com/opchan-dev/opchan/internal/logger"
	"github.com/opchan-dev/opchan/internal/validation"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// writeErrorAndStatusCode maps the error taxonomy onto HTTP status codes.
// Validation and format errors are user-correctable (400), oversized uploads
// 413, storage faults 500 with the details kept out of the response body.
func writeErrorAndStatusCode(w http.ResponseWriter, err error) {
	var statusErr *internal_errors.ErrorWithStatusCode
	if errors.As(err, &statusErr) {
		http.Error(w, statusErr.Message, statusErr.StatusCode)
		return
	}

	var validationErr *internal_errors.ValidationError
	if errors.As(err, &validationErr) {
		http.Error(w, validationErr.Error(), http.StatusBadRequest)
		return
	}

	if errors.Is(err, validation.ErrPayloadTooLarge) {
		http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
		return
	}
	if errors.Is(err, validation.ErrUnsupportedFormat) || errors.Is(err, validation.ErrEmptyPayload) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var storageErr *internal_errors.StorageError
	if errors.As(err, &storageErr) {
		logger.Log.Error("storage failure", "op", storageErr.Op, "error", storageErr.Err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	// default error is 500
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

// validateStruct runs validator tags over a decoded request body.
func validateStruct(body any) error {
	if err := validate.Struct(body); err != nil {
		logger.Log.Debug("request validation failed", "error", err)
		return &internal_errors.ErrorWithStatusCode{Message: "Required fields missing", StatusCode: http.StatusBadRequest}
	}
	return nil
}

// parseIntParam parses an integer parameter from a string and returns a meaningful error
func parseIntParam(param string, paramName string) (int, error) {
	val, err := strconv.Atoi(param)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: must be an integer", paramName)
	}
	return val, nil
}
