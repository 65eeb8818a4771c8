// Package response defines the JSON error bodies returned by the API.
package response

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

const StatusError = "error"

type Response struct {
	Status  string            `json:"status"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var (
	EmptyRequestBodyResponse = Response{
		Status:  StatusError,
		Message: "empty request body",
	}

	InvalidRequestBodyResponse = Response{
		Status:  StatusError,
		Message: "invalid request body",
	}

	TooManyRequestsResponse = Response{
		Status:  StatusError,
		Message: "too many requests",
	}

	ServerErrorResponse = Response{
		Status:  StatusError,
		Message: "server error occurred",
	}
)

// ValidationErrorResponse lists every failed field of a validator error.
func ValidationErrorResponse(err error) Response {
	return Response{
		Status:  StatusError,
		Message: "validation error",
		Errors:  getValidationErrors(err),
	}
}

func messageForTag(tag string) string {
	switch tag {
	case "required":
		return "this field is required"
	case "max":
		return "value is too long"
	default:
		return "invalid value"
	}
}

func getValidationErrors(err error) []ValidationError {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return nil
	}

	validationErrs := make([]ValidationError, 0, len(errs))
	for _, e := range errs {
		validationErrs = append(validationErrs, ValidationError{
			Field:   e.Field(),
			Message: messageForTag(e.Tag()),
		})
	}

	return validationErrs
}
