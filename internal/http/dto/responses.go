package dto

import (
	"errors"

	"github.com/publicart-catalog/backend/internal/apperr"
)

type SuccessResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
}

type ErrorBody struct {
	Code      apperr.Code `json:"code"`
	Message   string      `json:"message"`
	Details   any         `json:"details,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

type ErrorResponse struct {
	Success bool      `json:"success"`
	Error   ErrorBody `json:"error"`
}

func OK(data any) SuccessResponse {
	return SuccessResponse{Success: true, Data: data}
}

// RateLimitDetails accompanies rate_limited errors.
type RateLimitDetails struct {
	ResetHint string `json:"reset_hint"`
	Max       int    `json:"max"`
}

// DuplicateDetails names the pending submission that blocked a create.
type DuplicateDetails struct {
	ExistingSubmissionID string `json:"existing_submission_id"`
}

// ErrorFrom renders err as an envelope and picks its HTTP status. Messages
// of dependency failures are not exposed.
func ErrorFrom(err error, requestID string) (int, ErrorResponse) {
	code := apperr.CodeOf(err)
	body := ErrorBody{Code: code, Message: err.Error(), RequestID: requestID}

	var e *apperr.Error
	if errors.As(err, &e) {
		body.Message = e.Message
		switch {
		case len(e.Fields) > 0:
			body.Details = e.Fields
		case e.ExistingID != nil:
			body.Details = DuplicateDetails{ExistingSubmissionID: e.ExistingID.String()}
		case code == apperr.CodeRateLimited:
			body.Details = RateLimitDetails{ResetHint: e.ResetHint, Max: e.Max}
		}
	}
	if code == apperr.CodeDependency {
		body.Message = "internal error"
		body.Details = nil
	}
	return apperr.HTTPStatus(code), ErrorResponse{Success: false, Error: body}
}
