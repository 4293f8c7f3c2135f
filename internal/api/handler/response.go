package handler

import (
	"github.com/labstack/echo/v4"
)

// Envelope is the body of every API response.
type Envelope struct {
	Status     bool       `json:"status"`
	StatusCode int        `json:"statusCode"`
	Message    string     `json:"message"`
	Data       any        `json:"data,omitempty"`
	Error      *ErrorBody `json:"error,omitempty"`
}

// ErrorBody carries a stable machine-readable code on failures.
type ErrorBody struct {
	Code    string   `json:"code"`
	Details []string `json:"details,omitempty"`
}

// Error codes.
const (
	CodeInvalidRequest   = "INVALID_REQUEST"
	CodeValidation       = "VALIDATION"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeForbidden        = "FORBIDDEN"
	CodeIdentityMismatch = "IDENTITY_MISMATCH"
	CodeNotEligible      = "NOT_ELIGIBLE"
	CodeProductNotFound  = "PRODUCT_NOT_FOUND"
	CodePurchaseNotFound = "PURCHASE_NOT_FOUND"
	CodeNotFound         = "NOT_FOUND"
	CodeEmptyResult      = "EMPTY_RESULT"
	CodeConflict         = "CONFLICT"
	CodePurchaseInFlight = "PURCHASE_IN_FLIGHT"
	CodeInternal         = "INTERNAL"
)

func respond(c echo.Context, status int, message string, data any) error {
	return c.JSON(status, Envelope{Status: true, StatusCode: status, Message: message, Data: data})
}

// Fail renders an error envelope.
func Fail(c echo.Context, status int, code, message string, details ...string) error {
	return c.JSON(status, Envelope{
		Status:     false,
		StatusCode: status,
		Message:    message,
		Error:      &ErrorBody{Code: code, Details: details},
	})
}
