package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/storefront/store-api/internal/api/handler"
	"github.com/storefront/store-api/internal/core/domain"
)

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their HTTP status and envelope code.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders the standard envelope with status=false.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		r := resolveError(err, log, c)
		_ = handler.Fail(c, r.status, r.code, r.message, r.details...)
	}
}

type resolved struct {
	status  int
	code    string
	message string
	details []string
}

func resolveError(err error, log zerolog.Logger, c echo.Context) resolved {
	var ve *handler.ValidationError
	if errors.As(err, &ve) {
		return resolved{http.StatusBadRequest, handler.CodeValidation, "Validation failed", ve.Fields}
	}

	// Echo's own errors (bind failures, 404 from router, auth middleware, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return resolved{he.Code, codeForStatus(he.Code), fmt.Sprintf("%v", he.Message), nil}
	}

	var pnf *domain.ProductNotFoundError
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		return resolved{http.StatusBadRequest, handler.CodeInvalidRequest, err.Error(), nil}
	case errors.Is(err, domain.ErrUserExists):
		return resolved{http.StatusBadRequest, handler.CodeInvalidRequest, "User already existed", nil}
	case errors.Is(err, domain.ErrInvalidCredentials):
		return resolved{http.StatusBadRequest, handler.CodeInvalidRequest, "User or password incorrect", nil}
	case errors.Is(err, domain.ErrIdentityMismatch):
		return resolved{http.StatusForbidden, handler.CodeIdentityMismatch, "Client does not match the authenticated user", nil}
	case errors.Is(err, domain.ErrNotEligible):
		return resolved{http.StatusForbidden, handler.CodeNotEligible, "Only clients can make purchases", nil}
	case errors.Is(err, domain.ErrForbidden):
		return resolved{http.StatusForbidden, handler.CodeForbidden, "Access forbidden", nil}
	case errors.As(err, &pnf):
		return resolved{http.StatusNotFound, handler.CodeProductNotFound, fmt.Sprintf("Product %s not found", pnf.ProductID), nil}
	case errors.Is(err, domain.ErrProductNotFound):
		return resolved{http.StatusNotFound, handler.CodeProductNotFound, "Product not found", nil}
	case errors.Is(err, domain.ErrPurchaseNotFound):
		return resolved{http.StatusNotFound, handler.CodePurchaseNotFound, "Purchase not found", nil}
	case errors.Is(err, domain.ErrUserNotFound):
		return resolved{http.StatusNotFound, handler.CodeNotFound, "User not found", nil}
	case errors.Is(err, domain.ErrEmptyResult):
		return resolved{http.StatusNotFound, handler.CodeEmptyResult, "No records found", nil}
	case errors.Is(err, domain.ErrPurchaseInFlight):
		return resolved{http.StatusConflict, handler.CodePurchaseInFlight, "A purchase with this Idempotency-Key is still being processed", nil}
	case errors.Is(err, domain.ErrProductInUse):
		return resolved{http.StatusConflict, handler.CodeConflict, "Product is referenced by purchases", nil}
	}

	// Unexpected or persistence error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return resolved{http.StatusInternalServerError, handler.CodeInternal, "Internal server error", nil}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return handler.CodeInvalidRequest
	case http.StatusUnauthorized:
		return handler.CodeUnauthorized
	case http.StatusForbidden:
		return handler.CodeForbidden
	case http.StatusNotFound:
		return handler.CodeNotFound
	case http.StatusConflict:
		return handler.CodeConflict
	}
	if status >= http.StatusInternalServerError {
		return handler.CodeInternal
	}
	return handler.CodeInvalidRequest
}
