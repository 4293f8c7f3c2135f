package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/storefront/store-api/internal/api/middleware"
	"github.com/storefront/store-api/internal/core/ports"
)

// ctxCaller extracts the identity injected by the Auth middleware and
// fails fast before any service call:
//   - role must be non-empty (presence proves the middleware ran).
//   - user_id must parse as a UUID; otherwise the token is unusable.
func ctxCaller(c echo.Context) (ports.Caller, error) {
	role, _ := c.Get(middleware.ContextRole).(string)
	if role == "" {
		return ports.Caller{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}

	raw, _ := c.Get(middleware.ContextUserID).(string)
	userID, err := uuid.Parse(raw)
	if err != nil {
		return ports.Caller{}, echo.NewHTTPError(http.StatusUnauthorized, "token missing user identity")
	}

	return ports.Caller{UserID: userID, Role: role}, nil
}

// parseID reads a UUID path parameter.
func parseID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid id format")
	}
	return id, nil
}

// bindAndValidate decodes the body into req and runs struct validation.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	return c.Validate(req)
}
