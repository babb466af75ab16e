package handler // handler defines the HTTP layer over the services

import (
	"errors"
	"time"

	"github.com/labstack/echo/v4"
)

// dbTimeout caps how long one request may hold the database. Handlers wrap
// the request context with it before calling a service or repository.
const dbTimeout = 5 * time.Second

// getUserID extracts the authenticated user's id from the context where
// JWTAuth stored it.
func getUserID(c echo.Context) (string, error) {
	if id, ok := c.Get("user_id").(string); ok && id != "" {
		return id, nil
	}
	return "", errors.New("missing user_id in context")
}

// getRole extracts the authenticated role, empty when absent.
func getRole(c echo.Context) string {
	if role, ok := c.Get("role").(string); ok {
		return role
	}
	return ""
}
