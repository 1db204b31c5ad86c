package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/sirpyerre/item-catalog/internal/api/middleware"
)

// callerID returns the subject injected by AccessGate, or "" on public routes.
func callerID(c echo.Context) string {
	id, _ := c.Get(middleware.ContextUserID).(string)
	return id
}
