package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// envelope is the success shape shared by every API endpoint. Failures are
// rendered by the API error handler with the same success/error keys.
type envelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

func respond(c echo.Context, status int, data any) error {
	return c.JSON(status, envelope{Success: true, Data: data})
}

// failure wraps an unexpected error with the endpoint's client-facing
// message. Known domain errors inside err still win in the error handler.
func failure(msg string, err error) error {
	return echo.NewHTTPError(http.StatusInternalServerError, msg).SetInternal(err)
}
