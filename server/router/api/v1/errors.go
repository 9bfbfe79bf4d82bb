package v1

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/wingman/ai/chat"
	"github.com/hrygo/wingman/plugin/filestore"
)

// toHTTPError maps domain errors to API errors. Unexpected errors are
// logged and reported without detail.
func toHTTPError(c echo.Context, err error) error {
	var httpErr *echo.HTTPError
	switch {
	case errors.As(err, &httpErr):
		return httpErr
	case errors.Is(err, chat.ErrInvalidInput):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, chat.ErrCompletionFailed):
		slog.Error("completion service failed", "path", c.Path(), "error", err)
		return echo.NewHTTPError(http.StatusBadGateway, "failed to get a response from the AI service")
	case errors.Is(err, filestore.ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, "forbidden")
	case errors.Is(err, filestore.ErrInvalidReference):
		return echo.NewHTTPError(http.StatusBadRequest, "invalid file reference")
	case errors.Is(err, filestore.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "file not found")
	default:
		slog.Error("request failed", "path", c.Path(), "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
}
