package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v5"

	"github.com/samcharles93/fbparams/pkg/params"
)

func writeError(c *echo.Context, status int, errType, msg string) error {
	return c.JSON(status, map[string]any{
		"error": ErrorBody{Message: msg, Type: errType},
	})
}

func writeBadRequest(c *echo.Context, msg string) error {
	return writeError(c, http.StatusBadRequest, "invalid_request_error", msg)
}

func writeNotFound(c *echo.Context, msg string) error {
	return writeError(c, http.StatusNotFound, "not_found_error", msg)
}

// writeStoreError maps params errors onto HTTP statuses.
func writeStoreError(c *echo.Context, err error) error {
	switch {
	case errors.Is(err, params.ErrIndexOutOfRange):
		return writeNotFound(c, err.Error())
	case errors.Is(err, params.ErrReleased):
		return writeError(c, http.StatusServiceUnavailable, "unavailable_error", "parameter buffer has been released")
	default:
		return writeError(c, http.StatusInternalServerError, "server_error", err.Error())
	}
}

// intParam parses a non-negative integer path or query value. An empty
// query value yields def.
func intParam(name, raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer, got %q", name, raw)
	}
	return n, nil
}

func boolQuery(c *echo.Context, name string) bool {
	v, err := strconv.ParseBool(c.QueryParam(name))
	return err == nil && v
}
