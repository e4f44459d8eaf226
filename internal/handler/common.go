package handler // handler defines http handlers

import (
	"context" // context bounds repository calls
	"errors"  // errors provides sentinel values used in getUserID
	"strconv" // strconv converts path and query strings to ids
	"strings" // strings trims query values
	"time"    // time defines the request timeout

	"github.com/labstack/echo/v4" // echo defines request context types

	"github.com/iliyamo/school-behavior-tracker/internal/middleware" // middleware stores the session user id
	"github.com/iliyamo/school-behavior-tracker/internal/service"    // service classifies errors
)

// requestTimeout bounds the database work of a single request.
const requestTimeout = 5 * time.Second

var errNoUser = errors.New("no user_id in context")

// getUserID extracts the session user id placed in the context by the
// Sessions middleware
func getUserID(c echo.Context) (uint64, error) {
	id, ok := middleware.UserID(c) // read the id stored by the session middleware
	if !ok {                       // anonymous request
		return 0, errNoUser
	}
	return id, nil
}

// reqCtx derives a bounded context from the request
func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// parseID reads the :id path parameter
func parseID(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64) // ids are positive integers
	if err != nil || id == 0 {
		return 0, service.Invalid("id", "Invalid id")
	}
	return id, nil
}

// queryID reads an optional numeric query parameter; absent means zero
func queryID(c echo.Context, name string) (uint64, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, service.Invalid(name, "Expected a number")
	}
	return id, nil
}

// bind decodes the JSON body into v and validates it
func bind(c echo.Context, v any) error {
	if err := c.Bind(v); err != nil { // malformed JSON or wrong types
		return service.Invalid("", "Invalid input")
	}
	return c.Validate(v)
}
