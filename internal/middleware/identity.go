package middleware

// identity.go holds the helpers that read the authenticated user id the
// Sessions middleware stores in the echo context.

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// UserIDKey is the echo context key holding the session's user id.
const UserIDKey = "user_id"

// UserID returns the authenticated user id, or false for anonymous requests.
func UserID(c echo.Context) (uint64, bool) {
	id, ok := c.Get(UserIDKey).(uint64)
	return id, ok && id != 0
}

// SetUserID binds id to the request context.
func SetUserID(c echo.Context, id uint64) {
	c.Set(UserIDKey, id)
}

// userKey renders the user id for cache and rate-limit keys; anonymous
// requests share the "anon" bucket.
func userKey(c echo.Context) string {
	if id, ok := UserID(c); ok {
		return strconv.FormatUint(id, 10)
	}
	return "anon"
}
