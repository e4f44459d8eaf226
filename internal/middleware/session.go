package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/school-behavior-tracker/internal/session"
)

// Sessions resolves the session cookie of every request.  Requests with a
// valid session get the user id in the context and a renewed expiry;
// everything else passes through anonymously.
func Sessions(m *session.Manager, log *logrus.Entry) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			token, sess, err := m.Load(ctx, c.Request())
			switch {
			case errors.Is(err, session.ErrNoSession):
				return next(c)
			case err != nil:
				// Store outage: treat as anonymous rather than failing
				// public routes such as login.
				log.WithError(err).Warn("session lookup failed")
				return next(c)
			}
			SetUserID(c, sess.UserID)
			if err := m.Renew(ctx, c.Response(), token); err != nil && !errors.Is(err, session.ErrNotFound) {
				log.WithError(err).Warn("session renew failed")
			}
			return next(c)
		}
	}
}

// RequireAuth rejects anonymous requests with 401.
func RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := UserID(c); !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Unauthorized"})
			}
			return next(c)
		}
	}
}
