package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/school-behavior-tracker/internal/service"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// respondError classifies err and writes the matching status and body.
// Internal errors are logged with the request id and hidden from clients.
func respondError(c echo.Context, log *logrus.Entry, err error) error {
	se := service.Classify(err)
	if se.Kind == service.KindInternal {
		log.WithError(err).WithFields(logrus.Fields{
			"request_id": c.Response().Header().Get(echo.HeaderXRequestID),
			"path":       c.Path(),
		}).Error("request failed")
		return c.JSON(http.StatusInternalServerError, errorBody{Message: "Internal server error"})
	}
	return c.JSON(se.Kind.Status(), errorBody{Message: se.Message, Field: se.Field})
}

// ErrorHandler renders errors that escape handlers (unknown routes, wrong
// methods, panics recovered by echo) with the same body shape.
func ErrorHandler(log *logrus.Entry) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		var he *echo.HTTPError
		if errors.As(err, &he) {
			msg := http.StatusText(he.Code)
			if s, ok := he.Message.(string); ok && s != "" {
				msg = s
			}
			if he.Code >= 500 {
				log.WithError(err).Error("unhandled error")
				msg = "Internal server error"
			}
			_ = c.JSON(he.Code, errorBody{Message: msg})
			return
		}
		_ = respondError(c, log, err)
	}
}
