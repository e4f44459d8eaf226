package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/school-behavior-tracker/internal/service"
)

// NotificationHandler serves the caller's notifications.
type NotificationHandler struct {
	Notifications NotificationRepository
	Log           *logrus.Entry
}

// List handles GET /api/notifications: the newest 50 addressed to the caller.
func (h *NotificationHandler) List(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return respondError(c, h.Log, service.ErrUnauthorized)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.Notifications.ListForRecipient(ctx, uid)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, list)
}

// MarkRead handles POST /api/notifications/:id/read.  Ids that do not
// belong to the caller are ignored.
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return respondError(c, h.Log, service.ErrUnauthorized)
	}
	id, err := parseID(c)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Notifications.MarkRead(ctx, id, uid); err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
