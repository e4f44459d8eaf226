package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/school-behavior-tracker/internal/model"
	"github.com/iliyamo/school-behavior-tracker/internal/service"
)

// MessageHandler serves /api/messages.
type MessageHandler struct {
	Service *service.MessageService
	Log     *logrus.Entry
}

// List handles GET /api/messages?contactId=.
func (h *MessageHandler) List(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return respondError(c, h.Log, service.ErrUnauthorized)
	}
	contactID, err := queryID(c, "contactId")
	if err != nil {
		return respondError(c, h.Log, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.Service.Conversation(ctx, uid, contactID)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, list)
}

// Send handles POST /api/messages.  senderId must be the caller.
func (h *MessageHandler) Send(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return respondError(c, h.Log, service.ErrUnauthorized)
	}
	var in model.NewMessage
	if err := bind(c, &in); err != nil {
		return respondError(c, h.Log, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.Service.Send(ctx, uid, in)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, res.Message)
}
