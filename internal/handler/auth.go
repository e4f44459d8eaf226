package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/school-behavior-tracker/internal/metrics"
	"github.com/iliyamo/school-behavior-tracker/internal/model"
	"github.com/iliyamo/school-behavior-tracker/internal/service"
	"github.com/iliyamo/school-behavior-tracker/internal/session"
)

// AuthHandler serves login, logout, the current user and password changes.
type AuthHandler struct {
	Auth     *service.AuthService
	Sessions *session.Manager
	Log      *logrus.Entry
}

func NewAuthHandler(auth *service.AuthService, sessions *session.Manager, log *logrus.Entry) *AuthHandler {
	if auth == nil || sessions == nil {
		panic("nil dependency passed to NewAuthHandler")
	}
	return &AuthHandler{Auth: auth, Sessions: sessions, Log: log}
}

// Login handles POST /api/login.  The response is the caller's own record,
// password hash included.
func (h *AuthHandler) Login(c echo.Context) error {
	var in model.Credentials
	if err := bind(c, &in); err != nil {
		return respondError(c, h.Log, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Auth.Login(ctx, in.Username, in.Password)
	if errors.Is(err, service.ErrUnauthorized) {
		return c.JSON(http.StatusUnauthorized, errorBody{Message: "Invalid credentials"})
	}
	if err != nil {
		return respondError(c, h.Log, err)
	}
	if _, err := h.Sessions.Start(ctx, c.Response(), c.Request(), u.ID); err != nil {
		return respondError(c, h.Log, err)
	}
	metrics.RecordSessionStarted()
	return c.JSON(http.StatusOK, u)
}

// Logout handles POST /api/logout.  It always succeeds.
func (h *AuthHandler) Logout(c echo.Context) error {
	if err := h.Sessions.Destroy(c.Request().Context(), c.Response(), c.Request()); err != nil {
		h.Log.WithError(err).Warn("session destroy failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Logged out"})
}

// Me handles GET /api/user.
func (h *AuthHandler) Me(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return respondError(c, h.Log, service.ErrUnauthorized)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	u, err := h.Auth.CurrentUser(ctx, uid)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, u)
}

// ChangePassword handles POST /api/change-password.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return respondError(c, h.Log, service.ErrUnauthorized)
	}
	var in model.PasswordChange
	if err := bind(c, &in); err != nil {
		return respondError(c, h.Log, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Auth.ChangePassword(ctx, uid, in); err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Password updated"})
}
