package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/school-behavior-tracker/internal/model"
	"github.com/iliyamo/school-behavior-tracker/internal/service"
	"github.com/iliyamo/school-behavior-tracker/internal/utils"
)

// UserHandler serves /api/users.  Responses never include password hashes.
type UserHandler struct {
	Users           UserRepository
	DefaultPassword string // assigned when POST /api/users omits a password
	Log             *logrus.Entry
}

func (h *UserHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	users, err := h.Users.List(ctx)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, model.PublicUsers(users))
}

func (h *UserHandler) Get(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return h.notFound(c, err)
	}
	return c.JSON(http.StatusOK, u.Public())
}

func (h *UserHandler) Create(c echo.Context) error {
	var in model.NewUser
	if err := bind(c, &in); err != nil {
		return respondError(c, h.Log, err)
	}
	if in.Password == "" {
		in.Password = h.DefaultPassword
	}
	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	in.Password = hash

	ctx, cancel := reqCtx(c)
	defer cancel()
	u, err := h.Users.Create(ctx, in)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, u.Public())
}

func (h *UserHandler) Update(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	var p model.UserPatch
	if err := bind(c, &p); err != nil {
		return respondError(c, h.Log, err)
	}
	if p.Password != nil {
		hash, err := utils.HashPassword(*p.Password)
		if err != nil {
			return respondError(c, h.Log, err)
		}
		p.Password = &hash
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	u, err := h.Users.Update(ctx, id, p)
	if err != nil {
		return h.notFound(c, err)
	}
	return c.JSON(http.StatusOK, u.Public())
}

func (h *UserHandler) Delete(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Users.Delete(ctx, id); err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

func (h *UserHandler) notFound(c echo.Context, err error) error {
	if service.KindOf(err) == service.KindNotFound {
		return respondError(c, h.Log, service.NotFound("User not found"))
	}
	return respondError(c, h.Log, err)
}
