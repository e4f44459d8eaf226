package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/school-behavior-tracker/internal/model"
	"github.com/iliyamo/school-behavior-tracker/internal/service"
)

// StudentHandler serves /api/students.
type StudentHandler struct {
	Students StudentRepository
	Log      *logrus.Entry
}

func (h *StudentHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	students, err := h.Students.List(ctx)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, students)
}

func (h *StudentHandler) Get(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	s, err := h.Students.GetByID(ctx, id)
	if err != nil {
		return h.notFound(c, err)
	}
	return c.JSON(http.StatusOK, s)
}

// Create handles POST /api/students.  A reused student number is a 409.
func (h *StudentHandler) Create(c echo.Context) error {
	var in model.NewStudent
	if err := bind(c, &in); err != nil {
		return respondError(c, h.Log, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	s, err := h.Students.Create(ctx, in)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, s)
}

func (h *StudentHandler) Update(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	var p model.StudentPatch
	if err := bind(c, &p); err != nil {
		return respondError(c, h.Log, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	s, err := h.Students.Update(ctx, id, p)
	if err != nil {
		return h.notFound(c, err)
	}
	return c.JSON(http.StatusOK, s)
}

// Delete handles DELETE /api/students/:id.  Students with behavior records
// are kept and the request fails with 409.
func (h *StudentHandler) Delete(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Students.Delete(ctx, id); err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

func (h *StudentHandler) notFound(c echo.Context, err error) error {
	if service.KindOf(err) == service.KindNotFound {
		return respondError(c, h.Log, service.NotFound("Student not found"))
	}
	return respondError(c, h.Log, err)
}
