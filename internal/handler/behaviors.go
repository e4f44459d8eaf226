package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/school-behavior-tracker/internal/model"
	"github.com/iliyamo/school-behavior-tracker/internal/service"
)

// BehaviorHandler serves /api/behaviors and /api/behaviors/stats.
type BehaviorHandler struct {
	Behaviors BehaviorRepository
	Service   *service.BehaviorService
	Cache     CacheInvalidator // optional
	Log       *logrus.Entry
}

// statsResponse keeps the "recent" key collaborators expect; recent records
// come from the list endpoint, so it is always empty.
type statsResponse struct {
	model.BehaviorStats
	Recent []model.BehaviorWithRefs `json:"recent"`
}

// List handles GET /api/behaviors?studentId=&teacherId=.
func (h *BehaviorHandler) List(c echo.Context) error {
	var f model.BehaviorFilter
	var err error
	if f.StudentID, err = queryID(c, "studentId"); err != nil {
		return respondError(c, h.Log, err)
	}
	if f.TeacherID, err = queryID(c, "teacherId"); err != nil {
		return respondError(c, h.Log, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.Behaviors.List(ctx, f)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, list)
}

// Create handles POST /api/behaviors.  The session user is the reporter;
// notification fan-out problems are logged by the service and never change
// the 201 response.
func (h *BehaviorHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return respondError(c, h.Log, service.ErrUnauthorized)
	}
	var in service.BehaviorInput
	if err := c.Bind(&in); err != nil {
		return respondError(c, h.Log, service.Invalid("", "Invalid input"))
	}
	if err := c.Validate(&in.NewBehavior); err != nil {
		return respondError(c, h.Log, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.Service.Record(ctx, uid, in)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	if h.Cache != nil {
		if err := h.Cache.Invalidate(ctx); err != nil {
			h.Log.WithError(err).Warn("stats cache invalidation failed")
		}
	}
	return c.JSON(http.StatusCreated, res.Behavior)
}

// Stats handles GET /api/behaviors/stats.
func (h *BehaviorHandler) Stats(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	st, err := h.Behaviors.Stats(ctx)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, statsResponse{BehaviorStats: st, Recent: []model.BehaviorWithRefs{}})
}
