package dispatch

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/learnloop/engage-api/internal/handler"
	"github.com/learnloop/engage-api/internal/scheduler"
	"github.com/learnloop/engage-api/internal/service/dispatch"
)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("cron", validCron)
	}
}

// validCron checks the five-field shape only; semantic validation is the
// scheduler's job.
func validCron(fl validator.FieldLevel) bool {
	return len(strings.Fields(fl.Field().String())) == 5
}

type Handler struct {
	service dispatch.Dispatcher
}

func NewHandler(service dispatch.Dispatcher) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	users := r.Group("/users/:userID")
	{
		users.POST("/reminders", h.ScheduleReminder)
		users.POST("/digests", h.ScheduleDigest)
		users.DELETE("/schedules/:subjectKey", h.Cancel)
	}
}

type reminderRequest struct {
	CourseID     string `json:"course_id" binding:"required"`
	DelaySeconds int    `json:"delay_seconds" binding:"required,min=1"`
	Email        string `json:"email" binding:"omitempty,email"`
}

type digestRequest struct {
	Cron  string `json:"cron" binding:"required,cron"`
	Email string `json:"email" binding:"omitempty,email"`
}

func (h *Handler) ScheduleReminder(c *gin.Context) {
	userID := c.Param("userID")

	var req reminderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	result, err := h.service.ScheduleCourseReminder(c.Request.Context(), userID, req.CourseID, req.DelaySeconds, req.Email)
	h.respond(c, result, err)
}

func (h *Handler) ScheduleDigest(c *gin.Context) {
	userID := c.Param("userID")

	var req digestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	result, err := h.service.ScheduleWeeklyDigest(c.Request.Context(), userID, req.Cron, req.Email)
	h.respond(c, result, err)
}

func (h *Handler) Cancel(c *gin.Context) {
	userID := c.Param("userID")
	subjectKey := c.Param("subjectKey")

	cancelled := h.service.Cancel(c.Request.Context(), userID, subjectKey)
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"cancelled": cancelled}))
}

// respond renders the tagged schedule result. A scheduler outage maps to
// 503 so callers know the enqueue may be retried.
func (h *Handler) respond(c *gin.Context, result interface{}, err error) {
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, scheduler.ErrUnavailable) {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, &handler.Response{
			Status:  "error",
			Message: err.Error(),
			Data:    result,
		})
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(result))
}
