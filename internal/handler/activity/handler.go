package activity

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/learnloop/engage-api/internal/handler"
	"github.com/learnloop/engage-api/internal/model"
	"github.com/learnloop/engage-api/internal/service/activity"
)

type Handler struct {
	service activity.Recorder
}

func NewHandler(service activity.Recorder) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/activity/views", h.RecordView)
	r.POST("/activity/events", h.RecordActivity)
	r.GET("/users/:userID/activity/recent", h.RecentCourses)
}

type recordViewRequest struct {
	UserID   string `json:"user_id" binding:"required"`
	CourseID string `json:"course_id" binding:"required"`
}

type recordActivityRequest struct {
	UserID   string `json:"user_id" binding:"required"`
	CourseID string `json:"course_id" binding:"required"`
	Action   string `json:"action" binding:"required,oneof=view complete interact"`
}

func (h *Handler) RecordView(c *gin.Context) {
	var req recordViewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	recorded := h.service.RecordView(c.Request.Context(), req.UserID, req.CourseID)
	c.JSON(http.StatusAccepted, handler.NewSuccessResponse(gin.H{"recorded": recorded}))
}

func (h *Handler) RecordActivity(c *gin.Context) {
	var req recordActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	recorded := h.service.RecordActivity(c.Request.Context(), req.UserID, req.CourseID, model.ActivityAction(req.Action))
	c.JSON(http.StatusAccepted, handler.NewSuccessResponse(gin.H{"recorded": recorded}))
}

func (h *Handler) RecentCourses(c *gin.Context) {
	userID := c.Param("userID")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	courses := h.service.RecentCourses(c.Request.Context(), userID, limit)
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"courses": courses}))
}
