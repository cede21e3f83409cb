package analytics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/learnloop/engage-api/internal/handler"
	"github.com/learnloop/engage-api/internal/service/analytics"
)

type Handler struct {
	service analytics.Aggregator
}

func NewHandler(service analytics.Aggregator) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/analytics/daily", h.ProcessDaily)
	r.GET("/analytics/courses/:courseID", h.CourseStats)
	r.GET("/analytics/users/:userID", h.UserEngagement)
}

// ProcessDaily is the endpoint the external day-boundary scheduler
// invokes. Re-running within a day appends a second rollup per subject;
// the read endpoints aggregate by date.
func (h *Handler) ProcessDaily(c *gin.Context) {
	summary, err := h.service.ProcessDaily(c.Request.Context(), time.Now())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(summary))
}

func (h *Handler) CourseStats(c *gin.Context) {
	courseID := c.Param("courseID")
	days, _ := strconv.Atoi(c.DefaultQuery("days", "7"))

	points := h.service.CourseStats(c.Request.Context(), courseID, days)
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"points": points}))
}

func (h *Handler) UserEngagement(c *gin.Context) {
	userID := c.Param("userID")
	days, _ := strconv.Atoi(c.DefaultQuery("days", "7"))

	points := h.service.UserEngagement(c.Request.Context(), userID, days)
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"points": points}))
}
