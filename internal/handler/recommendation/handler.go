package recommendation

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/learnloop/engage-api/internal/handler"
	"github.com/learnloop/engage-api/internal/service/recommendation"
)

type Handler struct {
	service recommendation.Recommender
}

func NewHandler(service recommendation.Recommender) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/users/:userID/recommendations", h.Recommendations)
	r.GET("/courses/popular", h.Popular)
	r.POST("/recommendations/popularity/refresh", h.RefreshPopularity)
}

func (h *Handler) Recommendations(c *gin.Context) {
	userID := c.Param("userID")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "5"))

	courses := h.service.RecommendedCourses(c.Request.Context(), userID, limit)
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"courses": courses}))
}

func (h *Handler) Popular(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "5"))

	courses := h.service.PopularCourses(c.Request.Context(), limit)
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"courses": courses}))
}

func (h *Handler) RefreshPopularity(c *gin.Context) {
	refreshed, err := h.service.UpdatePopularityRanking(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"refreshed": refreshed}))
}
