package mailbox

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/learnloop/engage-api/internal/handler"
	"github.com/learnloop/engage-api/internal/model"
	"github.com/learnloop/engage-api/internal/service/mailbox"
)

type Handler struct {
	service mailbox.Mailbox
}

func NewHandler(service mailbox.Mailbox) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	notifications := r.Group("/users/:userID/notifications")
	{
		notifications.POST("", h.Add)
		notifications.GET("", h.List)
		notifications.POST("/:id/read", h.MarkRead)
		notifications.POST("/read-all", h.MarkAllRead)
		notifications.GET("/unread-count", h.UnreadCount)
	}
}

type addRequest struct {
	Type    string `json:"type" binding:"required,oneof=course_update achievement reminder announcement"`
	Title   string `json:"title" binding:"required"`
	Message string `json:"message" binding:"required"`
	Link    string `json:"link"`
}

func (h *Handler) Add(c *gin.Context) {
	userID := c.Param("userID")

	var req addRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	id, err := h.service.Add(c.Request.Context(), userID, model.NotificationType(req.Type), req.Title, req.Message, req.Link)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(gin.H{"id": id}))
}

func (h *Handler) List(c *gin.Context) {
	userID := c.Param("userID")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	notifications := h.service.List(c.Request.Context(), userID, limit, offset)
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"notifications": notifications}))
}

func (h *Handler) MarkRead(c *gin.Context) {
	userID := c.Param("userID")
	id := c.Param("id")

	updated := h.service.MarkRead(c.Request.Context(), userID, id)
	if !updated {
		c.JSON(http.StatusNotFound, handler.NewErrorResponse("notification not found"))
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"read": true}))
}

func (h *Handler) MarkAllRead(c *gin.Context) {
	userID := c.Param("userID")

	ok := h.service.MarkAllRead(c.Request.Context(), userID)
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"updated": ok}))
}

func (h *Handler) UnreadCount(c *gin.Context) {
	userID := c.Param("userID")

	count := h.service.UnreadCount(c.Request.Context(), userID)
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"count": count}))
}
