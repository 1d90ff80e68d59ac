package handler

import (
	"net/http"
	"strconv"

	"pricepulse/internal/app/tracker/entity"
	"pricepulse/internal/app/tracker/repository"
	"pricepulse/pkg/logger"

	"github.com/gin-gonic/gin"
)

// NotificationHandler - HTTP обработчики истории уведомлений
type NotificationHandler struct {
	notificationRepo repository.NotificationRepository
}

// NewNotificationHandler создает handler истории уведомлений
func NewNotificationHandler(notificationRepo repository.NotificationRepository) *NotificationHandler {
	return &NotificationHandler{notificationRepo: notificationRepo}
}

// GetHistory возвращает последние уведомления текущего пользователя
// GET /api/v1/notifications?limit=50
func (h *NotificationHandler) GetHistory(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, entity.ErrorResponse{Error: "unauthorized"})
		return
	}

	limit, err := strconv.ParseInt(c.DefaultQuery("limit", "50"), 10, 64)
	if err != nil || limit < 1 || limit > 500 {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: "limit must be between 1 and 500"})
		return
	}

	records, err := h.notificationRepo.GetByUserID(c.Request.Context(), userID.String(), limit)
	if err != nil {
		logger.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to get notification history")
		c.JSON(http.StatusInternalServerError, entity.ErrorResponse{Error: "failed to get notifications"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"notifications": records,
		"total":         len(records),
	})
}
