package handler

import (
	"errors"
	"net/http"

	"pricepulse/internal/app/tracker/entity"
	"pricepulse/internal/app/tracker/service"
	"pricepulse/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// WatchlistHandler - HTTP обработчики подписок на цены
type WatchlistHandler struct {
	watchlistService service.WatchlistServiceInterface
	validator        *validator.Validate
}

// NewWatchlistHandler создает handler подписок
func NewWatchlistHandler(watchlistService service.WatchlistServiceInterface) *WatchlistHandler {
	return &WatchlistHandler{
		watchlistService: watchlistService,
		validator:        validator.New(),
	}
}

// CreateWatchEntry добавляет подписку на товар
// POST /api/v1/watchlist
func (h *WatchlistHandler) CreateWatchEntry(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, entity.ErrorResponse{Error: "unauthorized"})
		return
	}

	var req entity.CreateWatchEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{
			Error:   "invalid request body",
			Message: err.Error(),
		})
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{
			Error:   "validation failed",
			Message: err.Error(),
		})
		return
	}

	entry, err := h.watchlistService.Create(c.Request.Context(), userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrProductNotFound):
			c.JSON(http.StatusNotFound, entity.ErrorResponse{Error: "product not found"})
		case errors.Is(err, service.ErrDuplicateWatch):
			c.JSON(http.StatusConflict, entity.ErrorResponse{Error: "watch entry already exists"})
		default:
			logger.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to create watch entry")
			c.JSON(http.StatusInternalServerError, entity.ErrorResponse{Error: "failed to create watch entry"})
		}
		return
	}

	c.JSON(http.StatusCreated, entity.SuccessResponse{
		Message: "watch entry created",
		Data:    entry,
	})
}

// GetWatchlist возвращает подписки текущего пользователя
// GET /api/v1/watchlist
func (h *WatchlistHandler) GetWatchlist(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, entity.ErrorResponse{Error: "unauthorized"})
		return
	}

	entries, err := h.watchlistService.GetByUser(c.Request.Context(), userID)
	if err != nil {
		logger.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to get watchlist")
		c.JSON(http.StatusInternalServerError, entity.ErrorResponse{Error: "failed to get watchlist"})
		return
	}

	c.JSON(http.StatusOK, entity.WatchListResponse{
		Entries: entries,
		Total:   len(entries),
	})
}

// UpdateWatchEntry изменяет пороги подписки
// PUT /api/v1/watchlist/:id
func (h *WatchlistHandler) UpdateWatchEntry(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, entity.ErrorResponse{Error: "unauthorized"})
		return
	}

	entryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: "invalid watch entry id"})
		return
	}

	var req entity.UpdateWatchEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{
			Error:   "invalid request body",
			Message: err.Error(),
		})
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{
			Error:   "validation failed",
			Message: err.Error(),
		})
		return
	}

	entry, err := h.watchlistService.Update(c.Request.Context(), userID, entryID, &req)
	if err != nil {
		h.writeEntryError(c, userID, err, "Failed to update watch entry")
		return
	}

	c.JSON(http.StatusOK, entity.SuccessResponse{
		Message: "watch entry updated",
		Data:    entry,
	})
}

// DeleteWatchEntry удаляет подписку
// DELETE /api/v1/watchlist/:id
func (h *WatchlistHandler) DeleteWatchEntry(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, entity.ErrorResponse{Error: "unauthorized"})
		return
	}

	entryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: "invalid watch entry id"})
		return
	}

	if err := h.watchlistService.Delete(c.Request.Context(), userID, entryID); err != nil {
		h.writeEntryError(c, userID, err, "Failed to delete watch entry")
		return
	}

	c.JSON(http.StatusOK, entity.SuccessResponse{Message: "watch entry deleted"})
}

// writeEntryError маппит ошибки операций над подпиской в HTTP статусы
func (h *WatchlistHandler) writeEntryError(c *gin.Context, userID uuid.UUID, err error, logMsg string) {
	switch {
	case errors.Is(err, service.ErrWatchEntryNotFound):
		c.JSON(http.StatusNotFound, entity.ErrorResponse{Error: "watch entry not found"})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, entity.ErrorResponse{Error: "watch entry belongs to another user"})
	default:
		logger.Error().Err(err).Str("user_id", userID.String()).Msg(logMsg)
		c.JSON(http.StatusInternalServerError, entity.ErrorResponse{Error: "internal server error"})
	}
}
