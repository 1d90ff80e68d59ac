package handler

import (
	"errors"
	"net/http"
	"strconv"

	"pricepulse/internal/app/tracker/entity"
	"pricepulse/internal/app/tracker/service"
	"pricepulse/pkg/logger"

	"github.com/gin-gonic/gin"
)

// RankingHandler - HTTP обработчики недельного рейтинга
type RankingHandler struct {
	rankingService service.RankingServiceInterface
}

// NewRankingHandler создает handler рейтинга
func NewRankingHandler(rankingService service.RankingServiceInterface) *RankingHandler {
	return &RankingHandler{rankingService: rankingService}
}

// GetWeeklyRanking возвращает рейтинг недели
// GET /api/v1/rankings/weekly?year=2026&week=35
// Без параметров возвращается текущая ISO-неделя
func (h *RankingHandler) GetWeeklyRanking(c *gin.Context) {
	year, err := strconv.Atoi(c.DefaultQuery("year", "0"))
	if err != nil || year < 0 {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{
			Error: "invalid year parameter",
		})
		return
	}

	week, err := strconv.Atoi(c.DefaultQuery("week", "0"))
	if err != nil || week < 0 || week > 53 {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{
			Error: "invalid week parameter",
		})
		return
	}

	ranking, err := h.rankingService.GetWeeklyRanking(c.Request.Context(), year, week)
	if err != nil {
		if errors.Is(err, service.ErrRankingNotFound) {
			c.JSON(http.StatusNotFound, entity.ErrorResponse{
				Error: "ranking not found for the requested week",
			})
			return
		}
		logger.Error().Err(err).Int("year", year).Int("week", week).Msg("Failed to get weekly ranking")
		c.JSON(http.StatusInternalServerError, entity.ErrorResponse{
			Error: "failed to get weekly ranking",
		})
		return
	}

	c.JSON(http.StatusOK, ranking)
}

// GetRankingHistory возвращает рейтинги последних недель
// GET /api/v1/rankings/weekly/history?weeks=4
func (h *RankingHandler) GetRankingHistory(c *gin.Context) {
	weeks, err := strconv.Atoi(c.DefaultQuery("weeks", "4"))
	if err != nil || weeks < 1 || weeks > 52 {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{
			Error: "weeks must be between 1 and 52",
		})
		return
	}

	history, err := h.rankingService.GetRankingHistory(c.Request.Context(), weeks)
	if err != nil {
		logger.Error().Err(err).Int("weeks", weeks).Msg("Failed to get ranking history")
		c.JSON(http.StatusInternalServerError, entity.ErrorResponse{
			Error: "failed to get ranking history",
		})
		return
	}

	c.JSON(http.StatusOK, history)
}
