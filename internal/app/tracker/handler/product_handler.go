package handler

import (
	"errors"
	"net/http"

	"pricepulse/internal/app/tracker/entity"
	"pricepulse/internal/app/tracker/service"
	"pricepulse/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ProductHandler - HTTP обработчики витрины товаров
type ProductHandler struct {
	viewService service.ProductViewServiceInterface
}

// NewProductHandler создает handler товаров
func NewProductHandler(viewService service.ProductViewServiceInterface) *ProductHandler {
	return &ProductHandler{viewService: viewService}
}

// GetAllProducts возвращает каталог товаров
// GET /api/v1/products
func (h *ProductHandler) GetAllProducts(c *gin.Context) {
	products, err := h.viewService.GetAllProducts(c.Request.Context())
	if err != nil {
		logger.Error().Err(err).Msg("Failed to get products")
		c.JSON(http.StatusInternalServerError, entity.ErrorResponse{
			Error: "failed to get products",
		})
		return
	}

	c.JSON(http.StatusOK, entity.ProductListResponse{
		Products: products,
		Total:    len(products),
	})
}

// GetProductView возвращает витрину товара с ценовой аналитикой
// GET /api/v1/products/:id?include_recommendation=true
func (h *ProductHandler) GetProductView(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{
			Error: "invalid product id",
		})
		return
	}

	includeRecommendation := c.DefaultQuery("include_recommendation", "false") == "true"

	view, err := h.viewService.Assemble(c.Request.Context(), productID, includeRecommendation)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, entity.ErrorResponse{
				Error: "product not found",
			})
			return
		}
		logger.Error().Err(err).Str("product_id", productID.String()).Msg("Failed to assemble product view")
		c.JSON(http.StatusInternalServerError, entity.ErrorResponse{
			Error: "failed to get product",
		})
		return
	}

	c.JSON(http.StatusOK, view)
}

// RefreshRecommendation принудительно регенерирует рекомендацию
// POST /api/v1/products/:id/recommendation/refresh
func (h *ProductHandler) RefreshRecommendation(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{
			Error: "invalid product id",
		})
		return
	}

	result, err := h.viewService.ForceRegenerate(c.Request.Context(), productID)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, entity.ErrorResponse{
				Error: "product not found",
			})
			return
		}
		logger.Error().Err(err).Str("product_id", productID.String()).Msg("Failed to refresh recommendation")
		c.JSON(http.StatusInternalServerError, entity.ErrorResponse{
			Error: "failed to refresh recommendation",
		})
		return
	}

	if result == nil {
		// Генерация недоступна и прежнего кеша нет
		c.JSON(http.StatusServiceUnavailable, entity.ErrorResponse{
			Error:   "recommendation unavailable",
			Message: "generation is disabled or temporarily failing",
		})
		return
	}

	c.JSON(http.StatusOK, entity.SuccessResponse{
		Message: "recommendation refreshed",
		Data: entity.RecommendationView{
			Text:        result.Text,
			GeneratedAt: result.GeneratedAt,
			IsCached:    result.FromCache,
		},
	})
}

// InvalidateRecommendation удаляет кешированную рекомендацию товара
// DELETE /api/v1/products/:id/recommendation
func (h *ProductHandler) InvalidateRecommendation(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{
			Error: "invalid product id",
		})
		return
	}

	if err := h.viewService.InvalidateRecommendation(c.Request.Context(), productID); err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, entity.ErrorResponse{
				Error: "product not found",
			})
			return
		}
		logger.Error().Err(err).Str("product_id", productID.String()).Msg("Failed to invalidate recommendation")
		c.JSON(http.StatusInternalServerError, entity.ErrorResponse{
			Error: "failed to invalidate recommendation",
		})
		return
	}

	c.JSON(http.StatusOK, entity.SuccessResponse{
		Message: "recommendation cache invalidated",
	})
}
