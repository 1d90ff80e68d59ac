package service

import (
	"context"
	"errors"

	"pricepulse/internal/app/tracker/entity"
	"pricepulse/internal/app/tracker/repository"
	"pricepulse/pkg/logger"

	"github.com/google/uuid"
)

// ProductViewService собирает витрину товара: карточка, ценовая
// аналитика и (опционально) рекомендация за один запрос
type ProductViewService struct {
	productRepo     repository.ProductRepository
	historyRepo     repository.PriceHistoryRepository
	recommendations RecommendationProvider
}

// NewProductViewService создает сервис витрины товара
func NewProductViewService(productRepo repository.ProductRepository, historyRepo repository.PriceHistoryRepository, recommendations RecommendationProvider) *ProductViewService {
	return &ProductViewService{
		productRepo:     productRepo,
		historyRepo:     historyRepo,
		recommendations: recommendations,
	}
}

// Assemble строит полную витрину товара
// При пустой истории ценовые поля отдаются как null, товар остается
// видимым; отказ рекомендаций никогда не роняет ответ - поле просто null
func (s *ProductViewService) Assemble(ctx context.Context, productID uuid.UUID, includeRecommendation bool) (*entity.ProductViewResponse, error) {
	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	history, err := s.historyRepo.GetByProductID(ctx, productID)
	if err != nil {
		return nil, err
	}

	snapshot := ComputeSnapshot(history)
	view := buildViewData(product, snapshot)

	if includeRecommendation && snapshot != nil {
		// Absent (nil) оставляет поле null
		if result := s.recommendations.GetOrGenerate(ctx, product, snapshot, false); result != nil {
			view.Recommendation = &entity.RecommendationView{
				Text:        result.Text,
				GeneratedAt: result.GeneratedAt,
				IsCached:    result.FromCache,
			}
		}
	}

	return &entity.ProductViewResponse{
		Status:  "success",
		Product: *view,
	}, nil
}

// GetAllProducts возвращает каталог товаров без аналитики
func (s *ProductViewService) GetAllProducts(ctx context.Context) ([]entity.Product, error) {
	return s.productRepo.GetAll(ctx)
}

// ForceRegenerate принудительно регенерирует рекомендацию товара
// Возвращает nil без ошибки, если генерация недоступна и кеша нет
func (s *ProductViewService) ForceRegenerate(ctx context.Context, productID uuid.UUID) (*entity.RecommendationResult, error) {
	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	history, err := s.historyRepo.GetByProductID(ctx, productID)
	if err != nil {
		return nil, err
	}

	snapshot := ComputeSnapshot(history)
	if snapshot == nil {
		logger.Debug().Str("product_id", productID.String()).Msg("Skipping regeneration for product without price history")
		return nil, nil
	}

	return s.recommendations.GetOrGenerate(ctx, product, snapshot, true), nil
}

// InvalidateRecommendation удаляет кешированную рекомендацию товара
// Используется когда текст устарел по содержанию до истечения TTL
func (s *ProductViewService) InvalidateRecommendation(ctx context.Context, productID uuid.UUID) error {
	if _, err := s.productRepo.GetByID(ctx, productID); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return ErrProductNotFound
		}
		return err
	}

	return s.recommendations.Invalidate(ctx, productID)
}

// buildViewData превращает товар и снимок цены в данные витрины
// nil snapshot дает null во всех ценовых полях и is_on_sale=false
func buildViewData(product *entity.Product, snapshot *entity.PriceSnapshot) *entity.ProductViewData {
	view := &entity.ProductViewData{
		ID:           product.ID,
		Name:         product.Name,
		ImageURL:     product.ImageURL,
		ProductURL:   product.ProductURL,
		AffiliateURL: product.AffiliateURL,
		ReviewScore:  product.ReviewScore,
		ReviewCount:  product.ReviewCount,
	}

	if product.Brand != nil {
		view.Brand = product.Brand.Name
	}
	if product.Category != nil {
		view.Category = product.Category.Name
	}

	if snapshot != nil {
		view.CurrentPrice = &snapshot.CurrentPrice
		view.OriginalPrice = &snapshot.OriginalPrice
		view.LowestPrice = &snapshot.LowestPrice
		view.DiscountRate = &snapshot.DiscountRate
		view.IsOnSale = snapshot.IsOnSale
	}

	return view
}
