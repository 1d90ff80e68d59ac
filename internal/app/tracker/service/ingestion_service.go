package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pricepulse/internal/app/tracker/entity"
	"pricepulse/internal/app/tracker/repository"
	"pricepulse/internal/app/tracker/util"
	"pricepulse/pkg/logger"
	"pricepulse/pkg/metrics"

	"github.com/google/uuid"
)

// IngestionService принимает новые точки цен
// Точки одного товара обрабатываются строго последовательно (keyed mutex
// по ID товара), разные товары - параллельно
//
// Любая точка попадает в историю, но устаревшая точка (observed_at не
// новее последней) не меняет денормализованные поля товара и не
// оценивается движком алертов
type IngestionService struct {
	productRepo repository.ProductRepository
	historyRepo repository.PriceHistoryRepository
	alerts      AlertEvaluator
	locks       *util.KeyedMutex
}

// NewIngestionService создает сервис приема цен
func NewIngestionService(productRepo repository.ProductRepository, historyRepo repository.PriceHistoryRepository, alerts AlertEvaluator) *IngestionService {
	return &IngestionService{
		productRepo: productRepo,
		historyRepo: historyRepo,
		alerts:      alerts,
		locks:       util.NewKeyedMutex(),
	}
}

// IngestPricePoint применяет одну точку цены к товару
func (s *IngestionService) IngestPricePoint(ctx context.Context, productID uuid.UUID, price int64, observedAt time.Time) error {
	if price < 0 {
		metrics.PricePointsIngested.WithLabelValues("failed").Inc()
		return fmt.Errorf("price must be non-negative, got %d", price)
	}

	key := productID.String()
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	// Проверяем существование товара до записи в историю
	if _, err := s.productRepo.GetByID(ctx, productID); err != nil {
		metrics.PricePointsIngested.WithLabelValues("failed").Inc()
		if errors.Is(err, repository.ErrProductNotFound) {
			return ErrProductNotFound
		}
		return err
	}

	latest, err := s.historyRepo.GetLatest(ctx, productID)
	if err != nil {
		metrics.PricePointsIngested.WithLabelValues("failed").Inc()
		return err
	}

	point := &entity.PricePoint{
		ID:         uuid.New(),
		ProductID:  productID,
		Price:      price,
		ObservedAt: observedAt,
	}

	// История append-only: в нее попадают и устаревшие точки,
	// хронология источника сохраняется целиком
	if err := s.historyRepo.Append(ctx, point); err != nil {
		metrics.PricePointsIngested.WithLabelValues("failed").Inc()
		return err
	}

	if latest != nil && !observedAt.After(latest.ObservedAt) {
		metrics.PricePointsIngested.WithLabelValues("stale").Inc()
		logger.Debug().
			Str("product_id", key).
			Time("observed_at", observedAt).
			Time("latest_observed_at", latest.ObservedAt).
			Msg("Skipping stale price point")
		return nil
	}

	history, err := s.historyRepo.GetByProductID(ctx, productID)
	if err != nil {
		metrics.PricePointsIngested.WithLabelValues("failed").Inc()
		return err
	}

	snapshot := ComputeSnapshot(history)
	if snapshot == nil {
		// Недостижимо после успешного Append, но защищаемся от
		// рассинхронизации чтения
		metrics.PricePointsIngested.WithLabelValues("failed").Inc()
		return fmt.Errorf("empty history for product %s after append", key)
	}

	if err := s.productRepo.UpdatePriceFields(ctx, productID, snapshot.CurrentPrice, snapshot.LowestPrice, observedAt); err != nil {
		metrics.PricePointsIngested.WithLabelValues("failed").Inc()
		return err
	}

	metrics.PricePointsIngested.WithLabelValues("applied").Inc()

	oldPrice := price
	if latest != nil {
		oldPrice = latest.Price
	}

	if err := s.alerts.EvaluateProduct(ctx, productID, snapshot, oldPrice); err != nil {
		// Отказ оценки алертов не откатывает принятую точку
		logger.Error().
			Err(err).
			Str("product_id", key).
			Msg("Alert evaluation failed for ingested price point")
	}

	return nil
}
