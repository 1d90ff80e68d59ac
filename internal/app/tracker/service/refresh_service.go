package service

import (
	"context"
	"time"

	"pricepulse/internal/app/tracker/repository"
	"pricepulse/pkg/logger"

	"github.com/google/uuid"
)

// RefreshService выполняет фоновые батчи: периодическое обновление цен
// ватчлист-товаров из внешнего фида и прогрев кеша рекомендаций
type RefreshService struct {
	productRepo     repository.ProductRepository
	historyRepo     repository.PriceHistoryRepository
	watchlistRepo   repository.WatchlistRepository
	store           repository.RecommendationStore
	feed            PriceFeed
	ingestor        PriceIngestor
	recommendations RecommendationProvider
	ttl             time.Duration
	warmupBatch     int
}

// NewRefreshService создает сервис фоновых батчей
func NewRefreshService(
	productRepo repository.ProductRepository,
	historyRepo repository.PriceHistoryRepository,
	watchlistRepo repository.WatchlistRepository,
	store repository.RecommendationStore,
	feed PriceFeed,
	ingestor PriceIngestor,
	recommendations RecommendationProvider,
	ttl time.Duration,
	warmupBatch int,
) *RefreshService {
	return &RefreshService{
		productRepo:     productRepo,
		historyRepo:     historyRepo,
		watchlistRepo:   watchlistRepo,
		store:           store,
		feed:            feed,
		ingestor:        ingestor,
		recommendations: recommendations,
		ttl:             ttl,
		warmupBatch:     warmupBatch,
	}
}

// RefreshWatchedPrices опрашивает внешний фид по товарам, на которые
// есть подписки, и прогоняет полученные цены через обычный инжест
// Отказ по одному товару не прерывает батч
func (s *RefreshService) RefreshWatchedPrices(ctx context.Context) {
	ids, err := s.watchlistRepo.GetWatchedProductIDs(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load watched product ids for refresh")
		return
	}

	if len(ids) == 0 {
		logger.Debug().Msg("No watched products, skipping price refresh")
		return
	}

	products, err := s.productRepo.GetByIDs(ctx, ids)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load watched products for refresh")
		return
	}

	refreshed := 0
	for i := range products {
		product := &products[i]

		price, err := s.feed.FetchLatestPrice(ctx, product)
		if err != nil {
			logger.Warn().
				Err(err).
				Str("product_id", product.ID.String()).
				Msg("Price feed fetch failed")
			continue
		}

		if err := s.ingestor.IngestPricePoint(ctx, product.ID, price, time.Now()); err != nil {
			logger.Error().
				Err(err).
				Str("product_id", product.ID.String()).
				Msg("Failed to ingest refreshed price")
			continue
		}
		refreshed++
	}

	logger.Info().
		Int("total", len(products)).
		Int("refreshed", refreshed).
		Msg("Watched prices refresh completed")
}

// WarmupRecommendations заранее регенерирует протухшие рекомендации,
// чтобы пользовательские запросы реже ждали генерацию
// За один прогон обрабатывается не больше warmupBatch товаров
func (s *RefreshService) WarmupRecommendations(ctx context.Context) {
	products, err := s.productRepo.GetAll(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load products for cache warmup")
		return
	}

	warmed := 0
	for i := range products {
		if warmed >= s.warmupBatch {
			break
		}
		if ctx.Err() != nil {
			return
		}

		product := &products[i]

		stale, err := s.isStale(ctx, product.ID)
		if err != nil {
			logger.Warn().
				Err(err).
				Str("product_id", product.ID.String()).
				Msg("Failed to check recommendation freshness")
			continue
		}
		if !stale {
			continue
		}

		history, err := s.historyRepo.GetByProductID(ctx, product.ID)
		if err != nil {
			logger.Warn().
				Err(err).
				Str("product_id", product.ID.String()).
				Msg("Failed to load price history for warmup")
			continue
		}

		snapshot := ComputeSnapshot(history)
		if snapshot == nil {
			continue
		}

		// Absent или stale на выходе не важны: прогрев делает попытку,
		// пользовательские запросы доделают остальное
		s.recommendations.GetOrGenerate(ctx, product, snapshot, true)
		warmed++
	}

	logger.Info().Int("warmed", warmed).Msg("Recommendation cache warmup completed")
}

// isStale проверяет, нужна ли товару регенерация рекомендации
func (s *RefreshService) isStale(ctx context.Context, productID uuid.UUID) (bool, error) {
	record, err := s.store.Get(ctx, productID)
	if err != nil {
		return false, err
	}
	if record == nil {
		return true, nil
	}
	return time.Since(record.GeneratedAt) >= s.ttl, nil
}
