package service

import (
	"context"
	"time"

	"pricepulse/internal/app/tracker/entity"

	"github.com/google/uuid"
)

// TextGenerator - внешний сервис генерации текста
// Единственная операция ядра с существенным сетевым ожиданием,
// всегда вызывается под явным таймаутом
type TextGenerator interface {
	Generate(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// RecommendationProvider - получение рекомендации с кешированием
type RecommendationProvider interface {
	GetOrGenerate(ctx context.Context, product *entity.Product, snapshot *entity.PriceSnapshot, forceRegenerate bool) *entity.RecommendationResult
	// Invalidate удаляет кешированную запись товара
	Invalidate(ctx context.Context, productID uuid.UUID) error
}

// NotificationDispatcher - граница доставки уведомлений
// Ограниченные ретраи живут здесь, а не в движке алертов
type NotificationDispatcher interface {
	Dispatch(ctx context.Context, event *entity.NotificationEvent) error
}

// AlertEvaluator - оценка подписок при поступлении новой точки цены
type AlertEvaluator interface {
	EvaluateProduct(ctx context.Context, productID uuid.UUID, snapshot *entity.PriceSnapshot, oldPrice int64) error
}

// PriceIngestor - прием новых точек цен
type PriceIngestor interface {
	IngestPricePoint(ctx context.Context, productID uuid.UUID, price int64, observedAt time.Time) error
}

// PriceFeed - внешний источник актуальных цен
type PriceFeed interface {
	FetchLatestPrice(ctx context.Context, product *entity.Product) (int64, error)
}

// ProductViewServiceInterface - сборка витрины товара для handlers
type ProductViewServiceInterface interface {
	Assemble(ctx context.Context, productID uuid.UUID, includeRecommendation bool) (*entity.ProductViewResponse, error)
	GetAllProducts(ctx context.Context) ([]entity.Product, error)
	ForceRegenerate(ctx context.Context, productID uuid.UUID) (*entity.RecommendationResult, error)
	InvalidateRecommendation(ctx context.Context, productID uuid.UUID) error
}

// RankingServiceInterface - чтение недельного рейтинга для handlers
type RankingServiceInterface interface {
	// GetWeeklyRanking: нулевые year и week означают текущую ISO-неделю
	GetWeeklyRanking(ctx context.Context, year, week int) (*entity.WeeklyRankingResponse, error)
	GetRankingHistory(ctx context.Context, weeks int) (*entity.RankingHistoryResponse, error)
}

// WatchlistServiceInterface - управление подписками для handlers
type WatchlistServiceInterface interface {
	Create(ctx context.Context, userID uuid.UUID, req *entity.CreateWatchEntryRequest) (*entity.WatchEntry, error)
	GetByUser(ctx context.Context, userID uuid.UUID) ([]entity.WatchEntry, error)
	Update(ctx context.Context, userID, entryID uuid.UUID, req *entity.UpdateWatchEntryRequest) (*entity.WatchEntry, error)
	Delete(ctx context.Context, userID, entryID uuid.UUID) error
}
