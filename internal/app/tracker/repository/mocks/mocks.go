package mocks

import (
	"context"
	"time"

	"pricepulse/internal/app/tracker/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockProductRepository мок репозитория товаров
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) Create(ctx context.Context, product *entity.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Product), args.Error(1)
}

func (m *MockProductRepository) GetAll(ctx context.Context) ([]entity.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Product), args.Error(1)
}

func (m *MockProductRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.Product, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Product), args.Error(1)
}

func (m *MockProductRepository) UpdatePriceFields(ctx context.Context, id uuid.UUID, currentPrice, lowestPrice int64, checkedAt time.Time) error {
	args := m.Called(ctx, id, currentPrice, lowestPrice, checkedAt)
	return args.Error(0)
}

// MockPriceHistoryRepository мок репозитория истории цен
type MockPriceHistoryRepository struct {
	mock.Mock
}

func (m *MockPriceHistoryRepository) Append(ctx context.Context, point *entity.PricePoint) error {
	args := m.Called(ctx, point)
	return args.Error(0)
}

func (m *MockPriceHistoryRepository) GetByProductID(ctx context.Context, productID uuid.UUID) ([]entity.PricePoint, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.PricePoint), args.Error(1)
}

func (m *MockPriceHistoryRepository) GetLatest(ctx context.Context, productID uuid.UUID) (*entity.PricePoint, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.PricePoint), args.Error(1)
}

// MockWatchlistRepository мок репозитория ватчлиста
type MockWatchlistRepository struct {
	mock.Mock
}

func (m *MockWatchlistRepository) Create(ctx context.Context, entry *entity.WatchEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockWatchlistRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.WatchEntry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.WatchEntry), args.Error(1)
}

func (m *MockWatchlistRepository) GetByUserID(ctx context.Context, userID uuid.UUID) ([]entity.WatchEntry, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.WatchEntry), args.Error(1)
}

func (m *MockWatchlistRepository) GetByProductID(ctx context.Context, productID uuid.UUID) ([]entity.WatchEntry, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.WatchEntry), args.Error(1)
}

func (m *MockWatchlistRepository) Update(ctx context.Context, entry *entity.WatchEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockWatchlistRepository) UpdateLastNotifiedPrice(ctx context.Context, id uuid.UUID, price int64) error {
	args := m.Called(ctx, id, price)
	return args.Error(0)
}

func (m *MockWatchlistRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockWatchlistRepository) GetWatchedProductIDs(ctx context.Context) ([]uuid.UUID, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockWatchlistRepository) GetTopWatched(ctx context.Context, limit int) ([]entity.ProductWatchCount, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.ProductWatchCount), args.Error(1)
}

// MockRankingRepository мок репозитория недельного рейтинга
type MockRankingRepository struct {
	mock.Mock
}

func (m *MockRankingRepository) ReplaceWeek(ctx context.Context, year, week int, rankings []entity.WeeklyRanking) error {
	args := m.Called(ctx, year, week, rankings)
	return args.Error(0)
}

func (m *MockRankingRepository) GetWeek(ctx context.Context, year, week int) ([]entity.WeeklyRanking, error) {
	args := m.Called(ctx, year, week)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.WeeklyRanking), args.Error(1)
}

func (m *MockRankingRepository) GetRankPosition(ctx context.Context, productID uuid.UUID, year, week int) (*int, error) {
	args := m.Called(ctx, productID, year, week)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*int), args.Error(1)
}

func (m *MockRankingRepository) GetRecentWeeks(ctx context.Context, limit int) ([]entity.RankingWeek, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.RankingWeek), args.Error(1)
}

// MockRecommendationStore мок keyed store рекомендаций
type MockRecommendationStore struct {
	mock.Mock
}

func (m *MockRecommendationStore) Get(ctx context.Context, productID uuid.UUID) (*entity.RecommendationRecord, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.RecommendationRecord), args.Error(1)
}

func (m *MockRecommendationStore) Save(ctx context.Context, productID uuid.UUID, record *entity.RecommendationRecord) error {
	args := m.Called(ctx, productID, record)
	return args.Error(0)
}

func (m *MockRecommendationStore) CompareAndSwap(ctx context.Context, productID uuid.UUID, expected *time.Time, record *entity.RecommendationRecord) error {
	args := m.Called(ctx, productID, expected, record)
	return args.Error(0)
}

func (m *MockRecommendationStore) Delete(ctx context.Context, productID uuid.UUID) error {
	args := m.Called(ctx, productID)
	return args.Error(0)
}

// MockNotificationRepository мок истории уведомлений
type MockNotificationRepository struct {
	mock.Mock
}

func (m *MockNotificationRepository) Insert(ctx context.Context, record *entity.NotificationRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockNotificationRepository) GetByUserID(ctx context.Context, userID string, limit int64) ([]entity.NotificationRecord, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.NotificationRecord), args.Error(1)
}

// MockMessagePublisher мок Kafka producer
type MockMessagePublisher struct {
	mock.Mock
}

func (m *MockMessagePublisher) PublishMessage(ctx context.Context, key string, value []byte) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockMessagePublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockTextGenerator мок внешнего генератора текста
type MockTextGenerator struct {
	mock.Mock
}

func (m *MockTextGenerator) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	args := m.Called(ctx, prompt, maxTokens)
	return args.String(0), args.Error(1)
}

// MockNotificationDispatcher мок доставки уведомлений
type MockNotificationDispatcher struct {
	mock.Mock
}

func (m *MockNotificationDispatcher) Dispatch(ctx context.Context, event *entity.NotificationEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// MockAlertEvaluator мок движка алертов
type MockAlertEvaluator struct {
	mock.Mock
}

func (m *MockAlertEvaluator) EvaluateProduct(ctx context.Context, productID uuid.UUID, snapshot *entity.PriceSnapshot, oldPrice int64) error {
	args := m.Called(ctx, productID, snapshot, oldPrice)
	return args.Error(0)
}

// MockRecommendationProvider мок сервиса рекомендаций
type MockRecommendationProvider struct {
	mock.Mock
}

func (m *MockRecommendationProvider) GetOrGenerate(ctx context.Context, product *entity.Product, snapshot *entity.PriceSnapshot, forceRegenerate bool) *entity.RecommendationResult {
	args := m.Called(ctx, product, snapshot, forceRegenerate)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*entity.RecommendationResult)
}

func (m *MockRecommendationProvider) Invalidate(ctx context.Context, productID uuid.UUID) error {
	args := m.Called(ctx, productID)
	return args.Error(0)
}

// MockPriceIngestor мок приема точек цен
type MockPriceIngestor struct {
	mock.Mock
}

func (m *MockPriceIngestor) IngestPricePoint(ctx context.Context, productID uuid.UUID, price int64, observedAt time.Time) error {
	args := m.Called(ctx, productID, price, observedAt)
	return args.Error(0)
}

// MockPriceFeed мок внешнего фида цен
type MockPriceFeed struct {
	mock.Mock
}

func (m *MockPriceFeed) FetchLatestPrice(ctx context.Context, product *entity.Product) (int64, error) {
	args := m.Called(ctx, product)
	return args.Get(0).(int64), args.Error(1)
}

// MockProductViewService мок сервиса витрины для handler тестов
type MockProductViewService struct {
	mock.Mock
}

func (m *MockProductViewService) Assemble(ctx context.Context, productID uuid.UUID, includeRecommendation bool) (*entity.ProductViewResponse, error) {
	args := m.Called(ctx, productID, includeRecommendation)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ProductViewResponse), args.Error(1)
}

func (m *MockProductViewService) GetAllProducts(ctx context.Context) ([]entity.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Product), args.Error(1)
}

func (m *MockProductViewService) ForceRegenerate(ctx context.Context, productID uuid.UUID) (*entity.RecommendationResult, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.RecommendationResult), args.Error(1)
}

func (m *MockProductViewService) InvalidateRecommendation(ctx context.Context, productID uuid.UUID) error {
	args := m.Called(ctx, productID)
	return args.Error(0)
}

// MockWatchlistService мок сервиса подписок для handler тестов
type MockWatchlistService struct {
	mock.Mock
}

func (m *MockWatchlistService) Create(ctx context.Context, userID uuid.UUID, req *entity.CreateWatchEntryRequest) (*entity.WatchEntry, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.WatchEntry), args.Error(1)
}

func (m *MockWatchlistService) GetByUser(ctx context.Context, userID uuid.UUID) ([]entity.WatchEntry, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.WatchEntry), args.Error(1)
}

func (m *MockWatchlistService) Update(ctx context.Context, userID, entryID uuid.UUID, req *entity.UpdateWatchEntryRequest) (*entity.WatchEntry, error) {
	args := m.Called(ctx, userID, entryID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.WatchEntry), args.Error(1)
}

func (m *MockWatchlistService) Delete(ctx context.Context, userID, entryID uuid.UUID) error {
	args := m.Called(ctx, userID, entryID)
	return args.Error(0)
}

// MockRankingService мок сервиса недельного рейтинга для handler тестов
type MockRankingService struct {
	mock.Mock
}

func (m *MockRankingService) GetWeeklyRanking(ctx context.Context, year, week int) (*entity.WeeklyRankingResponse, error) {
	args := m.Called(ctx, year, week)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.WeeklyRankingResponse), args.Error(1)
}

func (m *MockRankingService) GetRankingHistory(ctx context.Context, weeks int) (*entity.RankingHistoryResponse, error) {
	args := m.Called(ctx, weeks)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.RankingHistoryResponse), args.Error(1)
}
