package repository

import (
	"context"
	"errors"
	"time"

	"pricepulse/internal/app/tracker/entity"

	"github.com/google/uuid"
)

var (
	// Стандартные ошибки репозиториев для обработки в service layer
	ErrProductNotFound    = errors.New("product not found")
	ErrWatchEntryNotFound = errors.New("watch entry not found")
	ErrDuplicateWatch     = errors.New("watch entry already exists")
	ErrRecordConflict     = errors.New("record was modified concurrently")
)

// ProductRepository - доступ к товарам в PostgreSQL
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Product, error)
	GetAll(ctx context.Context) ([]entity.Product, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.Product, error)
	// UpdatePriceFields обновляет денормализованные ценовые поля после инжеста
	UpdatePriceFields(ctx context.Context, id uuid.UUID, currentPrice, lowestPrice int64, checkedAt time.Time) error
}

// PriceHistoryRepository - append-only история цен
// Записи не изменяются и не удаляются
type PriceHistoryRepository interface {
	Append(ctx context.Context, point *entity.PricePoint) error
	// GetByProductID возвращает историю в порядке observed_at по возрастанию
	GetByProductID(ctx context.Context, productID uuid.UUID) ([]entity.PricePoint, error)
	// GetLatest возвращает самую свежую точку или nil при пустой истории
	GetLatest(ctx context.Context, productID uuid.UUID) (*entity.PricePoint, error)
}

// WatchlistRepository - подписки пользователей на цены
type WatchlistRepository interface {
	Create(ctx context.Context, entry *entity.WatchEntry) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.WatchEntry, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) ([]entity.WatchEntry, error)
	GetByProductID(ctx context.Context, productID uuid.UUID) ([]entity.WatchEntry, error)
	Update(ctx context.Context, entry *entity.WatchEntry) error
	// UpdateLastNotifiedPrice вызывается только движком алертов после отправки
	UpdateLastNotifiedPrice(ctx context.Context, id uuid.UUID, price int64) error
	Delete(ctx context.Context, id uuid.UUID) error
	// GetWatchedProductIDs возвращает товары, на которые есть хотя бы одна подписка
	GetWatchedProductIDs(ctx context.Context) ([]uuid.UUID, error)
	// GetTopWatched возвращает товары по убыванию числа уникальных подписчиков
	GetTopWatched(ctx context.Context, limit int) ([]entity.ProductWatchCount, error)
}

// RankingRepository - хранение недельного рейтинга популярности
type RankingRepository interface {
	// ReplaceWeek атомарно заменяет рейтинг недели: старые строки
	// удаляются и вставляются новые в одной транзакции
	ReplaceWeek(ctx context.Context, year, week int, rankings []entity.WeeklyRanking) error
	// GetWeek возвращает строки недели по возрастанию позиции,
	// пустой срез если рейтинг за неделю не генерировался
	GetWeek(ctx context.Context, year, week int) ([]entity.WeeklyRanking, error)
	// GetRankPosition возвращает позицию товара за неделю или nil
	GetRankPosition(ctx context.Context, productID uuid.UUID, year, week int) (*int, error)
	// GetRecentWeeks возвращает последние сгенерированные недели, новые первыми
	GetRecentWeeks(ctx context.Context, limit int) ([]entity.RankingWeek, error)
}

// RecommendationStore - keyed store кешированных рекомендаций (Redis)
// Запись хранится целиком: текст и generated_at меняются только вместе
type RecommendationStore interface {
	// Get возвращает (nil, nil) если записи нет
	Get(ctx context.Context, productID uuid.UUID) (*entity.RecommendationRecord, error)
	// Save безусловно заменяет запись целиком
	Save(ctx context.Context, productID uuid.UUID, record *entity.RecommendationRecord) error
	// CompareAndSwap заменяет запись только если generated_at текущей записи
	// совпадает с expected (nil = записи не должно быть);
	// при гонке возвращает ErrRecordConflict
	CompareAndSwap(ctx context.Context, productID uuid.UUID, expected *time.Time, record *entity.RecommendationRecord) error
	Delete(ctx context.Context, productID uuid.UUID) error
}

// NotificationRepository - история доставленных уведомлений (MongoDB)
type NotificationRepository interface {
	Insert(ctx context.Context, record *entity.NotificationRecord) error
	GetByUserID(ctx context.Context, userID string, limit int64) ([]entity.NotificationRecord, error)
}
