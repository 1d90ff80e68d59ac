package repository

import (
	"context"
	"errors"
	"time"

	"pricepulse/internal/app/tracker/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type watchlistRepository struct {
	db *gorm.DB
}

// NewWatchlistRepository создает новый репозиторий ватчлиста
func NewWatchlistRepository(db *gorm.DB) WatchlistRepository {
	return &watchlistRepository{db: db}
}

// Create создает подписку пользователя на товар
// Пара (user_id, product_id) уникальна
func (r *watchlistRepository) Create(ctx context.Context, entry *entity.WatchEntry) error {
	result := r.db.WithContext(ctx).Create(entry)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return ErrDuplicateWatch
		}
		return result.Error
	}
	return nil
}

// GetByID получает подписку по ID
func (r *watchlistRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.WatchEntry, error) {
	var entry entity.WatchEntry
	result := r.db.WithContext(ctx).First(&entry, "id = ?", id)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrWatchEntryNotFound
		}
		return nil, result.Error
	}

	return &entry, nil
}

// GetByUserID получает все подписки пользователя
func (r *watchlistRepository) GetByUserID(ctx context.Context, userID uuid.UUID) ([]entity.WatchEntry, error) {
	var entries []entity.WatchEntry
	result := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&entries)

	if result.Error != nil {
		return nil, result.Error
	}

	return entries, nil
}

// GetByProductID получает все подписки на товар
// Используется движком алертов при инжесте новой точки цены
func (r *watchlistRepository) GetByProductID(ctx context.Context, productID uuid.UUID) ([]entity.WatchEntry, error) {
	var entries []entity.WatchEntry
	result := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Find(&entries)

	if result.Error != nil {
		return nil, result.Error
	}

	return entries, nil
}

// Update обновляет пороги подписки
func (r *watchlistRepository) Update(ctx context.Context, entry *entity.WatchEntry) error {
	result := r.db.WithContext(ctx).Model(entry).Where("id = ?", entry.ID).Updates(map[string]interface{}{
		"threshold_price":         entry.ThresholdPrice,
		"threshold_discount_rate": entry.ThresholdDiscountRate,
		"updated_at":              time.Now(),
	})

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrWatchEntryNotFound
	}

	return nil
}

// UpdateLastNotifiedPrice фиксирует цену, о которой пользователь уже уведомлен
// Единственная мутация WatchEntry, которую выполняет движок алертов
func (r *watchlistRepository) UpdateLastNotifiedPrice(ctx context.Context, id uuid.UUID, price int64) error {
	result := r.db.WithContext(ctx).Model(&entity.WatchEntry{}).Where("id = ?", id).Updates(map[string]interface{}{
		"last_notified_price": price,
		"updated_at":          time.Now(),
	})

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrWatchEntryNotFound
	}

	return nil
}

// Delete удаляет подписку
func (r *watchlistRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&entity.WatchEntry{}, "id = ?", id)

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrWatchEntryNotFound
	}

	return nil
}

// GetWatchedProductIDs возвращает ID товаров с хотя бы одной подпиской
// Используется батчем обновления цен и прогревом кеша рекомендаций
func (r *watchlistRepository) GetWatchedProductIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	result := r.db.WithContext(ctx).
		Model(&entity.WatchEntry{}).
		Distinct("product_id").
		Pluck("product_id", &ids)

	if result.Error != nil {
		return nil, result.Error
	}

	return ids, nil
}

// GetTopWatched возвращает товары по убыванию числа уникальных подписчиков
// Основа недельного рейтинга популярности
func (r *watchlistRepository) GetTopWatched(ctx context.Context, limit int) ([]entity.ProductWatchCount, error) {
	var counts []entity.ProductWatchCount
	result := r.db.WithContext(ctx).
		Model(&entity.WatchEntry{}).
		Select("product_id, COUNT(DISTINCT user_id) AS watchlist_count").
		Group("product_id").
		Order("watchlist_count DESC").
		Limit(limit).
		Scan(&counts)

	if result.Error != nil {
		return nil, result.Error
	}

	return counts, nil
}
