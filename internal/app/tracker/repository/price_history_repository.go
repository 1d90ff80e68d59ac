package repository

import (
	"context"
	"errors"

	"pricepulse/internal/app/tracker/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type priceHistoryRepository struct {
	db *gorm.DB
}

// NewPriceHistoryRepository создает новый репозиторий истории цен
func NewPriceHistoryRepository(db *gorm.DB) PriceHistoryRepository {
	return &priceHistoryRepository{db: db}
}

// Append добавляет новую точку цены
// История append-only: UPDATE и DELETE по этой таблице не выполняются
func (r *priceHistoryRepository) Append(ctx context.Context, point *entity.PricePoint) error {
	result := r.db.WithContext(ctx).Create(point)
	return result.Error
}

// GetByProductID возвращает всю историю товара в хронологическом порядке
// Порядок по observed_at обязателен: на нем построена вся аналитика
func (r *priceHistoryRepository) GetByProductID(ctx context.Context, productID uuid.UUID) ([]entity.PricePoint, error) {
	var points []entity.PricePoint
	result := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("observed_at ASC").
		Find(&points)

	if result.Error != nil {
		return nil, result.Error
	}

	return points, nil
}

// GetLatest возвращает самую свежую точку цены или nil при пустой истории
func (r *priceHistoryRepository) GetLatest(ctx context.Context, productID uuid.UUID) (*entity.PricePoint, error) {
	var point entity.PricePoint
	result := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("observed_at DESC").
		First(&point)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}

	return &point, nil
}
