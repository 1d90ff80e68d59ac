package repository

import (
	"context"
	"errors"
	"time"

	"pricepulse/internal/app/tracker/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type productRepository struct {
	db *gorm.DB
}

// NewProductRepository создает новый репозиторий товаров
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

// Create создает новый товар
func (r *productRepository) Create(ctx context.Context, product *entity.Product) error {
	result := r.db.WithContext(ctx).Create(product)
	return result.Error
}

// GetByID получает товар по ID вместе с брендом и категорией
func (r *productRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Product, error) {
	var product entity.Product
	result := r.db.WithContext(ctx).
		Preload("Brand").
		Preload("Category").
		First(&product, "id = ?", id)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, result.Error
	}

	return &product, nil
}

// GetAll получает все товары
func (r *productRepository) GetAll(ctx context.Context) ([]entity.Product, error) {
	var products []entity.Product
	result := r.db.WithContext(ctx).
		Preload("Brand").
		Preload("Category").
		Order("created_at DESC").
		Find(&products)

	if result.Error != nil {
		return nil, result.Error
	}

	return products, nil
}

// GetByIDs получает товары по списку ID (для батчевых задач)
func (r *productRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var products []entity.Product
	result := r.db.WithContext(ctx).
		Preload("Brand").
		Preload("Category").
		Where("id IN ?", ids).
		Find(&products)

	if result.Error != nil {
		return nil, result.Error
	}

	return products, nil
}

// UpdatePriceFields обновляет денормализованные ценовые поля товара
// Вызывается сервисом инжеста после записи новой точки цены
func (r *productRepository) UpdatePriceFields(ctx context.Context, id uuid.UUID, currentPrice, lowestPrice int64, checkedAt time.Time) error {
	result := r.db.WithContext(ctx).Model(&entity.Product{}).Where("id = ?", id).Updates(map[string]interface{}{
		"current_price": currentPrice,
		"lowest_price":  lowestPrice,
		"checked_at":    checkedAt,
	})

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}
