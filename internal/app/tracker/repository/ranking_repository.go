package repository

import (
	"context"
	"errors"

	"pricepulse/internal/app/tracker/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type rankingRepository struct {
	db *gorm.DB
}

// NewRankingRepository создает репозиторий недельного рейтинга
func NewRankingRepository(db *gorm.DB) RankingRepository {
	return &rankingRepository{db: db}
}

// ReplaceWeek заменяет рейтинг недели целиком
// Повторный запуск батча за ту же неделю перезаписывает результат
func (r *rankingRepository) ReplaceWeek(ctx context.Context, year, week int, rankings []entity.WeeklyRanking) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("year = ? AND week_number = ?", year, week).
			Delete(&entity.WeeklyRanking{}).Error; err != nil {
			return err
		}

		if len(rankings) == 0 {
			return nil
		}

		return tx.Create(&rankings).Error
	})
}

// GetWeek возвращает строки рейтинга недели по возрастанию позиции
func (r *rankingRepository) GetWeek(ctx context.Context, year, week int) ([]entity.WeeklyRanking, error) {
	var rankings []entity.WeeklyRanking
	result := r.db.WithContext(ctx).
		Preload("Product").
		Preload("Product.Brand").
		Preload("Product.Category").
		Where("year = ? AND week_number = ?", year, week).
		Order("rank_position ASC").
		Find(&rankings)

	if result.Error != nil {
		return nil, result.Error
	}

	return rankings, nil
}

// GetRankPosition возвращает позицию товара за неделю
// nil означает что товар в рейтинг той недели не попал
func (r *rankingRepository) GetRankPosition(ctx context.Context, productID uuid.UUID, year, week int) (*int, error) {
	var ranking entity.WeeklyRanking
	result := r.db.WithContext(ctx).
		Select("rank_position").
		Where("product_id = ? AND year = ? AND week_number = ?", productID, year, week).
		First(&ranking)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}

	return &ranking.RankPosition, nil
}

// GetRecentWeeks возвращает последние сгенерированные недели, новые первыми
func (r *rankingRepository) GetRecentWeeks(ctx context.Context, limit int) ([]entity.RankingWeek, error) {
	var weeks []entity.RankingWeek
	result := r.db.WithContext(ctx).
		Model(&entity.WeeklyRanking{}).
		Distinct("year", "week_number").
		Order("year DESC, week_number DESC").
		Limit(limit).
		Find(&weeks)

	if result.Error != nil {
		return nil, result.Error
	}

	return weeks, nil
}
