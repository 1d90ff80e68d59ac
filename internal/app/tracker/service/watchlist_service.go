package service

import (
	"context"
	"errors"

	"pricepulse/internal/app/tracker/entity"
	"pricepulse/internal/app/tracker/repository"

	"github.com/google/uuid"
)

// WatchlistService управляет подписками пользователей на цены
type WatchlistService struct {
	watchlistRepo repository.WatchlistRepository
	productRepo   repository.ProductRepository
}

// NewWatchlistService создает сервис подписок
func NewWatchlistService(watchlistRepo repository.WatchlistRepository, productRepo repository.ProductRepository) *WatchlistService {
	return &WatchlistService{
		watchlistRepo: watchlistRepo,
		productRepo:   productRepo,
	}
}

// Create добавляет подписку пользователя на товар
// Дубликат пары (user, product) отклоняется
func (s *WatchlistService) Create(ctx context.Context, userID uuid.UUID, req *entity.CreateWatchEntryRequest) (*entity.WatchEntry, error) {
	if _, err := s.productRepo.GetByID(ctx, req.ProductID); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	entry := &entity.WatchEntry{
		ID:                    uuid.New(),
		UserID:                userID,
		ProductID:             req.ProductID,
		ThresholdPrice:        req.ThresholdPrice,
		ThresholdDiscountRate: req.ThresholdDiscountRate,
	}

	if err := s.watchlistRepo.Create(ctx, entry); err != nil {
		if errors.Is(err, repository.ErrDuplicateWatch) {
			return nil, ErrDuplicateWatch
		}
		return nil, err
	}

	return entry, nil
}

// GetByUser возвращает все подписки пользователя
func (s *WatchlistService) GetByUser(ctx context.Context, userID uuid.UUID) ([]entity.WatchEntry, error) {
	return s.watchlistRepo.GetByUserID(ctx, userID)
}

// Update изменяет пороги подписки
// Подписку может менять только её владелец
func (s *WatchlistService) Update(ctx context.Context, userID, entryID uuid.UUID, req *entity.UpdateWatchEntryRequest) (*entity.WatchEntry, error) {
	entry, err := s.ownedEntry(ctx, userID, entryID)
	if err != nil {
		return nil, err
	}

	entry.ThresholdPrice = req.ThresholdPrice
	entry.ThresholdDiscountRate = req.ThresholdDiscountRate

	if err := s.watchlistRepo.Update(ctx, entry); err != nil {
		return nil, err
	}

	return entry, nil
}

// Delete удаляет подписку владельца
func (s *WatchlistService) Delete(ctx context.Context, userID, entryID uuid.UUID) error {
	if _, err := s.ownedEntry(ctx, userID, entryID); err != nil {
		return err
	}
	return s.watchlistRepo.Delete(ctx, entryID)
}

// ownedEntry загружает подписку и проверяет владение
func (s *WatchlistService) ownedEntry(ctx context.Context, userID, entryID uuid.UUID) (*entity.WatchEntry, error) {
	entry, err := s.watchlistRepo.GetByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, repository.ErrWatchEntryNotFound) {
			return nil, ErrWatchEntryNotFound
		}
		return nil, err
	}

	if entry.UserID != userID {
		return nil, ErrForbidden
	}

	return entry, nil
}
