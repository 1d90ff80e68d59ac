package service

import (
	"context"
	"time"

	"pricepulse/internal/app/tracker/entity"
	"pricepulse/internal/app/tracker/repository"
	"pricepulse/pkg/logger"
	"pricepulse/pkg/metrics"

	"github.com/google/uuid"
)

// AlertService оценивает условия ценовых оповещений по подпискам
// Срабатывание требует одновременно:
//   - выполнения порога (цена <= threshold_price ИЛИ скидка >= threshold_discount_rate)
//   - цена строго ниже последней цены оповещения (защита от повторов
//     на той же или растущей цене); первое срабатывание проходит всегда
type AlertService struct {
	watchlistRepo repository.WatchlistRepository
	dispatcher    NotificationDispatcher
}

// NewAlertService создает сервис оповещений
func NewAlertService(watchlistRepo repository.WatchlistRepository, dispatcher NotificationDispatcher) *AlertService {
	return &AlertService{
		watchlistRepo: watchlistRepo,
		dispatcher:    dispatcher,
	}
}

// EvaluateProduct проверяет все подписки товара против нового снимка цены
// Вызывается только после применения актуальной (не устаревшей) точки цены
// oldPrice - цена до применения точки, уходит в полезную нагрузку события
func (s *AlertService) EvaluateProduct(ctx context.Context, productID uuid.UUID, snapshot *entity.PriceSnapshot, oldPrice int64) error {
	if snapshot == nil {
		return nil
	}

	entries, err := s.watchlistRepo.GetByProductID(ctx, productID)
	if err != nil {
		return err
	}

	for i := range entries {
		entry := &entries[i]

		condition, fired := s.evaluateEntry(entry, snapshot)
		if !fired {
			continue
		}

		event := &entity.NotificationEvent{
			UserID:    entry.UserID,
			ProductID: entry.ProductID,
			OldPrice:  oldPrice,
			NewPrice:  snapshot.CurrentPrice,
			Reason:    condition,
			FiredAt:   time.Now(),
		}

		metrics.RecordAlertFired(condition)

		// Отказ доставки не откатывает оценку: состояние подписки
		// обновляется в любом случае, дедупликация важнее повторной
		// попытки на следующей точке
		if err := s.dispatcher.Dispatch(ctx, event); err != nil {
			logger.Error().
				Err(err).
				Str("user_id", entry.UserID.String()).
				Str("product_id", entry.ProductID.String()).
				Msg("Failed to dispatch price alert")
		}

		if err := s.watchlistRepo.UpdateLastNotifiedPrice(ctx, entry.ID, snapshot.CurrentPrice); err != nil {
			logger.Error().
				Err(err).
				Str("watch_entry_id", entry.ID.String()).
				Msg("Failed to update last notified price")
		}
	}

	return nil
}

// evaluateEntry решает, срабатывает ли подписка на данном снимке
// Возвращает условие срабатывания ("target_price" приоритетнее
// "discount_rate", если выполнены оба) и флаг срабатывания
func (s *AlertService) evaluateEntry(entry *entity.WatchEntry, snapshot *entity.PriceSnapshot) (string, bool) {
	// Дедупликация: оповещаем только при движении цены вниз
	// относительно последнего оповещения
	if entry.LastNotifiedPrice != nil && snapshot.CurrentPrice >= *entry.LastNotifiedPrice {
		return "", false
	}

	if entry.ThresholdPrice != nil && snapshot.CurrentPrice <= *entry.ThresholdPrice {
		return "target_price", true
	}

	if entry.ThresholdDiscountRate != nil && snapshot.DiscountRate >= *entry.ThresholdDiscountRate {
		return "discount_rate", true
	}

	return "", false
}
