package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"pricepulse/internal/app/tracker/entity"
	"pricepulse/internal/app/tracker/repository"
	"pricepulse/internal/app/tracker/util"
	"pricepulse/pkg/logger"
	"pricepulse/pkg/metrics"
)

// KafkaNotificationDispatcher доставляет события оповещений в Kafka
// с ограниченным числом повторов и пишет историю доставленных
// уведомлений в MongoDB
type KafkaNotificationDispatcher struct {
	publisher        util.MessagePublisher
	notificationRepo repository.NotificationRepository
	maxRetries       int
}

// NewKafkaNotificationDispatcher создает dispatcher уведомлений
func NewKafkaNotificationDispatcher(publisher util.MessagePublisher, notificationRepo repository.NotificationRepository, maxRetries int) *KafkaNotificationDispatcher {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &KafkaNotificationDispatcher{
		publisher:        publisher,
		notificationRepo: notificationRepo,
		maxRetries:       maxRetries,
	}
}

// Dispatch отправляет событие оповещения
// Повторы ограничены maxRetries с линейным backoff; после исчерпания
// событие теряется (логируется и учитывается в метриках), очередь
// недоставленных не ведется
func (d *KafkaNotificationDispatcher) Dispatch(ctx context.Context, event *entity.NotificationEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal notification event: %w", err)
	}

	key := event.ProductID.String()

	var lastErr error
	for attempt := 1; attempt <= d.maxRetries; attempt++ {
		lastErr = d.publisher.PublishMessage(ctx, key, payload)
		if lastErr == nil {
			d.recordHistory(ctx, event)
			return nil
		}

		logger.Warn().
			Err(lastErr).
			Int("attempt", attempt).
			Str("product_id", key).
			Msg("Notification delivery attempt failed")

		if attempt < d.maxRetries {
			select {
			case <-time.After(time.Duration(attempt) * 100 * time.Millisecond):
			case <-ctx.Done():
				metrics.AlertDeliveryFailures.Inc()
				return ctx.Err()
			}
		}
	}

	metrics.AlertDeliveryFailures.Inc()
	return fmt.Errorf("notification delivery failed after %d attempts: %w", d.maxRetries, lastErr)
}

// recordHistory сохраняет доставленное уведомление в историю
// Отказ истории не влияет на результат доставки
func (d *KafkaNotificationDispatcher) recordHistory(ctx context.Context, event *entity.NotificationEvent) {
	record := &entity.NotificationRecord{
		UserID:      event.UserID.String(),
		ProductID:   event.ProductID.String(),
		OldPrice:    event.OldPrice,
		NewPrice:    event.NewPrice,
		Reason:      event.Reason,
		DeliveredAt: time.Now(),
	}

	if err := d.notificationRepo.Insert(ctx, record); err != nil {
		logger.Error().
			Err(err).
			Str("user_id", record.UserID).
			Msg("Failed to record notification history")
	}
}
