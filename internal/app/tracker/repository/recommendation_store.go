package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"pricepulse/internal/app/tracker/entity"
	"pricepulse/pkg/metrics"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const recommendationKeyPrefix = "recommendation:"

const serviceName = "price-tracker"

type recommendationStore struct {
	client *redis.Client
}

// NewRecommendationStore создает keyed store кешированных рекомендаций
// Записи хранятся без redis-TTL: просроченная запись нужна как
// запасной вариант при отказе регенерации, срок жизни проверяет сервис
func NewRecommendationStore(client *redis.Client) RecommendationStore {
	return &recommendationStore{client: client}
}

func recommendationKey(productID uuid.UUID) string {
	return recommendationKeyPrefix + productID.String()
}

// Get читает запись рекомендации, (nil, nil) если записи нет
func (s *recommendationStore) Get(ctx context.Context, productID uuid.UUID) (*entity.RecommendationRecord, error) {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpGet)
	defer timer.ObserveDuration()

	data, err := s.client.Get(ctx, recommendationKey(productID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.RecordCacheMiss(serviceName, recommendationKeyPrefix)
			return nil, nil
		}
		metrics.RecordRedisError(serviceName, metrics.RedisOpGet)
		return nil, fmt.Errorf("failed to get recommendation record: %w", err)
	}

	var record entity.RecommendationRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal recommendation record: %w", err)
	}

	metrics.RecordCacheHit(serviceName, recommendationKeyPrefix)
	return &record, nil
}

// Save безусловно заменяет запись целиком
// Текст и generated_at сериализуются одним значением:
// частичная запись невозможна по построению
func (s *recommendationStore) Save(ctx context.Context, productID uuid.UUID, record *entity.RecommendationRecord) error {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpSet)
	defer timer.ObserveDuration()

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal recommendation record: %w", err)
	}

	if err := s.client.Set(ctx, recommendationKey(productID), data, 0).Err(); err != nil {
		metrics.RecordRedisError(serviceName, metrics.RedisOpSet)
		return fmt.Errorf("failed to save recommendation record: %w", err)
	}

	return nil
}

// CompareAndSwap заменяет запись только если её generated_at совпадает
// с expected (nil = записи быть не должно)
// При конкурентной модификации ключа возвращает ErrRecordConflict
func (s *recommendationStore) CompareAndSwap(ctx context.Context, productID uuid.UUID, expected *time.Time, record *entity.RecommendationRecord) error {
	key := recommendationKey(productID)

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal recommendation record: %w", err)
	}

	txn := func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
			if expected != nil {
				return ErrRecordConflict
			}
		case err != nil:
			return fmt.Errorf("failed to read current record: %w", err)
		default:
			if expected == nil {
				return ErrRecordConflict
			}
			var existing entity.RecommendationRecord
			if err := json.Unmarshal(current, &existing); err != nil {
				return fmt.Errorf("failed to unmarshal current record: %w", err)
			}
			if !existing.GeneratedAt.Equal(*expected) {
				return ErrRecordConflict
			}
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			return nil
		})
		return err
	}

	if err := s.client.Watch(ctx, txn, key); err != nil {
		if errors.Is(err, redis.TxFailedErr) {
			return ErrRecordConflict
		}
		return err
	}

	return nil
}

// Delete инвалидирует запись рекомендации
func (s *recommendationStore) Delete(ctx context.Context, productID uuid.UUID) error {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpDel)
	defer timer.ObserveDuration()

	if err := s.client.Del(ctx, recommendationKey(productID)).Err(); err != nil {
		metrics.RecordRedisError(serviceName, metrics.RedisOpDel)
		return fmt.Errorf("failed to delete recommendation record: %w", err)
	}
	return nil
}
