package repository

import (
	"context"
	"fmt"
	"time"

	"pricepulse/internal/app/tracker/entity"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type notificationRepository struct {
	collection *mongo.Collection
}

// NewNotificationRepository создает репозиторий истории уведомлений
// Автоматически создает индекс по user_id для выборки истории пользователя
func NewNotificationRepository(db *mongo.Database) NotificationRepository {
	collection := db.Collection("notification_history")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModel := mongo.IndexModel{
		Keys: bson.D{
			{Key: "user_id", Value: 1},
			{Key: "delivered_at", Value: -1},
		},
		Options: options.Index().SetName("user_id_delivered_at_idx"),
	}

	if _, err := collection.Indexes().CreateOne(ctx, indexModel); err != nil {
		// Логируем ошибку, но не прерываем работу - индекс может уже существовать
		fmt.Printf("Warning: failed to create index on notification_history: %v\n", err)
	}

	return &notificationRepository{collection: collection}
}

// Insert записывает доставленное уведомление в историю
func (r *notificationRepository) Insert(ctx context.Context, record *entity.NotificationRecord) error {
	if record.DeliveredAt.IsZero() {
		record.DeliveredAt = time.Now()
	}

	result, err := r.collection.InsertOne(ctx, record)
	if err != nil {
		return fmt.Errorf("failed to insert notification record: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		record.ID = oid
	}

	return nil
}

// GetByUserID возвращает последние уведомления пользователя
func (r *notificationRepository) GetByUserID(ctx context.Context, userID string, limit int64) ([]entity.NotificationRecord, error) {
	filter := bson.M{"user_id": userID}
	opts := options.Find().
		SetSort(bson.D{{Key: "delivered_at", Value: -1}}).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find notification records: %w", err)
	}
	defer cursor.Close(ctx)

	var records []entity.NotificationRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode notification records: %w", err)
	}

	return records, nil
}
