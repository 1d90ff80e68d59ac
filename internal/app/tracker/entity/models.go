package entity

import (
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Brand представляет бренд товара
type Brand struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Name      string    `json:"name" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
}

// Category представляет категорию товаров
type Category struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Name      string    `json:"name" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
}

// Product представляет отслеживаемый товар
// Денормализованные ценовые поля обновляются при инжесте точек цен,
// источником истины для витрины остается история цен
type Product struct {
	ID           uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	Name         string     `json:"name" gorm:"not null;size:500"`
	BrandID      uuid.UUID  `json:"brand_id" gorm:"type:uuid;index;not null"`
	CategoryID   uuid.UUID  `json:"category_id" gorm:"type:uuid;index;not null"`
	ImageURL     string     `json:"image_url" gorm:"size:1000"`
	ProductURL   string     `json:"product_url" gorm:"size:1000;not null"`
	AffiliateURL string     `json:"affiliate_url" gorm:"size:1000"`
	CurrentPrice int64      `json:"current_price"`
	LowestPrice  int64      `json:"lowest_price"`
	ReviewScore  float64    `json:"review_score"`
	ReviewCount  int        `json:"review_count"`
	CheckedAt    *time.Time `json:"checked_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	Brand    *Brand    `json:"brand,omitempty" gorm:"foreignKey:BrandID"`
	Category *Category `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
}

// PricePoint - одно неизменяемое наблюдение цены товара
// Записи только добавляются, порядок истории определяет observed_at
type PricePoint struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	ProductID  uuid.UUID `json:"product_id" gorm:"type:uuid;index;not null"`
	Price      int64     `json:"price" gorm:"not null"` // Цена в минорных единицах валюты
	ObservedAt time.Time `json:"observed_at" gorm:"index;not null"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName задает имя таблицы истории цен
func (PricePoint) TableName() string {
	return "price_histories"
}

// PriceSnapshot - производные ценовые метрики товара на момент запроса
// Не хранится, вычисляется из упорядоченной истории PricePoint
type PriceSnapshot struct {
	CurrentPrice  int64   `json:"current_price"`
	OriginalPrice int64   `json:"original_price"`
	LowestPrice   int64   `json:"lowest_price"`
	DiscountRate  float64 `json:"discount_rate"`
	IsOnSale      bool    `json:"is_on_sale"`
}

// WatchEntry - подписка пользователя на изменение цены товара
// LastNotifiedPrice обновляется только движком алертов после отправки
type WatchEntry struct {
	ID                    uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	UserID                uuid.UUID `json:"user_id" gorm:"type:uuid;index;not null;uniqueIndex:uq_user_product"`
	ProductID             uuid.UUID `json:"product_id" gorm:"type:uuid;index;not null;uniqueIndex:uq_user_product"`
	ThresholdPrice        *int64    `json:"threshold_price"`
	ThresholdDiscountRate *float64  `json:"threshold_discount_rate"`
	LastNotifiedPrice     *int64    `json:"last_notified_price"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// TableName задает имя таблицы ватчлиста
func (WatchEntry) TableName() string {
	return "watchlists"
}

// WeeklyRanking - строка недельного рейтинга популярности товаров
// Позиция считается по числу уникальных пользователей в ватчлисте,
// рейтинг недели пересоздается целиком одним батчем
type WeeklyRanking struct {
	ID             uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	ProductID      uuid.UUID `json:"product_id" gorm:"type:uuid;not null;uniqueIndex:uq_product_year_week"`
	Year           int       `json:"year" gorm:"not null;uniqueIndex:uq_product_year_week"`
	WeekNumber     int       `json:"week_number" gorm:"not null;uniqueIndex:uq_product_year_week"`
	RankPosition   int       `json:"rank_position" gorm:"not null"`
	WatchlistCount int       `json:"watchlist_count" gorm:"not null"`
	Recommendation string    `json:"recommendation" gorm:"type:text"`
	PreviousRank   *int      `json:"previous_rank"`
	GeneratedAt    time.Time `json:"generated_at"`
	CreatedAt      time.Time `json:"created_at"`

	Product *Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}

// TableName задает имя таблицы недельного рейтинга
func (WeeklyRanking) TableName() string {
	return "weekly_rankings"
}

// RankingWeek - идентификатор недели рейтинга (ISO год и номер недели)
type RankingWeek struct {
	Year       int `json:"year"`
	WeekNumber int `json:"week_number"`
}

// ProductWatchCount - агрегат популярности товара по ватчлисту
// Результат GROUP BY, не хранится
type ProductWatchCount struct {
	ProductID      uuid.UUID `json:"product_id"`
	WatchlistCount int       `json:"watchlist_count"`
}

// RecommendationRecord - кешированная рекомендация товара
// Хранится в keyed store (Redis) отдельно от строки товара,
// текст и метка времени пишутся только вместе
type RecommendationRecord struct {
	Text        string    `json:"text"`
	GeneratedAt time.Time `json:"generated_at"`
}

// RecommendationResult - результат запроса рекомендации
// nil-результат означает Absent: рекомендация недоступна и поле в ответе null
type RecommendationResult struct {
	Text        string    `json:"text"`
	GeneratedAt time.Time `json:"generated_at"`
	FromCache   bool      `json:"is_cached"`
}

// NotificationEvent - событие о падении цены для доставки пользователю
// Отправляется в Kafka топик notification_events, ядром не хранится
type NotificationEvent struct {
	UserID    uuid.UUID `json:"user_id"`
	ProductID uuid.UUID `json:"product_id"`
	OldPrice  int64     `json:"old_price"`
	NewPrice  int64     `json:"new_price"`
	Reason    string    `json:"reason"` // target_price, discount_rate
	FiredAt   time.Time `json:"fired_at"`
}

// NotificationRecord - запись в истории уведомлений (MongoDB)
// Аудит доставленных событий, ядро на нее не опирается
type NotificationRecord struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID      string             `bson:"user_id" json:"user_id"`
	ProductID   string             `bson:"product_id" json:"product_id"`
	OldPrice    int64              `bson:"old_price" json:"old_price"`
	NewPrice    int64              `bson:"new_price" json:"new_price"`
	Reason      string             `bson:"reason" json:"reason"`
	DeliveredAt time.Time          `bson:"delivered_at" json:"delivered_at"`
}

// PriceEvent - входящее событие наблюдения цены из Kafka топика price_events
// Key сообщения = ProductID, что сохраняет порядок в пределах одного товара
type PriceEvent struct {
	EventType  string    `json:"event_type"` // PRICE_OBSERVED
	ProductID  uuid.UUID `json:"product_id"`
	Price      int64     `json:"price"`
	ObservedAt time.Time `json:"observed_at"`
}
