package entity

import (
	"time"

	"github.com/google/uuid"
)

type CreateWatchEntryRequest struct {
	ProductID             uuid.UUID `json:"product_id" validate:"required"`
	ThresholdPrice        *int64    `json:"threshold_price" validate:"omitempty,gt=0"`
	ThresholdDiscountRate *float64  `json:"threshold_discount_rate" validate:"omitempty,gt=0,lte=1"`
}

type UpdateWatchEntryRequest struct {
	ThresholdPrice        *int64   `json:"threshold_price" validate:"omitempty,gt=0"`
	ThresholdDiscountRate *float64 `json:"threshold_discount_rate" validate:"omitempty,gt=0,lte=1"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// RecommendationView - рекомендация в составе витрины товара
type RecommendationView struct {
	Text        string    `json:"text"`
	GeneratedAt time.Time `json:"generated_at"`
	IsCached    bool      `json:"is_cached"`
}

// ProductViewData - внешнее представление товара
// Ценовые поля - указатели: при пустой истории сериализуются как null,
// а не как нули
type ProductViewData struct {
	ID             uuid.UUID           `json:"id"`
	Name           string              `json:"name"`
	Brand          string              `json:"brand"`
	Category       string              `json:"category"`
	CurrentPrice   *int64              `json:"current_price"`
	OriginalPrice  *int64              `json:"original_price"`
	LowestPrice    *int64              `json:"lowest_price"`
	DiscountRate   *float64            `json:"discount_rate"`
	IsOnSale       bool                `json:"is_on_sale"`
	ImageURL       string              `json:"image_url"`
	ProductURL     string              `json:"product_url"`
	AffiliateURL   string              `json:"affiliate_url"`
	ReviewScore    float64             `json:"review_score"`
	ReviewCount    int                 `json:"review_count"`
	Recommendation *RecommendationView `json:"recommendation"`
}

// ProductViewResponse - ответ GET /products/{id}
type ProductViewResponse struct {
	Status  string          `json:"status"`
	Product ProductViewData `json:"product"`
}

type ProductListResponse struct {
	Products []Product `json:"products"`
	Total    int       `json:"total"`
}

type WatchListResponse struct {
	Entries []WatchEntry `json:"entries"`
	Total   int          `json:"total"`
}

// WeeklyRankingItem - строка рейтинга во внешнем представлении
// RankChange: new, up, down или stay относительно прошлой недели
type WeeklyRankingItem struct {
	Rank           int       `json:"rank"`
	ProductID      uuid.UUID `json:"product_id"`
	ProductName    string    `json:"product_name"`
	Brand          string    `json:"brand"`
	Category       string    `json:"category"`
	ImageURL       string    `json:"image_url"`
	CurrentPrice   int64     `json:"current_price"`
	WatchlistCount int       `json:"watchlist_count"`
	Recommendation string    `json:"recommendation"`
	PreviousRank   *int      `json:"previous_rank"`
	RankChange     string    `json:"rank_change"`
}

// WeeklyRankingResponse - ответ GET /rankings/weekly
type WeeklyRankingResponse struct {
	Year        int                 `json:"year"`
	WeekNumber  int                 `json:"week_number"`
	WeekLabel   string              `json:"week_label"`
	GeneratedAt time.Time           `json:"generated_at"`
	Rankings    []WeeklyRankingItem `json:"rankings"`
}

// RankingHistoryResponse - ответ GET /rankings/weekly/history
type RankingHistoryResponse struct {
	Weeks []WeeklyRankingResponse `json:"weeks"`
	Total int                     `json:"total"`
}
