package service

import (
	"fmt"
	"strings"

	"pricepulse/internal/app/tracker/entity"
)

// PromptInput - строго типизированный вход для построения промпта
// Собирается из PriceSnapshot и полей товара, чтобы построение промпта
// оставалось чистой функцией и тестировалось без внешних зависимостей
type PromptInput struct {
	Name          string
	Brand         string
	Category      string
	CurrentPrice  int64
	OriginalPrice int64
	LowestPrice   int64
	ReviewScore   float64
	ReviewCount   int
}

// NewPromptInput собирает вход промпта из товара и снапшота цен
func NewPromptInput(product *entity.Product, snapshot *entity.PriceSnapshot) PromptInput {
	input := PromptInput{
		Name:        product.Name,
		Brand:       "unknown",
		Category:    "unknown",
		ReviewScore: product.ReviewScore,
		ReviewCount: product.ReviewCount,
	}

	if product.Brand != nil {
		input.Brand = product.Brand.Name
	}
	if product.Category != nil {
		input.Category = product.Category.Name
	}

	if snapshot != nil {
		input.CurrentPrice = snapshot.CurrentPrice
		input.OriginalPrice = snapshot.OriginalPrice
		input.LowestPrice = snapshot.LowestPrice
	}

	return input
}

// BuildPrompt строит детерминированный промпт для генерации рекомендации
// Одинаковый вход всегда дает одинаковый текст промпта
func BuildPrompt(input PromptInput) string {
	var b strings.Builder

	priceInfo := fmt.Sprintf("Current price: %d", input.CurrentPrice)
	if input.OriginalPrice > input.CurrentPrice {
		discount := input.OriginalPrice - input.CurrentPrice
		priceInfo += fmt.Sprintf(" (%d off the list price of %d)", discount, input.OriginalPrice)
	}
	if input.LowestPrice > 0 {
		priceInfo += fmt.Sprintf("\nAll-time lowest price: %d", input.LowestPrice)
	}

	reviewInfo := ""
	if input.ReviewScore > 0 && input.ReviewCount > 0 {
		reviewInfo = fmt.Sprintf("\nReviews: %.1f out of 5 (%d reviews)", input.ReviewScore, input.ReviewCount)
	}

	b.WriteString("You are a shopping advisor. Write an appealing recommendation for the following product.\n\n")
	b.WriteString("Product details:\n")
	b.WriteString(fmt.Sprintf("Name: %s\n", input.Name))
	b.WriteString(fmt.Sprintf("Brand: %s\n", input.Brand))
	b.WriteString(fmt.Sprintf("Category: %s\n", input.Category))
	b.WriteString(priceInfo)
	b.WriteString(reviewInfo)
	b.WriteString("\n\nRequirements:\n")
	b.WriteString("- Keep it concise, two or three sentences\n")
	b.WriteString("- Emphasize the value and any current savings\n")
	b.WriteString("- Stay factual, no exaggerated claims\n")
	b.WriteString("- Do not use emojis\n\n")
	b.WriteString("Recommendation:")

	return b.String()
}

// RankingPromptInput - вход для промпта рекомендации в недельном рейтинге
type RankingPromptInput struct {
	Name           string
	Brand          string
	Category       string
	CurrentPrice   int64
	Rank           int
	WatchlistCount int
	PreviousRank   *int
}

// NewRankingPromptInput собирает вход промпта из товара и его позиции
func NewRankingPromptInput(product *entity.Product, rank, watchlistCount int, previousRank *int) RankingPromptInput {
	input := RankingPromptInput{
		Name:           product.Name,
		Brand:          "unknown",
		Category:       "unknown",
		CurrentPrice:   product.CurrentPrice,
		Rank:           rank,
		WatchlistCount: watchlistCount,
		PreviousRank:   previousRank,
	}

	if product.Brand != nil {
		input.Brand = product.Brand.Name
	}
	if product.Category != nil {
		input.Category = product.Category.Name
	}

	return input
}

// BuildRankingPrompt строит промпт рекомендации для позиции рейтинга
// Как и BuildPrompt, детерминированная чистая функция
func BuildRankingPrompt(input RankingPromptInput) string {
	var b strings.Builder

	trend := "New entry this week"
	if input.PreviousRank != nil {
		switch {
		case *input.PreviousRank > input.Rank:
			trend = fmt.Sprintf("Moved up from #%d last week", *input.PreviousRank)
		case *input.PreviousRank < input.Rank:
			trend = fmt.Sprintf("Moved down from #%d last week", *input.PreviousRank)
		default:
			trend = fmt.Sprintf("Held #%d for a second week", input.Rank)
		}
	}

	b.WriteString("You are a shopping advisor. Write a short note on why this product made the weekly popularity ranking.\n\n")
	b.WriteString("Product details:\n")
	b.WriteString(fmt.Sprintf("Name: %s\n", input.Name))
	b.WriteString(fmt.Sprintf("Brand: %s\n", input.Brand))
	b.WriteString(fmt.Sprintf("Category: %s\n", input.Category))
	b.WriteString(fmt.Sprintf("Current price: %d\n", input.CurrentPrice))
	b.WriteString(fmt.Sprintf("This week's rank: %d\n", input.Rank))
	b.WriteString(fmt.Sprintf("Users watching the price: %d\n", input.WatchlistCount))
	b.WriteString(fmt.Sprintf("Trend: %s\n", trend))
	b.WriteString("\nRequirements:\n")
	b.WriteString("- One or two sentences\n")
	b.WriteString("- Mention why shoppers are watching it\n")
	b.WriteString("- Stay factual, no exaggerated claims\n")
	b.WriteString("- Do not use emojis\n\n")
	b.WriteString("Note:")

	return b.String()
}
