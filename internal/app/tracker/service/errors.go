package service

import "errors"

var (
	// Ошибки бизнес-логики для обработки в handlers
	ErrProductNotFound    = errors.New("product not found")
	ErrWatchEntryNotFound = errors.New("watch entry not found")
	ErrDuplicateWatch     = errors.New("watch entry already exists")
	ErrForbidden          = errors.New("access denied")

	// Ошибки генерации рекомендаций
	// Никогда не поднимаются выше RecommendationService: любая из них
	// превращается в отсутствующую рекомендацию, а не в ошибку запроса
	ErrGenerationConfig    = errors.New("text generator is not configured")
	ErrGenerationAuth      = errors.New("text generator authentication failed")
	ErrGenerationTimeout   = errors.New("text generator call timed out")
	ErrGenerationMalformed = errors.New("text generator returned malformed response")

	// Ошибки внешнего фида цен
	ErrPriceUnavailable = errors.New("price is not available in upstream feed")

	// Ошибки недельного рейтинга
	ErrRankingNotFound = errors.New("ranking for the requested week not found")
)
