package service

import (
	"context"
	"fmt"
	"time"

	"pricepulse/internal/app/tracker/entity"
	"pricepulse/internal/app/tracker/repository"
	"pricepulse/pkg/logger"

	"github.com/google/uuid"
)

// Размер недельного топа
const rankingTopSize = 10

// RankingService строит недельный рейтинг популярности товаров
// Позиция определяется числом уникальных подписчиков в ватчлисте,
// рейтинг недели генерируется батчем и перезаписывается целиком
type RankingService struct {
	watchlistRepo repository.WatchlistRepository
	productRepo   repository.ProductRepository
	rankingRepo   repository.RankingRepository
	generator     TextGenerator
	maxTokens     int
}

// NewRankingService создает сервис недельного рейтинга
func NewRankingService(
	watchlistRepo repository.WatchlistRepository,
	productRepo repository.ProductRepository,
	rankingRepo repository.RankingRepository,
	generator TextGenerator,
	maxTokens int,
) *RankingService {
	return &RankingService{
		watchlistRepo: watchlistRepo,
		productRepo:   productRepo,
		rankingRepo:   rankingRepo,
		generator:     generator,
		maxTokens:     maxTokens,
	}
}

// GenerateWeeklyRankings пересобирает рейтинг текущей ISO-недели
// Отказ генерации текста по одному товару не прерывает батч:
// такая строка получает запасную рекомендацию
func (s *RankingService) GenerateWeeklyRankings(ctx context.Context) error {
	now := time.Now()
	year, week := now.ISOWeek()
	prevYear, prevWeek := now.AddDate(0, 0, -7).ISOWeek()

	counts, err := s.watchlistRepo.GetTopWatched(ctx, rankingTopSize)
	if err != nil {
		return fmt.Errorf("failed to load watchlist counts: %w", err)
	}

	if len(counts) == 0 {
		logger.Info().
			Int("year", year).
			Int("week", week).
			Msg("No watched products, skipping weekly ranking generation")
		return nil
	}

	ids := make([]uuid.UUID, 0, len(counts))
	for _, c := range counts {
		ids = append(ids, c.ProductID)
	}

	products, err := s.productRepo.GetByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to load ranked products: %w", err)
	}

	byID := make(map[uuid.UUID]*entity.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	rankings := make([]entity.WeeklyRanking, 0, len(counts))
	for i, count := range counts {
		rank := i + 1

		product, ok := byID[count.ProductID]
		if !ok {
			logger.Warn().
				Str("product_id", count.ProductID.String()).
				Msg("Watched product missing from catalog, skipping ranking row")
			continue
		}

		previousRank, err := s.rankingRepo.GetRankPosition(ctx, product.ID, prevYear, prevWeek)
		if err != nil {
			logger.Warn().
				Err(err).
				Str("product_id", product.ID.String()).
				Msg("Failed to look up previous week rank")
			previousRank = nil
		}

		rankings = append(rankings, entity.WeeklyRanking{
			ID:             uuid.New(),
			ProductID:      product.ID,
			Year:           year,
			WeekNumber:     week,
			RankPosition:   rank,
			WatchlistCount: count.WatchlistCount,
			Recommendation: s.generateNote(ctx, product, rank, count.WatchlistCount, previousRank),
			PreviousRank:   previousRank,
			GeneratedAt:    now,
		})
	}

	if err := s.rankingRepo.ReplaceWeek(ctx, year, week, rankings); err != nil {
		return fmt.Errorf("failed to store weekly rankings: %w", err)
	}

	logger.Info().
		Int("year", year).
		Int("week", week).
		Int("products", len(rankings)).
		Msg("Weekly ranking generation completed")

	return nil
}

// generateNote генерирует рекомендацию для строки рейтинга
// При любом отказе генерации возвращается запасной текст,
// строка рейтинга без рекомендации не остается
func (s *RankingService) generateNote(ctx context.Context, product *entity.Product, rank, watchlistCount int, previousRank *int) string {
	prompt := BuildRankingPrompt(NewRankingPromptInput(product, rank, watchlistCount, previousRank))

	text, err := s.generator.Generate(ctx, prompt, s.maxTokens)
	if err != nil {
		logger.Warn().
			Err(err).
			Str("product_id", product.ID.String()).
			Int("rank", rank).
			Msg("Ranking note generation failed, using fallback text")
		return fmt.Sprintf("A popular pick holding #%d in this week's watchlist ranking.", rank)
	}

	return text
}

// GetWeeklyRanking возвращает рейтинг недели
// Нулевые year и week означают текущую ISO-неделю
func (s *RankingService) GetWeeklyRanking(ctx context.Context, year, week int) (*entity.WeeklyRankingResponse, error) {
	if year == 0 || week == 0 {
		year, week = time.Now().ISOWeek()
	}

	rows, err := s.rankingRepo.GetWeek(ctx, year, week)
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return nil, ErrRankingNotFound
	}

	return assembleWeek(year, week, rows), nil
}

// GetRankingHistory возвращает рейтинги последних недель, новые первыми
func (s *RankingService) GetRankingHistory(ctx context.Context, weeks int) (*entity.RankingHistoryResponse, error) {
	keys, err := s.rankingRepo.GetRecentWeeks(ctx, weeks)
	if err != nil {
		return nil, err
	}

	history := make([]entity.WeeklyRankingResponse, 0, len(keys))
	for _, key := range keys {
		rows, err := s.rankingRepo.GetWeek(ctx, key.Year, key.WeekNumber)
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			continue
		}
		history = append(history, *assembleWeek(key.Year, key.WeekNumber, rows))
	}

	return &entity.RankingHistoryResponse{
		Weeks: history,
		Total: len(history),
	}, nil
}

// assembleWeek собирает внешнее представление недели из строк рейтинга
func assembleWeek(year, week int, rows []entity.WeeklyRanking) *entity.WeeklyRankingResponse {
	items := make([]entity.WeeklyRankingItem, 0, len(rows))
	for i := range rows {
		row := &rows[i]

		item := entity.WeeklyRankingItem{
			Rank:           row.RankPosition,
			ProductID:      row.ProductID,
			WatchlistCount: row.WatchlistCount,
			Recommendation: row.Recommendation,
			PreviousRank:   row.PreviousRank,
			RankChange:     rankChange(row.PreviousRank, row.RankPosition),
		}

		if row.Product != nil {
			item.ProductName = row.Product.Name
			item.ImageURL = row.Product.ImageURL
			item.CurrentPrice = row.Product.CurrentPrice
			if row.Product.Brand != nil {
				item.Brand = row.Product.Brand.Name
			}
			if row.Product.Category != nil {
				item.Category = row.Product.Category.Name
			}
		}

		items = append(items, item)
	}

	return &entity.WeeklyRankingResponse{
		Year:        year,
		WeekNumber:  week,
		WeekLabel:   fmt.Sprintf("%d-W%02d", year, week),
		GeneratedAt: rows[0].GeneratedAt,
		Rankings:    items,
	}
}

// rankChange вычисляет движение позиции относительно прошлой недели
func rankChange(previous *int, current int) string {
	switch {
	case previous == nil:
		return "new"
	case *previous > current:
		return "up"
	case *previous < current:
		return "down"
	default:
		return "stay"
	}
}
