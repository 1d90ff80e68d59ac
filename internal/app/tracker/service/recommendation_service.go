package service

import (
	"context"
	"errors"
	"time"

	"pricepulse/internal/app/tracker/entity"
	"pricepulse/internal/app/tracker/repository"
	"pricepulse/pkg/logger"
	"pricepulse/pkg/metrics"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// RecommendationService владеет кешем рекомендаций и регенерацией
// Ключевые гарантии:
//   - валидный кеш отдается без обращения к генератору
//   - не больше одной регенерации на товар одновременно (singleflight)
//   - текст и generated_at пишутся только вместе
//   - любой отказ генерации деградирует в прежний кеш или в Absent,
//     но никогда не ломает запрос
type RecommendationService struct {
	store      repository.RecommendationStore
	generator  TextGenerator
	ttl        time.Duration
	waitBudget time.Duration
	maxTokens  int
	enabled    bool
	group      singleflight.Group
}

// NewRecommendationService создает сервис рекомендаций
func NewRecommendationService(
	store repository.RecommendationStore,
	generator TextGenerator,
	ttl time.Duration,
	waitBudget time.Duration,
	maxTokens int,
	enabled bool,
) *RecommendationService {
	return &RecommendationService{
		store:      store,
		generator:  generator,
		ttl:        ttl,
		waitBudget: waitBudget,
		maxTokens:  maxTokens,
		enabled:    enabled,
	}
}

// GetOrGenerate возвращает рекомендацию товара
// nil означает Absent: поле рекомендации в ответе будет null
//
// forceRegenerate пропускает проверку свежести и всегда инициирует
// генерацию; при её отказе прежняя запись остается нетронутой
func (s *RecommendationService) GetOrGenerate(ctx context.Context, product *entity.Product, snapshot *entity.PriceSnapshot, forceRegenerate bool) *entity.RecommendationResult {
	if !s.enabled {
		metrics.RecordRecommendation("absent")
		return nil
	}

	record, err := s.store.Get(ctx, product.ID)
	if err != nil {
		// Недоступность keyed store не фатальна: пробуем генерацию с нуля
		logger.Warn().Err(err).Str("product_id", product.ID.String()).Msg("Failed to read recommendation cache")
		record = nil
	}

	if !forceRegenerate && s.isFresh(record) {
		metrics.RecordRecommendation("cache")
		return &entity.RecommendationResult{
			Text:        record.Text,
			GeneratedAt: record.GeneratedAt,
			FromCache:   true,
		}
	}

	// Регенерация идет в singleflight по ID товара: конкурентные запросы
	// одного протухшего товара делят один внешний вызов
	// Полет живет в своем контексте с таймаутом генерации - отмена
	// ожидающего запроса не отменяет полет, его результатом
	// воспользуются остальные
	resultCh := s.group.DoChan(product.ID.String(), func() (interface{}, error) {
		return s.regenerate(product, snapshot, record, forceRegenerate)
	})

	waitCtx, cancel := context.WithTimeout(ctx, s.waitBudget)
	defer cancel()

	select {
	case res := <-resultCh:
		if res.Err != nil {
			return s.degrade(product, record, res.Err)
		}
		fresh := res.Val.(*entity.RecommendationRecord)
		metrics.RecordRecommendation("generated")
		return &entity.RecommendationResult{
			Text:        fresh.Text,
			GeneratedAt: fresh.GeneratedAt,
			FromCache:   false,
		}
	case <-waitCtx.Done():
		// Бюджет ожидания исчерпан или вызывающий отменил запрос;
		// полет продолжается для остальных ожидающих
		return s.degrade(product, record, waitCtx.Err())
	}
}

// isFresh проверяет что запись существует и её TTL не истек
func (s *RecommendationService) isFresh(record *entity.RecommendationRecord) bool {
	if record == nil || record.GeneratedAt.IsZero() {
		return false
	}
	return time.Since(record.GeneratedAt) < s.ttl
}

// regenerate выполняет один внешний вызов генерации и атомарно
// обновляет запись кеша
// prev - запись на момент решения о регенерации; compare-and-swap по её
// generated_at защищает пару текст+метка от чересполосицы записей
// Принудительная регенерация пишет безусловно: force означает что
// вызывающий хочет свежий текст независимо от того, кто писал до него
func (s *RecommendationService) regenerate(product *entity.Product, snapshot *entity.PriceSnapshot, prev *entity.RecommendationRecord, force bool) (interface{}, error) {
	// Собственный контекст полета: отмена вызывающего не должна
	// обрывать генерацию, результат достанется другим ожидающим
	genCtx, cancel := context.WithTimeout(context.Background(), s.waitBudget+30*time.Second)
	defer cancel()

	prompt := BuildPrompt(NewPromptInput(product, snapshot))

	text, err := s.generator.Generate(genCtx, prompt, s.maxTokens)
	if err != nil {
		metrics.RecordGenerationFailure(failureReason(err))
		return nil, err
	}

	fresh := &entity.RecommendationRecord{
		Text:        text,
		GeneratedAt: time.Now(),
	}

	if force {
		if err := s.store.Save(genCtx, product.ID, fresh); err != nil {
			return nil, err
		}
		return fresh, nil
	}

	var expected *time.Time
	if prev != nil {
		t := prev.GeneratedAt
		expected = &t
	}

	if err := s.store.CompareAndSwap(genCtx, product.ID, expected, fresh); err != nil {
		if errors.Is(err, repository.ErrRecordConflict) {
			// Запись обновил кто-то другой - берем его результат
			current, getErr := s.store.Get(genCtx, product.ID)
			if getErr == nil && current != nil {
				return current, nil
			}
		}
		return nil, err
	}

	return fresh, nil
}

// Invalidate удаляет кешированную рекомендацию товара
// Следующий запрос с include_recommendation пойдет в генерацию заново
func (s *RecommendationService) Invalidate(ctx context.Context, productID uuid.UUID) error {
	return s.store.Delete(ctx, productID)
}

// degrade выбирает ответ при отказе или таймауте регенерации
// Политика: протухшая запись лучше отсутствующей - если прежний текст
// есть, отдаем его с исходной (истекшей) меткой времени и is_cached=true;
// сама запись не трогается, следующий запрос повторит генерацию
func (s *RecommendationService) degrade(product *entity.Product, record *entity.RecommendationRecord, cause error) *entity.RecommendationResult {
	logger.Warn().
		Err(cause).
		Str("product_id", product.ID.String()).
		Msg("Recommendation generation unavailable, degrading")

	if record != nil && record.Text != "" {
		metrics.RecordRecommendation("stale")
		return &entity.RecommendationResult{
			Text:        record.Text,
			GeneratedAt: record.GeneratedAt,
			FromCache:   true,
		}
	}

	metrics.RecordRecommendation("absent")
	return nil
}

// failureReason классифицирует отказ генерации для метрик
func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrGenerationConfig):
		return "config"
	case errors.Is(err, ErrGenerationAuth):
		return "auth"
	case errors.Is(err, ErrGenerationTimeout):
		return "timeout"
	case errors.Is(err, ErrGenerationMalformed):
		return "malformed"
	default:
		return "other"
	}
}
