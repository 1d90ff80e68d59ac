package processor

import (
	"context"
	"log"

	"pricepulse/internal/app/tracker/config"
	"pricepulse/internal/app/tracker/service"

	"github.com/robfig/cron/v3"
)

type CronScheduler struct {
	cron       *cron.Cron
	refreshSvc *service.RefreshService
	rankingSvc *service.RankingService
}

func NewCronScheduler(refreshSvc *service.RefreshService, rankingSvc *service.RankingService) *CronScheduler {
	c := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(log.Default())))

	return &CronScheduler{
		cron:       c,
		refreshSvc: refreshSvc,
		rankingSvc: rankingSvc,
	}
}

// Start регистрирует фоновые задачи и запускает планировщик:
//   - обновление цен ватчлист-товаров из внешнего фида
//   - прогрев кеша рекомендаций
//   - генерация недельного рейтинга популярности
func (s *CronScheduler) Start(ctx context.Context, cfg *config.SchedulerConfig) error {
	log.Printf("Starting cron scheduler: price refresh %q, cache warmup %q, weekly ranking %q",
		cfg.PriceRefreshSchedule, cfg.CacheWarmupSchedule, cfg.WeeklyRankingSchedule)

	if _, err := s.cron.AddFunc(cfg.PriceRefreshSchedule, func() {
		log.Println("Cron job triggered: refreshing watched prices")
		s.refreshSvc.RefreshWatchedPrices(ctx)
	}); err != nil {
		return err
	}

	if _, err := s.cron.AddFunc(cfg.CacheWarmupSchedule, func() {
		log.Println("Cron job triggered: warming recommendation cache")
		s.refreshSvc.WarmupRecommendations(ctx)
	}); err != nil {
		return err
	}

	if _, err := s.cron.AddFunc(cfg.WeeklyRankingSchedule, func() {
		log.Println("Cron job triggered: generating weekly rankings")
		if err := s.rankingSvc.GenerateWeeklyRankings(ctx); err != nil {
			log.Printf("Weekly ranking generation failed: %v", err)
		}
	}); err != nil {
		return err
	}

	s.cron.Start()
	log.Println("Cron scheduler started")

	return nil
}

func (s *CronScheduler) Stop() {
	log.Println("Stopping cron scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("Cron scheduler stopped")
}

func (s *CronScheduler) GetEntries() []cron.Entry {
	return s.cron.Entries()
}
