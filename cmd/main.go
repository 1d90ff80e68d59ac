package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"pricepulse/internal/app/tracker/config"
	"pricepulse/internal/app/tracker/entity"
	"pricepulse/internal/app/tracker/handler"
	"pricepulse/internal/app/tracker/processor"
	"pricepulse/internal/app/tracker/repository"
	"pricepulse/internal/app/tracker/service"
	"pricepulse/internal/app/tracker/util"
	"pricepulse/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init("price-tracker", cfg.LogLevel)

	logstashAddr := os.Getenv("LOGSTASH_ADDR")
	if logstashAddr != "" {
		if err := logger.InitLogstash(logstashAddr, "price-tracker", cfg.LogLevel); err != nil {
			logger.Warn().Err(err).Msg("Failed to connect to Logstash, using stdout only")
		} else {
			logger.Info().Str("logstash_addr", logstashAddr).Msg("Connected to Logstash")
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// PostgreSQL: pgx pool под капотом gorm
	pool, err := connectDB(ctx, cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn: stdlib.OpenDBFromPool(pool),
	}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
		// Перевод ошибок драйвера в gorm.Err*: без него нарушение
		// уникального индекса не превращается в ErrDuplicatedKey
		TranslateError: true,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize gorm")
	}

	if err := db.AutoMigrate(
		&entity.Brand{},
		&entity.Category{},
		&entity.Product{},
		&entity.PricePoint{},
		&entity.WatchEntry{},
		&entity.WeeklyRanking{},
	); err != nil {
		logger.Fatal().Err(err).Msg("Failed to migrate database schema")
	}

	logger.Info().
		Str("host", cfg.Database.Host).
		Str("database", cfg.Database.DBName).
		Msg("Connected to PostgreSQL")

	// Redis: keyed store рекомендаций
	redisClient, err := connectRedis(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisClient.Close()
	logger.Info().Str("address", cfg.Redis.Address()).Msg("Connected to Redis")

	// MongoDB: история уведомлений
	mongoClient, err := connectMongoDB(cfg.Mongo)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	defer func() {
		disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer disconnectCancel()
		if err := mongoClient.Disconnect(disconnectCtx); err != nil {
			logger.Error().Err(err).Msg("Failed to disconnect MongoDB")
		}
	}()
	mongoDB := mongoClient.Database(cfg.Mongo.Database)
	logger.Info().Str("database", cfg.Mongo.Database).Msg("Connected to MongoDB")

	// Kafka producer для исходящих уведомлений
	kafkaProducer := util.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.NotificationsTopic)
	defer kafkaProducer.Close()
	logger.Info().
		Str("topic", cfg.Kafka.NotificationsTopic).
		Msg("Initialized Kafka producer")

	// Repositories
	productRepo := repository.NewProductRepository(db)
	historyRepo := repository.NewPriceHistoryRepository(db)
	watchlistRepo := repository.NewWatchlistRepository(db)
	recommendationStore := repository.NewRecommendationStore(redisClient)
	rankingRepo := repository.NewRankingRepository(db)
	notificationRepo := repository.NewNotificationRepository(mongoDB)

	// Services
	textGenerator := service.NewAzureOpenAIClient(cfg.OpenAI)
	recommendationService := service.NewRecommendationService(
		recommendationStore,
		textGenerator,
		cfg.Recommendation.TTL,
		cfg.Recommendation.WaitBudget,
		cfg.OpenAI.MaxTokens,
		cfg.Recommendation.Enabled,
	)
	dispatcher := service.NewKafkaNotificationDispatcher(kafkaProducer, notificationRepo, cfg.Alerts.DeliveryRetries)
	alertService := service.NewAlertService(watchlistRepo, dispatcher)
	ingestionService := service.NewIngestionService(productRepo, historyRepo, alertService)
	viewService := service.NewProductViewService(productRepo, historyRepo, recommendationService)
	watchlistService := service.NewWatchlistService(watchlistRepo, productRepo)
	rankingService := service.NewRankingService(
		watchlistRepo,
		productRepo,
		rankingRepo,
		textGenerator,
		cfg.OpenAI.MaxTokens,
	)

	priceFeed := service.NewRakutenPriceFeed(&cfg.PriceFeed)
	refreshService := service.NewRefreshService(
		productRepo,
		historyRepo,
		watchlistRepo,
		recommendationStore,
		priceFeed,
		ingestionService,
		recommendationService,
		cfg.Recommendation.TTL,
		cfg.Scheduler.WarmupBatchSize,
	)

	// Kafka consumer входящих точек цен
	consumer := processor.NewKafkaConsumer(
		cfg.Kafka.Brokers,
		cfg.Kafka.PriceEventsTopic,
		cfg.Kafka.ConsumerGroup,
		ingestionService,
	)
	consumer.Start(ctx)

	// Cron: обновление цен, прогрев кеша и недельный рейтинг
	scheduler := processor.NewCronScheduler(refreshService, rankingService)
	if err := scheduler.Start(ctx, &cfg.Scheduler); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start cron scheduler")
	}

	// HTTP
	productHandler := handler.NewProductHandler(viewService)
	watchlistHandler := handler.NewWatchlistHandler(watchlistService)
	notificationHandler := handler.NewNotificationHandler(notificationRepo)
	rankingHandler := handler.NewRankingHandler(rankingService)
	router := handler.SetupRoutes(cfg, productHandler, watchlistHandler, notificationHandler, rankingHandler)

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("Starting Price Tracker Service")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down Price Tracker Service...")

	scheduler.Stop()
	consumer.Stop()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Price Tracker Service stopped gracefully")
}

// connectDB устанавливает соединение с PostgreSQL используя pgx connection pool
// Использует retry logic с 10 попытками для устойчивости при запуске в Docker
func connectDB(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL())
	if err != nil {
		return nil, fmt.Errorf("failed to parse pool config: %w", err)
	}

	// Оптимальные настройки пула для production
	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = 5 * time.Minute
	poolConfig.MaxConnIdleTime = 1 * time.Minute
	poolConfig.HealthCheckPeriod = 1 * time.Minute

	// Пробуем подключиться с повторными попытками
	// При запуске в Docker когда PostgreSQL может быть еще не готов
	var pool *pgxpool.Pool
	for i := 0; i < 10; i++ {
		pool, err = pgxpool.NewWithConfig(ctx, poolConfig)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				return pool, nil
			}
			pool.Close()
		}
		logger.Warn().
			Int("attempt", i+1).
			Err(err).
			Msg("Failed to connect to database, retrying...")
		time.Sleep(3 * time.Second)
	}

	return nil, fmt.Errorf("failed to connect after 10 attempts: %w", err)
}

// connectRedis подключается к Redis с проверкой соединения
func connectRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}

// connectMongoDB подключается к MongoDB с повторными попытками
func connectMongoDB(cfg config.MongoConfig) (*mongo.Client, error) {
	clientOptions := options.Client().ApplyURI(cfg.URI)

	var client *mongo.Client
	var err error

	for i := 0; i < 10; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)

		client, err = mongo.Connect(ctx, clientOptions)
		if err == nil {
			pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)

			if err = client.Ping(pingCtx, nil); err == nil {
				pingCancel()
				cancel()
				return client, nil
			}
			pingCancel()
		}
		cancel()

		logger.Warn().
			Int("attempt", i+1).
			Err(err).
			Msg("Failed to connect to MongoDB, retrying...")
		time.Sleep(3 * time.Second)
	}

	return nil, err
}
