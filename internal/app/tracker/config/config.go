package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config содержит все настройки Price Tracker Service
// Включает конфигурацию для HTTP сервера, PostgreSQL, Redis, MongoDB, Kafka,
// Azure OpenAI, внешнего фида цен и планировщика
type Config struct {
	Server         ServerConfig
	Database       DatabaseConfig
	Redis          RedisConfig
	Mongo          MongoConfig
	Kafka          KafkaConfig
	JWT            JWTConfig
	OpenAI         OpenAIConfig
	Recommendation RecommendationConfig
	Alerts         AlertsConfig
	PriceFeed      PriceFeedConfig
	Scheduler      SchedulerConfig
	LogLevel       string
}

// ServerConfig - настройки HTTP сервера
type ServerConfig struct {
	Host string // Адрес хоста (по умолчанию 0.0.0.0)
	Port string // Порт сервера (по умолчанию 8084)
}

// DatabaseConfig - настройки подключения к PostgreSQL
// Хранит товары, историю цен и ватчлисты
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig - настройки Redis
// Используется как keyed store для кешированных рекомендаций
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// MongoConfig - настройки MongoDB для истории уведомлений
type MongoConfig struct {
	URI      string
	Database string
}

// KafkaConfig - настройки Kafka
// price_events: входной поток точек цен
// notification_events: исходящие уведомления о падении цены
type KafkaConfig struct {
	Brokers            []string
	PriceEventsTopic   string
	NotificationsTopic string
	ConsumerGroup      string
}

// JWTConfig - настройки проверки JWT токенов
// Токены выдает внешний auth сервис, здесь только валидация
type JWTConfig struct {
	Secret string
}

// OpenAIConfig - настройки Azure OpenAI для генерации рекомендаций
type OpenAIConfig struct {
	Endpoint       string        // Базовый URL ресурса Azure OpenAI
	APIKey         string        // API ключ
	DeploymentName string        // Имя deployment модели
	APIVersion     string        // Версия API
	MaxTokens      int           // Лимит токенов на один ответ
	Timeout        time.Duration // Таймаут одного вызова генерации
}

// RecommendationConfig - политика кеширования рекомендаций
type RecommendationConfig struct {
	TTL        time.Duration // Срок жизни кешированной рекомендации (по умолчанию 7 дней)
	Enabled    bool          // Feature toggle: выключает генерацию целиком
	WaitBudget time.Duration // Сколько конкурентный запрос ждет чужую регенерацию
}

// AlertsConfig - настройки доставки уведомлений
type AlertsConfig struct {
	DeliveryRetries int // Количество повторов доставки одного события
}

// PriceFeedConfig - настройки внешнего API цен
type PriceFeedConfig struct {
	APIURL        string
	ApplicationID string
	Timeout       time.Duration
	MaxRetries    int
}

// SchedulerConfig - расписания фоновых задач (cron формат)
type SchedulerConfig struct {
	PriceRefreshSchedule  string // Обновление цен ватчлист-товаров
	CacheWarmupSchedule   string // Прогрев кеша рекомендаций
	WeeklyRankingSchedule string // Генерация недельного рейтинга популярности
	WarmupBatchSize       int    // Максимум генераций за один прогон прогрева
}

// Load загружает конфигурацию из переменных окружения
// .env файл подхватывается автоматически если присутствует
func Load() (*Config, error) {
	// .env опционален: в контейнере переменные приходят из окружения
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB value: %w", err)
	}

	ttlHours, err := strconv.Atoi(getEnv("RECOMMENDATION_TTL_HOURS", "168"))
	if err != nil {
		return nil, fmt.Errorf("invalid RECOMMENDATION_TTL_HOURS value: %w", err)
	}

	genTimeoutSec, err := strconv.Atoi(getEnv("OPENAI_TIMEOUT_SECONDS", "15"))
	if err != nil {
		return nil, fmt.Errorf("invalid OPENAI_TIMEOUT_SECONDS value: %w", err)
	}

	maxTokens, err := strconv.Atoi(getEnv("OPENAI_MAX_TOKENS", "300"))
	if err != nil {
		return nil, fmt.Errorf("invalid OPENAI_MAX_TOKENS value: %w", err)
	}

	waitBudgetSec, err := strconv.Atoi(getEnv("RECOMMENDATION_WAIT_BUDGET_SECONDS", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid RECOMMENDATION_WAIT_BUDGET_SECONDS value: %w", err)
	}

	deliveryRetries, err := strconv.Atoi(getEnv("ALERT_DELIVERY_RETRIES", "3"))
	if err != nil {
		return nil, fmt.Errorf("invalid ALERT_DELIVERY_RETRIES value: %w", err)
	}

	feedTimeoutSec, err := strconv.Atoi(getEnv("PRICE_FEED_TIMEOUT_SECONDS", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid PRICE_FEED_TIMEOUT_SECONDS value: %w", err)
	}

	feedRetries, err := strconv.Atoi(getEnv("PRICE_FEED_MAX_RETRIES", "3"))
	if err != nil {
		return nil, fmt.Errorf("invalid PRICE_FEED_MAX_RETRIES value: %w", err)
	}

	warmupBatch, err := strconv.Atoi(getEnv("CACHE_WARMUP_BATCH_SIZE", "20"))
	if err != nil {
		return nil, fmt.Errorf("invalid CACHE_WARMUP_BATCH_SIZE value: %w", err)
	}

	return &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnv("SERVER_PORT", "8084"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "price_tracker"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Mongo: MongoConfig{
			URI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
			Database: getEnv("MONGO_DATABASE", "price_tracker"),
		},
		Kafka: KafkaConfig{
			Brokers:            strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
			PriceEventsTopic:   getEnv("KAFKA_PRICE_EVENTS_TOPIC", "price_events"),
			NotificationsTopic: getEnv("KAFKA_NOTIFICATIONS_TOPIC", "notification_events"),
			ConsumerGroup:      getEnv("KAFKA_CONSUMER_GROUP", "price-tracker"),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "your-secret-key-change-this-in-production"),
		},
		OpenAI: OpenAIConfig{
			Endpoint:       getEnv("AZURE_OPENAI_ENDPOINT", ""),
			APIKey:         getEnv("AZURE_OPENAI_API_KEY", ""),
			DeploymentName: getEnv("AZURE_OPENAI_DEPLOYMENT_NAME", ""),
			APIVersion:     getEnv("AZURE_OPENAI_API_VERSION", "2025-01-01-preview"),
			MaxTokens:      maxTokens,
			Timeout:        time.Duration(genTimeoutSec) * time.Second,
		},
		Recommendation: RecommendationConfig{
			TTL:        time.Duration(ttlHours) * time.Hour,
			Enabled:    getEnv("RECOMMENDATION_ENABLED", "true") == "true",
			WaitBudget: time.Duration(waitBudgetSec) * time.Second,
		},
		Alerts: AlertsConfig{
			DeliveryRetries: deliveryRetries,
		},
		PriceFeed: PriceFeedConfig{
			APIURL:        getEnv("PRICE_FEED_API_URL", ""),
			ApplicationID: getEnv("PRICE_FEED_APP_ID", ""),
			Timeout:       time.Duration(feedTimeoutSec) * time.Second,
			MaxRetries:    feedRetries,
		},
		Scheduler: SchedulerConfig{
			PriceRefreshSchedule:  getEnv("PRICE_REFRESH_SCHEDULE", "0 */6 * * *"),
			CacheWarmupSchedule:   getEnv("CACHE_WARMUP_SCHEDULE", "30 3 * * *"),
			WeeklyRankingSchedule: getEnv("WEEKLY_RANKING_SCHEDULE", "0 2 * * 1"),
			WarmupBatchSize:       warmupBatch,
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}, nil
}

// Address возвращает адрес сервера в формате host:port
func (c *ServerConfig) Address() string {
	return c.Host + ":" + c.Port
}

// Address возвращает адрес Redis в формате host:port
func (c *RedisConfig) Address() string {
	return c.Host + ":" + c.Port
}

// DSN возвращает строку подключения к PostgreSQL в формате libpq
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// URL возвращает строку подключения к PostgreSQL для pgx pool
func (c *DatabaseConfig) URL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// Validate проверяет что конфигурация Azure OpenAI заполнена
// Пустая конфигурация не фатальна: генерация просто деградирует в Absent
func (c *OpenAIConfig) Validate() bool {
	return c.Endpoint != "" && c.APIKey != "" && c.DeploymentName != ""
}

// getEnv получает значение переменной окружения или возвращает значение по умолчанию
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
