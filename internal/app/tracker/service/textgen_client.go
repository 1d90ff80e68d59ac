package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"pricepulse/internal/app/tracker/config"
	"pricepulse/pkg/logger"
	"pricepulse/pkg/metrics"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker/v2"
)

const generatorSystemMessage = "You are a helpful and knowledgeable shopping advisor."

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// AzureOpenAIClient - клиент Azure OpenAI chat completions
// Вызовы идут под таймаутом и через circuit breaker: при серии отказов
// генерация быстро уходит в деградацию вместо ожидания таймаутов
type AzureOpenAIClient struct {
	cfg     config.OpenAIConfig
	client  *resty.Client
	breaker *gobreaker.CircuitBreaker[string]
}

// NewAzureOpenAIClient создает клиент генерации текста
func NewAzureOpenAIClient(cfg config.OpenAIConfig) *AzureOpenAIClient {
	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json")

	breaker := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:    "azure-openai",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Text generator circuit breaker state changed")
		},
	})

	return &AzureOpenAIClient{
		cfg:     cfg,
		client:  client,
		breaker: breaker,
	}
}

// Generate запрашивает текст рекомендации у Azure OpenAI
// Все отказы типизированы: вызывающий код превращает их в отсутствующую
// рекомендацию, никогда в ошибку запроса
func (c *AzureOpenAIClient) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if !c.cfg.Validate() {
		return "", ErrGenerationConfig
	}

	start := time.Now()
	text, err := c.breaker.Execute(func() (string, error) {
		return c.doGenerate(ctx, prompt, maxTokens)
	})
	metrics.RecommendationGenerationDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", fmt.Errorf("%w: circuit breaker is open", ErrGenerationTimeout)
		}
		return "", err
	}

	return text, nil
}

func (c *AzureOpenAIClient) doGenerate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	url := fmt.Sprintf(
		"%s/openai/deployments/%s/chat/completions?api-version=%s",
		strings.TrimRight(c.cfg.Endpoint, "/"),
		c.cfg.DeploymentName,
		c.cfg.APIVersion,
	)

	reqBody := chatCompletionRequest{
		Messages: []chatMessage{
			{Role: "system", Content: generatorSystemMessage},
			{Role: "user", Content: prompt},
		},
		MaxTokens:   maxTokens,
		Temperature: 0.7,
	}

	var respBody chatCompletionResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("api-key", c.cfg.APIKey).
		SetBody(reqBody).
		SetResult(&respBody).
		Post(url)

	if err != nil {
		// Транспортные ошибки (недоступность, обрыв) попадают в тот же
		// класс отказа, что и таймауты
		return "", fmt.Errorf("%w: %v", ErrGenerationTimeout, err)
	}

	switch {
	case resp.StatusCode() == http.StatusUnauthorized || resp.StatusCode() == http.StatusForbidden:
		return "", fmt.Errorf("%w: status %d", ErrGenerationAuth, resp.StatusCode())
	case resp.StatusCode() != http.StatusOK:
		return "", fmt.Errorf("%w: status %d: %s", ErrGenerationMalformed, resp.StatusCode(), resp.String())
	}

	if len(respBody.Choices) == 0 {
		return "", fmt.Errorf("%w: empty choices", ErrGenerationMalformed)
	}

	text := strings.TrimSpace(respBody.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("%w: empty completion text", ErrGenerationMalformed)
	}

	return text, nil
}
