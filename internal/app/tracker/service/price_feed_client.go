package service

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"pricepulse/internal/app/tracker/config"
	"pricepulse/internal/app/tracker/entity"
	"pricepulse/pkg/metrics"

	"github.com/go-resty/resty/v2"
)

// RakutenPriceFeed получает актуальные цены из Rakuten Ichiba Item Search API
// Товар ищется по своему product URL, из ответа берется цена первого
// совпадения
type RakutenPriceFeed struct {
	cfg    *config.PriceFeedConfig
	client *resty.Client
}

// itemSearchResponse - релевантная часть ответа Item Search API
type itemSearchResponse struct {
	Items []struct {
		Item struct {
			ItemPrice   int64   `json:"itemPrice"`
			ItemURL     string  `json:"itemUrl"`
			ReviewCount int     `json:"reviewCount"`
			ReviewAvg   float64 `json:"reviewAverage"`
		} `json:"Item"`
	} `json:"Items"`
	Count int `json:"count"`
}

// NewRakutenPriceFeed создает клиент внешнего фида цен
func NewRakutenPriceFeed(cfg *config.PriceFeedConfig) *RakutenPriceFeed {
	client := resty.New().
		SetBaseURL(cfg.APIURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.MaxRetries).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			// Повторяем только перегрузку и серверные отказы
			return err != nil || r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= 500
		})

	return &RakutenPriceFeed{cfg: cfg, client: client}
}

// FetchLatestPrice возвращает актуальную цену товара в минорных единицах
func (f *RakutenPriceFeed) FetchLatestPrice(ctx context.Context, product *entity.Product) (int64, error) {
	if f.cfg.APIURL == "" || f.cfg.ApplicationID == "" {
		return 0, fmt.Errorf("%w: price feed is not configured", ErrPriceUnavailable)
	}

	var result itemSearchResponse

	resp, err := f.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"applicationId": f.cfg.ApplicationID,
			"itemUrl":       product.ProductURL,
			"hits":          "1",
			"format":        "json",
		}).
		SetResult(&result).
		Get("")
	if err != nil {
		metrics.PriceFeedUpdates.WithLabelValues("error").Inc()
		return 0, fmt.Errorf("%w: %v", ErrPriceUnavailable, err)
	}

	if resp.StatusCode() != http.StatusOK {
		metrics.PriceFeedUpdates.WithLabelValues("error").Inc()
		return 0, fmt.Errorf("%w: feed returned status %d", ErrPriceUnavailable, resp.StatusCode())
	}

	if len(result.Items) == 0 {
		metrics.PriceFeedUpdates.WithLabelValues("not_found").Inc()
		return 0, fmt.Errorf("%w: product not found in feed", ErrPriceUnavailable)
	}

	price := result.Items[0].Item.ItemPrice
	if price <= 0 {
		metrics.PriceFeedUpdates.WithLabelValues("invalid").Inc()
		return 0, fmt.Errorf("%w: feed returned non-positive price %d", ErrPriceUnavailable, price)
	}

	metrics.PriceFeedUpdates.WithLabelValues("ok").Inc()
	return price, nil
}
