package service

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"pricepulse/internal/app/tracker/config"
	"pricepulse/internal/app/tracker/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func feedConfig(url string) *config.PriceFeedConfig {
	return &config.PriceFeedConfig{
		APIURL:        url,
		ApplicationID: "test-app-id",
		Timeout:       5 * time.Second,
		MaxRetries:    0,
	}
}

func feedProduct() *entity.Product {
	return &entity.Product{
		ID:         uuid.New(),
		Name:       "Wireless Headphones",
		ProductURL: "https://item.rakuten.co.jp/shop/headphones-001/",
	}
}

func itemSearchJSON(price int64) string {
	return fmt.Sprintf(`{"Items":[{"Item":{"itemPrice":%d,"itemUrl":"https://item.rakuten.co.jp/shop/headphones-001/","reviewCount":120,"reviewAverage":4.5}}],"count":1}`, price)
}

// ===================== FetchLatestPrice Tests =====================

func TestFetchLatestPrice_Success(t *testing.T) {
	// Arrange
	product := feedProduct()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "test-app-id", r.URL.Query().Get("applicationId"))
		assert.Equal(t, product.ProductURL, r.URL.Query().Get("itemUrl"))
		assert.Equal(t, "1", r.URL.Query().Get("hits"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(itemSearchJSON(2400)))
	}))
	defer server.Close()

	feed := NewRakutenPriceFeed(feedConfig(server.URL))
	ctx := context.Background()

	// Act
	price, err := feed.FetchLatestPrice(ctx, product)

	// Assert
	assert.NoError(t, err)
	assert.Equal(t, int64(2400), price)
}

func TestFetchLatestPrice_NotConfigured(t *testing.T) {
	// Arrange - пустой APIURL означает что фид выключен
	feed := NewRakutenPriceFeed(&config.PriceFeedConfig{})
	ctx := context.Background()

	// Act
	price, err := feed.FetchLatestPrice(ctx, feedProduct())

	// Assert
	assert.Error(t, err)
	assert.ErrorIs(t, err, ErrPriceUnavailable)
	assert.Zero(t, price)
}

func TestFetchLatestPrice_ServerError(t *testing.T) {
	// Arrange
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	feed := NewRakutenPriceFeed(feedConfig(server.URL))
	ctx := context.Background()

	// Act
	price, err := feed.FetchLatestPrice(ctx, feedProduct())

	// Assert
	assert.Error(t, err)
	assert.ErrorIs(t, err, ErrPriceUnavailable)
	assert.Zero(t, price)
}

func TestFetchLatestPrice_ProductNotFound(t *testing.T) {
	// Arrange - пустой список Items
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"Items":[],"count":0}`))
	}))
	defer server.Close()

	feed := NewRakutenPriceFeed(feedConfig(server.URL))
	ctx := context.Background()

	// Act
	price, err := feed.FetchLatestPrice(ctx, feedProduct())

	// Assert
	assert.Error(t, err)
	assert.ErrorIs(t, err, ErrPriceUnavailable)
	assert.Contains(t, err.Error(), "not found")
	assert.Zero(t, price)
}

func TestFetchLatestPrice_NonPositivePrice(t *testing.T) {
	// Arrange
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(itemSearchJSON(0)))
	}))
	defer server.Close()

	feed := NewRakutenPriceFeed(feedConfig(server.URL))
	ctx := context.Background()

	// Act
	price, err := feed.FetchLatestPrice(ctx, feedProduct())

	// Assert
	assert.Error(t, err)
	assert.ErrorIs(t, err, ErrPriceUnavailable)
	assert.Zero(t, price)
}

func TestFetchLatestPrice_RetriesOn429(t *testing.T) {
	// Arrange - первый запрос получает 429, retry добивается успеха
	var calls int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(itemSearchJSON(1980)))
	}))
	defer server.Close()

	cfg := feedConfig(server.URL)
	cfg.MaxRetries = 2
	feed := NewRakutenPriceFeed(cfg)
	ctx := context.Background()

	// Act
	price, err := feed.FetchLatestPrice(ctx, feedProduct())

	// Assert
	assert.NoError(t, err)
	assert.Equal(t, int64(1980), price)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}
