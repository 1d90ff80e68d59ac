package service

import (
	"context"
	"errors"
	"testing"

	"pricepulse/internal/app/tracker/entity"
	"pricepulse/internal/app/tracker/repository/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func int64Ptr(v int64) *int64       { return &v }
func float64Ptr(v float64) *float64 { return &v }

func snapshotWithPrice(current, original int64) *entity.PriceSnapshot {
	var discount float64
	if original > 0 && current < original {
		discount = float64(original-current) / float64(original)
	}
	return &entity.PriceSnapshot{
		CurrentPrice:  current,
		OriginalPrice: original,
		LowestPrice:   current,
		DiscountRate:  discount,
		IsOnSale:      current < original,
	}
}

// ===================== EvaluateProduct Tests =====================

func TestEvaluateProduct_ThresholdPriceReached_Fires(t *testing.T) {
	// Arrange
	watchlistRepo := new(mocks.MockWatchlistRepository)
	dispatcher := new(mocks.MockNotificationDispatcher)
	service := NewAlertService(watchlistRepo, dispatcher)

	productID := uuid.New()
	entry := entity.WatchEntry{
		ID:             uuid.New(),
		UserID:         uuid.New(),
		ProductID:      productID,
		ThresholdPrice: int64Ptr(2000),
	}

	watchlistRepo.On("GetByProductID", mock.Anything, productID).Return([]entity.WatchEntry{entry}, nil)
	dispatcher.On("Dispatch", mock.Anything, mock.MatchedBy(func(event *entity.NotificationEvent) bool {
		return event.Reason == "target_price" && event.NewPrice == 1800 && event.OldPrice == 2500
	})).Return(nil)
	watchlistRepo.On("UpdateLastNotifiedPrice", mock.Anything, entry.ID, int64(1800)).Return(nil)

	// Act
	err := service.EvaluateProduct(context.Background(), productID, snapshotWithPrice(1800, 3000), 2500)

	// Assert
	assert.NoError(t, err)
	dispatcher.AssertExpectations(t)
	watchlistRepo.AssertExpectations(t)
}

func TestEvaluateProduct_AboveThreshold_NoAlert(t *testing.T) {
	// Arrange
	watchlistRepo := new(mocks.MockWatchlistRepository)
	dispatcher := new(mocks.MockNotificationDispatcher)
	service := NewAlertService(watchlistRepo, dispatcher)

	productID := uuid.New()
	entry := entity.WatchEntry{
		ID:             uuid.New(),
		ProductID:      productID,
		ThresholdPrice: int64Ptr(2000),
	}
	watchlistRepo.On("GetByProductID", mock.Anything, productID).Return([]entity.WatchEntry{entry}, nil)

	// Act
	err := service.EvaluateProduct(context.Background(), productID, snapshotWithPrice(2500, 3000), 3000)

	// Assert
	assert.NoError(t, err)
	dispatcher.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything)
}

func TestEvaluateProduct_DiscountThresholdReached_Fires(t *testing.T) {
	// Скидка 40% при пороге 30%
	// Arrange
	watchlistRepo := new(mocks.MockWatchlistRepository)
	dispatcher := new(mocks.MockNotificationDispatcher)
	service := NewAlertService(watchlistRepo, dispatcher)

	productID := uuid.New()
	entry := entity.WatchEntry{
		ID:                    uuid.New(),
		ProductID:             productID,
		ThresholdDiscountRate: float64Ptr(0.3),
	}
	watchlistRepo.On("GetByProductID", mock.Anything, productID).Return([]entity.WatchEntry{entry}, nil)
	dispatcher.On("Dispatch", mock.Anything, mock.MatchedBy(func(event *entity.NotificationEvent) bool {
		return event.Reason == "discount_rate"
	})).Return(nil)
	watchlistRepo.On("UpdateLastNotifiedPrice", mock.Anything, entry.ID, int64(1800)).Return(nil)

	// Act
	err := service.EvaluateProduct(context.Background(), productID, snapshotWithPrice(1800, 3000), 3000)

	// Assert
	assert.NoError(t, err)
	dispatcher.AssertExpectations(t)
}

func TestEvaluateProduct_BothConditions_TargetPriceWins(t *testing.T) {
	// При одновременном выполнении обоих порогов причина - target_price
	// Arrange
	watchlistRepo := new(mocks.MockWatchlistRepository)
	dispatcher := new(mocks.MockNotificationDispatcher)
	service := NewAlertService(watchlistRepo, dispatcher)

	productID := uuid.New()
	entry := entity.WatchEntry{
		ID:                    uuid.New(),
		ProductID:             productID,
		ThresholdPrice:        int64Ptr(2000),
		ThresholdDiscountRate: float64Ptr(0.1),
	}
	watchlistRepo.On("GetByProductID", mock.Anything, productID).Return([]entity.WatchEntry{entry}, nil)
	dispatcher.On("Dispatch", mock.Anything, mock.MatchedBy(func(event *entity.NotificationEvent) bool {
		return event.Reason == "target_price"
	})).Return(nil)
	watchlistRepo.On("UpdateLastNotifiedPrice", mock.Anything, entry.ID, mock.Anything).Return(nil)

	// Act
	err := service.EvaluateProduct(context.Background(), productID, snapshotWithPrice(1500, 3000), 3000)

	// Assert
	assert.NoError(t, err)
	dispatcher.AssertExpectations(t)
}

func TestEvaluateProduct_SamePriceAgain_Deduplicated(t *testing.T) {
	// Повтор той же цены после оповещения не дает второго алерта
	// Arrange
	watchlistRepo := new(mocks.MockWatchlistRepository)
	dispatcher := new(mocks.MockNotificationDispatcher)
	service := NewAlertService(watchlistRepo, dispatcher)

	productID := uuid.New()
	entry := entity.WatchEntry{
		ID:                uuid.New(),
		ProductID:         productID,
		ThresholdPrice:    int64Ptr(2000),
		LastNotifiedPrice: int64Ptr(1800),
	}
	watchlistRepo.On("GetByProductID", mock.Anything, productID).Return([]entity.WatchEntry{entry}, nil)

	// Act
	err := service.EvaluateProduct(context.Background(), productID, snapshotWithPrice(1800, 3000), 1800)

	// Assert
	assert.NoError(t, err)
	dispatcher.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything)
}

func TestEvaluateProduct_FurtherDrop_FiresAgain(t *testing.T) {
	// Цена упала ниже последнего оповещения: новый алерт
	// Arrange
	watchlistRepo := new(mocks.MockWatchlistRepository)
	dispatcher := new(mocks.MockNotificationDispatcher)
	service := NewAlertService(watchlistRepo, dispatcher)

	productID := uuid.New()
	entry := entity.WatchEntry{
		ID:                uuid.New(),
		ProductID:         productID,
		ThresholdPrice:    int64Ptr(2000),
		LastNotifiedPrice: int64Ptr(1800),
	}
	watchlistRepo.On("GetByProductID", mock.Anything, productID).Return([]entity.WatchEntry{entry}, nil)
	dispatcher.On("Dispatch", mock.Anything, mock.Anything).Return(nil)
	watchlistRepo.On("UpdateLastNotifiedPrice", mock.Anything, entry.ID, int64(1500)).Return(nil)

	// Act
	err := service.EvaluateProduct(context.Background(), productID, snapshotWithPrice(1500, 3000), 1800)

	// Assert
	assert.NoError(t, err)
	dispatcher.AssertExpectations(t)
	watchlistRepo.AssertExpectations(t)
}

func TestEvaluateProduct_PriceRose_NoAlertAndNoReset(t *testing.T) {
	// Рост цены после оповещения: алерта нет, last_notified_price
	// не сбрасывается
	// Arrange
	watchlistRepo := new(mocks.MockWatchlistRepository)
	dispatcher := new(mocks.MockNotificationDispatcher)
	service := NewAlertService(watchlistRepo, dispatcher)

	productID := uuid.New()
	entry := entity.WatchEntry{
		ID:                uuid.New(),
		ProductID:         productID,
		ThresholdPrice:    int64Ptr(2000),
		LastNotifiedPrice: int64Ptr(1500),
	}
	watchlistRepo.On("GetByProductID", mock.Anything, productID).Return([]entity.WatchEntry{entry}, nil)

	// Act
	err := service.EvaluateProduct(context.Background(), productID, snapshotWithPrice(1900, 3000), 1500)

	// Assert
	assert.NoError(t, err)
	dispatcher.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything)
	watchlistRepo.AssertNotCalled(t, "UpdateLastNotifiedPrice", mock.Anything, mock.Anything, mock.Anything)
}

func TestEvaluateProduct_DispatchFails_StateStillUpdated(t *testing.T) {
	// Отказ доставки не отменяет обновление last_notified_price:
	// дедупликация важнее потерянного события
	// Arrange
	watchlistRepo := new(mocks.MockWatchlistRepository)
	dispatcher := new(mocks.MockNotificationDispatcher)
	service := NewAlertService(watchlistRepo, dispatcher)

	productID := uuid.New()
	entry := entity.WatchEntry{
		ID:             uuid.New(),
		ProductID:      productID,
		ThresholdPrice: int64Ptr(2000),
	}
	watchlistRepo.On("GetByProductID", mock.Anything, productID).Return([]entity.WatchEntry{entry}, nil)
	dispatcher.On("Dispatch", mock.Anything, mock.Anything).Return(errors.New("kafka unavailable"))
	watchlistRepo.On("UpdateLastNotifiedPrice", mock.Anything, entry.ID, int64(1700)).Return(nil)

	// Act
	err := service.EvaluateProduct(context.Background(), productID, snapshotWithPrice(1700, 3000), 2500)

	// Assert
	assert.NoError(t, err)
	watchlistRepo.AssertExpectations(t)
}

func TestEvaluateProduct_MultipleEntries_EachEvaluated(t *testing.T) {
	// Arrange
	watchlistRepo := new(mocks.MockWatchlistRepository)
	dispatcher := new(mocks.MockNotificationDispatcher)
	service := NewAlertService(watchlistRepo, dispatcher)

	productID := uuid.New()
	firing := entity.WatchEntry{
		ID:             uuid.New(),
		UserID:         uuid.New(),
		ProductID:      productID,
		ThresholdPrice: int64Ptr(2000),
	}
	silent := entity.WatchEntry{
		ID:             uuid.New(),
		UserID:         uuid.New(),
		ProductID:      productID,
		ThresholdPrice: int64Ptr(1000),
	}
	watchlistRepo.On("GetByProductID", mock.Anything, productID).Return([]entity.WatchEntry{firing, silent}, nil)
	dispatcher.On("Dispatch", mock.Anything, mock.MatchedBy(func(event *entity.NotificationEvent) bool {
		return event.UserID == firing.UserID
	})).Return(nil)
	watchlistRepo.On("UpdateLastNotifiedPrice", mock.Anything, firing.ID, int64(1800)).Return(nil)

	// Act
	err := service.EvaluateProduct(context.Background(), productID, snapshotWithPrice(1800, 3000), 2500)

	// Assert
	assert.NoError(t, err)
	dispatcher.AssertNumberOfCalls(t, "Dispatch", 1)
}

func TestEvaluateProduct_NilSnapshot_NoOp(t *testing.T) {
	watchlistRepo := new(mocks.MockWatchlistRepository)
	dispatcher := new(mocks.MockNotificationDispatcher)
	service := NewAlertService(watchlistRepo, dispatcher)

	err := service.EvaluateProduct(context.Background(), uuid.New(), nil, 0)

	assert.NoError(t, err)
	watchlistRepo.AssertNotCalled(t, "GetByProductID", mock.Anything, mock.Anything)
}
