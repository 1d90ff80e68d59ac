package service

import (
	"context"
	"testing"

	"pricepulse/internal/app/tracker/entity"
	"pricepulse/internal/app/tracker/repository"
	"pricepulse/internal/app/tracker/repository/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ===================== Create Tests =====================

func TestWatchlistCreate_Success(t *testing.T) {
	// Arrange
	watchlistRepo := new(mocks.MockWatchlistRepository)
	productRepo := new(mocks.MockProductRepository)
	service := NewWatchlistService(watchlistRepo, productRepo)

	userID := uuid.New()
	productID := uuid.New()
	req := &entity.CreateWatchEntryRequest{
		ProductID:      productID,
		ThresholdPrice: int64Ptr(2000),
	}

	productRepo.On("GetByID", mock.Anything, productID).Return(&entity.Product{ID: productID}, nil)
	watchlistRepo.On("Create", mock.Anything, mock.MatchedBy(func(entry *entity.WatchEntry) bool {
		return entry.UserID == userID && entry.ProductID == productID && *entry.ThresholdPrice == 2000
	})).Return(nil)

	// Act
	entry, err := service.Create(context.Background(), userID, req)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, userID, entry.UserID)
	assert.Nil(t, entry.LastNotifiedPrice, "new entry must not carry notification state")
	watchlistRepo.AssertExpectations(t)
}

func TestWatchlistCreate_UnknownProduct(t *testing.T) {
	watchlistRepo := new(mocks.MockWatchlistRepository)
	productRepo := new(mocks.MockProductRepository)
	service := NewWatchlistService(watchlistRepo, productRepo)

	productID := uuid.New()
	productRepo.On("GetByID", mock.Anything, productID).Return(nil, repository.ErrProductNotFound)

	_, err := service.Create(context.Background(), uuid.New(), &entity.CreateWatchEntryRequest{ProductID: productID})

	assert.ErrorIs(t, err, ErrProductNotFound)
	watchlistRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestWatchlistCreate_Duplicate(t *testing.T) {
	watchlistRepo := new(mocks.MockWatchlistRepository)
	productRepo := new(mocks.MockProductRepository)
	service := NewWatchlistService(watchlistRepo, productRepo)

	productID := uuid.New()
	productRepo.On("GetByID", mock.Anything, productID).Return(&entity.Product{ID: productID}, nil)
	watchlistRepo.On("Create", mock.Anything, mock.Anything).Return(repository.ErrDuplicateWatch)

	_, err := service.Create(context.Background(), uuid.New(), &entity.CreateWatchEntryRequest{ProductID: productID})

	assert.ErrorIs(t, err, ErrDuplicateWatch)
}

// ===================== Update Tests =====================

func TestWatchlistUpdate_Success(t *testing.T) {
	// Arrange
	watchlistRepo := new(mocks.MockWatchlistRepository)
	productRepo := new(mocks.MockProductRepository)
	service := NewWatchlistService(watchlistRepo, productRepo)

	userID := uuid.New()
	entryID := uuid.New()
	existing := &entity.WatchEntry{
		ID:             entryID,
		UserID:         userID,
		ProductID:      uuid.New(),
		ThresholdPrice: int64Ptr(2000),
	}

	watchlistRepo.On("GetByID", mock.Anything, entryID).Return(existing, nil)
	watchlistRepo.On("Update", mock.Anything, mock.MatchedBy(func(entry *entity.WatchEntry) bool {
		return *entry.ThresholdPrice == 1500 && entry.ThresholdDiscountRate == nil
	})).Return(nil)

	// Act
	entry, err := service.Update(context.Background(), userID, entryID, &entity.UpdateWatchEntryRequest{
		ThresholdPrice: int64Ptr(1500),
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, int64(1500), *entry.ThresholdPrice)
}

func TestWatchlistUpdate_ForeignEntry_Forbidden(t *testing.T) {
	// Чужую подписку менять нельзя
	watchlistRepo := new(mocks.MockWatchlistRepository)
	productRepo := new(mocks.MockProductRepository)
	service := NewWatchlistService(watchlistRepo, productRepo)

	entryID := uuid.New()
	watchlistRepo.On("GetByID", mock.Anything, entryID).Return(&entity.WatchEntry{
		ID:     entryID,
		UserID: uuid.New(),
	}, nil)

	_, err := service.Update(context.Background(), uuid.New(), entryID, &entity.UpdateWatchEntryRequest{})

	assert.ErrorIs(t, err, ErrForbidden)
	watchlistRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

// ===================== Delete Tests =====================

func TestWatchlistDelete_Success(t *testing.T) {
	watchlistRepo := new(mocks.MockWatchlistRepository)
	productRepo := new(mocks.MockProductRepository)
	service := NewWatchlistService(watchlistRepo, productRepo)

	userID := uuid.New()
	entryID := uuid.New()
	watchlistRepo.On("GetByID", mock.Anything, entryID).Return(&entity.WatchEntry{ID: entryID, UserID: userID}, nil)
	watchlistRepo.On("Delete", mock.Anything, entryID).Return(nil)

	err := service.Delete(context.Background(), userID, entryID)

	assert.NoError(t, err)
	watchlistRepo.AssertExpectations(t)
}

func TestWatchlistDelete_NotFound(t *testing.T) {
	watchlistRepo := new(mocks.MockWatchlistRepository)
	productRepo := new(mocks.MockProductRepository)
	service := NewWatchlistService(watchlistRepo, productRepo)

	entryID := uuid.New()
	watchlistRepo.On("GetByID", mock.Anything, entryID).Return(nil, repository.ErrWatchEntryNotFound)

	err := service.Delete(context.Background(), uuid.New(), entryID)

	assert.ErrorIs(t, err, ErrWatchEntryNotFound)
}

func TestWatchlistDelete_ForeignEntry_Forbidden(t *testing.T) {
	watchlistRepo := new(mocks.MockWatchlistRepository)
	productRepo := new(mocks.MockProductRepository)
	service := NewWatchlistService(watchlistRepo, productRepo)

	entryID := uuid.New()
	watchlistRepo.On("GetByID", mock.Anything, entryID).Return(&entity.WatchEntry{ID: entryID, UserID: uuid.New()}, nil)

	err := service.Delete(context.Background(), uuid.New(), entryID)

	assert.ErrorIs(t, err, ErrForbidden)
	watchlistRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}
