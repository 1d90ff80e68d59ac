package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"pricepulse/internal/app/tracker/entity"
	"pricepulse/internal/app/tracker/repository/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testEvent() *entity.NotificationEvent {
	return &entity.NotificationEvent{
		UserID:    uuid.New(),
		ProductID: uuid.New(),
		OldPrice:  3000,
		NewPrice:  1800,
		Reason:    "target_price",
		FiredAt:   time.Now(),
	}
}

// ===================== Dispatch Tests =====================

func TestDispatch_Success_PublishesAndRecordsHistory(t *testing.T) {
	// Arrange
	publisher := new(mocks.MockMessagePublisher)
	notificationRepo := new(mocks.MockNotificationRepository)
	dispatcher := NewKafkaNotificationDispatcher(publisher, notificationRepo, 3)

	event := testEvent()

	publisher.On("PublishMessage", mock.Anything, event.ProductID.String(), mock.MatchedBy(func(payload []byte) bool {
		var decoded entity.NotificationEvent
		if err := json.Unmarshal(payload, &decoded); err != nil {
			return false
		}
		return decoded.NewPrice == 1800 && decoded.Reason == "target_price"
	})).Return(nil)
	notificationRepo.On("Insert", mock.Anything, mock.MatchedBy(func(record *entity.NotificationRecord) bool {
		return record.UserID == event.UserID.String() && record.NewPrice == 1800
	})).Return(nil)

	// Act
	err := dispatcher.Dispatch(context.Background(), event)

	// Assert
	require.NoError(t, err)
	publisher.AssertNumberOfCalls(t, "PublishMessage", 1)
	notificationRepo.AssertExpectations(t)
}

func TestDispatch_TransientFailure_Retries(t *testing.T) {
	// Первые две попытки падают, третья успешна
	// Arrange
	publisher := new(mocks.MockMessagePublisher)
	notificationRepo := new(mocks.MockNotificationRepository)
	dispatcher := NewKafkaNotificationDispatcher(publisher, notificationRepo, 3)

	publisher.On("PublishMessage", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("broker down")).Twice()
	publisher.On("PublishMessage", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
	notificationRepo.On("Insert", mock.Anything, mock.Anything).Return(nil)

	// Act
	err := dispatcher.Dispatch(context.Background(), testEvent())

	// Assert
	require.NoError(t, err)
	publisher.AssertNumberOfCalls(t, "PublishMessage", 3)
}

func TestDispatch_RetriesExhausted_ReturnsError(t *testing.T) {
	// Arrange
	publisher := new(mocks.MockMessagePublisher)
	notificationRepo := new(mocks.MockNotificationRepository)
	dispatcher := NewKafkaNotificationDispatcher(publisher, notificationRepo, 3)

	publisher.On("PublishMessage", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("broker down"))

	// Act
	err := dispatcher.Dispatch(context.Background(), testEvent())

	// Assert
	assert.Error(t, err)
	publisher.AssertNumberOfCalls(t, "PublishMessage", 3)
	notificationRepo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestDispatch_HistoryFailure_DoesNotFailDelivery(t *testing.T) {
	// Отказ записи истории не считается отказом доставки
	// Arrange
	publisher := new(mocks.MockMessagePublisher)
	notificationRepo := new(mocks.MockNotificationRepository)
	dispatcher := NewKafkaNotificationDispatcher(publisher, notificationRepo, 3)

	publisher.On("PublishMessage", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	notificationRepo.On("Insert", mock.Anything, mock.Anything).Return(errors.New("mongo down"))

	// Act
	err := dispatcher.Dispatch(context.Background(), testEvent())

	// Assert
	assert.NoError(t, err)
}

func TestDispatch_ContextCancelled_StopsRetrying(t *testing.T) {
	// Arrange
	publisher := new(mocks.MockMessagePublisher)
	notificationRepo := new(mocks.MockNotificationRepository)
	dispatcher := NewKafkaNotificationDispatcher(publisher, notificationRepo, 5)

	ctx, cancel := context.WithCancel(context.Background())
	publisher.On("PublishMessage", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { cancel() }).
		Return(errors.New("broker down"))

	// Act
	err := dispatcher.Dispatch(ctx, testEvent())

	// Assert
	assert.ErrorIs(t, err, context.Canceled)
	publisher.AssertNumberOfCalls(t, "PublishMessage", 1)
}
