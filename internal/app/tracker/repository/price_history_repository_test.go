package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"pricepulse/internal/app/tracker/entity"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// PriceHistoryRepositoryTestSuite тестовый suite для PostgreSQL repository
type PriceHistoryRepositoryTestSuite struct {
	suite.Suite
	db    *gorm.DB
	mock  sqlmock.Sqlmock
	repo  PriceHistoryRepository
	sqlDB *sql.DB
}

func TestPriceHistoryRepositorySuite(t *testing.T) {
	suite.Run(t, new(PriceHistoryRepositoryTestSuite))
}

func (s *PriceHistoryRepositoryTestSuite) SetupTest() {
	var err error
	s.sqlDB, s.mock, err = sqlmock.New()
	require.NoError(s.T(), err)

	dialector := postgres.New(postgres.Config{
		Conn:       s.sqlDB,
		DriverName: "postgres",
	})

	s.db, err = gorm.Open(dialector, &gorm.Config{})
	require.NoError(s.T(), err)

	s.repo = NewPriceHistoryRepository(s.db)
}

func (s *PriceHistoryRepositoryTestSuite) TearDownTest() {
	s.sqlDB.Close()
}

// ===================== GetByProductID Tests =====================

func (s *PriceHistoryRepositoryTestSuite) TestGetByProductID_OrderedByObservedAt() {
	ctx := context.Background()
	productID := uuid.New()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"id", "product_id", "price", "observed_at", "created_at"}).
		AddRow(uuid.New(), productID, int64(3000), base, base).
		AddRow(uuid.New(), productID, int64(2400), base.Add(time.Hour), base.Add(time.Hour))

	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "price_histories" WHERE product_id = $1 ORDER BY observed_at ASC`)).
		WithArgs(productID).
		WillReturnRows(rows)

	// Act
	points, err := s.repo.GetByProductID(ctx, productID)

	// Assert
	s.NoError(err)
	s.Len(points, 2)
	s.Equal(int64(3000), points[0].Price)
	s.Equal(int64(2400), points[1].Price)

	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *PriceHistoryRepositoryTestSuite) TestGetByProductID_Empty() {
	ctx := context.Background()
	productID := uuid.New()

	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "price_histories" WHERE product_id = $1 ORDER BY observed_at ASC`)).
		WithArgs(productID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "product_id", "price", "observed_at", "created_at"}))

	// Act
	points, err := s.repo.GetByProductID(ctx, productID)

	// Assert
	s.NoError(err)
	s.Empty(points)
}

// ===================== GetLatest Tests =====================

func (s *PriceHistoryRepositoryTestSuite) TestGetLatest_Success() {
	ctx := context.Background()
	productID := uuid.New()
	observedAt := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"id", "product_id", "price", "observed_at", "created_at"}).
		AddRow(uuid.New(), productID, int64(2400), observedAt, observedAt)

	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "price_histories" WHERE product_id = $1 ORDER BY observed_at DESC`)).
		WithArgs(productID, 1).
		WillReturnRows(rows)

	// Act
	point, err := s.repo.GetLatest(ctx, productID)

	// Assert
	s.NoError(err)
	s.NotNil(point)
	s.Equal(int64(2400), point.Price)
	s.True(point.ObservedAt.Equal(observedAt))
}

func (s *PriceHistoryRepositoryTestSuite) TestGetLatest_EmptyHistory_ReturnsNilNil() {
	// Пустая история - не ошибка: (nil, nil) для первой точки товара
	ctx := context.Background()
	productID := uuid.New()

	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "price_histories" WHERE product_id = $1 ORDER BY observed_at DESC`)).
		WithArgs(productID, 1).
		WillReturnError(gorm.ErrRecordNotFound)

	// Act
	point, err := s.repo.GetLatest(ctx, productID)

	// Assert
	s.NoError(err)
	s.Nil(point)
}

// ===================== Append Tests =====================

func (s *PriceHistoryRepositoryTestSuite) TestAppend_Success() {
	ctx := context.Background()
	point := &entity.PricePoint{
		ID:         uuid.New(),
		ProductID:  uuid.New(),
		Price:      2400,
		ObservedAt: time.Now(),
	}

	s.mock.ExpectBegin()
	s.mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "price_histories"`)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	s.mock.ExpectCommit()

	// Act
	err := s.repo.Append(ctx, point)

	// Assert
	s.NoError(err)
	s.NoError(s.mock.ExpectationsWereMet())
}
