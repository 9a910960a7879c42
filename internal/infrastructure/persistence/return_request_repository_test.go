package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/storefront/backend/internal/domain/returns"
	"github.com/storefront/backend/internal/domain/shared"
)

// newMockDB opens GORM over a sqlmock connection so tests can assert
// the exact SQL the repository issues
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 conn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func returnRequestRows(id, orderID, customerID uuid.UUID, status returns.Status) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "created_at", "updated_at", "version",
		"order_id", "customer_id", "item_ids", "reason", "status", "resolved_at",
	}).AddRow(id, now, now, 1, orderID, customerID, []byte(`[]`), "damaged on arrival", status, nil)
}

func TestGormReturnRequestRepository_FindActiveByOrder(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGormReturnRequestRepository(db)

	returnID := uuid.New()
	orderID := uuid.New()
	customerID := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "return_requests" WHERE order_id = \$1 AND status NOT IN .+`).
		WillReturnRows(returnRequestRows(returnID, orderID, customerID, returns.StatusRequested))

	found, err := repo.FindActiveByOrder(context.Background(), orderID)
	require.NoError(t, err)
	assert.Equal(t, returnID, found.ID)
	assert.Equal(t, returns.StatusRequested, found.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormReturnRequestRepository_FindActiveByOrder_NoneActive(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGormReturnRequestRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "return_requests"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.FindActiveByOrder(context.Background(), uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormReturnRequestRepository_SaveWithLock_VersionMismatch(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGormReturnRequestRepository(db)

	req := &returns.ReturnRequest{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderID:           uuid.New(),
		CustomerID:        uuid.New(),
		ItemIDs:           []uuid.UUID{uuid.New()},
		Reason:            "wrong size",
		Status:            returns.StatusRequested,
	}
	req.Version = 2

	mock.ExpectBegin()
	// The stored row moved to version 3 behind this caller's back
	mock.ExpectQuery(`SELECT "version" FROM "return_requests"`).
		WithArgs(req.ID).
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(3))
	mock.ExpectRollback()

	err := repo.SaveWithLock(context.Background(), req)
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}
