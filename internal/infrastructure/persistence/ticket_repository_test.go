package persistence

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/support"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
)

func newTicketTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.TicketModel{},
		&models.TicketMessageModel{},
		&models.OutboxEntryModel{},
	))
	return db
}

func TestGormTicketRepository_SaveWithLockAndEvents_CreatesNewTicket(t *testing.T) {
	repo := NewGormTicketRepository(newTicketTestDB(t))

	ticket, err := support.NewTicket("TKT-2026-00001", uuid.New(), "Where is my order?", "It has been a week.")
	require.NoError(t, err)

	require.NoError(t, repo.SaveWithLockAndEvents(context.Background(), ticket, ticket.GetDomainEvents()))

	found, err := repo.FindByID(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, found.Version)
	assert.Equal(t, support.StatusOpen, found.Status)
	assert.Empty(t, found.Messages)
}

func TestGormTicketRepository_PostMessagesKeepSequenceOrder(t *testing.T) {
	repo := NewGormTicketRepository(newTicketTestDB(t))

	customerID := uuid.New()
	ticket, err := support.NewTicket("TKT-2026-00002", customerID, "Damaged item", "")
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), ticket))

	for i := 0; i < 3; i++ {
		loaded, err := repo.FindByID(context.Background(), ticket.ID)
		require.NoError(t, err)
		_, err = loaded.PostMessage(customerID, shared.RoleCustomer, fmt.Sprintf("message %d", i+1))
		require.NoError(t, err)
		require.NoError(t, repo.SaveWithLock(context.Background(), loaded))
	}

	found, err := repo.FindByID(context.Background(), ticket.ID)
	require.NoError(t, err)
	require.Len(t, found.Messages, 3)
	for i, msg := range found.Messages {
		assert.Equal(t, i+1, msg.Sequence)
	}
	assert.Equal(t, 3, found.LastSequence)
}

func TestGormTicketRepository_SaveWithLock_StaleVersionRejected(t *testing.T) {
	repo := NewGormTicketRepository(newTicketTestDB(t))

	customerID := uuid.New()
	ticket, err := support.NewTicket("TKT-2026-00003", customerID, "Wrong color", "")
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), ticket))

	first, err := repo.FindByID(context.Background(), ticket.ID)
	require.NoError(t, err)
	second, err := repo.FindByID(context.Background(), ticket.ID)
	require.NoError(t, err)

	_, err = first.PostMessage(customerID, shared.RoleCustomer, "first writer")
	require.NoError(t, err)
	require.NoError(t, repo.SaveWithLock(context.Background(), first))

	_, err = second.PostMessage(customerID, shared.RoleCustomer, "second writer")
	require.NoError(t, err)
	err = repo.SaveWithLock(context.Background(), second)
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
}
