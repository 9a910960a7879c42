package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/support"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormTicketRepository implements support.Repository using GORM
type GormTicketRepository struct {
	db          *gorm.DB
	outboxSaver shared.OutboxEventSaver
}

// NewGormTicketRepository creates a new GormTicketRepository
func NewGormTicketRepository(db *gorm.DB) *GormTicketRepository {
	return &GormTicketRepository{db: db}
}

// SetOutboxEventSaver sets the outbox event saver for transactional event publishing
func (r *GormTicketRepository) SetOutboxEventSaver(saver shared.OutboxEventSaver) {
	r.outboxSaver = saver
}

// preloadMessages orders the thread by sequence so ToDomain yields messages
// in reading order
func preloadMessages(db *gorm.DB) *gorm.DB {
	return db.Order("sequence ASC")
}

// FindByID finds a ticket by its ID, including its message thread
func (r *GormTicketRepository) FindByID(ctx context.Context, id uuid.UUID) (*support.Ticket, error) {
	var model models.TicketModel
	if err := r.db.WithContext(ctx).
		Preload("Messages", preloadMessages).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByTicketNumber finds a ticket by ticket number
func (r *GormTicketRepository) FindByTicketNumber(ctx context.Context, ticketNumber string) (*support.Ticket, error) {
	var model models.TicketModel
	if err := r.db.WithContext(ctx).
		Preload("Messages", preloadMessages).
		Where("ticket_number = ?", ticketNumber).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds tickets with filtering and pagination
func (r *GormTicketRepository) FindAll(ctx context.Context, filter shared.Filter) ([]support.Ticket, error) {
	var ticketModels []models.TicketModel
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&models.TicketModel{}),
		filter,
	)

	if err := query.Preload("Messages", preloadMessages).Find(&ticketModels).Error; err != nil {
		return nil, err
	}
	return toDomainTickets(ticketModels), nil
}

// FindByCustomer finds tickets opened by a customer
func (r *GormTicketRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID, filter shared.Filter) ([]support.Ticket, error) {
	var ticketModels []models.TicketModel
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&models.TicketModel{}).
			Where("customer_id = ?", customerID),
		filter,
	)

	if err := query.Preload("Messages", preloadMessages).Find(&ticketModels).Error; err != nil {
		return nil, err
	}
	return toDomainTickets(ticketModels), nil
}

// FindByAssignee finds tickets assigned to a staff member
func (r *GormTicketRepository) FindByAssignee(ctx context.Context, assigneeID uuid.UUID, filter shared.Filter) ([]support.Ticket, error) {
	var ticketModels []models.TicketModel
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&models.TicketModel{}).
			Where("assignee_id = ?", assigneeID),
		filter,
	)

	if err := query.Preload("Messages", preloadMessages).Find(&ticketModels).Error; err != nil {
		return nil, err
	}
	return toDomainTickets(ticketModels), nil
}

// FindByStatus finds tickets by status
func (r *GormTicketRepository) FindByStatus(ctx context.Context, status support.Status, filter shared.Filter) ([]support.Ticket, error) {
	var ticketModels []models.TicketModel
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&models.TicketModel{}).
			Where("status = ?", status),
		filter,
	)

	if err := query.Preload("Messages", preloadMessages).Find(&ticketModels).Error; err != nil {
		return nil, err
	}
	return toDomainTickets(ticketModels), nil
}

// Save creates or updates a ticket
func (r *GormTicketRepository) Save(ctx context.Context, t *support.Ticket) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model := models.TicketModelFromDomain(t)
		if err := tx.Omit("Messages").Save(model).Error; err != nil {
			return err
		}
		return r.saveMessages(tx, t)
	})
}

// SaveWithLock saves with optimistic locking (version check)
// Message sequence assignment relies on this to serialize concurrent posts:
// two posts read the same LastSequence, and the second commit loses on the
// version check instead of writing a duplicate sequence
func (r *GormTicketRepository) SaveWithLock(ctx context.Context, t *support.Ticket) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return r.saveWithLockTx(tx, t)
	})
}

// SaveWithLockAndEvents saves with optimistic locking and persists domain events atomically
func (r *GormTicketRepository) SaveWithLockAndEvents(ctx context.Context, t *support.Ticket, events []shared.DomainEvent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.saveWithLockTx(tx, t); err != nil {
			return err
		}

		if r.outboxSaver != nil && len(events) > 0 {
			if err := r.outboxSaver.SaveEvents(ctx, tx, events...); err != nil {
				return fmt.Errorf("failed to save events to outbox: %w", err)
			}
		}

		return nil
	})
}

func (r *GormTicketRepository) saveWithLockTx(tx *gorm.DB, t *support.Ticket) error {
	var versions []int
	if err := tx.Model(&models.TicketModel{}).
		Where("id = ?", t.ID).
		Pluck("version", &versions).Error; err != nil {
		return err
	}

	if len(versions) == 0 {
		t.UpdatedAt = time.Now()
		model := models.TicketModelFromDomain(t)
		if err := tx.Omit("Messages").Create(model).Error; err != nil {
			return err
		}
		return r.saveMessages(tx, t)
	}

	currentVersion := versions[0]
	if currentVersion != t.Version {
		return shared.ErrConcurrencyConflict
	}

	t.Version++
	t.UpdatedAt = time.Now()

	model := models.TicketModelFromDomain(t)
	result := tx.Model(&models.TicketModel{}).
		Where("id = ? AND version = ?", t.ID, currentVersion).
		Updates(map[string]interface{}{
			"assignee_id":   model.AssigneeID,
			"status":        model.Status,
			"last_sequence": model.LastSequence,
			"resolved_at":   model.ResolvedAt,
			"version":       model.Version,
			"updated_at":    model.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}

	return r.saveMessages(tx, t)
}

// saveMessages inserts messages that are not yet persisted. Messages are
// immutable once written, so existing rows are left untouched.
func (r *GormTicketRepository) saveMessages(tx *gorm.DB, t *support.Ticket) error {
	for i := range t.Messages {
		t.Messages[i].TicketID = t.ID
		msgModel := models.TicketMessageModelFromDomain(&t.Messages[i])
		if err := tx.Where("id = ?", msgModel.ID).FirstOrCreate(msgModel).Error; err != nil {
			return err
		}
	}
	return nil
}

// Count counts tickets matching the filter
func (r *GormTicketRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(
		r.db.WithContext(ctx).Model(&models.TicketModel{}),
		filter,
	)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// GenerateTicketNumber generates a unique ticket number
// Format: TKT-YYYY-NNNNN (e.g., TKT-2026-00001)
func (r *GormTicketRepository) GenerateTicketNumber(ctx context.Context) (string, error) {
	year := time.Now().Year()
	prefix := fmt.Sprintf("TKT-%d-", year)

	var lastTicket models.TicketModel
	err := r.db.WithContext(ctx).
		Model(&models.TicketModel{}).
		Where("ticket_number LIKE ?", prefix+"%").
		Order("ticket_number DESC").
		First(&lastTicket).Error

	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	var nextNum int64 = 1
	if err == nil && lastTicket.TicketNumber != "" {
		parts := strings.Split(lastTicket.TicketNumber, "-")
		if len(parts) == 3 {
			var num int64
			if _, parseErr := fmt.Sscanf(parts[2], "%d", &num); parseErr == nil {
				nextNum = num + 1
			}
		}
	}

	return fmt.Sprintf("%s%05d", prefix, nextNum), nil
}

// applyFilter applies filter options to the query
func (r *GormTicketRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	if filter.OrderBy != "" {
		orderDir := "ASC"
		if strings.ToLower(filter.OrderDir) == "desc" {
			orderDir = "DESC"
		}
		query = query.Order(filter.OrderBy + " " + orderDir)
	} else {
		query = query.Order("created_at DESC")
	}

	return query
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormTicketRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("ticket_number ILIKE ? OR subject ILIKE ?", searchPattern, searchPattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case "customer_id":
			query = query.Where("customer_id = ?", value)
		case "assignee_id":
			query = query.Where("assignee_id = ?", value)
		case "status":
			query = query.Where("status = ?", value)
		case "start_date":
			if t, ok := value.(time.Time); ok {
				query = query.Where("created_at >= ?", t)
			}
		case "end_date":
			if t, ok := value.(time.Time); ok {
				query = query.Where("created_at <= ?", t)
			}
		}
	}

	return query
}

func toDomainTickets(ticketModels []models.TicketModel) []support.Ticket {
	tickets := make([]support.Ticket, len(ticketModels))
	for i, model := range ticketModels {
		tickets[i] = *model.ToDomain()
	}
	return tickets
}

// Ensure GormTicketRepository implements support.Repository
var _ support.Repository = (*GormTicketRepository)(nil)
