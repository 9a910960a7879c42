package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/returns"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// terminalReturnStatuses close a return request; everything else counts as active
var terminalReturnStatuses = []returns.Status{
	returns.StatusRejected,
	returns.StatusRefunded,
	returns.StatusExchanged,
}

// GormReturnRequestRepository implements returns.Repository using GORM
type GormReturnRequestRepository struct {
	db          *gorm.DB
	outboxSaver shared.OutboxEventSaver
}

// NewGormReturnRequestRepository creates a new GormReturnRequestRepository
func NewGormReturnRequestRepository(db *gorm.DB) *GormReturnRequestRepository {
	return &GormReturnRequestRepository{db: db}
}

// SetOutboxEventSaver sets the outbox event saver for transactional event publishing
func (r *GormReturnRequestRepository) SetOutboxEventSaver(saver shared.OutboxEventSaver) {
	r.outboxSaver = saver
}

// FindByID finds a return request by its ID
func (r *GormReturnRequestRepository) FindByID(ctx context.Context, id uuid.UUID) (*returns.ReturnRequest, error) {
	var model models.ReturnRequestModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByOrder finds all return requests for an order
func (r *GormReturnRequestRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]returns.ReturnRequest, error) {
	var requestModels []models.ReturnRequestModel
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at DESC").
		Find(&requestModels).Error; err != nil {
		return nil, err
	}
	return toDomainReturns(requestModels), nil
}

// FindActiveByOrder finds the non-terminal return request for an order, if any
func (r *GormReturnRequestRepository) FindActiveByOrder(ctx context.Context, orderID uuid.UUID) (*returns.ReturnRequest, error) {
	var model models.ReturnRequestModel
	if err := r.db.WithContext(ctx).
		Where("order_id = ? AND status NOT IN ?", orderID, terminalReturnStatuses).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByCustomer finds return requests for a customer
func (r *GormReturnRequestRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID, filter shared.Filter) ([]returns.ReturnRequest, error) {
	var requestModels []models.ReturnRequestModel
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&models.ReturnRequestModel{}).
			Where("customer_id = ?", customerID),
		filter,
	)

	if err := query.Find(&requestModels).Error; err != nil {
		return nil, err
	}
	return toDomainReturns(requestModels), nil
}

// FindByStatus finds return requests by status
func (r *GormReturnRequestRepository) FindByStatus(ctx context.Context, status returns.Status, filter shared.Filter) ([]returns.ReturnRequest, error) {
	var requestModels []models.ReturnRequestModel
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&models.ReturnRequestModel{}).
			Where("status = ?", status),
		filter,
	)

	if err := query.Find(&requestModels).Error; err != nil {
		return nil, err
	}
	return toDomainReturns(requestModels), nil
}

// Save creates or updates a return request
func (r *GormReturnRequestRepository) Save(ctx context.Context, req *returns.ReturnRequest) error {
	model := models.ReturnRequestModelFromDomain(req)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveWithLock saves with optimistic locking (version check)
func (r *GormReturnRequestRepository) SaveWithLock(ctx context.Context, req *returns.ReturnRequest) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return r.saveWithLockTx(tx, req)
	})
}

// SaveWithLockAndEvents saves with optimistic locking and persists domain events atomically
func (r *GormReturnRequestRepository) SaveWithLockAndEvents(ctx context.Context, req *returns.ReturnRequest, events []shared.DomainEvent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.saveWithLockTx(tx, req); err != nil {
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

func (r *GormReturnRequestRepository) saveWithLockTx(tx *gorm.DB, req *returns.ReturnRequest) error {
	var versions []int
	if err := tx.Model(&models.ReturnRequestModel{}).
		Where("id = ?", req.ID).
		Pluck("version", &versions).Error; err != nil {
		return err
	}

	if len(versions) == 0 {
		req.UpdatedAt = time.Now()
		return tx.Create(models.ReturnRequestModelFromDomain(req)).Error
	}

	currentVersion := versions[0]
	if currentVersion != req.Version {
		return shared.ErrConcurrencyConflict
	}

	req.Version++
	req.UpdatedAt = time.Now()

	model := models.ReturnRequestModelFromDomain(req)
	result := tx.Model(&models.ReturnRequestModel{}).
		Where("id = ? AND version = ?", req.ID, currentVersion).
		Updates(map[string]interface{}{
			"status":      model.Status,
			"resolved_at": model.ResolvedAt,
			"version":     model.Version,
			"updated_at":  model.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}

	return nil
}

// Count counts return requests matching the filter
func (r *GormReturnRequestRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(
		r.db.WithContext(ctx).Model(&models.ReturnRequestModel{}),
		filter,
	)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// applyFilter applies filter options to the query
func (r *GormReturnRequestRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
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
func (r *GormReturnRequestRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "order_id":
			query = query.Where("order_id = ?", value)
		case "status":
			query = query.Where("status = ?", value)
		case "active":
			if active, ok := value.(bool); ok {
				if active {
					query = query.Where("status NOT IN ?", terminalReturnStatuses)
				} else {
					query = query.Where("status IN ?", terminalReturnStatuses)
				}
			}
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

func toDomainReturns(requestModels []models.ReturnRequestModel) []returns.ReturnRequest {
	requests := make([]returns.ReturnRequest, len(requestModels))
	for i, model := range requestModels {
		requests[i] = *model.ToDomain()
	}
	return requests
}

// Ensure GormReturnRequestRepository implements returns.Repository
var _ returns.Repository = (*GormReturnRequestRepository)(nil)
