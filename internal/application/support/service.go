package support

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/support"
	"go.uber.org/zap"
)

// maxPostRetries bounds refetch-and-retry on concurrent message posts
const maxPostRetries = 3

// TicketService handles support ticket operations
type TicketService struct {
	ticketRepo support.Repository
	logger     *zap.Logger
}

// NewTicketService creates a new TicketService
func NewTicketService(ticketRepo support.Repository, logger *zap.Logger) *TicketService {
	return &TicketService{
		ticketRepo: ticketRepo,
		logger:     logger,
	}
}

// Create opens a new support ticket
func (s *TicketService) Create(ctx context.Context, req CreateTicketRequest) (*TicketResponse, error) {
	ticketNumber, err := s.ticketRepo.GenerateTicketNumber(ctx)
	if err != nil {
		return nil, err
	}

	ticket, err := support.NewTicket(ticketNumber, req.CustomerID, req.Subject, req.Description)
	if err != nil {
		return nil, err
	}

	if err := s.ticketRepo.SaveWithLockAndEvents(ctx, ticket, ticket.GetDomainEvents()); err != nil {
		return nil, err
	}
	ticket.ClearDomainEvents()

	s.logger.Info("ticket created",
		zap.String("ticket_id", ticket.ID.String()),
		zap.String("ticket_number", ticket.TicketNumber),
		zap.String("customer_id", ticket.CustomerID.String()),
	)

	response := ToTicketResponse(ticket)
	return &response, nil
}

// GetByID retrieves a ticket with its full message thread
func (s *TicketService) GetByID(ctx context.Context, ticketID uuid.UUID) (*TicketResponse, error) {
	ticket, err := s.ticketRepo.FindByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	response := ToTicketResponse(ticket)
	return &response, nil
}

// List retrieves tickets with filtering and pagination
func (s *TicketService) List(ctx context.Context, filter TicketListFilter) ([]TicketListItemResponse, int64, error) {
	domainFilter := shared.DefaultFilter()
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	if filter.OrderBy != "" {
		domainFilter.OrderBy = filter.OrderBy
	}
	if filter.OrderDir != "" {
		domainFilter.OrderDir = filter.OrderDir
	}
	domainFilter.Search = filter.Search

	var (
		tickets []support.Ticket
		err     error
	)
	switch {
	case filter.CustomerID != nil:
		tickets, err = s.ticketRepo.FindByCustomer(ctx, *filter.CustomerID, domainFilter)
	case filter.AssigneeID != nil:
		tickets, err = s.ticketRepo.FindByAssignee(ctx, *filter.AssigneeID, domainFilter)
	case filter.Status != nil:
		tickets, err = s.ticketRepo.FindByStatus(ctx, *filter.Status, domainFilter)
	default:
		tickets, err = s.ticketRepo.FindAll(ctx, domainFilter)
	}
	if err != nil {
		return nil, 0, err
	}

	total, err := s.ticketRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	return ToTicketListItemResponses(tickets), total, nil
}

// PostMessage appends a message to the ticket thread. Sequence numbers are
// assigned under the ticket's optimistic lock; on a version conflict the
// ticket is refetched and the post retried, so concurrent posts serialize
// instead of failing.
func (s *TicketService) PostMessage(ctx context.Context, ticketID uuid.UUID, req PostMessageRequest) (*MessageResponse, error) {
	var lastErr error
	for attempt := 0; attempt < maxPostRetries; attempt++ {
		ticket, err := s.ticketRepo.FindByID(ctx, ticketID)
		if err != nil {
			return nil, err
		}

		msg, err := ticket.PostMessage(req.SenderID, req.SenderRole, req.Body)
		if err != nil {
			return nil, err
		}

		if err := s.ticketRepo.SaveWithLockAndEvents(ctx, ticket, ticket.GetDomainEvents()); err != nil {
			if isConcurrencyConflict(err) {
				lastErr = err
				continue
			}
			return nil, err
		}
		ticket.ClearDomainEvents()

		s.logger.Info("ticket message posted",
			zap.String("ticket_id", ticket.ID.String()),
			zap.Int("sequence", msg.Sequence),
			zap.String("sender_role", req.SenderRole.String()),
		)

		response := ToMessageResponse(msg)
		return &response, nil
	}
	return nil, lastErr
}

// Assign assigns a ticket to a staff member
func (s *TicketService) Assign(ctx context.Context, ticketID uuid.UUID, req AssignTicketRequest) (*TicketResponse, error) {
	ticket, err := s.ticketRepo.FindByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	if err := ticket.Assign(req.AssigneeID); err != nil {
		return nil, err
	}

	if err := s.ticketRepo.SaveWithLockAndEvents(ctx, ticket, ticket.GetDomainEvents()); err != nil {
		return nil, err
	}
	ticket.ClearDomainEvents()

	response := ToTicketResponse(ticket)
	return &response, nil
}

// Resolve closes a ticket. Only staff roles may resolve.
func (s *TicketService) Resolve(ctx context.Context, ticketID uuid.UUID, req ResolveTicketRequest) (*TicketResponse, error) {
	ticket, err := s.ticketRepo.FindByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	if err := ticket.Resolve(req.ActorRole); err != nil {
		return nil, err
	}

	if err := s.ticketRepo.SaveWithLockAndEvents(ctx, ticket, ticket.GetDomainEvents()); err != nil {
		return nil, err
	}
	ticket.ClearDomainEvents()

	s.logger.Info("ticket resolved",
		zap.String("ticket_id", ticket.ID.String()),
		zap.String("ticket_number", ticket.TicketNumber),
	)

	response := ToTicketResponse(ticket)
	return &response, nil
}

func isConcurrencyConflict(err error) bool {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == "CONCURRENCY_CONFLICT"
	}
	return false
}
