package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/espp/tuition-management/internal/core/events"
)

// ActivityLog is an append-only audit record. Writes are fire-and-forget:
// a failed insert is logged and dropped, never surfaced to the caller.
type ActivityLog struct {
	ID          int64     `json:"id" gorm:"primaryKey"`
	UserID      int64     `json:"user_id" gorm:"column:user_id;not null"`
	Action      string    `json:"action" gorm:"not null"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at" gorm:"column:created_at;default:now()"`
}

func (ActivityLog) TableName() string {
	return "activity_logs"
}

// ActivityEntry is an activity log row joined to the acting user, as shown
// on the dashboard.
type ActivityEntry struct {
	ID          int64     `json:"id"`
	Action      string    `json:"action"`
	Description string    `json:"description"`
	ActorName   string    `json:"actor_name"`
	CreatedAt   time.Time `json:"created_at"`
}

type Repository interface {
	Insert(log *ActivityLog) error
	Recent(limit int) ([]*ActivityEntry, error)
}

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Record appends an activity entry. Best effort; never returns an error.
func (s *Service) Record(actorID int64, action, description string) {
	entry := &ActivityLog{
		UserID:      actorID,
		Action:      action,
		Description: description,
		CreatedAt:   time.Now(),
	}
	if err := s.repo.Insert(entry); err != nil {
		s.logger.Warn("activity log insert dropped", "error", err, "action", action, "actor_id", actorID)
	}
}

// Recent returns the latest activity entries for the dashboard. An empty
// slice is returned when there is no activity yet.
func (s *Service) Recent(limit int) ([]*ActivityEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	entries, err := s.repo.Recent(limit)
	if err != nil {
		s.logger.Error("failed to load recent activities", "error", err)
		return nil, err
	}
	if entries == nil {
		entries = []*ActivityEntry{}
	}
	return entries, nil
}

// SubscribeToEvents registers audit listeners on the domain event bus so the
// billing and payment engines do not call the sink directly.
func (s *Service) SubscribeToEvents(bus *events.EventBus) {
	bus.Subscribe(events.EventTypeBillCreated, func(ctx context.Context, e events.Event) error {
		if ev, ok := e.(*events.BillCreatedEvent); ok {
			s.Record(ev.CreatedBy, "create_bill", fmt.Sprintf("Created bill: %s", ev.BillNumber))
		}
		return nil
	})
	bus.Subscribe(events.EventTypeBillsSwept, func(ctx context.Context, e events.Event) error {
		if ev, ok := e.(*events.BillsSweptEvent); ok {
			s.Record(ev.ActorID, "sweep_overdue", fmt.Sprintf("Marked %d bills overdue", ev.SweptCount))
		}
		return nil
	})
	bus.Subscribe(events.EventTypePaymentSubmitted, func(ctx context.Context, e events.Event) error {
		if ev, ok := e.(*events.PaymentSubmittedEvent); ok {
			s.Record(ev.StudentID, "create_payment", fmt.Sprintf("Created payment: %s", ev.PaymentNumber))
		}
		return nil
	})
	bus.Subscribe(events.EventTypePaymentConfirmed, func(ctx context.Context, e events.Event) error {
		if ev, ok := e.(*events.PaymentConfirmedEvent); ok {
			s.Record(ev.ConfirmedBy, "confirm_payment", fmt.Sprintf("Confirmed payment ID: %d", ev.PaymentID))
		}
		return nil
	})
	bus.Subscribe(events.EventTypePaymentRejected, func(ctx context.Context, e events.Event) error {
		if ev, ok := e.(*events.PaymentRejectedEvent); ok {
			s.Record(ev.RejectedBy, "reject_payment", fmt.Sprintf("Rejected payment ID: %d - %s", ev.PaymentID, ev.Reason))
		}
		return nil
	})
}
