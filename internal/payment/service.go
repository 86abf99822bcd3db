package payment

import (
	"context"
	"log/slog"
	"time"

	apperrors "github.com/espp/tuition-management/internal"
	"github.com/espp/tuition-management/internal/billing"
	"github.com/espp/tuition-management/internal/core/events"
	"github.com/espp/tuition-management/internal/core/numbering"
	"github.com/espp/tuition-management/internal/user"
)

// Repository defines the data access methods for payments. Confirm and
// Reject perform their status transition conditionally so that two
// concurrent calls on the same pending payment cannot both win.
type Repository interface {
	Create(p *Payment) error
	GetByID(id int64) (*Payment, error)
	GetDetailByID(id int64) (*PaymentDetail, error)
	List(params ListParams) ([]*PaymentDetail, int64, error)
	GetByStudent(studentID int64, status string) ([]*PaymentDetail, error)
	Confirm(paymentID, confirmedBy int64, at time.Time) (*Payment, error)
	Reject(paymentID, rejectedBy int64, reason string, at time.Time) (*Payment, error)
	Delete(id int64) error
	NumberExists(paymentNumber string) (bool, error)
	StatsByStatus() ([]StatusStat, error)
	StatsByMonth(limit int) ([]MonthStat, error)
	StatsByProgram() ([]ProgramStat, error)
}

type BillResolver interface {
	GetByID(id int64) (*billing.Bill, error)
}

// Service handles the payment lifecycle: submission by students, then
// confirmation or rejection by staff.
type Service struct {
	repo    Repository
	bills   BillResolver
	numbers *numbering.Generator
	bus     *events.EventBus
	logger  *slog.Logger
	now     func() time.Time
}

func NewService(repo Repository, bills BillResolver, numbers *numbering.Generator, bus *events.EventBus, logger *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		bills:   bills,
		numbers: numbers,
		bus:     bus,
		logger:  logger,
		now:     time.Now,
	}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// CreatePayment records a payment claim against a bill. Students submit
// their own claims; staff may record one on a student's behalf, for example
// cash taken at the counter, by naming the student in the DTO. The claim
// starts pending and does not touch the bill until staff confirms it.
// Partial amounts are accepted; reconciliation happens at confirmation time
// by a human, not here.
func (s *Service) CreatePayment(dto CreatePaymentDTO, actor *user.User) (*Payment, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Error("payment validation failed", "error", err, "user_id", actor.ID)
		return nil, err
	}

	studentID := dto.StudentID
	if actor.IsStudent() {
		if dto.StudentID != 0 && dto.StudentID != actor.ID {
			s.logger.Warn("student tried to submit a payment for someone else",
				"user_id", actor.ID, "student_id", dto.StudentID)
			return nil, apperrors.NewForbiddenError("students can only submit their own payments", apperrors.ErrCodeForbidden)
		}
		studentID = actor.ID
	} else if studentID <= 0 {
		return nil, apperrors.NewValidationFieldError("student_id", "student_id is required when recording a payment for a student", apperrors.ErrCodeValidationFailed)
	}

	bill, err := s.bills.GetByID(dto.BillID)
	if err != nil {
		return nil, err
	}
	if bill.StudentID != studentID {
		s.logger.Warn("payment submitted against another student's bill",
			"bill_id", dto.BillID, "student_id", studentID, "bill_student_id", bill.StudentID)
		return nil, apperrors.ErrBillNotFound
	}
	switch bill.Status {
	case billing.StatusPaid:
		return nil, apperrors.NewInvalidStateError("bill is already paid", apperrors.ErrCodeBillAlreadyPaid)
	case billing.StatusCancelled:
		return nil, apperrors.NewInvalidStateError("bill is cancelled", apperrors.ErrCodeBillCancelled)
	}

	paymentDate, _ := dto.ParsedPaymentDate()
	p := &Payment{
		BillID:        dto.BillID,
		StudentID:     studentID,
		Amount:        dto.Amount,
		PaymentMethod: dto.PaymentMethod,
		PaymentDate:   paymentDate,
		Status:        StatusPending,
		Notes:         dto.Notes,
		ProofFile:     dto.ProofFile,
		CreatedAt:     s.now(),
		UpdatedAt:     s.now(),
	}

	for attempt := 0; attempt < 2; attempt++ {
		p.PaymentNumber = s.numbers.Next("PAY")
		exists, err := s.repo.NumberExists(p.PaymentNumber)
		if err != nil {
			return nil, apperrors.NewStorageError("failed to check payment number", err)
		}
		if !exists {
			break
		}
	}

	if err := s.repo.Create(p); err != nil {
		s.logger.Error("failed to create payment", "error", err, "bill_id", dto.BillID)
		return nil, apperrors.NewStorageError("failed to create payment", err)
	}

	s.logger.Info("payment submitted",
		"payment_id", p.ID,
		"payment_number", p.PaymentNumber,
		"bill_id", p.BillID,
		"student_id", studentID,
		"amount", p.Amount.String())

	s.bus.Publish(context.Background(), events.NewPaymentSubmittedEvent(p.ID, p.PaymentNumber, p.BillID, studentID))

	return p, nil
}

// ConfirmPayment marks a pending payment confirmed and its bill paid in a
// single transaction. If the payment is not pending anymore the call fails
// and nothing changes.
func (s *Service) ConfirmPayment(paymentID, confirmedBy int64) (*Payment, error) {
	p, err := s.repo.Confirm(paymentID, confirmedBy, s.now())
	if err != nil {
		s.logger.Error("payment confirmation failed", "error", err, "payment_id", paymentID)
		return nil, err
	}

	s.logger.Info("payment confirmed",
		"payment_id", p.ID,
		"bill_id", p.BillID,
		"confirmed_by", confirmedBy)

	s.bus.Publish(context.Background(), events.NewPaymentConfirmedEvent(p.ID, p.BillID, confirmedBy))

	return p, nil
}

// RejectPayment marks a pending payment rejected. The bill keeps its status;
// the student may submit a new payment afterwards.
func (s *Service) RejectPayment(paymentID, rejectedBy int64, reason string) (*Payment, error) {
	p, err := s.repo.Reject(paymentID, rejectedBy, reason, s.now())
	if err != nil {
		s.logger.Error("payment rejection failed", "error", err, "payment_id", paymentID)
		return nil, err
	}

	s.logger.Info("payment rejected",
		"payment_id", p.ID,
		"rejected_by", rejectedBy,
		"reason", reason)

	s.bus.Publish(context.Background(), events.NewPaymentRejectedEvent(p.ID, rejectedBy, reason))

	return p, nil
}

func (s *Service) GetPaymentByID(id int64) (*PaymentDetail, error) {
	return s.repo.GetDetailByID(id)
}

// DeletePayment removes a pending or rejected payment. Confirmed payments
// are part of the financial record and cannot be deleted.
func (s *Service) DeletePayment(id int64) error {
	p, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}
	if p.Status == StatusConfirmed {
		return apperrors.NewInvalidStateError("confirmed payments cannot be deleted", apperrors.ErrCodePaymentConfirmed)
	}
	if err := s.repo.Delete(id); err != nil {
		s.logger.Error("failed to delete payment", "error", err, "payment_id", id)
		return apperrors.NewStorageError("failed to delete payment", err)
	}
	s.logger.Info("payment deleted", "payment_id", id)
	return nil
}

func (s *Service) ListPayments(params ListParams) (*PaymentPage, error) {
	params = params.Normalized()

	payments, total, err := s.repo.List(params)
	if err != nil {
		s.logger.Error("failed to list payments", "error", err)
		return nil, apperrors.NewStorageError("failed to list payments", err)
	}
	if payments == nil {
		payments = []*PaymentDetail{}
	}

	return &PaymentPage{
		Payments: payments,
		Total:    total,
		Page:     params.Page,
		PageSize: params.PageSize,
	}, nil
}

func (s *Service) GetPaymentsForStudent(studentID int64, status string) ([]*PaymentDetail, error) {
	payments, err := s.repo.GetByStudent(studentID, status)
	if err != nil {
		s.logger.Error("failed to get student payments", "error", err, "student_id", studentID)
		return nil, apperrors.NewStorageError("failed to get student payments", err)
	}
	if payments == nil {
		payments = []*PaymentDetail{}
	}
	return payments, nil
}

// GetPaymentStats aggregates payments by status across all states, and
// confirmed payments by month for the last twelve months.
func (s *Service) GetPaymentStats() (*PaymentStats, error) {
	byStatus, err := s.repo.StatsByStatus()
	if err != nil {
		return nil, apperrors.NewStorageError("failed to aggregate payments by status", err)
	}
	byMonth, err := s.repo.StatsByMonth(12)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to aggregate payments by month", err)
	}
	if byStatus == nil {
		byStatus = []StatusStat{}
	}
	if byMonth == nil {
		byMonth = []MonthStat{}
	}
	return &PaymentStats{ByStatus: byStatus, ByMonth: byMonth}, nil
}

// GetPaymentsByProgram aggregates confirmed payments by the program on the
// underlying bill.
func (s *Service) GetPaymentsByProgram() ([]ProgramStat, error) {
	stats, err := s.repo.StatsByProgram()
	if err != nil {
		return nil, apperrors.NewStorageError("failed to aggregate payments by program", err)
	}
	if stats == nil {
		stats = []ProgramStat{}
	}
	return stats, nil
}
