package billing

import (
	"context"
	"log/slog"
	"time"

	apperrors "github.com/espp/tuition-management/internal"
	"github.com/espp/tuition-management/internal/core/events"
	"github.com/espp/tuition-management/internal/core/numbering"
	"github.com/espp/tuition-management/internal/user"
)

// Repository defines the data access methods for bills.
type Repository interface {
	Create(b *Bill) error
	GetByID(id int64) (*Bill, error)
	GetDetailByID(id int64) (*BillDetail, error)
	List(params ListParams) ([]*BillDetail, int64, error)
	GetByStudent(studentID int64, status string) ([]*BillDetail, error)
	GetOverdue(today time.Time) ([]*BillDetail, error)
	SweepOverdue(today time.Time) (int64, error)
	Update(b *Bill) error
	Delete(id int64) error
	NumberExists(billNumber string) (bool, error)
	CountPayments(billID int64) (int64, error)
	CountConfirmedPayments(billID int64) (int64, error)
}

type StudentResolver interface {
	GetByID(id int64) (*user.User, error)
}

type ProgramResolver interface {
	Exists(id int64) (bool, error)
}

// Service handles bill lifecycle business logic.
type Service struct {
	repo     Repository
	students StudentResolver
	programs ProgramResolver
	numbers  *numbering.Generator
	bus      *events.EventBus
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(repo Repository, students StudentResolver, programs ProgramResolver, numbers *numbering.Generator, bus *events.EventBus, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		students: students,
		programs: programs,
		numbers:  numbers,
		bus:      bus,
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock overrides the service clock. Tests use this to move bills past
// their due date without sleeping.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// CreateBill issues a new bill to a student. The bill number is generated
// here and re-generated once if it collides with an existing one.
func (s *Service) CreateBill(dto CreateBillDTO, createdBy int64) (*Bill, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Error("bill validation failed", "error", err, "student_id", dto.StudentID)
		return nil, err
	}

	student, err := s.students.GetByID(dto.StudentID)
	if err != nil {
		// Only a missing user becomes "student not found"; a storage
		// failure must stay a storage failure.
		if appErr, ok := apperrors.IsAppError(err); ok {
			if appErr.Type == apperrors.ErrorTypeNotFound {
				return nil, apperrors.ErrStudentNotFound
			}
			return nil, err
		}
		return nil, apperrors.NewStorageError("failed to resolve student", err)
	}
	if !student.IsStudent() {
		return nil, apperrors.NewValidationFieldError("student_id", "referenced user is not a student", apperrors.ErrCodeValidationFailed)
	}

	if ok, err := s.programs.Exists(dto.ProgramID); err != nil {
		return nil, apperrors.NewStorageError("failed to resolve program", err)
	} else if !ok {
		return nil, apperrors.ErrProgramNotFound
	}

	dueDate, _ := dto.ParsedDueDate()
	status := dto.Status
	if status == "" {
		status = StatusPending
	}

	bill := &Bill{
		StudentID:   dto.StudentID,
		ProgramID:   dto.ProgramID,
		Amount:      dto.Amount,
		Description: dto.Description,
		DueDate:     dueDate,
		Status:      status,
		CreatedBy:   createdBy,
		CreatedAt:   s.now(),
		UpdatedAt:   s.now(),
	}

	// One retry on number collision; the unique index is the backstop.
	for attempt := 0; attempt < 2; attempt++ {
		bill.BillNumber = s.numbers.Next("BILL")
		exists, err := s.repo.NumberExists(bill.BillNumber)
		if err != nil {
			return nil, apperrors.NewStorageError("failed to check bill number", err)
		}
		if !exists {
			break
		}
	}

	if err := s.repo.Create(bill); err != nil {
		s.logger.Error("failed to create bill", "error", err, "student_id", dto.StudentID)
		return nil, apperrors.NewStorageError("failed to create bill", err)
	}

	s.logger.Info("bill created",
		"bill_id", bill.ID,
		"bill_number", bill.BillNumber,
		"student_id", bill.StudentID,
		"amount", bill.Amount.String())

	s.bus.Publish(context.Background(), events.NewBillCreatedEvent(bill.ID, bill.BillNumber, bill.StudentID, createdBy))

	return bill, nil
}

func (s *Service) GetBillByID(id int64) (*BillDetail, error) {
	detail, err := s.repo.GetDetailByID(id)
	if err != nil {
		return nil, err
	}
	return detail, nil
}

// UpdateBill replaces amount, description, due date and status. Once a
// confirmed payment references the bill its status is derived from payment
// state and can no longer be edited away from paid; conversely a bill
// without a confirmed payment cannot be hand-set to paid.
func (s *Service) UpdateBill(id int64, dto UpdateBillDTO) (*Bill, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	bill, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}

	confirmed, err := s.repo.CountConfirmedPayments(id)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to count confirmed payments", err)
	}

	if confirmed > 0 && dto.Status != StatusPaid {
		s.logger.Warn("rejected status edit on bill with confirmed payment",
			"bill_id", id, "requested_status", dto.Status)
		return nil, apperrors.ErrBillStatusLocked
	}
	if confirmed == 0 && dto.Status == StatusPaid {
		s.logger.Warn("rejected manual paid status without confirmed payment", "bill_id", id)
		return nil, apperrors.ErrBillStatusLocked
	}

	dueDate, _ := dto.ParsedDueDate()
	bill.Amount = dto.Amount
	bill.Description = dto.Description
	bill.DueDate = dueDate
	bill.Status = dto.Status
	bill.UpdatedAt = s.now()

	if err := s.repo.Update(bill); err != nil {
		s.logger.Error("failed to update bill", "error", err, "bill_id", id)
		return nil, apperrors.NewStorageError("failed to update bill", err)
	}

	return bill, nil
}

// DeleteBill removes a bill. Deletion is blocked while any payment still
// references the bill so payments never dangle.
func (s *Service) DeleteBill(id int64) error {
	if _, err := s.repo.GetByID(id); err != nil {
		return err
	}

	count, err := s.repo.CountPayments(id)
	if err != nil {
		return apperrors.NewStorageError("failed to count payments", err)
	}
	if count > 0 {
		return apperrors.ErrBillHasPayments
	}

	if err := s.repo.Delete(id); err != nil {
		s.logger.Error("failed to delete bill", "error", err, "bill_id", id)
		return apperrors.NewStorageError("failed to delete bill", err)
	}

	s.logger.Info("bill deleted", "bill_id", id)
	return nil
}

func (s *Service) ListBills(params ListParams) (*BillPage, error) {
	params = params.Normalized()

	bills, total, err := s.repo.List(params)
	if err != nil {
		s.logger.Error("failed to list bills", "error", err)
		return nil, apperrors.NewStorageError("failed to list bills", err)
	}
	if bills == nil {
		bills = []*BillDetail{}
	}

	return &BillPage{
		Bills:    bills,
		Total:    total,
		Page:     params.Page,
		PageSize: params.PageSize,
	}, nil
}

func (s *Service) GetBillsForStudent(studentID int64, status string) ([]*BillDetail, error) {
	bills, err := s.repo.GetByStudent(studentID, status)
	if err != nil {
		s.logger.Error("failed to get student bills", "error", err, "student_id", studentID)
		return nil, apperrors.NewStorageError("failed to get student bills", err)
	}
	if bills == nil {
		bills = []*BillDetail{}
	}
	return bills, nil
}

// GetOverdueBills returns pending bills whose due date has passed, ordered
// by due date ascending.
func (s *Service) GetOverdueBills() ([]*BillDetail, error) {
	bills, err := s.repo.GetOverdue(s.today())
	if err != nil {
		s.logger.Error("failed to get overdue bills", "error", err)
		return nil, apperrors.NewStorageError("failed to get overdue bills", err)
	}
	if bills == nil {
		bills = []*BillDetail{}
	}
	return bills, nil
}

// SweepOverdue reclassifies every pending bill past its due date as overdue
// in a single conditional bulk update. Idempotent; a second run changes
// nothing. Bills confirmed paid concurrently no longer match the predicate
// and are left alone.
func (s *Service) SweepOverdue(actorID int64) (int64, error) {
	count, err := s.repo.SweepOverdue(s.today())
	if err != nil {
		s.logger.Error("overdue sweep failed", "error", err)
		return 0, apperrors.NewStorageError("overdue sweep failed", err)
	}

	if count > 0 {
		s.logger.Info("overdue sweep completed", "swept", count, "actor_id", actorID)
		s.bus.Publish(context.Background(), events.NewBillsSweptEvent(count, actorID))
	}

	return count, nil
}

// today truncates the clock to local midnight; due-date comparison is by
// calendar day, matching the DATE column.
func (s *Service) today() time.Time {
	now := s.now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}
