package billing

import (
	"strings"
	"time"

	apperrors "github.com/espp/tuition-management/internal"
	"github.com/shopspring/decimal"
)

type CreateBillDTO struct {
	StudentID   int64           `json:"student_id"`
	ProgramID   int64           `json:"program_id"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	DueDate     string          `json:"due_date"`
	Status      string          `json:"status"`
}

func (dto CreateBillDTO) Validate() error {
	if dto.StudentID <= 0 {
		return apperrors.NewValidationFieldError("student_id", "student is required", apperrors.ErrCodeValidationFailed)
	}
	if dto.ProgramID <= 0 {
		return apperrors.NewValidationFieldError("program_id", "program is required", apperrors.ErrCodeValidationFailed)
	}
	if !dto.Amount.IsPositive() {
		return apperrors.NewValidationFieldError("amount", "amount must be positive", apperrors.ErrCodeInvalidAmount)
	}
	if _, err := dto.ParsedDueDate(); err != nil {
		return apperrors.NewValidationFieldError("due_date", "due date must be a valid date (YYYY-MM-DD)", apperrors.ErrCodeInvalidDueDate)
	}
	status := dto.Status
	if status == "" {
		status = StatusPending
	}
	if !ValidStatus(status) {
		return apperrors.NewValidationFieldError("status", "status must be pending, paid, overdue or cancelled", apperrors.ErrCodeInvalidStatus)
	}
	return nil
}

func (dto CreateBillDTO) ParsedDueDate() (time.Time, error) {
	return time.Parse("2006-01-02", strings.TrimSpace(dto.DueDate))
}

type UpdateBillDTO struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	DueDate     string          `json:"due_date"`
	Status      string          `json:"status"`
}

func (dto UpdateBillDTO) Validate() error {
	if !dto.Amount.IsPositive() {
		return apperrors.NewValidationFieldError("amount", "amount must be positive", apperrors.ErrCodeInvalidAmount)
	}
	if _, err := dto.ParsedDueDate(); err != nil {
		return apperrors.NewValidationFieldError("due_date", "due date must be a valid date (YYYY-MM-DD)", apperrors.ErrCodeInvalidDueDate)
	}
	if !ValidStatus(dto.Status) {
		return apperrors.NewValidationFieldError("status", "status must be pending, paid, overdue or cancelled", apperrors.ErrCodeInvalidStatus)
	}
	return nil
}

func (dto UpdateBillDTO) ParsedDueDate() (time.Time, error) {
	return time.Parse("2006-01-02", strings.TrimSpace(dto.DueDate))
}

// ListParams controls the list endpoint: offset pagination plus the
// free-text search over student name, NIM and bill number.
type ListParams struct {
	Page     int
	PageSize int
	Search   string
	Status   string
}

func (p ListParams) Normalized() ListParams {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 || p.PageSize > 100 {
		p.PageSize = 10
	}
	return p
}

func (p ListParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

type BillPage struct {
	Bills    []*BillDetail `json:"bills"`
	Total    int64         `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
}
