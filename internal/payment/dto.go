package payment

import (
	"time"

	"github.com/shopspring/decimal"

	apperrors "github.com/espp/tuition-management/internal"
)

type CreatePaymentDTO struct {
	BillID int64 `json:"bill_id"`
	// StudentID names the student being paid for. Student callers leave it
	// empty (they always pay as themselves); staff must set it when
	// recording a payment on a student's behalf.
	StudentID     int64           `json:"student_id,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"payment_method"`
	PaymentDate   string          `json:"payment_date"`
	Notes         string          `json:"notes"`
	// ProofFile is an opaque reference to the uploaded transfer proof;
	// storage of the file itself is outside this service.
	ProofFile string `json:"proof_file,omitempty"`
}

func (dto CreatePaymentDTO) Validate() error {
	if dto.BillID <= 0 {
		return apperrors.NewValidationFieldError("bill_id", "bill_id is required", apperrors.ErrCodeValidationFailed)
	}
	if !dto.Amount.IsPositive() {
		return apperrors.NewValidationFieldError("amount", "amount must be greater than zero", apperrors.ErrCodeValidationFailed)
	}
	if !ValidMethod(dto.PaymentMethod) {
		return apperrors.NewValidationFieldError("payment_method", "payment_method must be transfer, cash or virtual_account", apperrors.ErrCodeValidationFailed)
	}
	if _, err := dto.ParsedPaymentDate(); err != nil {
		return apperrors.NewValidationFieldError("payment_date", "payment_date must be an YYYY-MM-DD date", apperrors.ErrCodeValidationFailed)
	}
	return nil
}

func (dto CreatePaymentDTO) ParsedPaymentDate() (time.Time, error) {
	return time.Parse("2006-01-02", dto.PaymentDate)
}

type RejectPaymentDTO struct {
	Reason string `json:"reason"`
}

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

type PaymentPage struct {
	Payments []*PaymentDetail `json:"payments"`
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
}
