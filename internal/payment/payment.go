package payment

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment lifecycle states. A payment starts pending and ends in exactly one
// of confirmed or rejected; both are terminal.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusRejected  = "rejected"
)

const (
	MethodTransfer = "transfer"
	MethodCash     = "cash"
	MethodVirtual  = "virtual_account"
)

type Payment struct {
	ID            int64           `json:"id" gorm:"primaryKey"`
	PaymentNumber string          `json:"payment_number" gorm:"uniqueIndex;not null"`
	BillID        int64           `json:"bill_id" gorm:"not null;index"`
	StudentID     int64           `json:"student_id" gorm:"not null;index"`
	Amount        decimal.Decimal `json:"amount" gorm:"type:decimal(16,2);not null"`
	PaymentMethod string          `json:"payment_method" gorm:"not null"`
	PaymentDate   time.Time       `json:"payment_date" gorm:"type:date;not null"`
	Status        string          `json:"status" gorm:"default:pending;not null"`
	Notes         string          `json:"notes"`
	ProofFile     string          `json:"proof_file,omitempty" gorm:"column:proof_file"`
	ConfirmedBy   *int64          `json:"confirmed_by"`
	ConfirmedAt   *time.Time      `json:"confirmed_at"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (Payment) TableName() string {
	return "payments"
}

func (p *Payment) IsPending() bool {
	return p.Status == StatusPending
}

// PaymentDetail is a payment joined to its student and bill.
type PaymentDetail struct {
	Payment
	StudentName string `json:"student_name"`
	NIM         string `json:"nim"`
	BillNumber  string `json:"bill_number"`
}

func ValidMethod(method string) bool {
	switch method {
	case MethodTransfer, MethodCash, MethodVirtual:
		return true
	}
	return false
}

// StatusStat aggregates payments by lifecycle state.
type StatusStat struct {
	Status string          `json:"status"`
	Count  int64           `json:"count"`
	Total  decimal.Decimal `json:"total"`
}

// MonthStat aggregates confirmed payments by calendar month (YYYY-MM).
type MonthStat struct {
	Month string          `json:"month"`
	Count int64           `json:"count"`
	Total decimal.Decimal `json:"total"`
}

// ProgramStat aggregates confirmed payments by the billed program.
type ProgramStat struct {
	ProgramName string          `json:"program_name"`
	Count       int64           `json:"count"`
	Total       decimal.Decimal `json:"total"`
}

// PaymentStats is the combined aggregation payload for the admin dashboard.
type PaymentStats struct {
	ByStatus []StatusStat `json:"by_status"`
	ByMonth  []MonthStat  `json:"by_month"`
}
