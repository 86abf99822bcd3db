package billing

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusPending   = "pending"
	StatusPaid      = "paid"
	StatusOverdue   = "overdue"
	StatusCancelled = "cancelled"
)

// Bill is a tuition obligation issued to a student against a program.
//
// The status column is owned by this engine but written from three paths:
// staff edits, the overdue sweep, and payment confirmation. The sweep and the
// confirmation are both single conditional statements so they cannot
// race-overwrite each other; staff edits are guarded in the service once a
// confirmed payment exists.
type Bill struct {
	ID          int64           `json:"id" gorm:"primaryKey"`
	BillNumber  string          `json:"bill_number" gorm:"column:bill_number;not null;uniqueIndex"`
	StudentID   int64           `json:"student_id" gorm:"column:student_id;not null"`
	ProgramID   int64           `json:"program_id" gorm:"column:program_id;not null"`
	Amount      decimal.Decimal `json:"amount" gorm:"type:decimal(16,2);not null"`
	Description string          `json:"description"`
	DueDate     time.Time       `json:"due_date" gorm:"column:due_date;type:date;not null"`
	Status      string          `json:"status" gorm:"default:pending"`
	CreatedBy   int64           `json:"created_by" gorm:"column:created_by;not null"`
	CreatedAt   time.Time       `json:"created_at" gorm:"column:created_at;default:now()"`
	UpdatedAt   time.Time       `json:"updated_at" gorm:"column:updated_at;default:now()"`
}

func (Bill) TableName() string {
	return "bills"
}

// BillDetail is a bill joined to its student and program, the shape list and
// detail endpoints return.
type BillDetail struct {
	Bill
	StudentName string `json:"student_name"`
	NIM         string `json:"nim"`
	ProgramName string `json:"program_name"`
}

func ValidStatus(status string) bool {
	switch status {
	case StatusPending, StatusPaid, StatusOverdue, StatusCancelled:
		return true
	}
	return false
}

func (b *Bill) IsOverdueEligible(today time.Time) bool {
	return b.Status == StatusPending && b.DueDate.Before(today)
}
