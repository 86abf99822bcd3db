package program

import (
	"time"

	"github.com/shopspring/decimal"
)

// Program is a study program students belong to and bills are issued under.
// TuitionFee is the default per-semester amount staff start from when
// issuing bills; individual bills may still differ.
type Program struct {
	ID         int64           `json:"id" gorm:"primaryKey"`
	Code       string          `json:"code" gorm:"uniqueIndex;not null"`
	Name       string          `json:"name" gorm:"not null"`
	Faculty    string          `json:"faculty"`
	TuitionFee decimal.Decimal `json:"tuition_fee" gorm:"type:decimal(16,2);not null;default:0"`
	IsActive   bool            `json:"is_active" gorm:"column:is_active;default:true"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func (Program) TableName() string {
	return "programs"
}
