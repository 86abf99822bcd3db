package program

import (
	"strings"

	"github.com/shopspring/decimal"

	apperrors "github.com/espp/tuition-management/internal"
)

type ProgramDTO struct {
	Code       string          `json:"code"`
	Name       string          `json:"name"`
	Faculty    string          `json:"faculty"`
	TuitionFee decimal.Decimal `json:"tuition_fee"`
	IsActive   *bool           `json:"is_active,omitempty"`
}

func (dto ProgramDTO) Validate() error {
	if strings.TrimSpace(dto.Code) == "" {
		return apperrors.NewValidationFieldError("code", "code is required", apperrors.ErrCodeValidationFailed)
	}
	if strings.TrimSpace(dto.Name) == "" {
		return apperrors.NewValidationFieldError("name", "name is required", apperrors.ErrCodeValidationFailed)
	}
	if dto.TuitionFee.IsNegative() {
		return apperrors.NewValidationFieldError("tuition_fee", "tuition fee cannot be negative", apperrors.ErrCodeInvalidAmount)
	}
	return nil
}

// Active defaults a new program to active when the field is omitted.
func (dto ProgramDTO) Active() bool {
	if dto.IsActive == nil {
		return true
	}
	return *dto.IsActive
}
