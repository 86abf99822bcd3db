package user

import (
	"net/mail"
	"strings"

	apperrors "github.com/espp/tuition-management/internal"
)

type CreateUserDTO struct {
	Username  string  `json:"username"`
	Email     string  `json:"email"`
	Password  string  `json:"password"`
	Role      string  `json:"role"`
	FullName  string  `json:"full_name"`
	NIM       *string `json:"nim,omitempty"`
	ProgramID *int64  `json:"program_id,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	Address   *string `json:"address,omitempty"`
}

func (dto CreateUserDTO) Validate() error {
	if strings.TrimSpace(dto.Username) == "" {
		return apperrors.NewValidationFieldError("username", "username is required", apperrors.ErrCodeValidationFailed)
	}
	if _, err := mail.ParseAddress(dto.Email); err != nil {
		return apperrors.NewValidationFieldError("email", "email is not valid", apperrors.ErrCodeValidationFailed)
	}
	if len(dto.Password) < 8 {
		return apperrors.NewValidationFieldError("password", "password must be at least 8 characters", apperrors.ErrCodeValidationFailed)
	}
	if dto.Role != RoleAdmin && dto.Role != RoleStaff && dto.Role != RoleStudent {
		return apperrors.NewValidationFieldError("role", "role must be admin, staff or mahasiswa", apperrors.ErrCodeInvalidStatus)
	}
	if strings.TrimSpace(dto.FullName) == "" {
		return apperrors.NewValidationFieldError("full_name", "full name is required", apperrors.ErrCodeValidationFailed)
	}
	if dto.Role == RoleStudent {
		if dto.NIM == nil || strings.TrimSpace(*dto.NIM) == "" {
			return apperrors.NewValidationFieldError("nim", "nim is required for students", apperrors.ErrCodeValidationFailed)
		}
		if dto.ProgramID == nil || *dto.ProgramID <= 0 {
			return apperrors.NewValidationFieldError("program_id", "program is required for students", apperrors.ErrCodeValidationFailed)
		}
	}
	return nil
}

type UpdateUserDTO struct {
	Email     string  `json:"email"`
	FullName  string  `json:"full_name"`
	NIM       *string `json:"nim,omitempty"`
	ProgramID *int64  `json:"program_id,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	Address   *string `json:"address,omitempty"`
	IsActive  bool    `json:"is_active"`
}

func (dto UpdateUserDTO) Validate() error {
	if _, err := mail.ParseAddress(dto.Email); err != nil {
		return apperrors.NewValidationFieldError("email", "email is not valid", apperrors.ErrCodeValidationFailed)
	}
	if strings.TrimSpace(dto.FullName) == "" {
		return apperrors.NewValidationFieldError("full_name", "full name is required", apperrors.ErrCodeValidationFailed)
	}
	return nil
}
