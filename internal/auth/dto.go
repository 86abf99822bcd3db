package auth

import (
	"strings"

	apperrors "github.com/espp/tuition-management/internal"
)

type LoginDTO struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (dto LoginDTO) Validate() error {
	if strings.TrimSpace(dto.Username) == "" {
		return apperrors.NewValidationFieldError("username", "username is required", apperrors.ErrCodeValidationFailed)
	}
	if dto.Password == "" {
		return apperrors.NewValidationFieldError("password", "password is required", apperrors.ErrCodeValidationFailed)
	}
	return nil
}

type RefreshDTO struct {
	RefreshToken string `json:"refresh_token"`
}

func (dto RefreshDTO) Validate() error {
	if dto.RefreshToken == "" {
		return apperrors.NewValidationFieldError("refresh_token", "refresh token is required", apperrors.ErrCodeValidationFailed)
	}
	return nil
}
