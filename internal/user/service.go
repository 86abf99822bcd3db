package user

import (
	"log/slog"

	apperrors "github.com/espp/tuition-management/internal"
)

type Repository interface {
	Create(u *User) error
	GetByID(id int64) (*User, error)
	GetByUsername(username string) (*User, error)
	GetAll(limit, offset int, role string) ([]*User, error)
	Update(u *User) error
	Delete(id int64) error
	UsernameExists(username string, excludeID int64) (bool, error)
	EmailExists(email string, excludeID int64) (bool, error)
	NIMExists(nim string, excludeID int64) (bool, error)
}

type PasswordHasher interface {
	HashPassword(password string) (string, error)
}

type Service struct {
	repo   Repository
	hasher PasswordHasher
	logger *slog.Logger
}

func NewService(repo Repository, hasher PasswordHasher, logger *slog.Logger) *Service {
	return &Service{repo: repo, hasher: hasher, logger: logger}
}

func (s *Service) CreateUser(dto CreateUserDTO) (*User, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Error("user validation failed", "error", err, "username", dto.Username)
		return nil, err
	}

	if exists, err := s.repo.UsernameExists(dto.Username, 0); err != nil {
		return nil, apperrors.NewStorageError("failed to check username", err)
	} else if exists {
		return nil, apperrors.NewConflictError("username already taken", apperrors.ErrCodeValidationFailed)
	}

	if exists, err := s.repo.EmailExists(dto.Email, 0); err != nil {
		return nil, apperrors.NewStorageError("failed to check email", err)
	} else if exists {
		return nil, apperrors.NewConflictError("email already registered", apperrors.ErrCodeValidationFailed)
	}

	if dto.NIM != nil {
		if exists, err := s.repo.NIMExists(*dto.NIM, 0); err != nil {
			return nil, apperrors.NewStorageError("failed to check nim", err)
		} else if exists {
			return nil, apperrors.NewConflictError("nim already registered", apperrors.ErrCodeValidationFailed)
		}
	}

	hash, err := s.hasher.HashPassword(dto.Password)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to hash password", err)
	}

	u := &User{
		Username:     dto.Username,
		Email:        dto.Email,
		PasswordHash: hash,
		Role:         dto.Role,
		FullName:     dto.FullName,
		NIM:          dto.NIM,
		ProgramID:    dto.ProgramID,
		Phone:        dto.Phone,
		Address:      dto.Address,
		IsActive:     true,
	}

	if err := s.repo.Create(u); err != nil {
		s.logger.Error("failed to create user", "error", err, "username", dto.Username)
		return nil, apperrors.NewStorageError("failed to create user", err)
	}

	s.logger.Info("user created", "user_id", u.ID, "role", u.Role)
	return u, nil
}

func (s *Service) GetUserByID(id int64) (*User, error) {
	u, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) GetUsers(limit, offset int, role string) ([]*User, error) {
	users, err := s.repo.GetAll(limit, offset, role)
	if err != nil {
		s.logger.Error("failed to list users", "error", err)
		return nil, apperrors.NewStorageError("failed to list users", err)
	}
	return users, nil
}

func (s *Service) UpdateUser(id int64, dto UpdateUserDTO) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	u, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}

	if exists, err := s.repo.EmailExists(dto.Email, id); err != nil {
		return nil, apperrors.NewStorageError("failed to check email", err)
	} else if exists {
		return nil, apperrors.NewConflictError("email already registered", apperrors.ErrCodeValidationFailed)
	}

	u.Email = dto.Email
	u.FullName = dto.FullName
	u.NIM = dto.NIM
	u.ProgramID = dto.ProgramID
	u.Phone = dto.Phone
	u.Address = dto.Address
	u.IsActive = dto.IsActive

	if err := s.repo.Update(u); err != nil {
		s.logger.Error("failed to update user", "error", err, "user_id", id)
		return nil, apperrors.NewStorageError("failed to update user", err)
	}

	return u, nil
}

func (s *Service) DeleteUser(id int64) error {
	if _, err := s.repo.GetByID(id); err != nil {
		return err
	}
	if err := s.repo.Delete(id); err != nil {
		s.logger.Error("failed to delete user", "error", err, "user_id", id)
		return apperrors.NewStorageError("failed to delete user", err)
	}
	return nil
}
