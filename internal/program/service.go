package program

import (
	"log/slog"

	apperrors "github.com/espp/tuition-management/internal"
)

type Repository interface {
	GetAll() ([]*Program, error)
	GetByID(id int64) (*Program, error)
	Create(p *Program) error
	Update(p *Program) error
	Delete(id int64) error
	CodeExists(code string, excludeID int64) (bool, error)
	CountStudents(programID int64) (int64, error)
	CountBills(programID int64) (int64, error)
}

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func (s *Service) GetPrograms() ([]*Program, error) {
	programs, err := s.repo.GetAll()
	if err != nil {
		s.logger.Error("failed to get programs", "error", err)
		return nil, apperrors.NewStorageError("failed to get programs", err)
	}
	if programs == nil {
		programs = []*Program{}
	}
	return programs, nil
}

func (s *Service) GetProgramByID(id int64) (*Program, error) {
	return s.repo.GetByID(id)
}

// Exists implements billing.ProgramResolver.
func (s *Service) Exists(id int64) (bool, error) {
	_, err := s.repo.GetByID(id)
	if err == apperrors.ErrProgramNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Service) CreateProgram(dto ProgramDTO) (*Program, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	exists, err := s.repo.CodeExists(dto.Code, 0)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to check program code", err)
	}
	if exists {
		return nil, apperrors.NewConflictError("program code already exists", apperrors.ErrCodeValidationFailed)
	}

	p := &Program{
		Code:       dto.Code,
		Name:       dto.Name,
		Faculty:    dto.Faculty,
		TuitionFee: dto.TuitionFee,
		IsActive:   dto.Active(),
	}
	if err := s.repo.Create(p); err != nil {
		s.logger.Error("failed to create program", "error", err)
		return nil, apperrors.NewStorageError("failed to create program", err)
	}

	s.logger.Info("program created", "program_id", p.ID, "code", p.Code)
	return p, nil
}

func (s *Service) UpdateProgram(id int64, dto ProgramDTO) (*Program, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	p, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.CodeExists(dto.Code, id)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to check program code", err)
	}
	if exists {
		return nil, apperrors.NewConflictError("program code already exists", apperrors.ErrCodeValidationFailed)
	}

	p.Code = dto.Code
	p.Name = dto.Name
	p.Faculty = dto.Faculty
	p.TuitionFee = dto.TuitionFee
	if dto.IsActive != nil {
		p.IsActive = *dto.IsActive
	}
	if err := s.repo.Update(p); err != nil {
		s.logger.Error("failed to update program", "error", err, "program_id", id)
		return nil, apperrors.NewStorageError("failed to update program", err)
	}

	return p, nil
}

// DeleteProgram removes a program unless students or bills still reference
// it.
func (s *Service) DeleteProgram(id int64) error {
	if _, err := s.repo.GetByID(id); err != nil {
		return err
	}

	students, err := s.repo.CountStudents(id)
	if err != nil {
		return apperrors.NewStorageError("failed to count program students", err)
	}
	bills, err := s.repo.CountBills(id)
	if err != nil {
		return apperrors.NewStorageError("failed to count program bills", err)
	}
	if students > 0 || bills > 0 {
		s.logger.Warn("blocked program deletion with references",
			"program_id", id, "students", students, "bills", bills)
		return apperrors.ErrProgramInUse
	}

	if err := s.repo.Delete(id); err != nil {
		s.logger.Error("failed to delete program", "error", err, "program_id", id)
		return apperrors.NewStorageError("failed to delete program", err)
	}

	s.logger.Info("program deleted", "program_id", id)
	return nil
}
