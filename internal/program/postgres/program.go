package postgres

import (
	"time"

	apperrors "github.com/espp/tuition-management/internal"
	"github.com/espp/tuition-management/internal/program"
	"gorm.io/gorm"
)

type ProgramRepository struct {
	db *gorm.DB
}

func NewProgramRepository(db *gorm.DB) program.Repository {
	return &ProgramRepository{db: db}
}

func (r *ProgramRepository) GetAll() ([]*program.Program, error) {
	var programs []*program.Program
	err := r.db.Order("name ASC").Find(&programs).Error
	return programs, err
}

func (r *ProgramRepository) GetByID(id int64) (*program.Program, error) {
	var p program.Program
	err := r.db.Where("id = ?", id).First(&p).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.ErrProgramNotFound
		}
		return nil, apperrors.NewStorageError("failed to load program", err)
	}
	return &p, nil
}

func (r *ProgramRepository) Create(p *program.Program) error {
	return r.db.Create(p).Error
}

func (r *ProgramRepository) Update(p *program.Program) error {
	p.UpdatedAt = time.Now()
	return r.db.Save(p).Error
}

func (r *ProgramRepository) Delete(id int64) error {
	return r.db.Delete(&program.Program{}, id).Error
}

func (r *ProgramRepository) CodeExists(code string, excludeID int64) (bool, error) {
	var count int64
	q := r.db.Model(&program.Program{}).Where("code = ?", code)
	if excludeID > 0 {
		q = q.Where("id <> ?", excludeID)
	}
	err := q.Count(&count).Error
	return count > 0, err
}

func (r *ProgramRepository) CountStudents(programID int64) (int64, error) {
	var count int64
	err := r.db.Table("users").Where("program_id = ?", programID).Count(&count).Error
	return count, err
}

func (r *ProgramRepository) CountBills(programID int64) (int64, error) {
	var count int64
	err := r.db.Table("bills").Where("program_id = ?", programID).Count(&count).Error
	return count, err
}
