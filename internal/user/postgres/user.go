package postgres

import (
	"time"

	apperrors "github.com/espp/tuition-management/internal"
	"github.com/espp/tuition-management/internal/user"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) user.Repository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(u *user.User) error {
	return r.db.Create(u).Error
}

func (r *UserRepository) GetByID(id int64) (*user.User, error) {
	var u user.User
	err := r.db.Where("id = ?", id).First(&u).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.NewStorageError("failed to load user", err)
	}
	return &u, nil
}

func (r *UserRepository) GetByUsername(username string) (*user.User, error) {
	var u user.User
	err := r.db.Where("username = ?", username).First(&u).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.NewStorageError("failed to load user", err)
	}
	return &u, nil
}

func (r *UserRepository) GetAll(limit, offset int, role string) ([]*user.User, error) {
	var users []*user.User
	q := r.db.Order("full_name ASC").Limit(limit).Offset(offset)
	if role != "" {
		q = q.Where("role = ?", role)
	}
	err := q.Find(&users).Error
	return users, err
}

func (r *UserRepository) Update(u *user.User) error {
	u.UpdatedAt = time.Now()
	return r.db.Save(u).Error
}

func (r *UserRepository) Delete(id int64) error {
	return r.db.Delete(&user.User{}, id).Error
}

func (r *UserRepository) UsernameExists(username string, excludeID int64) (bool, error) {
	var count int64
	err := r.db.Model(&user.User{}).
		Where("username = ? AND id != ?", username, excludeID).
		Count(&count).Error
	return count > 0, err
}

func (r *UserRepository) EmailExists(email string, excludeID int64) (bool, error) {
	var count int64
	err := r.db.Model(&user.User{}).
		Where("email = ? AND id != ?", email, excludeID).
		Count(&count).Error
	return count > 0, err
}

func (r *UserRepository) NIMExists(nim string, excludeID int64) (bool, error) {
	var count int64
	err := r.db.Model(&user.User{}).
		Where("nim = ? AND id != ?", nim, excludeID).
		Count(&count).Error
	return count > 0, err
}
