package postgres

import (
	"time"

	apperrors "github.com/espp/tuition-management/internal"
	"github.com/espp/tuition-management/internal/billing"
	"gorm.io/gorm"
)

// BillRepository implements the billing.Repository interface using GORM.
type BillRepository struct {
	db *gorm.DB
}

func NewBillRepository(db *gorm.DB) billing.Repository {
	return &BillRepository{db: db}
}

const detailSelect = `bills.*, users.full_name AS student_name, users.nim AS nim, programs.name AS program_name`

func (r *BillRepository) detailQuery() *gorm.DB {
	return r.db.Table("bills").
		Select(detailSelect).
		Joins("JOIN users ON users.id = bills.student_id").
		Joins("JOIN programs ON programs.id = bills.program_id")
}

func (r *BillRepository) Create(b *billing.Bill) error {
	return r.db.Create(b).Error
}

func (r *BillRepository) GetByID(id int64) (*billing.Bill, error) {
	var b billing.Bill
	err := r.db.Where("id = ?", id).First(&b).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.ErrBillNotFound
		}
		return nil, apperrors.NewStorageError("failed to load bill", err)
	}
	return &b, nil
}

func (r *BillRepository) GetDetailByID(id int64) (*billing.BillDetail, error) {
	var detail billing.BillDetail
	err := r.detailQuery().Where("bills.id = ?", id).Take(&detail).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.ErrBillNotFound
		}
		return nil, apperrors.NewStorageError("failed to load bill", err)
	}
	return &detail, nil
}

// List returns a page of bills with student and program names resolved.
// Search matches student name, NIM or bill number.
func (r *BillRepository) List(params billing.ListParams) ([]*billing.BillDetail, int64, error) {
	q := r.detailQuery()

	if params.Status != "" {
		q = q.Where("bills.status = ?", params.Status)
	}
	if params.Search != "" {
		// LOWER on both sides keeps the match case-insensitive on
		// postgres, where plain LIKE is not.
		like := "%" + params.Search + "%"
		q = q.Where("LOWER(users.full_name) LIKE LOWER(?) OR LOWER(users.nim) LIKE LOWER(?) OR LOWER(bills.bill_number) LIKE LOWER(?)", like, like, like)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var bills []*billing.BillDetail
	err := q.Order("bills.created_at DESC").
		Limit(params.PageSize).
		Offset(params.Offset()).
		Find(&bills).Error
	return bills, total, err
}

func (r *BillRepository) GetByStudent(studentID int64, status string) ([]*billing.BillDetail, error) {
	q := r.detailQuery().Where("bills.student_id = ?", studentID)
	if status != "" {
		q = q.Where("bills.status = ?", status)
	}
	var bills []*billing.BillDetail
	err := q.Order("bills.due_date ASC").Find(&bills).Error
	return bills, err
}

func (r *BillRepository) GetOverdue(today time.Time) ([]*billing.BillDetail, error) {
	var bills []*billing.BillDetail
	err := r.detailQuery().
		Where("bills.status = ? AND bills.due_date < ?", billing.StatusPending, today).
		Order("bills.due_date ASC").
		Find(&bills).Error
	return bills, err
}

// SweepOverdue flips every pending bill past its due date to overdue in one
// conditional update. Rows already paid, cancelled or overdue never match,
// which makes the sweep safe to run repeatedly.
func (r *BillRepository) SweepOverdue(today time.Time) (int64, error) {
	result := r.db.Model(&billing.Bill{}).
		Where("status = ? AND due_date < ?", billing.StatusPending, today).
		Updates(map[string]interface{}{
			"status":     billing.StatusOverdue,
			"updated_at": time.Now(),
		})
	return result.RowsAffected, result.Error
}

func (r *BillRepository) Update(b *billing.Bill) error {
	b.UpdatedAt = time.Now()
	return r.db.Save(b).Error
}

func (r *BillRepository) Delete(id int64) error {
	return r.db.Delete(&billing.Bill{}, id).Error
}

func (r *BillRepository) NumberExists(billNumber string) (bool, error) {
	var count int64
	err := r.db.Model(&billing.Bill{}).Where("bill_number = ?", billNumber).Count(&count).Error
	return count > 0, err
}

func (r *BillRepository) CountPayments(billID int64) (int64, error) {
	var count int64
	err := r.db.Table("payments").Where("bill_id = ?", billID).Count(&count).Error
	return count, err
}

func (r *BillRepository) CountConfirmedPayments(billID int64) (int64, error) {
	var count int64
	err := r.db.Table("payments").
		Where("bill_id = ? AND status = ?", billID, "confirmed").
		Count(&count).Error
	return count, err
}
