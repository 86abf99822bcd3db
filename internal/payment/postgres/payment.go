package postgres

import (
	"time"

	apperrors "github.com/espp/tuition-management/internal"
	"github.com/espp/tuition-management/internal/billing"
	"github.com/espp/tuition-management/internal/payment"
	"gorm.io/gorm"
)

// PaymentRepository implements the payment.Repository interface using GORM.
type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) payment.Repository {
	return &PaymentRepository{db: db}
}

const detailSelect = `payments.*, users.full_name AS student_name, users.nim AS nim, bills.bill_number AS bill_number`

func (r *PaymentRepository) detailQuery() *gorm.DB {
	return r.db.Table("payments").
		Select(detailSelect).
		Joins("JOIN users ON users.id = payments.student_id").
		Joins("JOIN bills ON bills.id = payments.bill_id")
}

func (r *PaymentRepository) Create(p *payment.Payment) error {
	return r.db.Create(p).Error
}

func (r *PaymentRepository) GetByID(id int64) (*payment.Payment, error) {
	var p payment.Payment
	err := r.db.Where("id = ?", id).First(&p).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.ErrPaymentNotFound
		}
		return nil, apperrors.NewStorageError("failed to load payment", err)
	}
	return &p, nil
}

func (r *PaymentRepository) GetDetailByID(id int64) (*payment.PaymentDetail, error) {
	var detail payment.PaymentDetail
	err := r.detailQuery().Where("payments.id = ?", id).Take(&detail).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.ErrPaymentNotFound
		}
		return nil, apperrors.NewStorageError("failed to load payment", err)
	}
	return &detail, nil
}

func (r *PaymentRepository) List(params payment.ListParams) ([]*payment.PaymentDetail, int64, error) {
	q := r.detailQuery()

	if params.Status != "" {
		q = q.Where("payments.status = ?", params.Status)
	}
	if params.Search != "" {
		// LOWER on both sides keeps the match case-insensitive on
		// postgres, where plain LIKE is not.
		like := "%" + params.Search + "%"
		q = q.Where("LOWER(users.full_name) LIKE LOWER(?) OR LOWER(users.nim) LIKE LOWER(?) OR LOWER(payments.payment_number) LIKE LOWER(?)", like, like, like)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var payments []*payment.PaymentDetail
	err := q.Order("payments.created_at DESC").
		Limit(params.PageSize).
		Offset(params.Offset()).
		Find(&payments).Error
	return payments, total, err
}

func (r *PaymentRepository) GetByStudent(studentID int64, status string) ([]*payment.PaymentDetail, error) {
	q := r.detailQuery().Where("payments.student_id = ?", studentID)
	if status != "" {
		q = q.Where("payments.status = ?", status)
	}
	var payments []*payment.PaymentDetail
	err := q.Order("payments.payment_date DESC").Find(&payments).Error
	return payments, err
}

// Confirm flips a pending payment to confirmed and its bill to paid inside
// one transaction. The payment update is conditional on status so a payment
// already confirmed or rejected is never touched; when zero rows match the
// transaction rolls back with the reason.
func (r *PaymentRepository) Confirm(paymentID, confirmedBy int64, at time.Time) (*payment.Payment, error) {
	var confirmed payment.Payment

	err := r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&payment.Payment{}).
			Where("id = ? AND status = ?", paymentID, payment.StatusPending).
			Updates(map[string]interface{}{
				"status":       payment.StatusConfirmed,
				"confirmed_by": confirmedBy,
				"confirmed_at": at,
				"updated_at":   at,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			// Distinguish a missing payment from one in the wrong state.
			var count int64
			if err := tx.Model(&payment.Payment{}).Where("id = ?", paymentID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return apperrors.ErrPaymentNotFound
			}
			return apperrors.ErrPaymentNotPending
		}

		if err := tx.Where("id = ?", paymentID).First(&confirmed).Error; err != nil {
			return err
		}

		billUpdate := tx.Model(&billing.Bill{}).
			Where("id = ?", confirmed.BillID).
			Updates(map[string]interface{}{
				"status":     billing.StatusPaid,
				"updated_at": at,
			})
		if billUpdate.Error != nil {
			return billUpdate.Error
		}
		if billUpdate.RowsAffected == 0 {
			// Bill row is gone; roll back so the payment stays pending.
			return apperrors.ErrBillNotFound
		}
		return nil
	})
	if err != nil {
		if _, ok := apperrors.IsAppError(err); ok {
			return nil, err
		}
		return nil, apperrors.NewStorageError("failed to confirm payment", err)
	}

	return &confirmed, nil
}

// Reject flips a pending payment to rejected. The bill is left alone, and so
// is confirmed_by: that column records a confirmation only. The rejecting
// actor lands in the activity log via the rejected event.
func (r *PaymentRepository) Reject(paymentID, rejectedBy int64, reason string, at time.Time) (*payment.Payment, error) {
	var rejected payment.Payment

	err := r.db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"status":     payment.StatusRejected,
			"updated_at": at,
		}
		if reason != "" {
			updates["notes"] = reason
		}

		result := tx.Model(&payment.Payment{}).
			Where("id = ? AND status = ?", paymentID, payment.StatusPending).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&payment.Payment{}).Where("id = ?", paymentID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return apperrors.ErrPaymentNotFound
			}
			return apperrors.ErrPaymentNotPending
		}

		return tx.Where("id = ?", paymentID).First(&rejected).Error
	})
	if err != nil {
		if _, ok := apperrors.IsAppError(err); ok {
			return nil, err
		}
		return nil, apperrors.NewStorageError("failed to reject payment", err)
	}

	return &rejected, nil
}

func (r *PaymentRepository) Delete(id int64) error {
	return r.db.Delete(&payment.Payment{}, id).Error
}

func (r *PaymentRepository) NumberExists(paymentNumber string) (bool, error) {
	var count int64
	err := r.db.Model(&payment.Payment{}).Where("payment_number = ?", paymentNumber).Count(&count).Error
	return count > 0, err
}

// StatsByStatus counts and sums payments per lifecycle state, all states
// included.
func (r *PaymentRepository) StatsByStatus() ([]payment.StatusStat, error) {
	var stats []payment.StatusStat
	err := r.db.Raw(`
		SELECT status, COUNT(*) AS count, COALESCE(SUM(amount), 0) AS total
		FROM payments
		GROUP BY status
		ORDER BY status`).Scan(&stats).Error
	return stats, err
}

// StatsByMonth sums confirmed payments per calendar month, newest month
// first, capped at limit rows.
func (r *PaymentRepository) StatsByMonth(limit int) ([]payment.MonthStat, error) {
	// sqlite has no to_char; tests run against it.
	monthExpr := "to_char(payment_date, 'YYYY-MM')"
	if r.db.Dialector.Name() == "sqlite" {
		monthExpr = "strftime('%Y-%m', payment_date)"
	}

	var stats []payment.MonthStat
	err := r.db.Raw(`
		SELECT `+monthExpr+` AS month, COUNT(*) AS count, COALESCE(SUM(amount), 0) AS total
		FROM payments
		WHERE status = ?
		GROUP BY month
		ORDER BY month DESC
		LIMIT ?`, payment.StatusConfirmed, limit).Scan(&stats).Error
	return stats, err
}

// StatsByProgram sums confirmed payments grouped by the program on the
// underlying bill.
func (r *PaymentRepository) StatsByProgram() ([]payment.ProgramStat, error) {
	var stats []payment.ProgramStat
	err := r.db.Raw(`
		SELECT programs.name AS program_name, COUNT(*) AS count, COALESCE(SUM(payments.amount), 0) AS total
		FROM payments
		JOIN bills ON bills.id = payments.bill_id
		JOIN programs ON programs.id = bills.program_id
		WHERE payments.status = ?
		GROUP BY programs.name
		ORDER BY total DESC`, payment.StatusConfirmed).Scan(&stats).Error
	return stats, err
}
