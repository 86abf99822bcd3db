package postgres

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/espp/tuition-management/internal/reporting"
	"github.com/espp/tuition-management/internal/user"
)

type ReportingRepository struct {
	db *gorm.DB
}

func NewReportingRepository(db *gorm.DB) reporting.Repository {
	return &ReportingRepository{db: db}
}

func (r *ReportingRepository) CountStudents() (int64, error) {
	var count int64
	err := r.db.Table("users").
		Where("role = ? AND is_active = ?", user.RoleStudent, true).
		Count(&count).Error
	return count, err
}

func (r *ReportingRepository) CountPrograms() (int64, error) {
	var count int64
	err := r.db.Table("programs").Where("is_active = ?", true).Count(&count).Error
	return count, err
}

func (r *ReportingRepository) CountBillsByStatus() (map[string]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	err := r.db.Raw(`SELECT status, COUNT(*) AS count FROM bills GROUP BY status`).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Count
	}
	return out, nil
}

func (r *ReportingRepository) CountPendingPayments() (int64, error) {
	return r.countPaymentsByStatus("pending")
}

func (r *ReportingRepository) CountConfirmedPayments() (int64, error) {
	return r.countPaymentsByStatus("confirmed")
}

func (r *ReportingRepository) countPaymentsByStatus(status string) (int64, error) {
	var count int64
	err := r.db.Table("payments").Where("status = ?", status).Count(&count).Error
	return count, err
}

func (r *ReportingRepository) SumBilled() (decimal.Decimal, error) {
	return r.sum(`SELECT COALESCE(SUM(amount), 0) FROM bills WHERE status <> 'cancelled'`)
}

func (r *ReportingRepository) SumCollected() (decimal.Decimal, error) {
	return r.sum(`SELECT COALESCE(SUM(amount), 0) FROM payments WHERE status = 'confirmed'`)
}

func (r *ReportingRepository) sum(query string) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.Raw(query).Scan(&total).Error
	if err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

// StudentReport aggregates one student's bills and confirmed payments.
// Outstanding is billed minus paid over non-cancelled bills, floored at
// zero so overpayments do not show as negative debt.
func (r *ReportingRepository) StudentReport(studentID int64) (*reporting.StudentReport, error) {
	report := &reporting.StudentReport{
		StudentID:   studentID,
		TotalBilled: decimal.Zero,
		TotalPaid:   decimal.Zero,
		Outstanding: decimal.Zero,
	}

	var bills struct {
		Total  int64
		Paid   int64
		Unpaid int64
		Billed decimal.Decimal
	}
	err := r.db.Raw(`
		SELECT COUNT(*) AS total,
		       COALESCE(SUM(CASE WHEN status = 'paid' THEN 1 ELSE 0 END), 0) AS paid,
		       COALESCE(SUM(CASE WHEN status IN ('pending', 'overdue') THEN 1 ELSE 0 END), 0) AS unpaid,
		       COALESCE(SUM(CASE WHEN status <> 'cancelled' THEN amount ELSE 0 END), 0) AS billed
		FROM bills
		WHERE student_id = ?`, studentID).Scan(&bills).Error
	if err != nil {
		return nil, err
	}

	report.TotalBills = bills.Total
	report.PaidBills = bills.Paid
	report.UnpaidBills = bills.Unpaid
	report.TotalBilled = bills.Billed

	paid, err := r.sumWithArg(`SELECT COALESCE(SUM(amount), 0) FROM payments WHERE student_id = ? AND status = 'confirmed'`, studentID)
	if err != nil {
		return nil, err
	}
	report.TotalPaid = paid

	outstanding := report.TotalBilled.Sub(report.TotalPaid)
	if outstanding.IsPositive() {
		report.Outstanding = outstanding
	}

	return report, nil
}

// StudentStandings lists every active student with their bill counts,
// including students with no bills yet.
func (r *ReportingRepository) StudentStandings() ([]*reporting.StudentStanding, error) {
	var rows []*reporting.StudentStanding
	err := r.db.Raw(`
		SELECT u.id AS student_id,
		       u.full_name AS student_name,
		       COALESCE(u.nim, '') AS nim,
		       COALESCE(p.name, '') AS program_name,
		       COUNT(b.id) AS total_bills,
		       COALESCE(SUM(CASE WHEN b.status = 'paid' THEN 1 ELSE 0 END), 0) AS paid_bills,
		       COALESCE(SUM(CASE WHEN b.status IN ('pending', 'overdue') THEN 1 ELSE 0 END), 0) AS unpaid_bills,
		       COALESCE(SUM(CASE WHEN b.status <> 'cancelled' THEN b.amount ELSE 0 END), 0) AS total_billed
		FROM users u
		LEFT JOIN programs p ON p.id = u.program_id
		LEFT JOIN bills b ON b.student_id = u.id
		WHERE u.role = ? AND u.is_active = ?
		GROUP BY u.id, u.full_name, u.nim, p.name
		ORDER BY u.full_name ASC`, user.RoleStudent, true).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *ReportingRepository) sumWithArg(query string, arg interface{}) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.Raw(query, arg).Scan(&total).Error
	if err != nil {
		return decimal.Zero, err
	}
	return total, nil
}
