package reporting

import "github.com/shopspring/decimal"

// DashboardStats is the admin dashboard summary. Every field defaults to
// zero on an empty database.
type DashboardStats struct {
	TotalStudents     int64           `json:"total_students"`
	TotalPrograms     int64           `json:"total_programs"`
	TotalBills        int64           `json:"total_bills"`
	PendingBills      int64           `json:"pending_bills"`
	PaidBills         int64           `json:"paid_bills"`
	OverdueBills      int64           `json:"overdue_bills"`
	PendingPayments   int64           `json:"pending_payments"`
	ConfirmedPayments int64           `json:"confirmed_payments"`
	TotalBilled       decimal.Decimal `json:"total_billed"`
	TotalCollected    decimal.Decimal `json:"total_collected"`
}

// StudentReport summarizes one student's standing: how much was billed,
// how much of it is settled, and what remains outstanding.
type StudentReport struct {
	StudentID   int64           `json:"student_id"`
	TotalBills  int64           `json:"total_bills"`
	PaidBills   int64           `json:"paid_bills"`
	UnpaidBills int64           `json:"unpaid_bills"`
	TotalBilled decimal.Decimal `json:"total_billed"`
	TotalPaid   decimal.Decimal `json:"total_paid"`
	Outstanding decimal.Decimal `json:"outstanding"`
}

// StudentStanding is one row of the staff-facing per-student billing report.
type StudentStanding struct {
	StudentID   int64           `json:"student_id"`
	StudentName string          `json:"student_name"`
	NIM         string          `json:"nim"`
	ProgramName string          `json:"program_name"`
	TotalBills  int64           `json:"total_bills"`
	PaidBills   int64           `json:"paid_bills"`
	UnpaidBills int64           `json:"unpaid_bills"`
	TotalBilled decimal.Decimal `json:"total_billed"`
}
