package postgres

import (
	"fmt"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/espp/tuition-management/internal/billing"
	"github.com/espp/tuition-management/internal/payment"
)

func TestReportingRepository(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "ReportingRepository Suite")
}

type SQLiteUser struct {
	ID        int64   `gorm:"primaryKey"`
	Username  string  `gorm:"not null"`
	FullName  string  `gorm:"column:full_name"`
	NIM       *string `gorm:"column:nim"`
	ProgramID *int64  `gorm:"column:program_id"`
	Role      string  `gorm:"column:role"`
	IsActive  bool    `gorm:"column:is_active"`
}

func (SQLiteUser) TableName() string {
	return "users"
}

type SQLiteProgram struct {
	ID       int64  `gorm:"primaryKey"`
	Name     string `gorm:"not null"`
	IsActive bool   `gorm:"column:is_active"`
}

func (SQLiteProgram) TableName() string {
	return "programs"
}

var _ = Describe("ReportingRepository", func() {
	var (
		db   *gorm.DB
		repo *ReportingRepository
	)

	dueDate := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)

	seedBill := func(id, studentID int64, status string, amount int64) {
		Expect(db.Create(&billing.Bill{
			ID:         id,
			BillNumber: fmt.Sprintf("BILL-20260901120000%04d", id),
			StudentID:  studentID,
			ProgramID:  1,
			Amount:     decimal.NewFromInt(amount),
			DueDate:    dueDate,
			Status:     status,
			CreatedBy:  2,
		}).Error).To(Succeed())
	}

	seedPayment := func(id, billID, studentID int64, status string, amount int64) {
		Expect(db.Create(&payment.Payment{
			ID:            id,
			PaymentNumber: fmt.Sprintf("PAY-20260901120000%04d", id),
			BillID:        billID,
			StudentID:     studentID,
			Amount:        decimal.NewFromInt(amount),
			PaymentMethod: payment.MethodTransfer,
			PaymentDate:   dueDate,
			Status:        status,
		}).Error).To(Succeed())
	}

	BeforeEach(func() {
		var err error

		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
		Expect(err).NotTo(HaveOccurred())

		err = db.AutoMigrate(&SQLiteUser{}, &SQLiteProgram{}, &billing.Bill{}, &payment.Payment{})
		Expect(err).NotTo(HaveOccurred())

		nim := "2026010001"
		programID := int64(1)
		Expect(db.Create(&SQLiteUser{ID: 1, Username: "budi", FullName: "Budi Santoso", NIM: &nim, ProgramID: &programID, Role: "mahasiswa", IsActive: true}).Error).To(Succeed())
		Expect(db.Create(&SQLiteUser{ID: 2, Username: "staff1", FullName: "Staff One", Role: "staff", IsActive: true}).Error).To(Succeed())
		Expect(db.Create(&SQLiteProgram{ID: 1, Name: "Teknik Informatika", IsActive: true}).Error).To(Succeed())

		repo = &ReportingRepository{db: db}
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		Expect(sqlDB.Close()).To(Succeed())
	})

	It("counts only students, not staff", func() {
		count, err := repo.CountStudents()

		Expect(err).NotTo(HaveOccurred())
		Expect(count).To(Equal(int64(1)))
	})

	It("excludes deactivated students from the count", func() {
		Expect(db.Create(&SQLiteUser{ID: 3, Username: "alumni", FullName: "Alumni", Role: "mahasiswa", IsActive: false}).Error).To(Succeed())

		count, err := repo.CountStudents()

		Expect(err).NotTo(HaveOccurred())
		Expect(count).To(Equal(int64(1)))
	})

	It("sums billed amounts excluding cancelled bills", func() {
		seedBill(1, 1, billing.StatusPending, 2500000)
		seedBill(2, 1, billing.StatusCancelled, 9000000)

		total, err := repo.SumBilled()

		Expect(err).NotTo(HaveOccurred())
		Expect(total.Equal(decimal.NewFromInt(2500000))).To(BeTrue())
	})

	It("sums only confirmed payments as collected", func() {
		seedBill(1, 1, billing.StatusPaid, 2500000)
		seedPayment(1, 1, 1, payment.StatusConfirmed, 2500000)
		seedPayment(2, 1, 1, payment.StatusPending, 1000000)

		total, err := repo.SumCollected()

		Expect(err).NotTo(HaveOccurred())
		Expect(total.Equal(decimal.NewFromInt(2500000))).To(BeTrue())
	})

	Describe("StudentReport", func() {
		It("returns zeroes for a student with no bills", func() {
			report, err := repo.StudentReport(1)

			Expect(err).NotTo(HaveOccurred())
			Expect(report.TotalBills).To(BeZero())
			Expect(report.TotalBilled.IsZero()).To(BeTrue())
			Expect(report.Outstanding.IsZero()).To(BeTrue())
		})

		It("computes outstanding as billed minus confirmed payments", func() {
			seedBill(1, 1, billing.StatusPaid, 2500000)
			seedBill(2, 1, billing.StatusPending, 2500000)
			seedBill(3, 1, billing.StatusOverdue, 2500000)
			seedPayment(1, 1, 1, payment.StatusConfirmed, 2500000)

			report, err := repo.StudentReport(1)

			Expect(err).NotTo(HaveOccurred())
			Expect(report.TotalBills).To(Equal(int64(3)))
			Expect(report.PaidBills).To(Equal(int64(1)))
			Expect(report.UnpaidBills).To(Equal(int64(2)))
			Expect(report.TotalBilled.Equal(decimal.NewFromInt(7500000))).To(BeTrue())
			Expect(report.TotalPaid.Equal(decimal.NewFromInt(2500000))).To(BeTrue())
			Expect(report.Outstanding.Equal(decimal.NewFromInt(5000000))).To(BeTrue())
		})

		It("floors outstanding at zero on overpayment", func() {
			seedBill(1, 1, billing.StatusPaid, 2500000)
			seedPayment(1, 1, 1, payment.StatusConfirmed, 3000000)

			report, err := repo.StudentReport(1)

			Expect(err).NotTo(HaveOccurred())
			Expect(report.Outstanding.IsZero()).To(BeTrue())
		})
	})

	Describe("StudentStandings", func() {
		It("includes students with no bills", func() {
			rows, err := repo.StudentStandings()

			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(HaveLen(1))
			Expect(rows[0].StudentName).To(Equal("Budi Santoso"))
			Expect(rows[0].ProgramName).To(Equal("Teknik Informatika"))
			Expect(rows[0].TotalBills).To(BeZero())
		})

		It("aggregates bill counts per student", func() {
			seedBill(1, 1, billing.StatusPaid, 2500000)
			seedBill(2, 1, billing.StatusOverdue, 2500000)
			seedBill(3, 1, billing.StatusCancelled, 2500000)

			rows, err := repo.StudentStandings()

			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(HaveLen(1))
			Expect(rows[0].TotalBills).To(Equal(int64(3)))
			Expect(rows[0].PaidBills).To(Equal(int64(1)))
			Expect(rows[0].UnpaidBills).To(Equal(int64(1)))
			Expect(rows[0].TotalBilled.Equal(decimal.NewFromInt(5000000))).To(BeTrue())
		})
	})

	It("groups bill counts by status", func() {
		seedBill(1, 1, billing.StatusPending, 2500000)
		seedBill(2, 1, billing.StatusPending, 2500000)
		seedBill(3, 1, billing.StatusPaid, 2500000)

		byStatus, err := repo.CountBillsByStatus()

		Expect(err).NotTo(HaveOccurred())
		Expect(byStatus[billing.StatusPending]).To(Equal(int64(2)))
		Expect(byStatus[billing.StatusPaid]).To(Equal(int64(1)))
	})
})
