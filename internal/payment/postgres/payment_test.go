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

	apperrors "github.com/espp/tuition-management/internal"
	"github.com/espp/tuition-management/internal/billing"
	"github.com/espp/tuition-management/internal/payment"
)

func TestPaymentRepository(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "PaymentRepository Suite")
}

type SQLiteUser struct {
	ID       int64   `gorm:"primaryKey"`
	Username string  `gorm:"not null"`
	FullName string  `gorm:"column:full_name"`
	NIM      *string `gorm:"column:nim"`
	Role     string  `gorm:"column:role"`
}

func (SQLiteUser) TableName() string {
	return "users"
}

type SQLiteProgram struct {
	ID   int64  `gorm:"primaryKey"`
	Name string `gorm:"not null"`
}

func (SQLiteProgram) TableName() string {
	return "programs"
}

var _ = Describe("PaymentRepository", func() {
	var (
		db   *gorm.DB
		repo payment.Repository
	)

	nim := "2026010001"
	now := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

	seedBill := func(id int64, status string) {
		Expect(db.Create(&billing.Bill{
			ID:         id,
			BillNumber: fmt.Sprintf("BILL-20260901120000%04d", id),
			StudentID:  1,
			ProgramID:  1,
			Amount:     decimal.NewFromInt(2500000),
			DueDate:    time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC),
			Status:     status,
			CreatedBy:  2,
		}).Error).To(Succeed())
	}

	seedPayment := func(billID int64, status string, date time.Time) *payment.Payment {
		p := &payment.Payment{
			PaymentNumber: "PAY-" + date.Format("20060102150405") + status,
			BillID:        billID,
			StudentID:     1,
			Amount:        decimal.NewFromInt(2500000),
			PaymentMethod: payment.MethodTransfer,
			PaymentDate:   date,
			Status:        status,
		}
		Expect(repo.Create(p)).To(Succeed())
		return p
	}

	BeforeEach(func() {
		var err error

		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
		Expect(err).NotTo(HaveOccurred())

		err = db.AutoMigrate(&SQLiteUser{}, &SQLiteProgram{}, &billing.Bill{}, &payment.Payment{})
		Expect(err).NotTo(HaveOccurred())

		Expect(db.Create(&SQLiteUser{ID: 1, Username: "budi", FullName: "Budi Santoso", NIM: &nim, Role: "mahasiswa"}).Error).To(Succeed())
		Expect(db.Create(&SQLiteProgram{ID: 1, Name: "Teknik Informatika"}).Error).To(Succeed())
		seedBill(1, billing.StatusPending)

		repo = NewPaymentRepository(db)
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		Expect(sqlDB.Close()).To(Succeed())
	})

	Describe("Confirm", func() {
		It("confirms the payment and marks its bill paid together", func() {
			p := seedPayment(1, payment.StatusPending, now)

			confirmed, err := repo.Confirm(p.ID, 2, now)

			Expect(err).NotTo(HaveOccurred())
			Expect(confirmed.Status).To(Equal(payment.StatusConfirmed))
			Expect(confirmed.ConfirmedBy).NotTo(BeNil())
			Expect(*confirmed.ConfirmedBy).To(Equal(int64(2)))

			var bill billing.Bill
			Expect(db.First(&bill, 1).Error).To(Succeed())
			Expect(bill.Status).To(Equal(billing.StatusPaid))
		})

		It("refuses a second confirmation of the same payment", func() {
			p := seedPayment(1, payment.StatusPending, now)

			_, err := repo.Confirm(p.ID, 2, now)
			Expect(err).NotTo(HaveOccurred())

			_, err = repo.Confirm(p.ID, 3, now)
			Expect(err).To(Equal(apperrors.ErrPaymentNotPending))

			// The first confirmer stays on record.
			reloaded, err := repo.GetByID(p.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(*reloaded.ConfirmedBy).To(Equal(int64(2)))
		})

		It("refuses to confirm a rejected payment", func() {
			p := seedPayment(1, payment.StatusRejected, now)

			_, err := repo.Confirm(p.ID, 2, now)

			Expect(err).To(Equal(apperrors.ErrPaymentNotPending))

			var bill billing.Bill
			Expect(db.First(&bill, 1).Error).To(Succeed())
			Expect(bill.Status).To(Equal(billing.StatusPending))
		})

		It("returns not found for a missing payment", func() {
			_, err := repo.Confirm(999, 2, now)

			Expect(err).To(Equal(apperrors.ErrPaymentNotFound))
		})

		It("rolls back the confirmation when the bill write cannot land", func() {
			p := seedPayment(1, payment.StatusPending, now)
			Expect(db.Delete(&billing.Bill{}, 1).Error).To(Succeed())

			_, err := repo.Confirm(p.ID, 2, now)

			Expect(err).To(HaveOccurred())

			// The transaction rolled back; the payment is still pending.
			reloaded, err := repo.GetByID(p.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(reloaded.Status).To(Equal(payment.StatusPending))
		})
	})

	Describe("Reject", func() {
		It("rejects the payment and leaves the bill status alone", func() {
			p := seedPayment(1, payment.StatusPending, now)

			rejected, err := repo.Reject(p.ID, 2, "no matching transfer", now)

			Expect(err).NotTo(HaveOccurred())
			Expect(rejected.Status).To(Equal(payment.StatusRejected))
			Expect(rejected.Notes).To(Equal("no matching transfer"))
			Expect(rejected.ConfirmedBy).To(BeNil())
			Expect(rejected.ConfirmedAt).To(BeNil())

			var bill billing.Bill
			Expect(db.First(&bill, 1).Error).To(Succeed())
			Expect(bill.Status).To(Equal(billing.StatusPending))
		})

		It("refuses to reject a confirmed payment", func() {
			p := seedPayment(1, payment.StatusPending, now)

			_, err := repo.Confirm(p.ID, 2, now)
			Expect(err).NotTo(HaveOccurred())

			_, err = repo.Reject(p.ID, 2, "too late", now)

			Expect(err).To(Equal(apperrors.ErrPaymentNotPending))
		})
	})

	Describe("GetByStudent", func() {
		It("orders payments by payment date descending", func() {
			seedPayment(1, payment.StatusPending, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC))
			seedPayment(1, payment.StatusPending, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC))

			payments, err := repo.GetByStudent(1, "")

			Expect(err).NotTo(HaveOccurred())
			Expect(payments).To(HaveLen(2))
			Expect(payments[0].PaymentDate.After(payments[1].PaymentDate)).To(BeTrue())
		})

		It("filters by status when one is given", func() {
			seedPayment(1, payment.StatusPending, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC))
			seedPayment(1, payment.StatusRejected, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC))

			payments, err := repo.GetByStudent(1, payment.StatusRejected)

			Expect(err).NotTo(HaveOccurred())
			Expect(payments).To(HaveLen(1))
			Expect(payments[0].Status).To(Equal(payment.StatusRejected))
		})
	})

	Describe("List", func() {
		It("matches the student name regardless of case", func() {
			seedPayment(1, payment.StatusPending, now)

			payments, total, err := repo.List(payment.ListParams{Page: 1, PageSize: 10, Search: "bUdI"})

			Expect(err).NotTo(HaveOccurred())
			Expect(total).To(Equal(int64(1)))
			Expect(payments).To(HaveLen(1))
			Expect(payments[0].StudentName).To(Equal("Budi Santoso"))
		})

		It("matches a payment number in lowercase", func() {
			seedPayment(1, payment.StatusPending, now)

			_, total, err := repo.List(payment.ListParams{Page: 1, PageSize: 10, Search: "pay-"})

			Expect(err).NotTo(HaveOccurred())
			Expect(total).To(Equal(int64(1)))
		})
	})

	Describe("stats", func() {
		BeforeEach(func() {
			seedBill(2, billing.StatusPending)
			seedPayment(1, payment.StatusConfirmed, time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC))
			seedPayment(1, payment.StatusConfirmed, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC))
			seedPayment(2, payment.StatusPending, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC))
			seedPayment(2, payment.StatusRejected, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC))
		})

		It("counts every status in StatsByStatus", func() {
			stats, err := repo.StatsByStatus()

			Expect(err).NotTo(HaveOccurred())
			Expect(stats).To(HaveLen(3))

			byStatus := make(map[string]payment.StatusStat)
			for _, s := range stats {
				byStatus[s.Status] = s
			}
			Expect(byStatus[payment.StatusConfirmed].Count).To(Equal(int64(2)))
			Expect(byStatus[payment.StatusPending].Count).To(Equal(int64(1)))
			Expect(byStatus[payment.StatusRejected].Count).To(Equal(int64(1)))
			Expect(byStatus[payment.StatusConfirmed].Total.Equal(decimal.NewFromInt(5000000))).To(BeTrue())
		})

		It("buckets only confirmed payments by month, newest first", func() {
			stats, err := repo.StatsByMonth(12)

			Expect(err).NotTo(HaveOccurred())
			Expect(stats).To(HaveLen(2))
			Expect(stats[0].Month).To(Equal("2026-09"))
			Expect(stats[1].Month).To(Equal("2026-08"))
			Expect(stats[0].Count).To(Equal(int64(1)))
		})

		It("caps months at the limit", func() {
			stats, err := repo.StatsByMonth(1)

			Expect(err).NotTo(HaveOccurred())
			Expect(stats).To(HaveLen(1))
			Expect(stats[0].Month).To(Equal("2026-09"))
		})

		It("groups confirmed payments by program", func() {
			stats, err := repo.StatsByProgram()

			Expect(err).NotTo(HaveOccurred())
			Expect(stats).To(HaveLen(1))
			Expect(stats[0].ProgramName).To(Equal("Teknik Informatika"))
			Expect(stats[0].Count).To(Equal(int64(2)))
		})
	})
})
