package postgres

import (
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	apperrors "github.com/espp/tuition-management/internal"
	"github.com/espp/tuition-management/internal/billing"
)

func TestBillRepository(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "BillRepository Suite")
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

type SQLitePayment struct {
	ID     int64  `gorm:"primaryKey"`
	BillID int64  `gorm:"column:bill_id;not null"`
	Status string `gorm:"column:status"`
}

func (SQLitePayment) TableName() string {
	return "payments"
}

var _ = Describe("BillRepository", func() {
	var (
		db   *gorm.DB
		repo billing.Repository
	)

	nim := "2026010001"

	seedBill := func(studentID int64, status string, dueDate time.Time) *billing.Bill {
		bill := &billing.Bill{
			BillNumber:  "BILL-20260901120000" + dueDate.Format("0102"),
			StudentID:   studentID,
			ProgramID:   1,
			Amount:      decimal.NewFromInt(2500000),
			Description: "SPP",
			DueDate:     dueDate,
			Status:      status,
			CreatedBy:   2,
			CreatedAt:   time.Now(),
			UpdatedAt:   time.Now(),
		}
		Expect(repo.Create(bill)).To(Succeed())
		return bill
	}

	BeforeEach(func() {
		var err error

		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
		Expect(err).NotTo(HaveOccurred())

		err = db.AutoMigrate(&SQLiteUser{}, &SQLiteProgram{}, &SQLitePayment{}, &billing.Bill{})
		Expect(err).NotTo(HaveOccurred())

		Expect(db.Create(&SQLiteUser{ID: 1, Username: "budi", FullName: "Budi Santoso", NIM: &nim, Role: "mahasiswa"}).Error).To(Succeed())
		Expect(db.Create(&SQLiteUser{ID: 2, Username: "staff1", FullName: "Staff One", Role: "staff"}).Error).To(Succeed())
		Expect(db.Create(&SQLiteProgram{ID: 1, Name: "Teknik Informatika"}).Error).To(Succeed())

		repo = NewBillRepository(db)
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		Expect(sqlDB.Close()).To(Succeed())
	})

	Describe("GetDetailByID", func() {
		It("resolves student and program names", func() {
			bill := seedBill(1, billing.StatusPending, time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC))

			detail, err := repo.GetDetailByID(bill.ID)

			Expect(err).NotTo(HaveOccurred())
			Expect(detail.StudentName).To(Equal("Budi Santoso"))
			Expect(detail.NIM).To(Equal(nim))
			Expect(detail.ProgramName).To(Equal("Teknik Informatika"))
		})

		It("returns not found for a missing id", func() {
			_, err := repo.GetDetailByID(999)

			Expect(err).To(Equal(apperrors.ErrBillNotFound))
		})
	})

	Describe("List", func() {
		BeforeEach(func() {
			seedBill(1, billing.StatusPending, time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC))
			seedBill(1, billing.StatusPaid, time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC))
		})

		It("filters by status", func() {
			bills, total, err := repo.List(billing.ListParams{Page: 1, PageSize: 10, Status: billing.StatusPaid})

			Expect(err).NotTo(HaveOccurred())
			Expect(total).To(Equal(int64(1)))
			Expect(bills).To(HaveLen(1))
			Expect(bills[0].Status).To(Equal(billing.StatusPaid))
		})

		It("searches by student name", func() {
			bills, total, err := repo.List(billing.ListParams{Page: 1, PageSize: 10, Search: "Budi"})

			Expect(err).NotTo(HaveOccurred())
			Expect(total).To(Equal(int64(2)))
			Expect(bills).To(HaveLen(2))
		})

		It("matches a name regardless of case", func() {
			bills, total, err := repo.List(billing.ListParams{Page: 1, PageSize: 10, Search: "bUdI"})

			Expect(err).NotTo(HaveOccurred())
			Expect(total).To(Equal(int64(2)))
			Expect(bills).To(HaveLen(2))
		})

		It("matches a bill number in lowercase", func() {
			bills, _, err := repo.List(billing.ListParams{Page: 1, PageSize: 10, Search: "bill-"})

			Expect(err).NotTo(HaveOccurred())
			Expect(bills).NotTo(BeEmpty())
		})

		It("searches by bill number", func() {
			bills, _, err := repo.List(billing.ListParams{Page: 1, PageSize: 10, Search: "0910"})

			Expect(err).NotTo(HaveOccurred())
			Expect(bills).To(HaveLen(1))
		})

		It("paginates with a stable total", func() {
			bills, total, err := repo.List(billing.ListParams{Page: 2, PageSize: 1})

			Expect(err).NotTo(HaveOccurred())
			Expect(total).To(Equal(int64(2)))
			Expect(bills).To(HaveLen(1))
		})
	})

	Describe("SweepOverdue", func() {
		today := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)

		It("flips only pending bills past their due date", func() {
			pastDue := seedBill(1, billing.StatusPending, time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC))
			paid := seedBill(1, billing.StatusPaid, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC))
			future := seedBill(1, billing.StatusPending, time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC))

			count, err := repo.SweepOverdue(today)

			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(int64(1)))

			reloaded, err := repo.GetByID(pastDue.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(reloaded.Status).To(Equal(billing.StatusOverdue))

			reloaded, err = repo.GetByID(paid.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(reloaded.Status).To(Equal(billing.StatusPaid))

			reloaded, err = repo.GetByID(future.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(reloaded.Status).To(Equal(billing.StatusPending))
		})

		It("changes nothing on a second run", func() {
			seedBill(1, billing.StatusPending, time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC))

			first, err := repo.SweepOverdue(today)
			Expect(err).NotTo(HaveOccurred())
			Expect(first).To(Equal(int64(1)))

			second, err := repo.SweepOverdue(today)
			Expect(err).NotTo(HaveOccurred())
			Expect(second).To(BeZero())
		})
	})

	Describe("GetByStudent", func() {
		It("orders by due date ascending", func() {
			seedBill(1, billing.StatusPending, time.Date(2026, 10, 10, 0, 0, 0, 0, time.UTC))
			seedBill(1, billing.StatusPending, time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC))

			bills, err := repo.GetByStudent(1, "")

			Expect(err).NotTo(HaveOccurred())
			Expect(bills).To(HaveLen(2))
			Expect(bills[0].DueDate.Before(bills[1].DueDate)).To(BeTrue())
		})
	})

	Describe("payment counts", func() {
		It("counts all and confirmed payments separately", func() {
			bill := seedBill(1, billing.StatusPending, time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC))

			Expect(db.Create(&SQLitePayment{BillID: bill.ID, Status: "pending"}).Error).To(Succeed())
			Expect(db.Create(&SQLitePayment{BillID: bill.ID, Status: "confirmed"}).Error).To(Succeed())

			total, err := repo.CountPayments(bill.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(total).To(Equal(int64(2)))

			confirmed, err := repo.CountConfirmedPayments(bill.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(confirmed).To(Equal(int64(1)))
		})
	})
})
