package program_test

import (
	"log/slog"
	"os"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	apperrors "github.com/espp/tuition-management/internal"
	"github.com/espp/tuition-management/internal/program"
)

func TestProgramService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Program Service Suite")
}

type mockProgramRepository struct {
	programs      map[int64]*program.Program
	studentCounts map[int64]int64
	billCounts    map[int64]int64
	nextID        int64
}

func newMockProgramRepository() *mockProgramRepository {
	return &mockProgramRepository{
		programs:      make(map[int64]*program.Program),
		studentCounts: make(map[int64]int64),
		billCounts:    make(map[int64]int64),
		nextID:        1,
	}
}

func (m *mockProgramRepository) GetAll() ([]*program.Program, error) {
	var out []*program.Program
	for _, p := range m.programs {
		out = append(out, p)
	}
	return out, nil
}

func (m *mockProgramRepository) GetByID(id int64) (*program.Program, error) {
	p, ok := m.programs[id]
	if !ok {
		return nil, apperrors.ErrProgramNotFound
	}
	return p, nil
}

func (m *mockProgramRepository) Create(p *program.Program) error {
	p.ID = m.nextID
	m.nextID++
	m.programs[p.ID] = p
	return nil
}

func (m *mockProgramRepository) Update(p *program.Program) error {
	m.programs[p.ID] = p
	return nil
}

func (m *mockProgramRepository) Delete(id int64) error {
	delete(m.programs, id)
	return nil
}

func (m *mockProgramRepository) CodeExists(code string, excludeID int64) (bool, error) {
	for _, p := range m.programs {
		if p.Code == code && p.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockProgramRepository) CountStudents(programID int64) (int64, error) {
	return m.studentCounts[programID], nil
}

func (m *mockProgramRepository) CountBills(programID int64) (int64, error) {
	return m.billCounts[programID], nil
}

var _ = Describe("ProgramService", func() {
	var (
		mockRepo *mockProgramRepository
		service  *program.Service
	)

	BeforeEach(func() {
		mockRepo = newMockProgramRepository()
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = program.NewService(mockRepo, logger)
	})

	Describe("CreateProgram", func() {
		It("creates a program", func() {
			p, err := service.CreateProgram(program.ProgramDTO{Code: "TI", Name: "Teknik Informatika", Faculty: "Teknik"})

			Expect(err).NotTo(HaveOccurred())
			Expect(p.ID).To(Equal(int64(1)))
			Expect(p.Code).To(Equal("TI"))
		})

		It("rejects a duplicate code", func() {
			_, err := service.CreateProgram(program.ProgramDTO{Code: "TI", Name: "Teknik Informatika"})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.CreateProgram(program.ProgramDTO{Code: "TI", Name: "Other"})

			appErr, ok := apperrors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(apperrors.ErrorTypeConflict))
		})

		It("rejects a blank name", func() {
			_, err := service.CreateProgram(program.ProgramDTO{Code: "TI", Name: "  "})

			Expect(err).To(HaveOccurred())
		})

		It("rejects a negative tuition fee", func() {
			_, err := service.CreateProgram(program.ProgramDTO{
				Code:       "TI",
				Name:       "Teknik Informatika",
				TuitionFee: decimal.NewFromInt(-1),
			})

			Expect(err).To(HaveOccurred())
		})

		It("defaults new programs to active", func() {
			p, err := service.CreateProgram(program.ProgramDTO{Code: "TI", Name: "Teknik Informatika"})

			Expect(err).NotTo(HaveOccurred())
			Expect(p.IsActive).To(BeTrue())
		})
	})

	Describe("DeleteProgram", func() {
		var programID int64

		BeforeEach(func() {
			p, err := service.CreateProgram(program.ProgramDTO{Code: "TI", Name: "Teknik Informatika"})
			Expect(err).NotTo(HaveOccurred())
			programID = p.ID
		})

		It("deletes an unused program", func() {
			Expect(service.DeleteProgram(programID)).To(Succeed())
		})

		It("blocks deletion while students belong to it", func() {
			mockRepo.studentCounts[programID] = 3

			Expect(service.DeleteProgram(programID)).To(Equal(apperrors.ErrProgramInUse))
		})

		It("blocks deletion while bills reference it", func() {
			mockRepo.billCounts[programID] = 1

			Expect(service.DeleteProgram(programID)).To(Equal(apperrors.ErrProgramInUse))
		})

		It("returns not found for a missing program", func() {
			Expect(service.DeleteProgram(999)).To(Equal(apperrors.ErrProgramNotFound))
		})
	})

	Describe("Exists", func() {
		It("reports false for an unknown id without error", func() {
			ok, err := service.Exists(42)

			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeFalse())
		})
	})

	Describe("UpdateProgram", func() {
		It("allows keeping the same code", func() {
			p, err := service.CreateProgram(program.ProgramDTO{Code: "TI", Name: "Teknik Informatika"})
			Expect(err).NotTo(HaveOccurred())

			updated, err := service.UpdateProgram(p.ID, program.ProgramDTO{Code: "TI", Name: "Informatika"})

			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Name).To(Equal("Informatika"))
		})
	})
})
