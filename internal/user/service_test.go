package user_test

import (
	"log/slog"
	"os"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	apperrors "github.com/espp/tuition-management/internal"
	"github.com/espp/tuition-management/internal/user"
)

func TestUserService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "User Service Suite")
}

type mockUserRepository struct {
	users  map[int64]*user.User
	nextID int64
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{users: make(map[int64]*user.User), nextID: 1}
}

func (m *mockUserRepository) Create(u *user.User) error {
	u.ID = m.nextID
	m.nextID++
	m.users[u.ID] = u
	return nil
}

func (m *mockUserRepository) GetByID(id int64) (*user.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	return u, nil
}

func (m *mockUserRepository) GetByUsername(username string) (*user.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

func (m *mockUserRepository) GetAll(limit, offset int, role string) ([]*user.User, error) {
	var out []*user.User
	for _, u := range m.users {
		if role == "" || u.Role == role {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *mockUserRepository) Update(u *user.User) error {
	m.users[u.ID] = u
	return nil
}

func (m *mockUserRepository) Delete(id int64) error {
	delete(m.users, id)
	return nil
}

func (m *mockUserRepository) UsernameExists(username string, excludeID int64) (bool, error) {
	for _, u := range m.users {
		if u.Username == username && u.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockUserRepository) EmailExists(email string, excludeID int64) (bool, error) {
	for _, u := range m.users {
		if u.Email == email && u.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockUserRepository) NIMExists(nim string, excludeID int64) (bool, error) {
	for _, u := range m.users {
		if u.NIM != nil && *u.NIM == nim && u.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

type plainHasher struct{}

func (plainHasher) HashPassword(password string) (string, error) {
	return "hashed:" + password, nil
}

var _ = Describe("UserService", func() {
	var (
		mockRepo *mockUserRepository
		service  *user.Service
	)

	nim := "2026010001"
	programID := int64(1)

	BeforeEach(func() {
		mockRepo = newMockUserRepository()
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = user.NewService(mockRepo, plainHasher{}, logger)
	})

	studentDTO := func() user.CreateUserDTO {
		return user.CreateUserDTO{
			Username:  "budi",
			Email:     "budi@student.espp.ac.id",
			Password:  "rahasia123",
			Role:      user.RoleStudent,
			FullName:  "Budi Santoso",
			NIM:       &nim,
			ProgramID: &programID,
		}
	}

	Describe("CreateUser", func() {
		It("creates an active user with a hashed password", func() {
			u, err := service.CreateUser(studentDTO())

			Expect(err).NotTo(HaveOccurred())
			Expect(u.IsActive).To(BeTrue())
			Expect(u.PasswordHash).To(Equal("hashed:rahasia123"))
			Expect(u.PasswordHash).NotTo(Equal("rahasia123"))
		})

		It("requires NIM and program for students", func() {
			dto := studentDTO()
			dto.NIM = nil

			_, err := service.CreateUser(dto)

			Expect(err).To(HaveOccurred())
		})

		It("creates staff without NIM", func() {
			dto := user.CreateUserDTO{
				Username: "staff1",
				Email:    "staff1@espp.ac.id",
				Password: "rahasia123",
				Role:     user.RoleStaff,
				FullName: "Staff One",
			}

			u, err := service.CreateUser(dto)

			Expect(err).NotTo(HaveOccurred())
			Expect(u.NIM).To(BeNil())
		})

		It("rejects a duplicate username", func() {
			_, err := service.CreateUser(studentDTO())
			Expect(err).NotTo(HaveOccurred())

			dup := studentDTO()
			dup.Email = "other@student.espp.ac.id"
			nim2 := "2026010002"
			dup.NIM = &nim2

			_, err = service.CreateUser(dup)

			appErr, ok := apperrors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(apperrors.ErrorTypeConflict))
		})

		It("rejects a duplicate NIM", func() {
			_, err := service.CreateUser(studentDTO())
			Expect(err).NotTo(HaveOccurred())

			dup := studentDTO()
			dup.Username = "budi2"
			dup.Email = "budi2@student.espp.ac.id"

			_, err = service.CreateUser(dup)

			appErr, ok := apperrors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(apperrors.ErrorTypeConflict))
		})

		It("rejects an invalid role", func() {
			dto := studentDTO()
			dto.Role = "dosen"

			_, err := service.CreateUser(dto)

			Expect(err).To(HaveOccurred())
		})

		It("rejects a short password", func() {
			dto := studentDTO()
			dto.Password = "short"

			_, err := service.CreateUser(dto)

			Expect(err).To(HaveOccurred())
		})
	})

	Describe("UpdateUser", func() {
		It("can deactivate an account", func() {
			u, err := service.CreateUser(studentDTO())
			Expect(err).NotTo(HaveOccurred())

			updated, err := service.UpdateUser(u.ID, user.UpdateUserDTO{
				Email:     u.Email,
				FullName:  u.FullName,
				NIM:       u.NIM,
				ProgramID: u.ProgramID,
				IsActive:  false,
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(updated.IsActive).To(BeFalse())
		})
	})

	Describe("GetUsers", func() {
		It("filters by role", func() {
			_, err := service.CreateUser(studentDTO())
			Expect(err).NotTo(HaveOccurred())
			_, err = service.CreateUser(user.CreateUserDTO{
				Username: "staff1",
				Email:    "staff1@espp.ac.id",
				Password: "rahasia123",
				Role:     user.RoleStaff,
				FullName: "Staff One",
			})
			Expect(err).NotTo(HaveOccurred())

			students, err := service.GetUsers(50, 0, user.RoleStudent)

			Expect(err).NotTo(HaveOccurred())
			Expect(students).To(HaveLen(1))
			Expect(students[0].Role).To(Equal(user.RoleStudent))
		})
	})
})
