package auth_test

import (
	"testing"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/espp/tuition-management/internal"
	"github.com/espp/tuition-management/internal/auth"
	"github.com/espp/tuition-management/internal/user"
)

func TestAuthService(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Auth Module Suite")
}

type mockUserRepo struct {
	users map[string]*user.User
}

func (m *mockUserRepo) GetByUsername(username string) (*user.User, error) {
	u, ok := m.users[username]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	return u, nil
}

func (m *mockUserRepo) GetByID(id int64) (*user.User, error) {
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

var _ = ginkgo.Describe("AuthService", func() {
	var (
		repo    *mockUserRepo
		service *auth.Service
	)

	const accessSecret = "test-access-secret-at-least-32-bytes!"
	const refreshSecret = "test-refresh-secret-at-least-32-byte"

	ginkgo.BeforeEach(func() {
		hash, err := bcrypt.GenerateFromPassword([]byte("rahasia123"), bcrypt.MinCost)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())

		repo = &mockUserRepo{users: map[string]*user.User{
			"budi": {ID: 10, Username: "budi", PasswordHash: string(hash), Role: user.RoleStudent, IsActive: true},
			"eks":  {ID: 11, Username: "eks", PasswordHash: string(hash), Role: user.RoleStudent, IsActive: false},
		}}

		tokenGen := auth.NewJWTTokenGenerator(accessSecret, refreshSecret, 15*time.Minute, 7*24*time.Hour)
		service = auth.NewService(repo, tokenGen, bcrypt.MinCost)
	})

	ginkgo.Describe("Authenticate", func() {
		ginkgo.It("returns a token pair for valid credentials", func() {
			tokens, err := service.Authenticate(auth.LoginDTO{Username: "budi", Password: "rahasia123"})

			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(tokens.AccessToken).NotTo(gomega.BeEmpty())
			gomega.Expect(tokens.RefreshToken).NotTo(gomega.BeEmpty())
		})

		ginkgo.It("rejects a wrong password", func() {
			_, err := service.Authenticate(auth.LoginDTO{Username: "budi", Password: "salah"})

			gomega.Expect(err).To(gomega.Equal(apperrors.ErrInvalidCredentials))
		})

		ginkgo.It("rejects an unknown username the same way", func() {
			_, err := service.Authenticate(auth.LoginDTO{Username: "nobody", Password: "rahasia123"})

			gomega.Expect(err).To(gomega.Equal(apperrors.ErrInvalidCredentials))
		})

		ginkgo.It("rejects an inactive account", func() {
			_, err := service.Authenticate(auth.LoginDTO{Username: "eks", Password: "rahasia123"})

			gomega.Expect(err).To(gomega.Equal(apperrors.ErrUserInactive))
		})
	})

	ginkgo.Describe("token validation", func() {
		ginkgo.It("round-trips claims through the access token", func() {
			tokens, err := service.Authenticate(auth.LoginDTO{Username: "budi", Password: "rahasia123"})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())

			claims, err := service.ValidateAccessToken(tokens.AccessToken)

			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(claims.UserID).To(gomega.Equal(int64(10)))
			gomega.Expect(claims.Role).To(gomega.Equal(user.RoleStudent))
		})

		ginkgo.It("rejects a tampered token", func() {
			tokens, err := service.Authenticate(auth.LoginDTO{Username: "budi", Password: "rahasia123"})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())

			_, err = service.ValidateAccessToken(tokens.AccessToken + "x")

			gomega.Expect(err).To(gomega.HaveOccurred())
		})
	})

	ginkgo.Describe("RefreshTokens", func() {
		ginkgo.It("issues a new pair from a refresh token", func() {
			tokens, err := service.Authenticate(auth.LoginDTO{Username: "budi", Password: "rahasia123"})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())

			refreshed, err := service.RefreshTokens(tokens.RefreshToken)

			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(refreshed.AccessToken).NotTo(gomega.BeEmpty())

			claims, err := service.ValidateAccessToken(refreshed.AccessToken)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(claims.UserID).To(gomega.Equal(int64(10)))
		})

		ginkgo.It("rejects garbage input", func() {
			_, err := service.RefreshTokens("not-a-token")

			gomega.Expect(err).To(gomega.HaveOccurred())
		})
	})
})
