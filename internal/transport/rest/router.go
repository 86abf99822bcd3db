package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/espp/tuition-management/internal/auth"
	"github.com/espp/tuition-management/internal/billing"
	"github.com/espp/tuition-management/internal/payment"
	"github.com/espp/tuition-management/internal/program"
	"github.com/espp/tuition-management/internal/reporting"
	"github.com/espp/tuition-management/internal/transport/middleware"
	"github.com/espp/tuition-management/internal/transport/swagger"
	"github.com/espp/tuition-management/internal/user"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
)

type Handlers struct {
	Auth      *auth.Handler
	User      *user.Handler
	Program   *program.Handler
	Billing   *billing.Handler
	Payment   *payment.Handler
	Reporting *reporting.Handler
}

// RegisterAllRoutes mounts the API under /api/v1. Staff-side routes are
// restricted to admin and staff roles; student routes operate on the
// authenticated student's own data.
func RegisterAllRoutes(router *chi.Mux, db *sql.DB, h Handlers, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	router.Use(middleware.CORS)
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware)
	router.Use(middleware.LoggingMiddleware(logger))

	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	router.Handle("/swagger/*", swagger.Handler())

	staffOnly := h.Auth.RequireRole(user.RoleAdmin, user.RoleStaff)
	adminOnly := h.Auth.RequireRole(user.RoleAdmin)

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		r.Route("/auth", func(sr chi.Router) {
			sr.Post("/login", h.Auth.Login)
			sr.Post("/refresh", h.Auth.RefreshToken)
		})

		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)

			pr.Route("/users", func(ur chi.Router) {
				ur.Use(adminOnly)
				ur.Post("/", h.User.CreateUser)
				ur.Get("/", h.User.ListUsers)
				ur.Get("/{id}", h.User.GetUser)
				ur.Put("/{id}", h.User.UpdateUser)
				ur.Delete("/{id}", h.User.DeleteUser)
			})

			pr.Route("/programs", func(gr chi.Router) {
				gr.Get("/", h.Program.ListPrograms)
				gr.Get("/{id}", h.Program.GetProgram)

				gr.Group(func(ar chi.Router) {
					ar.Use(adminOnly)
					ar.Post("/", h.Program.CreateProgram)
					ar.Put("/{id}", h.Program.UpdateProgram)
					ar.Delete("/{id}", h.Program.DeleteProgram)
				})
			})

			pr.Route("/bills", func(br chi.Router) {
				br.Get("/my", h.Billing.MyBills)
				br.Get("/{id}", h.Billing.GetBill)

				br.Group(func(sr chi.Router) {
					sr.Use(staffOnly)
					sr.Post("/", h.Billing.CreateBill)
					sr.Get("/", h.Billing.ListBills)
					sr.Get("/overdue", h.Billing.OverdueBills)
					sr.Post("/sweep-overdue", h.Billing.SweepOverdue)
					sr.Put("/{id}", h.Billing.UpdateBill)
					sr.Delete("/{id}", h.Billing.DeleteBill)
				})
			})

			pr.Route("/payments", func(pmr chi.Router) {
				// Students submit their own claims; staff record payments
				// taken at the counter, so any authenticated role may post.
				pmr.Post("/", h.Payment.CreatePayment)
				pmr.Get("/my", h.Payment.MyPayments)
				pmr.Get("/{id}", h.Payment.GetPayment)

				pmr.Group(func(sr chi.Router) {
					sr.Use(staffOnly)
					sr.Get("/", h.Payment.ListPayments)
					sr.Get("/stats", h.Payment.PaymentStats)
					sr.Get("/by-program", h.Payment.PaymentsByProgram)
					sr.Patch("/{id}/confirm", h.Payment.ConfirmPayment)
					sr.Patch("/{id}/reject", h.Payment.RejectPayment)
				})

				pmr.Group(func(ar chi.Router) {
					ar.Use(adminOnly)
					ar.Delete("/{id}", h.Payment.DeletePayment)
				})
			})

			pr.Route("/reports", func(rr chi.Router) {
				rr.Get("/me", h.Reporting.MyReport)

				rr.Group(func(sr chi.Router) {
					sr.Use(staffOnly)
					sr.Get("/dashboard", h.Reporting.DashboardStats)
					sr.Get("/students", h.Reporting.StudentReports)
					sr.Get("/activities", h.Reporting.RecentActivities)
				})
			})
		})
	})
}
