package reporting

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/espp/tuition-management/internal/audit"
	"github.com/espp/tuition-management/internal/auth"
	"github.com/espp/tuition-management/internal/transport"
	"github.com/espp/tuition-management/pkg/logger"
)

type ServiceAPI interface {
	GetDashboardStats() (*DashboardStats, error)
	GetStudentReport(studentID int64) (*StudentReport, error)
	GetStudentStandings() ([]*StudentStanding, error)
	GetRecentActivities(limit int) ([]*audit.ActivityEntry, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

func (h *Handler) DashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Service.GetDashboardStats()
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, stats)
}

// MyReport returns the authenticated student's own billing summary.
func (h *Handler) MyReport(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	report, err := h.Service.GetStudentReport(user.ID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, report)
}

// StudentReports lists the billing standing of every active student.
func (h *Handler) StudentReports(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Service.GetStudentStandings()
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, rows)
}

func (h *Handler) RecentActivities(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= 100 {
		limit = v
	}

	entries, err := h.Service.GetRecentActivities(limit)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, entries)
}
