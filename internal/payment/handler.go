package payment

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/espp/tuition-management/internal/auth"
	"github.com/espp/tuition-management/internal/transport"
	userdomain "github.com/espp/tuition-management/internal/user"
	"github.com/espp/tuition-management/pkg/logger"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	CreatePayment(dto CreatePaymentDTO, actor *userdomain.User) (*Payment, error)
	ConfirmPayment(paymentID, confirmedBy int64) (*Payment, error)
	RejectPayment(paymentID, rejectedBy int64, reason string) (*Payment, error)
	GetPaymentByID(id int64) (*PaymentDetail, error)
	DeletePayment(id int64) error
	ListPayments(params ListParams) (*PaymentPage, error)
	GetPaymentsForStudent(studentID int64, status string) ([]*PaymentDetail, error)
	GetPaymentStats() (*PaymentStats, error)
	GetPaymentsByProgram() ([]ProgramStat, error)
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

// CreatePayment godoc
// @Summary Submit a payment claim against a bill, or record one on a student's behalf
// @Tags payments
// @Router /api/v1/payments [post]
func (h *Handler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto CreatePaymentDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("CreatePayment: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := h.Service.CreatePayment(dto, user)
	if err != nil {
		h.Logger.Error("CreatePayment: service error", "error", err, "user_id", user.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, p)
}

func (h *Handler) GetPayment(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid payment id")
		return
	}

	p, err := h.Service.GetPaymentByID(id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if user.IsStudent() && p.StudentID != user.ID {
		h.WriteError(w, http.StatusForbidden, "forbidden")
		return
	}

	h.WriteJSON(w, http.StatusOK, p)
}

// ConfirmPayment moves a pending payment to confirmed and marks its bill
// paid; the two updates happen in one transaction.
func (h *Handler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid payment id")
		return
	}

	p, err := h.Service.ConfirmPayment(id, user.ID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) RejectPayment(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid payment id")
		return
	}

	var dto RejectPaymentDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("RejectPayment: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := h.Service.RejectPayment(id, user.ID, dto.Reason)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) DeletePayment(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid payment id")
		return
	}

	if err := h.Service.DeletePayment(id); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"message": "payment deleted"})
}

func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	params := ListParams{
		Search: r.URL.Query().Get("search"),
		Status: r.URL.Query().Get("status"),
	}
	if page, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil {
		params.Page = page
	}
	if size, err := strconv.Atoi(r.URL.Query().Get("page_size")); err == nil {
		params.PageSize = size
	}

	page, err := h.Service.ListPayments(params)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, page)
}

// MyPayments returns the authenticated student's payments, newest first,
// optionally narrowed by a status query parameter.
func (h *Handler) MyPayments(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	payments, err := h.Service.GetPaymentsForStudent(user.ID, r.URL.Query().Get("status"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, payments)
}

func (h *Handler) PaymentStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Service.GetPaymentStats()
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, stats)
}

func (h *Handler) PaymentsByProgram(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Service.GetPaymentsByProgram()
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, stats)
}
