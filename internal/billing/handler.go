package billing

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/espp/tuition-management/internal/auth"
	"github.com/espp/tuition-management/internal/transport"
	"github.com/espp/tuition-management/pkg/logger"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	CreateBill(dto CreateBillDTO, createdBy int64) (*Bill, error)
	GetBillByID(id int64) (*BillDetail, error)
	UpdateBill(id int64, dto UpdateBillDTO) (*Bill, error)
	DeleteBill(id int64) error
	ListBills(params ListParams) (*BillPage, error)
	GetBillsForStudent(studentID int64, status string) ([]*BillDetail, error)
	GetOverdueBills() ([]*BillDetail, error)
	SweepOverdue(actorID int64) (int64, error)
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

// CreateBill godoc
// @Summary Create a bill for a student
// @Tags bills
// @Router /api/v1/bills [post]
func (h *Handler) CreateBill(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto CreateBillDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("CreateBill: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	bill, err := h.Service.CreateBill(dto, user.ID)
	if err != nil {
		h.Logger.Error("CreateBill: service error", "error", err, "user_id", user.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, bill)
}

func (h *Handler) GetBill(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid bill id")
		return
	}

	bill, err := h.Service.GetBillByID(id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	// Students may only read their own bills.
	if user.IsStudent() && bill.StudentID != user.ID {
		h.WriteError(w, http.StatusForbidden, "forbidden")
		return
	}

	h.WriteJSON(w, http.StatusOK, bill)
}

func (h *Handler) UpdateBill(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid bill id")
		return
	}

	var dto UpdateBillDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("UpdateBill: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	bill, err := h.Service.UpdateBill(id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, bill)
}

func (h *Handler) DeleteBill(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid bill id")
		return
	}

	if err := h.Service.DeleteBill(id); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"message": "bill deleted"})
}

// ListBills supports page, page_size, search (student name, NIM or bill
// number) and status query parameters.
func (h *Handler) ListBills(w http.ResponseWriter, r *http.Request) {
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

	page, err := h.Service.ListBills(params)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, page)
}

// MyBills returns the authenticated student's own bills, newest due first.
func (h *Handler) MyBills(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	bills, err := h.Service.GetBillsForStudent(user.ID, r.URL.Query().Get("status"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, bills)
}

func (h *Handler) OverdueBills(w http.ResponseWriter, r *http.Request) {
	bills, err := h.Service.GetOverdueBills()
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, bills)
}

// SweepOverdue marks every pending bill past its due date as overdue and
// reports how many rows changed.
func (h *Handler) SweepOverdue(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	count, err := h.Service.SweepOverdue(user.ID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]int64{"swept": count})
}
