package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/redipay/bridge-service/internal/models"
	"github.com/redipay/bridge-service/internal/service"
)

type Handler struct {
	svc *service.Service
}

func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// statusForError maps service errors to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, models.ErrPlanNotFound),
		errors.Is(err, models.ErrInstallmentNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrInvalidAmount),
		errors.Is(err, models.ErrInvalidInstallments),
		errors.Is(err, models.ErrDatesMismatch),
		errors.Is(err, models.ErrInvalidDueDate):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrInsufficientCollateral),
		errors.Is(err, models.ErrInsufficientAvailable),
		errors.Is(err, models.ErrInsufficientFunds):
		return http.StatusPaymentRequired
	case errors.Is(err, models.ErrAlreadyPaid),
		errors.Is(err, models.ErrNotDueYet):
		return http.StatusConflict
	case errors.Is(err, models.ErrUnauthorized):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func actor(r *http.Request) string {
	userID, _ := r.Context().Value("userID").(string)
	return userID
}

// Register handles user registration
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Email == "" || req.Password == "" {
		http.Error(w, "Email and password are required", http.StatusBadRequest)
		return
	}

	user, err := h.svc.Register(req.Username, req.Email, req.Password)
	if err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// Login handles user authentication
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	token, err := h.svc.Login(req.Email, req.Password)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// CreatePlan handles installment plan creation for the authenticated owner
func (h *Handler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Counterparty      string      `json:"counterparty"`
		TotalAmount       int64       `json:"total_amount"`
		InstallmentsCount int         `json:"installments_count"`
		DueDates          []time.Time `json:"due_dates"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	planID, err := h.svc.CreatePlan(r.Context(), actor(r), req.Counterparty, req.TotalAmount, req.InstallmentsCount, req.DueDates)
	if err != nil {
		http.Error(w, err.Error(), statusForError(err))
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"plan_id": planID})
}

// GetPlan handles plan lookup by id
func (h *Handler) GetPlan(w http.ResponseWriter, r *http.Request) {
	plan, err := h.svc.GetPlan(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, err.Error(), statusForError(err))
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

// GetUserPlans lists the authenticated owner's plan ids
func (h *Handler) GetUserPlans(w http.ResponseWriter, r *http.Request) {
	planIDs, err := h.svc.GetUserPlans(actor(r))
	if err != nil {
		http.Error(w, err.Error(), statusForError(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"plan_ids": planIDs})
}

// CollectInstallment handles collection of a single installment
func (h *Handler) CollectInstallment(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	number, err := strconv.Atoi(vars["number"])
	if err != nil {
		http.Error(w, "Invalid installment number", http.StatusBadRequest)
		return
	}

	source, err := h.svc.CollectInstallment(r.Context(), vars["id"], number)
	if err != nil {
		http.Error(w, err.Error(), statusForError(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]models.PaymentSource{"payment_source": source})
}

// GetNextDue returns the next collectible installment of a plan, if any
func (h *Handler) GetNextDue(w http.ResponseWriter, r *http.Request) {
	installment, err := h.svc.GetNextDue(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, err.Error(), statusForError(err))
		return
	}
	if installment == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, installment)
}
