package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/vzolin/cashplan-service/internal/models"
	"github.com/vzolin/cashplan-service/internal/service"
)

var (
	errInvalidDays = errors.New("days must be a positive integer")
	errInvalidDate = errors.New("date must be in YYYY-MM-DD form")
)

type Handler struct {
	svc *service.Service
}

func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// Register handles user registration
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	user, err := h.svc.Register(req.Username, req.Email, req.Password)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
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
		writeError(w, http.StatusBadRequest, err)
		return
	}
	token, err := h.svc.Login(req.Email, req.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// CreateAccount handles account creation
func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name    string  `json:"name"`
		Balance float64 `json:"balance"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	account, err := h.svc.CreateAccount(req.Name, req.Balance)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusCreated, account)
}

// ListAccounts returns all accounts
func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.svc.ListAccounts()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, accounts)
}

// UpdateAccount updates an account
func (h *Handler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	var account models.Account
	if err := json.NewDecoder(r.Body).Decode(&account); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	account.ID = mux.Vars(r)["id"]
	if err := h.svc.UpdateAccount(&account); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

// DeleteAccount removes an account
func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteAccount(mux.Vars(r)["id"]); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateCounterparty handles counterparty creation
func (h *Handler) CreateCounterparty(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name  string `json:"name"`
		Notes string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	c, err := h.svc.CreateCounterparty(req.Name, req.Notes)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// ListCounterparties returns all counterparties
func (h *Handler) ListCounterparties(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.ListCounterparties()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// CreateSupplier handles supplier creation
func (h *Handler) CreateSupplier(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name    string `json:"name"`
		Contact string `json:"contact"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s, err := h.svc.CreateSupplier(req.Name, req.Contact)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusCreated, s)
}

// ListSuppliers returns all suppliers
func (h *Handler) ListSuppliers(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.ListSuppliers()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// CreatePayment handles incoming payment creation
func (h *Handler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var p models.IncomingPayment
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	created, err := h.svc.CreatePayment(&p)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// ListPayments returns all incoming payments
func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.ListPayments()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// UpdatePayment updates an incoming payment
func (h *Handler) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	var p models.IncomingPayment
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	p.ID = mux.Vars(r)["id"]
	if err := h.svc.UpdatePayment(&p); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// DeletePayment removes an incoming payment
func (h *Handler) DeletePayment(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeletePayment(mux.Vars(r)["id"]); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateOrder handles supplier order creation
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var o models.SupplierOrder
	if err := json.NewDecoder(r.Body).Decode(&o); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	created, err := h.svc.CreateOrder(&o)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// ListOrders returns all supplier orders
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.ListOrders()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// UpdateOrder updates a supplier order
func (h *Handler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	var o models.SupplierOrder
	if err := json.NewDecoder(r.Body).Decode(&o); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	o.ID = mux.Vars(r)["id"]
	if err := h.svc.UpdateOrder(&o); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// DeleteOrder removes a supplier order
func (h *Handler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteOrder(mux.Vars(r)["id"]); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// OrderImpact runs a what-if simulation for a candidate order
func (h *Handler) OrderImpact(w http.ResponseWriter, r *http.Request) {
	var candidate models.SupplierOrder
	if err := json.NewDecoder(r.Body).Decode(&candidate); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	impact, err := h.svc.EvaluateOrderImpact(&candidate)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, impact)
}

// ImportOrders pulls purchase orders from the external order system
func (h *Handler) ImportOrders(w http.ResponseWriter, r *http.Request) {
	imported, err := h.svc.ImportOrders(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"imported": imported})
}

// CreateExpense handles planned expense creation
func (h *Handler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	var e models.PlannedExpense
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	created, err := h.svc.CreateExpense(&e)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// ListExpenses returns all planned expenses
func (h *Handler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.ListExpenses()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// UpdateExpense updates a planned expense
func (h *Handler) UpdateExpense(w http.ResponseWriter, r *http.Request) {
	var e models.PlannedExpense
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	e.ID = mux.Vars(r)["id"]
	if err := h.svc.UpdateExpense(&e); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// DeleteExpense removes a planned expense
func (h *Handler) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteExpense(mux.Vars(r)["id"]); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetSettings returns the application settings
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.svc.GetSettings()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// UpdateSettings stores new application settings
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var settings models.AppSettings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.svc.UpdateSettings(&settings); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// GetBalanceOnDate returns the projected balance on a specific date
func (h *Handler) GetBalanceOnDate(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if _, err := time.Parse("2006-01-02", date); err != nil {
		writeError(w, http.StatusBadRequest, errInvalidDate)
		return
	}
	balance, err := h.svc.BalanceOnDate(date)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"date": date, "balance": balance})
}

// GetPlan builds the projected cash plan. The horizon defaults to the
// configured value and can be overridden with ?days=N.
func (h *Handler) GetPlan(w http.ResponseWriter, r *http.Request) {
	days := 0
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, errInvalidDays)
			return
		}
		days = n
	}
	plan, err := h.svc.BuildCashPlan(days)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}
