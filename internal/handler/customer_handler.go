package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/oakline/customer-directory/internal/models"
	"github.com/oakline/customer-directory/internal/service"
)

// CustomerHandler handles customer HTTP requests
type CustomerHandler struct {
	customerService service.CustomerService
	logger          *slog.Logger
}

// NewCustomerHandler creates a new customer handler
func NewCustomerHandler(customerService service.CustomerService, logger *slog.Logger) *CustomerHandler {
	return &CustomerHandler{
		customerService: customerService,
		logger:          logger,
	}
}

// Routes mounts the customer endpoints on r
func (h *CustomerHandler) Routes(r chi.Router) {
	r.Get("/", h.ListActive)
	r.Post("/", h.Create)
	r.Get("/inactive", h.ListInactive)
	r.Get("/search", h.Search)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	r.Post("/{id}/activate", h.Activate)
	r.Post("/{id}/deactivate", h.Deactivate)
}

// ListActive handles GET /api/customers
func (h *CustomerHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	customers, err := h.customerService.ListActive(r.Context())
	if err != nil {
		handleError(w, err, h.logger)
		return
	}

	respondSuccess(w, customers)
}

// ListInactive handles GET /api/customers/inactive
func (h *CustomerHandler) ListInactive(w http.ResponseWriter, r *http.Request) {
	customers, err := h.customerService.ListInactive(r.Context())
	if err != nil {
		handleError(w, err, h.logger)
		return
	}

	respondSuccess(w, customers)
}

// Search handles GET /api/customers/search
func (h *CustomerHandler) Search(w http.ResponseWriter, r *http.Request) {
	term := strings.TrimSpace(r.URL.Query().Get("term"))
	if term == "" {
		respondError(w, http.StatusBadRequest, "INVALID_INPUT", "Search term is required")
		return
	}

	customers, err := h.customerService.SearchByName(r.Context(), term)
	if err != nil {
		handleError(w, err, h.logger)
		return
	}

	respondSuccess(w, customers)
}

// Get handles GET /api/customers/{id}
func (h *CustomerHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := customerID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_ID", "Invalid customer ID")
		return
	}

	customer, err := h.customerService.GetByID(r.Context(), id)
	if err != nil {
		handleError(w, err, h.logger)
		return
	}
	if customer == nil {
		respondError(w, http.StatusNotFound, "NOT_FOUND", fmt.Sprintf("customer with ID %d not found", id))
		return
	}

	respondSuccess(w, customer)
}

// Create handles POST /api/customers
func (h *CustomerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.CreateCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON format")
		return
	}

	customer, err := h.customerService.Create(r.Context(), &req)
	if err != nil {
		handleError(w, err, h.logger)
		return
	}

	respondCreated(w, customer)
}

// Update handles PUT /api/customers/{id}
func (h *CustomerHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := customerID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_ID", "Invalid customer ID")
		return
	}

	var req service.UpdateCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON format")
		return
	}

	if req.ID != id {
		respondError(w, http.StatusBadRequest, "ID_MISMATCH", "Customer ID in body does not match URL")
		return
	}

	customer, err := h.customerService.Update(r.Context(), id, &req)
	if err != nil {
		handleError(w, err, h.logger)
		return
	}

	respondSuccess(w, customer)
}

// Delete handles DELETE /api/customers/{id}
func (h *CustomerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := customerID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_ID", "Invalid customer ID")
		return
	}

	deleted, err := h.customerService.Delete(r.Context(), id)
	if err != nil {
		handleError(w, err, h.logger)
		return
	}
	if !deleted {
		respondError(w, http.StatusNotFound, "NOT_FOUND", fmt.Sprintf("customer with ID %d not found", id))
		return
	}

	respondNoContent(w)
}

// Activate handles POST /api/customers/{id}/activate
func (h *CustomerHandler) Activate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, true)
}

// Deactivate handles POST /api/customers/{id}/deactivate
func (h *CustomerHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, false)
}

func (h *CustomerHandler) setActive(w http.ResponseWriter, r *http.Request, active bool) {
	id, err := customerID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_ID", "Invalid customer ID")
		return
	}

	var customer *models.Customer
	if active {
		customer, err = h.customerService.Activate(r.Context(), id)
	} else {
		customer, err = h.customerService.Deactivate(r.Context(), id)
	}
	if err != nil {
		handleError(w, err, h.logger)
		return
	}

	respondSuccess(w, customer)
}

// customerID extracts the numeric customer id from the URL path
func customerID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
