package expense

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fkhayef/settleup/pkg/middleware"
	"github.com/fkhayef/settleup/pkg/request"
	"github.com/fkhayef/settleup/pkg/response"
)

// Handler handles HTTP requests for expense operations
type Handler struct {
	service *Service
}

// NewHandler creates a new expense handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for expense endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.GetByID)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)

	// Group-based listing
	r.Get("/group/{groupId}", h.ListByGroup)

	return r
}

// Create handles POST /expenses
// @Summary      Create a new expense
// @Description  Create an expense split with the equal, unequal or percentage policy
// @Tags         expenses
// @Accept       json
// @Produce      json
// @Param        X-User-ID header int false "Caller user ID"
// @Param        request body CreateExpenseRequest true "Expense creation request"
// @Success      201 {object} response.APIResponse{data=ExpenseResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      403 {object} response.APIResponse
// @Router       /expenses [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateExpenseRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.FromError(w, err)
		return
	}

	e, err := h.service.CreateExpense(r.Context(), middleware.CallerID(r), &req)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, e.ToResponse())
}

// List handles GET /expenses
// @Summary      List my expenses
// @Description  Get the expenses the caller paid for or takes part in, newest first
// @Tags         expenses
// @Produce      json
// @Param        X-User-ID header int false "Caller user ID"
// @Param        page query int false "Page number" default(1)
// @Param        per_page query int false "Items per page" default(20)
// @Success      200 {object} response.APIResponse{data=[]ExpenseResponse}
// @Router       /expenses [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := request.Page(r)

	expenses, total, err := h.service.ListForUser(r.Context(), middleware.CallerID(r), perPage, request.Offset(page, perPage))
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.JSONWithMeta(w, http.StatusOK, toResponses(expenses), response.NewMeta(page, perPage, total))
}

// GetByID handles GET /expenses/{id}
// @Summary      Get expense by ID
// @Description  Get an expense with its split details
// @Tags         expenses
// @Produce      json
// @Param        X-User-ID header int false "Caller user ID"
// @Param        id path int true "Expense ID"
// @Success      200 {object} response.APIResponse{data=ExpenseResponse}
// @Failure      403 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /expenses/{id} [get]
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := request.IDParam(r, "id")
	if err != nil {
		response.FromError(w, err)
		return
	}

	e, err := h.service.GetExpenseByID(r.Context(), id, middleware.CallerID(r))
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, e.ToResponse())
}

// Update handles PUT /expenses/{id}
// @Summary      Update an expense
// @Description  Edit an expense (payer only). Changing the amount, split type or participants recomputes the splits
// @Tags         expenses
// @Accept       json
// @Produce      json
// @Param        X-User-ID header int false "Caller user ID"
// @Param        id path int true "Expense ID"
// @Param        request body UpdateExpenseRequest true "Expense update request"
// @Success      200 {object} response.APIResponse{data=ExpenseResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      403 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /expenses/{id} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := request.IDParam(r, "id")
	if err != nil {
		response.FromError(w, err)
		return
	}

	var req UpdateExpenseRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.FromError(w, err)
		return
	}

	e, err := h.service.UpdateExpense(r.Context(), id, middleware.CallerID(r), &req)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, e.ToResponse())
}

// Delete handles DELETE /expenses/{id}
// @Summary      Delete an expense
// @Description  Delete an expense (payer only)
// @Tags         expenses
// @Produce      json
// @Param        X-User-ID header int false "Caller user ID"
// @Param        id path int true "Expense ID"
// @Success      200 {object} response.APIResponse
// @Failure      403 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /expenses/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := request.IDParam(r, "id")
	if err != nil {
		response.FromError(w, err)
		return
	}

	if err := h.service.DeleteExpense(r.Context(), id, middleware.CallerID(r)); err != nil {
		response.FromError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{"message": "Expense deleted successfully"})
}

// ListByGroup handles GET /expenses/group/{groupId}
// @Summary      List group expenses
// @Description  Get a paginated list of a group's expenses, newest first
// @Tags         expenses
// @Produce      json
// @Param        X-User-ID header int false "Caller user ID"
// @Param        groupId path int true "Group ID"
// @Param        page query int false "Page number" default(1)
// @Param        per_page query int false "Items per page" default(20)
// @Success      200 {object} response.APIResponse{data=[]ExpenseResponse}
// @Failure      403 {object} response.APIResponse
// @Router       /expenses/group/{groupId} [get]
func (h *Handler) ListByGroup(w http.ResponseWriter, r *http.Request) {
	groupID, err := request.IDParam(r, "groupId")
	if err != nil {
		response.FromError(w, err)
		return
	}

	page, perPage := request.Page(r)
	expenses, total, err := h.service.ListByGroupID(r.Context(), groupID, middleware.CallerID(r), perPage, request.Offset(page, perPage))
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.JSONWithMeta(w, http.StatusOK, toResponses(expenses), response.NewMeta(page, perPage, total))
}
