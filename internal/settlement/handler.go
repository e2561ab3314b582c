package settlement

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fkhayef/settleup/pkg/middleware"
	"github.com/fkhayef/settleup/pkg/request"
	"github.com/fkhayef/settleup/pkg/response"
)

// Handler handles HTTP requests for settlement operations
type Handler struct {
	service *Service
}

// NewHandler creates a new settlement handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for settlement endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/group/{groupId}", h.ListByGroup)

	return r
}

// Create handles POST /settlements
// @Summary      Record a settlement
// @Description  Record that from_user paid to_user. The amount must be positive and the users distinct
// @Tags         settlements
// @Accept       json
// @Produce      json
// @Param        X-User-ID header int false "Caller user ID"
// @Param        request body CreateSettlementRequest true "Settlement request"
// @Success      201 {object} response.APIResponse{data=SettlementResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      403 {object} response.APIResponse
// @Router       /settlements [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateSettlementRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.FromError(w, err)
		return
	}

	s, err := h.service.CreateSettlement(r.Context(), middleware.CallerID(r), &req)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, s.ToResponse())
}

// List handles GET /settlements
// @Summary      List my settlements
// @Description  Get a paginated list of settlements the caller paid or received
// @Tags         settlements
// @Produce      json
// @Param        X-User-ID header int false "Caller user ID"
// @Param        page query int false "Page number" default(1)
// @Param        per_page query int false "Items per page" default(20)
// @Success      200 {object} response.APIResponse{data=[]SettlementResponse}
// @Router       /settlements [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := request.Page(r)

	settlements, total, err := h.service.ListForUser(r.Context(), middleware.CallerID(r), perPage, request.Offset(page, perPage))
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.JSONWithMeta(w, http.StatusOK, toResponses(settlements), response.NewMeta(page, perPage, total))
}

// ListByGroup handles GET /settlements/group/{groupId}
// @Summary      List group settlements
// @Description  Get all settlements recorded in a group
// @Tags         settlements
// @Produce      json
// @Param        X-User-ID header int false "Caller user ID"
// @Param        groupId path int true "Group ID"
// @Success      200 {object} response.APIResponse{data=[]SettlementResponse}
// @Failure      403 {object} response.APIResponse
// @Router       /settlements/group/{groupId} [get]
func (h *Handler) ListByGroup(w http.ResponseWriter, r *http.Request) {
	groupID, err := request.IDParam(r, "groupId")
	if err != nil {
		response.FromError(w, err)
		return
	}

	settlements, err := h.service.ListByGroupID(r.Context(), groupID, middleware.CallerID(r))
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, toResponses(settlements))
}
