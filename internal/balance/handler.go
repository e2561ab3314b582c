package balance

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fkhayef/settleup/pkg/middleware"
	"github.com/fkhayef/settleup/pkg/request"
	"github.com/fkhayef/settleup/pkg/response"
)

// Handler handles HTTP requests for balance queries
type Handler struct {
	service *Service
}

// NewHandler creates a new balance handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for balance endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.Overall)
	r.Get("/group/{groupId}", h.Group)
	r.Get("/group/{groupId}/suggest", h.Suggest)

	return r
}

// Overall handles GET /balances
// @Summary      Overall balances
// @Description  Net balances of everyone who shares expenses or settlements with the caller
// @Tags         balances
// @Produce      json
// @Param        X-User-ID header int false "Caller user ID"
// @Success      200 {object} response.APIResponse{data=BalancesResponse}
// @Router       /balances [get]
func (h *Handler) Overall(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.Overall(r.Context(), middleware.CallerID(r))
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, resp)
}

// Group handles GET /balances/group/{groupId}
// @Summary      Group balances
// @Description  Net balances within a group after recorded settlements
// @Tags         balances
// @Produce      json
// @Param        X-User-ID header int false "Caller user ID"
// @Param        groupId path int true "Group ID"
// @Success      200 {object} response.APIResponse{data=BalancesResponse}
// @Failure      403 {object} response.APIResponse
// @Router       /balances/group/{groupId} [get]
func (h *Handler) Group(w http.ResponseWriter, r *http.Request) {
	groupID, err := request.IDParam(r, "groupId")
	if err != nil {
		response.FromError(w, err)
		return
	}

	resp, err := h.service.Group(r.Context(), groupID, middleware.CallerID(r))
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, resp)
}

// Suggest handles GET /balances/group/{groupId}/suggest
// @Summary      Settle-up suggestions
// @Description  A short list of transfers that clears every balance in the group
// @Tags         balances
// @Produce      json
// @Param        X-User-ID header int false "Caller user ID"
// @Param        groupId path int true "Group ID"
// @Success      200 {object} response.APIResponse{data=SuggestionsResponse}
// @Failure      403 {object} response.APIResponse
// @Router       /balances/group/{groupId}/suggest [get]
func (h *Handler) Suggest(w http.ResponseWriter, r *http.Request) {
	groupID, err := request.IDParam(r, "groupId")
	if err != nil {
		response.FromError(w, err)
		return
	}

	resp, err := h.service.Suggest(r.Context(), groupID, middleware.CallerID(r))
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, resp)
}
