package group

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fkhayef/settleup/pkg/middleware"
	"github.com/fkhayef/settleup/pkg/request"
	"github.com/fkhayef/settleup/pkg/response"
)

// Handler handles HTTP requests for group operations
type Handler struct {
	service *Service
}

// NewHandler creates a new group handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for group endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.GetByID)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)

	r.Post("/{id}/members", h.AddMember)
	r.Get("/{id}/members", h.GetMembers)
	r.Delete("/{id}/members/{userId}", h.RemoveMember)

	return r
}

// Create handles POST /groups
// @Summary      Create a new group
// @Description  Create a new group; the caller and any listed users become members
// @Tags         groups
// @Accept       json
// @Produce      json
// @Param        X-User-ID header int false "Caller user ID"
// @Param        request body CreateGroupRequest true "Group creation request"
// @Success      201 {object} response.APIResponse{data=GroupResponse}
// @Failure      400 {object} response.APIResponse
// @Router       /groups [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateGroupRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.FromError(w, err)
		return
	}

	g, err := h.service.Create(r.Context(), middleware.CallerID(r), &req)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, g.ToResponse())
}

// GetByID handles GET /groups/{id}
// @Summary      Get group by ID
// @Description  Get a group with all its members
// @Tags         groups
// @Produce      json
// @Param        X-User-ID header int false "Caller user ID"
// @Param        id path int true "Group ID"
// @Success      200 {object} response.APIResponse{data=GroupResponse}
// @Failure      403 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /groups/{id} [get]
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := request.IDParam(r, "id")
	if err != nil {
		response.FromError(w, err)
		return
	}

	g, members, err := h.service.GetByIDWithMembers(r.Context(), id, middleware.CallerID(r))
	if err != nil {
		response.FromError(w, err)
		return
	}

	resp := g.ToResponse()
	resp.Members = membersToResponse(members)

	response.JSON(w, http.StatusOK, resp)
}

// List handles GET /groups
// @Summary      List my groups
// @Description  Get a paginated list of groups for the current user
// @Tags         groups
// @Produce      json
// @Param        X-User-ID header int false "Caller user ID"
// @Param        page query int false "Page number" default(1)
// @Param        per_page query int false "Items per page" default(20)
// @Success      200 {object} response.APIResponse{data=[]GroupResponse}
// @Router       /groups [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := request.Page(r)

	groups, total, err := h.service.ListByUserID(r.Context(), middleware.CallerID(r), perPage, request.Offset(page, perPage))
	if err != nil {
		response.FromError(w, err)
		return
	}

	out := make([]*GroupResponse, len(groups))
	for i, g := range groups {
		out[i] = g.ToResponse()
	}

	response.JSONWithMeta(w, http.StatusOK, out, response.NewMeta(page, perPage, total))
}

// Update handles PUT /groups/{id}
// @Summary      Update a group
// @Description  Update group name or description
// @Tags         groups
// @Accept       json
// @Produce      json
// @Param        X-User-ID header int false "Caller user ID"
// @Param        id path int true "Group ID"
// @Param        request body UpdateGroupRequest true "Group update request"
// @Success      200 {object} response.APIResponse{data=GroupResponse}
// @Failure      404 {object} response.APIResponse
// @Router       /groups/{id} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := request.IDParam(r, "id")
	if err != nil {
		response.FromError(w, err)
		return
	}

	var req UpdateGroupRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.FromError(w, err)
		return
	}

	g, err := h.service.Update(r.Context(), id, middleware.CallerID(r), &req)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, g.ToResponse())
}

// Delete handles DELETE /groups/{id}
// @Summary      Delete a group
// @Description  Delete a group with its expenses and settlements (creator only)
// @Tags         groups
// @Produce      json
// @Param        X-User-ID header int false "Caller user ID"
// @Param        id path int true "Group ID"
// @Success      200 {object} response.APIResponse
// @Failure      403 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /groups/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := request.IDParam(r, "id")
	if err != nil {
		response.FromError(w, err)
		return
	}

	if err := h.service.Delete(r.Context(), id, middleware.CallerID(r)); err != nil {
		response.FromError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{"message": "Group deleted successfully"})
}

// AddMember handles POST /groups/{id}/members
// @Summary      Add member to group
// @Description  Add an existing user to a group
// @Tags         groups
// @Accept       json
// @Produce      json
// @Param        X-User-ID header int false "Caller user ID"
// @Param        id path int true "Group ID"
// @Param        request body AddMemberRequest true "Add member request"
// @Success      201 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Router       /groups/{id}/members [post]
func (h *Handler) AddMember(w http.ResponseWriter, r *http.Request) {
	groupID, err := request.IDParam(r, "id")
	if err != nil {
		response.FromError(w, err)
		return
	}

	var req AddMemberRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.FromError(w, err)
		return
	}

	if err := h.service.AddMember(r.Context(), groupID, middleware.CallerID(r), &req); err != nil {
		response.FromError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, map[string]string{"message": "Member added successfully"})
}

// GetMembers handles GET /groups/{id}/members
// @Summary      Get group members
// @Description  Get all members of a group
// @Tags         groups
// @Produce      json
// @Param        X-User-ID header int false "Caller user ID"
// @Param        id path int true "Group ID"
// @Success      200 {object} response.APIResponse{data=[]MemberResponse}
// @Failure      404 {object} response.APIResponse
// @Router       /groups/{id}/members [get]
func (h *Handler) GetMembers(w http.ResponseWriter, r *http.Request) {
	groupID, err := request.IDParam(r, "id")
	if err != nil {
		response.FromError(w, err)
		return
	}

	members, err := h.service.GetMembers(r.Context(), groupID, middleware.CallerID(r))
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, membersToResponse(members))
}

// RemoveMember handles DELETE /groups/{id}/members/{userId}
// @Summary      Remove member from group
// @Description  Leave a group, or remove a member as the group creator
// @Tags         groups
// @Produce      json
// @Param        X-User-ID header int false "Caller user ID"
// @Param        id path int true "Group ID"
// @Param        userId path int true "User ID"
// @Success      200 {object} response.APIResponse
// @Failure      403 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /groups/{id}/members/{userId} [delete]
func (h *Handler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	groupID, err := request.IDParam(r, "id")
	if err != nil {
		response.FromError(w, err)
		return
	}
	userID, err := request.IDParam(r, "userId")
	if err != nil {
		response.FromError(w, err)
		return
	}

	if err := h.service.RemoveMember(r.Context(), groupID, middleware.CallerID(r), userID); err != nil {
		response.FromError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{"message": "Member removed successfully"})
}
