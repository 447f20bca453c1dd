package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hearthkeep/hearthkeep/internal/auth"
	"github.com/hearthkeep/hearthkeep/internal/model"
	"github.com/hearthkeep/hearthkeep/internal/realtime"
	"github.com/hearthkeep/hearthkeep/internal/store"
)

type HouseholdHandler struct {
	householdStore *store.HouseholdStore
	taskStore      *store.TaskStore
	hub            *realtime.Hub
	logger         *slog.Logger
}

func NewHouseholdHandler(hs *store.HouseholdStore, ts *store.TaskStore, hub *realtime.Hub, logger *slog.Logger) *HouseholdHandler {
	return &HouseholdHandler{householdStore: hs, taskStore: ts, hub: hub, logger: logger}
}

func (h *HouseholdHandler) broadcast(householdID int64, msg realtime.Message) {
	if h.hub != nil {
		h.hub.Broadcast(householdID, msg)
	}
}

type createHouseholdRequest struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
}

type joinHouseholdRequest struct {
	JoinCode    string `json:"join_code"`
	DisplayName string `json:"display_name"`
}

type householdResponse struct {
	Household *model.Household `json:"household"`
	Member    *model.Member    `json:"member"`
}

// Create makes a new household with the caller as its admin. A user
// already belonging to a household cannot create another one.
func (h *HouseholdHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createHouseholdRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.DisplayName = strings.TrimSpace(req.DisplayName)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.DisplayName == "" {
		writeError(w, http.StatusBadRequest, "display_name is required")
		return
	}

	if auth.HouseholdID(r.Context()) != 0 {
		writeError(w, http.StatusConflict, "already a member of a household")
		return
	}

	household, err := h.householdStore.Create(req.Name)
	if err != nil {
		h.logger.Error("create household", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create household")
		return
	}

	member, err := h.householdStore.AddMember(household.ID, auth.UserID(r.Context()), req.DisplayName, model.RoleAdmin)
	if err != nil {
		h.logger.Error("add founding member", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create household")
		return
	}

	writeJSON(w, http.StatusCreated, householdResponse{Household: household, Member: member})
}

// Join adds the caller to an existing household by join code.
func (h *HouseholdHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req joinHouseholdRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.JoinCode = strings.ToUpper(strings.TrimSpace(req.JoinCode))
	req.DisplayName = strings.TrimSpace(req.DisplayName)
	if req.JoinCode == "" {
		writeError(w, http.StatusBadRequest, "join_code is required")
		return
	}
	if req.DisplayName == "" {
		writeError(w, http.StatusBadRequest, "display_name is required")
		return
	}

	if auth.HouseholdID(r.Context()) != 0 {
		writeError(w, http.StatusConflict, "already a member of a household")
		return
	}

	household, err := h.householdStore.GetByJoinCode(req.JoinCode)
	if err != nil {
		h.logger.Error("join code lookup", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if household == nil {
		writeError(w, http.StatusNotFound, "invalid join code")
		return
	}

	member, err := h.householdStore.AddMember(household.ID, auth.UserID(r.Context()), req.DisplayName, model.RoleMember)
	if err != nil {
		h.logger.Error("join household", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to join household")
		return
	}

	h.broadcast(household.ID, realtime.NewMessage("member", "joined", member.ID, nil))

	writeJSON(w, http.StatusCreated, householdResponse{Household: household, Member: member})
}

func (h *HouseholdHandler) Get(w http.ResponseWriter, r *http.Request) {
	householdID := auth.HouseholdID(r.Context())
	if householdID == 0 {
		writeError(w, http.StatusPreconditionFailed, "no household membership")
		return
	}

	household, err := h.householdStore.GetByID(householdID)
	if err != nil || household == nil {
		h.logger.Error("get household", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, household)
}

func (h *HouseholdHandler) Members(w http.ResponseWriter, r *http.Request) {
	householdID := auth.HouseholdID(r.Context())
	if householdID == 0 {
		writeError(w, http.StatusPreconditionFailed, "no household membership")
		return
	}

	members, err := h.householdStore.ListMembers(householdID)
	if err != nil {
		h.logger.Error("list members", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list members")
		return
	}
	if members == nil {
		members = []model.Member{}
	}
	writeJSON(w, http.StatusOK, members)
}

// memberScoped fetches a member and hides it behind 404 when it belongs
// to a different household.
func (h *HouseholdHandler) memberScoped(w http.ResponseWriter, r *http.Request) (*model.Member, bool) {
	householdID := auth.HouseholdID(r.Context())
	if householdID == 0 {
		writeError(w, http.StatusPreconditionFailed, "no household membership")
		return nil, false
	}

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return nil, false
	}

	member, err := h.householdStore.GetMemberByID(id)
	if err != nil {
		h.logger.Error("get member", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return nil, false
	}
	if member == nil || member.HouseholdID != householdID {
		writeError(w, http.StatusNotFound, "member not found")
		return nil, false
	}
	return member, true
}

// UpdateMemberRole promotes or demotes a member. Admin only; an admin
// cannot demote themselves so a household always keeps one admin.
func (h *HouseholdHandler) UpdateMemberRole(w http.ResponseWriter, r *http.Request) {
	member, ok := h.memberScoped(w, r)
	if !ok {
		return
	}

	var req struct {
		Role string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Role != model.RoleAdmin && req.Role != model.RoleMember {
		writeError(w, http.StatusBadRequest, "role must be admin or member")
		return
	}
	if member.ID == auth.MemberID(r.Context()) && req.Role != model.RoleAdmin {
		writeError(w, http.StatusBadRequest, "cannot demote yourself")
		return
	}

	updated, err := h.householdStore.UpdateMemberRole(member.HouseholdID, member.UserID, req.Role)
	if err != nil {
		h.logger.Error("update member role", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update member")
		return
	}

	h.broadcast(member.HouseholdID, realtime.NewMessage("member", "updated", member.ID, nil))

	writeJSON(w, http.StatusOK, updated)
}

// RemoveMember kicks a member out of the household. Admin only.
func (h *HouseholdHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	member, ok := h.memberScoped(w, r)
	if !ok {
		return
	}

	if member.ID == auth.MemberID(r.Context()) {
		writeError(w, http.StatusBadRequest, "cannot remove yourself")
		return
	}

	if err := h.householdStore.RemoveMember(member.HouseholdID, member.UserID); err != nil {
		h.logger.Error("remove member", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to remove member")
		return
	}

	h.broadcast(member.HouseholdID, realtime.NewMessage("member", "removed", member.ID, nil))

	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

func (h *HouseholdHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	householdID := auth.HouseholdID(r.Context())
	if householdID == 0 {
		writeError(w, http.StatusPreconditionFailed, "no household membership")
		return
	}

	entries, err := h.taskStore.Leaderboard(householdID)
	if err != nil {
		h.logger.Error("leaderboard", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to compute leaderboard")
		return
	}
	if entries == nil {
		entries = []model.PointsEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}
