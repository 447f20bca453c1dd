package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hearthkeep/hearthkeep/internal/auth"
	"github.com/hearthkeep/hearthkeep/internal/model"
	"github.com/hearthkeep/hearthkeep/internal/push"
	"github.com/hearthkeep/hearthkeep/internal/realtime"
	"github.com/hearthkeep/hearthkeep/internal/store"
)

type TaskHandler struct {
	taskStore      *store.TaskStore
	householdStore *store.HouseholdStore
	hub            *realtime.Hub
	pushService    *push.Service
	logger         *slog.Logger
}

func NewTaskHandler(ts *store.TaskStore, hs *store.HouseholdStore, hub *realtime.Hub, ps *push.Service, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{taskStore: ts, householdStore: hs, hub: hub, pushService: ps, logger: logger}
}

func (h *TaskHandler) broadcast(householdID int64, msg realtime.Message) {
	if h.hub != nil {
		h.hub.Broadcast(householdID, msg)
	}
}

type taskRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	Points      int        `json:"points"`
	AssignedTo  *int64     `json:"assigned_to"`
	DueDate     *time.Time `json:"due_date"`
}

type toggleRequest struct {
	RevertTo string `json:"revert_to"`
}

// filterStatuses maps the list filter to task statuses. The pending view
// includes in-progress tasks; "all" applies no status predicate.
func filterStatuses(filter string) ([]string, bool) {
	switch filter {
	case "", "pending":
		return []string{model.StatusPending, model.StatusInProgress}, true
	case "completed":
		return []string{model.StatusCompleted}, true
	case "all":
		return nil, true
	default:
		return nil, false
	}
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	householdID := auth.HouseholdID(r.Context())
	if householdID == 0 {
		writeError(w, http.StatusPreconditionFailed, "no household membership")
		return
	}

	statuses, ok := filterStatuses(r.URL.Query().Get("filter"))
	if !ok {
		writeError(w, http.StatusBadRequest, "filter must be pending, completed, or all")
		return
	}

	var assignedTo *int64
	if v := r.URL.Query().Get("assigned_to"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid assigned_to")
			return
		}
		assignedTo = &id
	}

	tasks, err := h.taskStore.List(householdID, statuses, assignedTo)
	if err != nil {
		h.logger.Error("list tasks", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list tasks")
		return
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	householdID := auth.HouseholdID(r.Context())
	if householdID == 0 {
		writeError(w, http.StatusPreconditionFailed, "no household membership")
		return
	}

	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	if req.Points < 0 {
		writeError(w, http.StatusBadRequest, "points must not be negative")
		return
	}

	if req.AssignedTo != nil {
		member, err := h.householdStore.GetMemberByID(*req.AssignedTo)
		if err != nil {
			h.logger.Error("check assignee", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to check member")
			return
		}
		if member == nil || member.HouseholdID != householdID {
			writeError(w, http.StatusBadRequest, "assignee not found in household")
			return
		}
	}

	// New tasks always start pending regardless of what the client sends.
	task, err := h.taskStore.Create(householdID, req.Title, req.Description, req.Category, req.Points, req.AssignedTo, auth.MemberID(r.Context()), req.DueDate)
	if err != nil {
		h.logger.Error("create task", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create task")
		return
	}

	h.broadcast(householdID, realtime.NewMessage("task", "created", task.ID, nil))

	if task.AssignedTo != nil && h.pushService != nil && *task.AssignedTo != auth.MemberID(r.Context()) {
		go h.pushService.NotifyAssignment(*task.AssignedTo, task)
	}

	writeJSON(w, http.StatusCreated, task)
}

// getScoped fetches a task and hides it behind 404 when it belongs to a
// different household.
func (h *TaskHandler) getScoped(w http.ResponseWriter, r *http.Request) (*model.Task, bool) {
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

	task, err := h.taskStore.GetByID(id)
	if err != nil {
		h.logger.Error("get task", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get task")
		return nil, false
	}
	if task == nil || task.HouseholdID != householdID {
		writeError(w, http.StatusNotFound, "task not found")
		return nil, false
	}
	return task, true
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	task, ok := h.getScoped(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// Toggle flips a task between completed and not. An incomplete task
// becomes completed; a completed one reverts to revert_to (default
// pending). The status change and completed_at move together.
func (h *TaskHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	task, ok := h.getScoped(w, r)
	if !ok {
		return
	}

	var req toggleRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON")
			return
		}
	}

	next := model.StatusCompleted
	if task.Status == model.StatusCompleted {
		switch req.RevertTo {
		case "", model.StatusPending:
			next = model.StatusPending
		case model.StatusInProgress:
			next = model.StatusInProgress
		default:
			writeError(w, http.StatusBadRequest, "revert_to must be pending or in_progress")
			return
		}
	}

	updated, err := h.taskStore.SetStatus(task.ID, next)
	if err != nil {
		h.logger.Error("toggle task", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update task")
		return
	}

	action := "completed"
	if next != model.StatusCompleted {
		action = "reopened"
	}
	h.broadcast(task.HouseholdID, realtime.NewMessage("task", action, task.ID, nil))

	writeJSON(w, http.StatusOK, updated)
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	task, ok := h.getScoped(w, r)
	if !ok {
		return
	}

	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}

	if req.AssignedTo != nil {
		member, err := h.householdStore.GetMemberByID(*req.AssignedTo)
		if err != nil {
			h.logger.Error("check assignee", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to check member")
			return
		}
		if member == nil || member.HouseholdID != task.HouseholdID {
			writeError(w, http.StatusBadRequest, "assignee not found in household")
			return
		}
	}

	prevAssignee := task.AssignedTo

	updated, err := h.taskStore.Update(task.ID, req.Title, req.Description, req.Category, req.Points, req.AssignedTo, req.DueDate)
	if err != nil {
		h.logger.Error("update task", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update task")
		return
	}

	h.broadcast(task.HouseholdID, realtime.NewMessage("task", "updated", task.ID, nil))

	newlyAssigned := updated.AssignedTo != nil && (prevAssignee == nil || *prevAssignee != *updated.AssignedTo)
	if newlyAssigned && h.pushService != nil && *updated.AssignedTo != auth.MemberID(r.Context()) {
		go h.pushService.NotifyAssignment(*updated.AssignedTo, updated)
	}

	writeJSON(w, http.StatusOK, updated)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	task, ok := h.getScoped(w, r)
	if !ok {
		return
	}

	if err := h.taskStore.Delete(task.ID); err != nil {
		h.logger.Error("delete task", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete task")
		return
	}

	h.broadcast(task.HouseholdID, realtime.NewMessage("task", "deleted", task.ID, nil))

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
