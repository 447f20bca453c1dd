package tasksync

import (
	"context"
	"fmt"

	"github.com/hearthkeep/hearthkeep/internal/api"
	"github.com/hearthkeep/hearthkeep/internal/model"
)

// matchesFilter reports whether a task is visible under the given view
// parameters.
func matchesFilter(task *model.Task, filter Filter, memberFilter *int64) bool {
	if memberFilter != nil && (task.AssignedTo == nil || *task.AssignedTo != *memberFilter) {
		return false
	}
	switch filter {
	case FilterCompleted:
		return task.Status == model.StatusCompleted
	case FilterAll:
		return true
	default:
		return task.Status == model.StatusPending || task.Status == model.StatusInProgress
	}
}

// loadTasks fetches the list for the given view parameters. Each load is
// tagged with a generation; a response belonging to a superseded load is
// discarded so a stale read can never overwrite a fresher one. On
// failure the previous in-memory list is retained.
func (s *Syncer) loadTasks(ctx context.Context, filter Filter, memberFilter *int64) error {
	s.mu.Lock()
	s.loadGen++
	gen := s.loadGen
	s.mu.Unlock()

	tasks, err := runBounded(ctx, s.cfg.LoadTimeout, func(ctx context.Context) ([]model.Task, error) {
		return s.cfg.Backend.ListTasks(ctx, string(filter), memberFilter)
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.alive || gen != s.loadGen {
		return nil
	}
	if err != nil {
		return err
	}
	s.tasks = tasks
	return nil
}

// SetFilter switches the status filter and reloads. Accepted only in
// Ready; a reload failure escalates to Errored with the list retained.
func (s *Syncer) SetFilter(ctx context.Context, filter Filter) error {
	switch filter {
	case FilterPending, FilterCompleted, FilterAll:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidFilter, filter)
	}

	s.mu.Lock()
	if s.state != StateReady || !s.alive {
		s.mu.Unlock()
		return ErrNotReady
	}
	s.filter = filter
	memberFilter := s.memberFilter
	s.mu.Unlock()

	return s.escalateOnFailure(s.loadTasks(ctx, filter, memberFilter))
}

// SetMemberFilter narrows the list to one assignee; nil clears it.
func (s *Syncer) SetMemberFilter(ctx context.Context, memberID *int64) error {
	s.mu.Lock()
	if s.state != StateReady || !s.alive {
		s.mu.Unlock()
		return ErrNotReady
	}
	s.memberFilter = memberID
	filter := s.filter
	s.mu.Unlock()

	return s.escalateOnFailure(s.loadTasks(ctx, filter, memberID))
}

func (s *Syncer) escalateOnFailure(err error) error {
	if err == nil {
		return nil
	}
	s.mu.Lock()
	if s.alive {
		s.state = StateErrored
		s.lastErr = err
	}
	s.mu.Unlock()
	return err
}

// mutate is the generic optimistic-mutation helper: apply a local patch,
// run the remote operation bounded, restore the exact prior list on
// failure. The view stays Ready either way; a failed mutation is a
// localized error, never a full-view one.
func (s *Syncer) mutate(ctx context.Context, gesture string, patch func([]model.Task) []model.Task, op func(context.Context) error) error {
	s.mu.Lock()
	if s.state != StateReady || !s.alive {
		s.mu.Unlock()
		return ErrNotReady
	}
	if s.submitting[gesture] {
		s.mu.Unlock()
		return ErrBusy
	}
	s.submitting[gesture] = true
	prior := s.tasks
	if patch != nil {
		s.tasks = patch(s.tasks)
	}
	s.mu.Unlock()

	_, err := runBounded(ctx, s.cfg.MutateTimeout, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})

	s.mu.Lock()
	s.submitting[gesture] = false
	if err != nil && s.alive {
		s.tasks = prior
	}
	s.mu.Unlock()
	return err
}

// Create submits a new task. The server forces status to pending; the
// returned canonical row is inserted at the head of the list when it
// matches the active filter.
func (s *Syncer) Create(ctx context.Context, draft api.TaskDraft) (*model.Task, error) {
	if _, ok := s.householdID(); !ok {
		return nil, ErrHouseholdUnresolved
	}

	var created *model.Task
	err := s.mutate(ctx, "create", nil, func(ctx context.Context) error {
		task, err := s.cfg.Backend.CreateTask(ctx, draft)
		if err != nil {
			return err
		}
		created = task
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.alive && matchesFilter(created, s.filter, s.memberFilter) {
		s.tasks = append([]model.Task{*created}, s.tasks...)
	}
	s.mu.Unlock()
	return created, nil
}

// Toggle flips a task's completion optimistically. On failure the prior
// list is restored exactly. On success, if the new status falls outside
// the active filter, the list is reconciled by reload so the item
// disappears correctly.
func (s *Syncer) Toggle(ctx context.Context, id int64) error {
	if _, ok := s.householdID(); !ok {
		return ErrHouseholdUnresolved
	}

	var confirmed *model.Task
	patch := func(tasks []model.Task) []model.Task {
		out := make([]model.Task, len(tasks))
		copy(out, tasks)
		for i := range out {
			if out[i].ID != id {
				continue
			}
			if out[i].Status == model.StatusCompleted {
				out[i].Status = model.StatusPending
				out[i].CompletedAt = nil
			} else {
				out[i].Status = model.StatusCompleted
				now := timeNow()
				out[i].CompletedAt = &now
			}
		}
		return out
	}

	err := s.mutate(ctx, "toggle", patch, func(ctx context.Context) error {
		task, err := s.cfg.Backend.ToggleTask(ctx, id, "")
		if err != nil {
			return err
		}
		confirmed = task
		return nil
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	filter := s.filter
	memberFilter := s.memberFilter
	reconcile := !matchesFilter(confirmed, filter, memberFilter)
	if !reconcile {
		for i := range s.tasks {
			if s.tasks[i].ID == confirmed.ID {
				s.tasks[i] = *confirmed
			}
		}
	}
	s.mu.Unlock()

	if reconcile {
		return s.loadTasks(ctx, filter, memberFilter)
	}
	return nil
}

// Delete removes a task optimistically, before the backend call
// resolves. On failure the removed item is restored in its original
// position.
func (s *Syncer) Delete(ctx context.Context, id int64) error {
	if _, ok := s.householdID(); !ok {
		return ErrHouseholdUnresolved
	}

	patch := func(tasks []model.Task) []model.Task {
		out := make([]model.Task, 0, len(tasks))
		for _, t := range tasks {
			if t.ID != id {
				out = append(out, t)
			}
		}
		return out
	}

	return s.mutate(ctx, "delete", patch, func(ctx context.Context) error {
		return s.cfg.Backend.DeleteTask(ctx, id)
	})
}
