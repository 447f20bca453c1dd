package store

import (
	"testing"
	"time"

	"github.com/hearthkeep/hearthkeep/internal/database"
	"github.com/hearthkeep/hearthkeep/internal/model"
)

func setupTaskTestDB(t *testing.T) (*TaskStore, int64, int64) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	us := NewUserStore(db)
	hs := NewHouseholdStore(db)

	u, err := us.Create("alice@example.com", "Alice", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	h, err := hs.Create("Baggins")
	if err != nil {
		t.Fatalf("create household: %v", err)
	}
	m, err := hs.AddMember(h.ID, u.ID, "Alice", model.RoleAdmin)
	if err != nil {
		t.Fatalf("add member: %v", err)
	}

	return NewTaskStore(db), h.ID, m.ID
}

func TestTaskCreate(t *testing.T) {
	ts, hID, mID := setupTaskTestDB(t)

	task, err := ts.Create(hID, "Buy milk", "", "courses", 10, nil, mID, nil)
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	if task.Title != "Buy milk" {
		t.Errorf("title = %q, want %q", task.Title, "Buy milk")
	}
	if task.Status != model.StatusPending {
		t.Errorf("status = %q, want %q", task.Status, model.StatusPending)
	}
	if task.CompletedAt != nil {
		t.Error("expected nil completed_at on new task")
	}
	if task.HouseholdID != hID {
		t.Errorf("household_id = %d, want %d", task.HouseholdID, hID)
	}
	if task.Points != 10 {
		t.Errorf("points = %d, want 10", task.Points)
	}
}

func TestTaskCreateWithAssigneeAndDueDate(t *testing.T) {
	ts, hID, mID := setupTaskTestDB(t)

	due := time.Now().UTC().Add(48 * time.Hour).Truncate(time.Second)
	task, err := ts.Create(hID, "Mow lawn", "front and back", "yard", 20, &mID, mID, &due)
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	if task.AssignedTo == nil || *task.AssignedTo != mID {
		t.Errorf("assigned_to = %v, want %d", task.AssignedTo, mID)
	}
	if task.DueDate == nil || !task.DueDate.Equal(due) {
		t.Errorf("due_date = %v, want %v", task.DueDate, due)
	}
}

func TestTaskListFilterByStatus(t *testing.T) {
	ts, hID, mID := setupTaskTestDB(t)

	a, _ := ts.Create(hID, "Pending task", "", "general", 0, nil, mID, nil)
	b, _ := ts.Create(hID, "Active task", "", "general", 0, nil, mID, nil)
	c, _ := ts.Create(hID, "Done task", "", "general", 0, nil, mID, nil)

	if _, err := ts.SetStatus(b.ID, model.StatusInProgress); err != nil {
		t.Fatalf("set in_progress: %v", err)
	}
	if _, err := ts.SetStatus(c.ID, model.StatusCompleted); err != nil {
		t.Fatalf("set completed: %v", err)
	}

	open, err := ts.List(hID, []string{model.StatusPending, model.StatusInProgress}, nil)
	if err != nil {
		t.Fatalf("list open: %v", err)
	}
	if len(open) != 2 {
		t.Fatalf("open len = %d, want 2", len(open))
	}

	done, err := ts.List(hID, []string{model.StatusCompleted}, nil)
	if err != nil {
		t.Fatalf("list done: %v", err)
	}
	if len(done) != 1 || done[0].ID != c.ID {
		t.Fatalf("done = %+v, want single task %d", done, c.ID)
	}

	all, err := ts.List(hID, nil, nil)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("all len = %d, want 3", len(all))
	}
	// Newest first.
	if all[0].ID != c.ID || all[2].ID != a.ID {
		t.Errorf("order = [%d %d %d], want newest first", all[0].ID, all[1].ID, all[2].ID)
	}
}

func TestTaskListFilterByAssignee(t *testing.T) {
	ts, hID, mID := setupTaskTestDB(t)

	ts.Create(hID, "Mine", "", "general", 0, &mID, mID, nil)
	ts.Create(hID, "Nobody's", "", "general", 0, nil, mID, nil)

	mine, err := ts.List(hID, nil, &mID)
	if err != nil {
		t.Fatalf("list by assignee: %v", err)
	}
	if len(mine) != 1 || mine[0].Title != "Mine" {
		t.Fatalf("mine = %+v, want single assigned task", mine)
	}
}

func TestTaskSetStatusCompletionPairing(t *testing.T) {
	ts, hID, mID := setupTaskTestDB(t)

	task, _ := ts.Create(hID, "Dishes", "", "kitchen", 5, nil, mID, nil)

	done, err := ts.SetStatus(task.ID, model.StatusCompleted)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if done.Status != model.StatusCompleted {
		t.Errorf("status = %q, want completed", done.Status)
	}
	if done.CompletedAt == nil {
		t.Fatal("expected completed_at set with completed status")
	}

	reverted, err := ts.SetStatus(task.ID, model.StatusPending)
	if err != nil {
		t.Fatalf("revert: %v", err)
	}
	if reverted.Status != model.StatusPending {
		t.Errorf("status = %q, want pending", reverted.Status)
	}
	if reverted.CompletedAt != nil {
		t.Error("expected completed_at cleared with non-completed status")
	}
}

func TestTaskDelete(t *testing.T) {
	ts, hID, mID := setupTaskTestDB(t)

	task, _ := ts.Create(hID, "Dishes", "", "kitchen", 5, nil, mID, nil)

	if err := ts.Delete(task.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, err := ts.GetByID(task.ID)
	if err != nil {
		t.Fatalf("get deleted: %v", err)
	}
	if got != nil {
		t.Error("expected nil for deleted task")
	}
}

func TestTaskLeaderboard(t *testing.T) {
	ts, hID, mID := setupTaskTestDB(t)

	a, _ := ts.Create(hID, "Dishes", "", "kitchen", 5, &mID, mID, nil)
	b, _ := ts.Create(hID, "Lawn", "", "yard", 20, &mID, mID, nil)
	ts.Create(hID, "Unfinished", "", "general", 50, &mID, mID, nil)

	ts.SetStatus(a.ID, model.StatusCompleted)
	ts.SetStatus(b.ID, model.StatusCompleted)

	entries, err := ts.Leaderboard(hID)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries len = %d, want 1", len(entries))
	}
	if entries[0].Points != 25 {
		t.Errorf("points = %d, want 25", entries[0].Points)
	}
	if entries[0].Completed != 2 {
		t.Errorf("completed = %d, want 2", entries[0].Completed)
	}
}
