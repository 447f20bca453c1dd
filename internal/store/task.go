package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/hearthkeep/hearthkeep/internal/model"
)

type TaskStore struct {
	db *sql.DB
}

func NewTaskStore(db *sql.DB) *TaskStore {
	return &TaskStore{db: db}
}

func scanTask(scanner interface{ Scan(...any) error }) (*model.Task, error) {
	var t model.Task
	var assignedTo sql.NullInt64
	var dueDate sql.NullTime
	var completedAt sql.NullTime

	err := scanner.Scan(
		&t.ID, &t.HouseholdID, &t.Title, &t.Description, &t.Category,
		&t.Status, &t.Points, &assignedTo, &t.CreatedBy,
		&dueDate, &completedAt, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if assignedTo.Valid {
		t.AssignedTo = &assignedTo.Int64
	}
	if dueDate.Valid {
		t.DueDate = &dueDate.Time
	}
	if completedAt.Valid {
		t.CompletedAt = &completedAt.Time
	}
	return &t, nil
}

const taskCols = `id, household_id, title, description, category, status, points, assigned_to, created_by, due_date, completed_at, created_at, updated_at`

func (s *TaskStore) Create(householdID int64, title, description, category string, points int, assignedTo *int64, createdBy int64, dueDate *time.Time) (*model.Task, error) {
	var aTo sql.NullInt64
	if assignedTo != nil {
		aTo = sql.NullInt64{Int64: *assignedTo, Valid: true}
	}
	var due sql.NullTime
	if dueDate != nil {
		due = sql.NullTime{Time: dueDate.UTC(), Valid: true}
	}

	result, err := s.db.Exec(
		`INSERT INTO tasks (household_id, title, description, category, points, assigned_to, created_by, due_date) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		householdID, title, description, category, points, aTo, createdBy, due,
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *TaskStore) GetByID(id int64) (*model.Task, error) {
	row := s.db.QueryRow(`SELECT `+taskCols+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

// List returns household tasks ordered newest first. statuses narrows by
// status when non-empty; assignedTo narrows by assignee when non-nil.
func (s *TaskStore) List(householdID int64, statuses []string, assignedTo *int64) ([]model.Task, error) {
	query := `SELECT ` + taskCols + ` FROM tasks WHERE household_id = ?`
	args := []any{householdID}

	if len(statuses) > 0 {
		query += ` AND status IN (?` + strings.Repeat(", ?", len(statuses)-1) + `)`
		for _, st := range statuses {
			args = append(args, st)
		}
	}
	if assignedTo != nil {
		query += ` AND assigned_to = ?`
		args = append(args, *assignedTo)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

func (s *TaskStore) Update(id int64, title, description, category string, points int, assignedTo *int64, dueDate *time.Time) (*model.Task, error) {
	var aTo sql.NullInt64
	if assignedTo != nil {
		aTo = sql.NullInt64{Int64: *assignedTo, Valid: true}
	}
	var due sql.NullTime
	if dueDate != nil {
		due = sql.NullTime{Time: dueDate.UTC(), Valid: true}
	}

	_, err := s.db.Exec(
		`UPDATE tasks SET title = ?, description = ?, category = ?, points = ?, assigned_to = ?, due_date = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		title, description, category, points, aTo, due, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	return s.GetByID(id)
}

// SetStatus writes status and completed_at in a single UPDATE so the pair
// can never be observed out of sync. completed_at is set exactly when the
// new status is completed.
func (s *TaskStore) SetStatus(id int64, status string) (*model.Task, error) {
	var completedAt sql.NullTime
	if status == model.StatusCompleted {
		completedAt = sql.NullTime{Time: time.Now().UTC(), Valid: true}
	}

	_, err := s.db.Exec(
		`UPDATE tasks SET status = ?, completed_at = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		status, completedAt, id,
	)
	if err != nil {
		return nil, fmt.Errorf("set task status: %w", err)
	}
	return s.GetByID(id)
}

func (s *TaskStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

// Leaderboard sums completed-task points per member, most points first.
func (s *TaskStore) Leaderboard(householdID int64) ([]model.PointsEntry, error) {
	rows, err := s.db.Query(
		`SELECT m.id, m.display_name,
		        COALESCE(SUM(t.points), 0) AS points,
		        COUNT(t.id) AS completed
		 FROM household_members m
		 LEFT JOIN tasks t ON t.assigned_to = m.id AND t.status = 'completed'
		 WHERE m.household_id = ?
		 GROUP BY m.id, m.display_name
		 ORDER BY points DESC, m.display_name ASC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []model.PointsEntry
	for rows.Next() {
		var e model.PointsEntry
		if err := rows.Scan(&e.MemberID, &e.DisplayName, &e.Points, &e.Completed); err != nil {
			return nil, fmt.Errorf("scan leaderboard entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
