package model

import "time"

// Task status values. A task is completed iff CompletedAt is set; the
// store flips both fields in a single write.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

type Task struct {
	ID          int64      `json:"id"`
	HouseholdID int64      `json:"household_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	Status      string     `json:"status"`
	Points      int        `json:"points"`
	AssignedTo  *int64     `json:"assigned_to"`
	CreatedBy   int64      `json:"created_by"`
	DueDate     *time.Time `json:"due_date"`
	CompletedAt *time.Time `json:"completed_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// PointsEntry is one leaderboard row: completed-task points per member.
type PointsEntry struct {
	MemberID    int64  `json:"member_id"`
	DisplayName string `json:"display_name"`
	Points      int    `json:"points"`
	Completed   int    `json:"completed"`
}
