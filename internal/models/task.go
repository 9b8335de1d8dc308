package models

import "time"

// DIY task statuses.
const (
	TaskStatusTodo       = "todo"
	TaskStatusInProgress = "in_progress"
	TaskStatusDone       = "done"
)

// DIY task priorities.
const (
	TaskPriorityLow    = "low"
	TaskPriorityNormal = "normal"
	TaskPriorityHigh   = "high"
)

// IsValidTaskStatus checks if a status is valid for a DIY task.
func IsValidTaskStatus(status string) bool {
	switch status {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusDone:
		return true
	default:
		return false
	}
}

// IsValidTaskPriority checks if a priority is valid for a DIY task.
func IsValidTaskPriority(priority string) bool {
	switch priority {
	case TaskPriorityLow, TaskPriorityNormal, TaskPriorityHigh:
		return true
	default:
		return false
	}
}

// DIYTask is a self-service job the user plans to do on a car,
// typically created from a suggestion's DIY tip.
type DIYTask struct {
	ID            string    `bson:"_id,omitempty" json:"id"`
	OwnerID       string    `bson:"owner_id" json:"-"`
	CarID         string    `bson:"car_id" json:"carId"`
	Title         string    `bson:"title" json:"title"`
	Status        string    `bson:"status" json:"status"`
	Priority      string    `bson:"priority" json:"priority"`
	EstimatedCost *float64  `bson:"estimated_cost,omitempty" json:"estimatedCost,omitempty"`
	Notes         string    `bson:"notes,omitempty" json:"notes,omitempty"`
	ScheduledDate string    `bson:"scheduled_date,omitempty" json:"scheduledDate,omitempty"` // YYYY-MM-DD
	CreatedAt     time.Time `bson:"created_at" json:"created_at"`
}
