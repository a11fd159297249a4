// models/task.go
package models

import "time"

type TaskStatus string

const (
	TaskOngoing   TaskStatus = "ongoing"
	TaskOnHold    TaskStatus = "on_hold"
	TaskCompleted TaskStatus = "completed"
	TaskOverdue   TaskStatus = "overdue"
)

type Task struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	ProjectID   uint       `json:"project_id" gorm:"not null;index"`
	Project     *Project   `json:"project,omitempty" gorm:"foreignKey:ProjectID"`
	Title       string     `json:"title" gorm:"not null;size:200;index"`
	Slug        string     `json:"slug" gorm:"uniqueIndex;not null;size:220"`
	Description string     `json:"description" gorm:"type:text"`
	DueDate     time.Time  `json:"due_date" gorm:"not null"`
	Status      TaskStatus `json:"status" gorm:"not null;default:'ongoing';size:20;index"`
	IsDeleted   bool       `json:"is_deleted" gorm:"default:false;index"`
	// DueNotifiedOn records the day a "due today" mail was already sent so a
	// sweep that runs more than once per day does not mail twice.
	DueNotifiedOn *time.Time `json:"-"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	AssignedTo []Contributor `json:"assigned_to,omitempty" gorm:"many2many:task_assignees;"`
}

func (Task) TableName() string {
	return "tasks"
}

// DeriveTaskStatus is the single source of truth for the overdue flip: a task
// past its due date that is not completed reads as overdue. Both the write
// path and the scheduler sweep go through it.
func DeriveTaskStatus(current TaskStatus, dueDate, today time.Time) TaskStatus {
	if current == TaskCompleted {
		return current
	}
	if DateOf(dueDate).Before(DateOf(today)) {
		return TaskOverdue
	}
	return current
}

// DateOf truncates a timestamp to its calendar day in UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
