package model

import "time"

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	StatusInProgress TaskStatus = "inprogress"
	StatusCompleted  TaskStatus = "completed"
)

// Valid reports whether s is one of the known statuses.
func (s TaskStatus) Valid() bool {
	return s == StatusInProgress || s == StatusCompleted
}

// Task represents a single to-do item.
type Task struct {
	ID          string     `gorm:"primaryKey;size:36"`
	Name        string     `gorm:"not null"`
	Description *string
	Timer       *string
	TaskImage   *string
	Status      TaskStatus `gorm:"size:16;not null;default:inprogress"`
	CreatedAt   time.Time  `gorm:"index;autoCreateTime:false"`
	CompletedAt *time.Time
}

// TableName keeps the table name stable across renames of the Go type.
func (Task) TableName() string {
	return "tasks"
}

// IsCompleted reports whether the task is in the completed state.
func (t Task) IsCompleted() bool {
	return t.Status == StatusCompleted
}

// NewTask carries the fields accepted when creating a task.
// Status is not part of it: new tasks always start in progress.
type NewTask struct {
	Name        string
	Description *string
	Timer       *string
	TaskImage   *string
}

// TaskPatch describes a partial update. Name and Status are kept when empty;
// the optional fields change only when explicitly set, and setting nil clears them.
type TaskPatch struct {
	Name        string
	Description Field[*string]
	Timer       Field[*string]
	TaskImage   Field[*string]
	Status      TaskStatus
}

// Field is a value that may or may not have been provided.
// The zero Field means "not provided".
type Field[T any] struct {
	value T
	set   bool
}

// Set returns a provided Field holding v.
func Set[T any](v T) Field[T] {
	return Field[T]{value: v, set: true}
}

// Get returns the value and whether it was provided.
func (f Field[T]) Get() (T, bool) {
	return f.value, f.set
}

// StringPtr returns nil for an empty string and &s otherwise.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
