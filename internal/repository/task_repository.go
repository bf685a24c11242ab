package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"tasktracker/internal/model"
)

// errNoTask rolls back a write transaction whose target does not exist.
var errNoTask = errors.New("task not found")

// updatableColumns lists the columns a write may touch; id and created_at are never rewritten.
var updatableColumns = []string{"name", "description", "timer", "task_image", "status", "completed_at"}

// TaskRepository handles CRUD and status transitions for tasks.
// It keeps no state besides the store; every call reads from the database.
type TaskRepository struct {
	store *Store
	now   func() time.Time
}

func NewTaskRepository(store *Store) *TaskRepository {
	return &TaskRepository{store: store, now: time.Now}
}

// Create stores a new in-progress task and returns it.
func (r *TaskRepository) Create(ctx context.Context, input model.NewTask) (*model.Task, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, &ValidationError{Field: "name", Message: "name is required"}
	}

	db, err := r.store.DB()
	if err != nil {
		return nil, err
	}

	task := model.Task{
		ID:          uuid.NewString(),
		Name:        name,
		Description: input.Description,
		Timer:       input.Timer,
		TaskImage:   input.TaskImage,
		Status:      model.StatusInProgress,
		CreatedAt:   r.now().UTC(),
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&task).Error
	})
	if err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return &task, nil
}

// List returns every task, newest first. It returns an empty slice when there are none.
func (r *TaskRepository) List(ctx context.Context) ([]model.Task, error) {
	db, err := r.store.DB()
	if err != nil {
		return nil, err
	}

	tasks := make([]model.Task, 0)
	if err := db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// FindByID returns the task with id, or nil if there is none.
func (r *TaskRepository) FindByID(ctx context.Context, id string) (*model.Task, error) {
	db, err := r.store.DB()
	if err != nil {
		return nil, err
	}

	var task model.Task
	err = db.WithContext(ctx).Where("id = ?", id).First(&task).Error
	switch {
	case err == nil:
		return &task, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, nil
	default:
		return nil, fmt.Errorf("find task: %w", err)
	}
}

// Update applies patch to the task with id and returns the updated task,
// or nil if there is no such task.
func (r *TaskRepository) Update(ctx context.Context, id string, patch model.TaskPatch) (*model.Task, error) {
	if patch.Status != "" && !patch.Status.Valid() {
		return nil, invalidStatus(patch.Status)
	}

	var updated *model.Task
	err := r.write(ctx, id, func(task *model.Task) {
		if name := strings.TrimSpace(patch.Name); name != "" {
			task.Name = name
		}
		if v, ok := patch.Description.Get(); ok {
			task.Description = v
		}
		if v, ok := patch.Timer.Get(); ok {
			task.Timer = v
		}
		if v, ok := patch.TaskImage.Get(); ok {
			task.TaskImage = v
		}
		if patch.Status != "" {
			r.transition(task, patch.Status)
		}
		updated = task
	})
	if errors.Is(err, errNoTask) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	return updated, nil
}

// SetStatus moves the task with id to status. It reports false if there is no such task.
func (r *TaskRepository) SetStatus(ctx context.Context, id string, status model.TaskStatus) (bool, error) {
	if !status.Valid() {
		return false, invalidStatus(status)
	}

	err := r.write(ctx, id, func(task *model.Task) {
		r.transition(task, status)
	})
	if errors.Is(err, errNoTask) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("set task status: %w", err)
	}
	return true, nil
}

// Delete removes the task with id. It reports false if there is no such task.
func (r *TaskRepository) Delete(ctx context.Context, id string) (bool, error) {
	db, err := r.store.DB()
	if err != nil {
		return false, err
	}

	var deleted bool
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ?", id).Delete(&model.Task{})
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected > 0
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("delete task: %w", err)
	}
	return deleted, nil
}

// Count returns the number of tasks and how many of them are completed.
func (r *TaskRepository) Count(ctx context.Context) (total, completed int64, err error) {
	db, err := r.store.DB()
	if err != nil {
		return 0, 0, err
	}

	conn := db.WithContext(ctx)
	if err := conn.Model(&model.Task{}).Count(&total).Error; err != nil {
		return 0, 0, fmt.Errorf("count tasks: %w", err)
	}
	if err := conn.Model(&model.Task{}).Where("status = ?", model.StatusCompleted).Count(&completed).Error; err != nil {
		return 0, 0, fmt.Errorf("count completed tasks: %w", err)
	}
	return total, completed, nil
}

// write loads the task inside a transaction, lets apply mutate it and saves the result.
func (r *TaskRepository) write(ctx context.Context, id string, apply func(task *model.Task)) error {
	db, err := r.store.DB()
	if err != nil {
		return err
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var task model.Task
		if err := tx.Where("id = ?", id).First(&task).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errNoTask
			}
			return err
		}
		apply(&task)
		return tx.Model(&task).Select(updatableColumns).Updates(&task).Error
	})
}

// transition sets status and keeps completed_at in step with it.
func (r *TaskRepository) transition(task *model.Task, status model.TaskStatus) {
	task.Status = status
	switch status {
	case model.StatusCompleted:
		if task.CompletedAt == nil {
			now := r.now().UTC()
			task.CompletedAt = &now
		}
	case model.StatusInProgress:
		task.CompletedAt = nil
	}
}

func invalidStatus(status model.TaskStatus) error {
	return &ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", status)}
}
