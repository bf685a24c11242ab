package service

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"tasktracker/internal/model"
	"tasktracker/internal/repository"
)

// TaskInput represents data entered on the create form.
type TaskInput struct {
	Name        string
	Description string
	Timer       string
	TaskImage   string
}

// TaskEdit represents data entered on the edit form. A nil pointer leaves the
// field untouched; a pointer to an empty string clears it.
type TaskEdit struct {
	Name        string
	Description *string
	Timer       *string
	TaskImage   *string
	Status      model.TaskStatus
}

// TaskService wraps task-related business logic.
type TaskService struct {
	taskRepo *repository.TaskRepository
}

func NewTaskService(taskRepo *repository.TaskRepository) *TaskService {
	return &TaskService{taskRepo: taskRepo}
}

// CreateTask validates input and stores a new in-progress task.
func (s *TaskService) CreateTask(ctx context.Context, input TaskInput) (*model.Task, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, &repository.ValidationError{Field: "name", Message: "Please enter a task name"}
	}
	timer := strings.TrimSpace(input.Timer)
	if err := ValidateTimer(timer); err != nil {
		return nil, err
	}

	return s.taskRepo.Create(ctx, model.NewTask{
		Name:        name,
		Description: model.StringPtr(strings.TrimSpace(input.Description)),
		Timer:       model.StringPtr(timer),
		TaskImage:   model.StringPtr(strings.TrimSpace(input.TaskImage)),
	})
}

func (s *TaskService) ListTasks(ctx context.Context) ([]model.Task, error) {
	return s.taskRepo.List(ctx)
}

// GetTask returns nil when the task does not exist.
func (s *TaskService) GetTask(ctx context.Context, id string) (*model.Task, error) {
	return s.taskRepo.FindByID(ctx, id)
}

// UpdateTask applies an edit and returns the updated task, or nil if it no longer exists.
func (s *TaskService) UpdateTask(ctx context.Context, id string, edit TaskEdit) (*model.Task, error) {
	patch := model.TaskPatch{
		Name:   strings.TrimSpace(edit.Name),
		Status: edit.Status,
	}
	if edit.Description != nil {
		patch.Description = model.Set(model.StringPtr(strings.TrimSpace(*edit.Description)))
	}
	if edit.Timer != nil {
		timer := strings.TrimSpace(*edit.Timer)
		if err := ValidateTimer(timer); err != nil {
			return nil, err
		}
		patch.Timer = model.Set(model.StringPtr(timer))
	}
	if edit.TaskImage != nil {
		patch.TaskImage = model.Set(model.StringPtr(strings.TrimSpace(*edit.TaskImage)))
	}
	return s.taskRepo.Update(ctx, id, patch)
}

// DeleteTask reports false when the task was already gone.
func (s *TaskService) DeleteTask(ctx context.Context, id string) (bool, error) {
	return s.taskRepo.Delete(ctx, id)
}

// SetTaskStatus reports false when the task does not exist.
func (s *TaskService) SetTaskStatus(ctx context.Context, id string, status model.TaskStatus) (bool, error) {
	return s.taskRepo.SetStatus(ctx, id, status)
}

// ShareText renders a task as a message suitable for sharing.
func ShareText(task model.Task) string {
	description := ""
	if task.Description != nil {
		description = *task.Description
	}
	timer := "No"
	if task.Timer != nil && *task.Timer != "" {
		timer = *task.Timer
	}
	return fmt.Sprintf("Check out this task: %s\n\n%s\n\nTime: %s seconds", task.Name, description, timer)
}

// StatusSince returns the date shown next to a task's status: when it was
// completed for completed tasks, when it was created otherwise.
func StatusSince(task model.Task) time.Time {
	if task.IsCompleted() && task.CompletedAt != nil {
		return *task.CompletedAt
	}
	return task.CreatedAt
}

// ValidateTimer checks that a non-empty timer parses as a number of seconds.
func ValidateTimer(timer string) error {
	if timer == "" {
		return nil
	}
	if v, err := strconv.ParseFloat(timer, 64); err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return &repository.ValidationError{Field: "timer", Message: "Please enter a valid number for timer"}
	}
	return nil
}
