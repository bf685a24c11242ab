package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tasktracker/internal/model"
	"tasktracker/internal/repository"
)

func newTestRepo(t *testing.T) *repository.TaskRepository {
	t.Helper()

	store := repository.NewStore(filepath.Join(t.TempDir(), "tasks.db"), zap.NewNop())
	_, err := store.Open(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return repository.NewTaskRepository(store)
}

func strPtr(s string) *string { return &s }

func TestTaskService_CreateTask_TrimsAndNullsEmptyFields(t *testing.T) {
	svc := NewTaskService(newTestRepo(t))

	task, err := svc.CreateTask(context.Background(), TaskInput{
		Name:        "  Water plants  ",
		Description: "   ",
		Timer:       " 30 ",
	})
	require.NoError(t, err)

	assert.Equal(t, "Water plants", task.Name)
	assert.Nil(t, task.Description)
	require.NotNil(t, task.Timer)
	assert.Equal(t, "30", *task.Timer)
	assert.Nil(t, task.TaskImage)
	assert.Equal(t, model.StatusInProgress, task.Status)
}

func TestTaskService_CreateTask_Validation(t *testing.T) {
	tests := []struct {
		name  string
		input TaskInput
		field string
	}{
		{name: "blank name", input: TaskInput{Name: "   "}, field: "name"},
		{name: "letters in timer", input: TaskInput{Name: "a", Timer: "ten"}, field: "timer"},
		{name: "nan timer", input: TaskInput{Name: "a", Timer: "NaN"}, field: "timer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newTestRepo(t)
			svc := NewTaskService(repo)

			_, err := svc.CreateTask(context.Background(), tt.input)
			require.ErrorIs(t, err, repository.ErrValidation)

			var verr *repository.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)

			tasks, err := svc.ListTasks(context.Background())
			require.NoError(t, err)
			assert.Empty(t, tasks)
		})
	}
}

func TestTaskService_CreateTask_AcceptsDecimalTimer(t *testing.T) {
	svc := NewTaskService(newTestRepo(t))

	task, err := svc.CreateTask(context.Background(), TaskInput{Name: "a", Timer: "1.5"})
	require.NoError(t, err)
	assert.Equal(t, "1.5", *task.Timer)
}

func TestTaskService_UpdateTask(t *testing.T) {
	ctx := context.Background()
	svc := NewTaskService(newTestRepo(t))

	task, err := svc.CreateTask(ctx, TaskInput{Name: "a", Description: "old", TaskImage: "https://example.com/a.png"})
	require.NoError(t, err)

	updated, err := svc.UpdateTask(ctx, task.ID, TaskEdit{
		Name:      "b",
		TaskImage: strPtr(""),
		Status:    model.StatusCompleted,
	})
	require.NoError(t, err)
	require.NotNil(t, updated)

	assert.Equal(t, "b", updated.Name)
	assert.Equal(t, "old", *updated.Description)
	assert.Nil(t, updated.TaskImage)
	assert.Equal(t, model.StatusCompleted, updated.Status)
	assert.NotNil(t, updated.CompletedAt)
}

func TestTaskService_UpdateTask_InvalidTimerLeavesTask(t *testing.T) {
	ctx := context.Background()
	svc := NewTaskService(newTestRepo(t))

	task, err := svc.CreateTask(ctx, TaskInput{Name: "a", Timer: "10"})
	require.NoError(t, err)

	_, err = svc.UpdateTask(ctx, task.ID, TaskEdit{Name: "b", Timer: strPtr("soon")})
	require.ErrorIs(t, err, repository.ErrValidation)

	got, err := svc.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "a", got.Name)
	assert.Equal(t, "10", *got.Timer)
}

func TestTaskService_MissingTask(t *testing.T) {
	ctx := context.Background()
	svc := NewTaskService(newTestRepo(t))

	got, err := svc.GetTask(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, got)

	updated, err := svc.UpdateTask(ctx, "missing", TaskEdit{Name: "x"})
	require.NoError(t, err)
	assert.Nil(t, updated)

	ok, err := svc.DeleteTask(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.SetTaskStatus(ctx, "missing", model.StatusCompleted)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestShareText(t *testing.T) {
	task := model.Task{Name: "Water plants", Description: strPtr("balcony"), Timer: strPtr("30")}
	assert.Equal(t, "Check out this task: Water plants\n\nbalcony\n\nTime: 30 seconds", ShareText(task))

	bare := model.Task{Name: "Call mom"}
	assert.Equal(t, "Check out this task: Call mom\n\n\n\nTime: No seconds", ShareText(bare))
}

func TestStatusSince(t *testing.T) {
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	completed := created.Add(48 * time.Hour)

	open := model.Task{Status: model.StatusInProgress, CreatedAt: created}
	assert.True(t, StatusSince(open).Equal(created))

	done := model.Task{Status: model.StatusCompleted, CreatedAt: created, CompletedAt: &completed}
	assert.True(t, StatusSince(done).Equal(completed))
}
