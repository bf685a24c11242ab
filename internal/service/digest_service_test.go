package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tasktracker/internal/model"
)

func TestDigestService_Summary(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	tasks := NewTaskService(repo)

	first, err := tasks.CreateTask(ctx, TaskInput{Name: "First", Timer: "30"})
	require.NoError(t, err)
	_, err = tasks.CreateTask(ctx, TaskInput{Name: "Second"})
	require.NoError(t, err)
	done, err := tasks.CreateTask(ctx, TaskInput{Name: "Done already"})
	require.NoError(t, err)
	_, err = tasks.SetTaskStatus(ctx, done.ID, model.StatusCompleted)
	require.NoError(t, err)

	now := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
	text, err := NewDigestService(repo).Summary(ctx, now)
	require.NoError(t, err)

	assert.Contains(t, text, "2026-10-17")
	assert.Contains(t, text, "In progress (2)")
	assert.Contains(t, text, "First ⏱ 30s")
	assert.NotContains(t, text, "Done already")
	assert.Contains(t, text, "Completed: 1 of 3")
	assert.Less(t, strings.Index(text, "Second"), strings.Index(text, "First"), "newest first")
	assert.NotEmpty(t, first.ID)
}

func TestDigestService_SummaryEmpty(t *testing.T) {
	text, err := NewDigestService(newTestRepo(t)).Summary(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Contains(t, text, "nothing open")
	assert.Contains(t, text, "Completed: 0 of 0")
}
