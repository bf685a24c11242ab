package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tasktracker/internal/model"
	"tasktracker/internal/repository"
)

// DigestService builds the periodic summary of open tasks.
type DigestService struct {
	taskRepo *repository.TaskRepository
}

func NewDigestService(taskRepo *repository.TaskRepository) *DigestService {
	return &DigestService{taskRepo: taskRepo}
}

// Summary lists open tasks newest first and counts finished ones.
func (s *DigestService) Summary(ctx context.Context, now time.Time) (string, error) {
	tasks, err := s.taskRepo.List(ctx)
	if err != nil {
		return "", err
	}

	var open []model.Task
	completed := 0
	for _, task := range tasks {
		if task.IsCompleted() {
			completed++
			continue
		}
		open = append(open, task)
	}

	var builder strings.Builder
	builder.WriteString("📋 Task digest\n")
	builder.WriteString(fmt.Sprintf("🗓 %s\n\n", now.Format("2006-01-02")))

	builder.WriteString(fmt.Sprintf("🔥 In progress (%d)\n", len(open)))
	if len(open) == 0 {
		builder.WriteString("— nothing open\n")
	}
	for _, task := range open {
		builder.WriteString(fmt.Sprintf("• %s", strings.TrimSpace(task.Name)))
		if task.Timer != nil && *task.Timer != "" {
			builder.WriteString(fmt.Sprintf(" ⏱ %ss", *task.Timer))
		}
		builder.WriteString(fmt.Sprintf(" (since %s)\n", task.CreatedAt.In(now.Location()).Format("2006-01-02")))
	}

	builder.WriteString(fmt.Sprintf("\n✅ Completed: %d of %d", completed, len(tasks)))
	return builder.String(), nil
}
