package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ivanoskov/wallet/internal/log"
	"github.com/ivanoskov/wallet/internal/model"
	"github.com/ivanoskov/wallet/internal/repository"
)

var (
	ErrTaskTitle       = errors.New("title is required")
	ErrTaskDescription = errors.New("description is required")
)

// TaskInput is the task form. A nil Amount means nothing was spent.
type TaskInput struct {
	Title       string
	Description string
	Amount      *float64
	Category    string
}

// TaskTracker manages the user's to-do list.
type TaskTracker struct {
	repo   repository.TaskStore
	now    func() time.Time
	logger *log.Logger
}

func NewTaskTracker(repo repository.TaskStore, now func() time.Time, logger *log.Logger) *TaskTracker {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &TaskTracker{repo: repo, now: now, logger: logger.WithComponent(log.ComponentTasks)}
}

// apply validates in and copies it onto task.
func (t *TaskTracker) apply(task *model.Task, in TaskInput) error {
	title := strings.TrimSpace(in.Title)
	description := strings.TrimSpace(in.Description)
	if title == "" {
		return ErrTaskTitle
	}
	if description == "" {
		return ErrTaskDescription
	}
	task.Title = title
	task.Description = description
	task.Category = strings.TrimSpace(in.Category)

	if in.Amount == nil {
		task.Amount = nil
		task.SpentAt = ""
		return nil
	}
	if !validAmount(*in.Amount) {
		return ErrInvalidAmount
	}
	amount := *in.Amount
	task.Amount = &amount
	task.SpentAt = model.Timestamp(t.now())
	return nil
}

func (t *TaskTracker) AddTask(ctx context.Context, userID string, in TaskInput) (*model.Task, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	task := &model.Task{UserID: userID}
	if err := t.apply(task, in); err != nil {
		return nil, err
	}
	if err := t.repo.CreateTask(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	t.logger.InfoContext(ctx, "task added", log.FieldOperation, log.OpCreate, log.FieldUserID, userID, log.FieldRecordID, task.ID)
	return task, nil
}

// UpdateTask replaces the editable fields. Completion is left unchanged.
func (t *TaskTracker) UpdateTask(ctx context.Context, userID, id string, in TaskInput) (*model.Task, error) {
	task, err := t.GetTask(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := t.apply(task, in); err != nil {
		return nil, err
	}
	if err := t.repo.UpdateTask(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	return task, nil
}

func (t *TaskTracker) GetTask(ctx context.Context, userID, id string) (*model.Task, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	task, err := t.repo.GetTask(ctx, id, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return task, nil
}

// ListTasks returns every task, newest first.
func (t *TaskTracker) ListTasks(ctx context.Context, userID string) ([]model.Task, error) {
	return t.list(ctx, userID, nil)
}

func (t *TaskTracker) ListTasksByStatus(ctx context.Context, userID string, complete bool) ([]model.Task, error) {
	return t.list(ctx, userID, &complete)
}

func (t *TaskTracker) list(ctx context.Context, userID string, complete *bool) ([]model.Task, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	tasks, err := t.repo.GetTasks(ctx, userID, complete)
	if err != nil {
		return nil, fmt.Errorf("failed to get tasks: %w", err)
	}
	return tasks, nil
}

func (t *TaskTracker) SetTaskComplete(ctx context.Context, userID, id string, complete bool) error {
	task, err := t.GetTask(ctx, userID, id)
	if err != nil {
		return err
	}
	if task.IsComplete == complete {
		return nil
	}
	task.IsComplete = complete
	if err := t.repo.UpdateTask(ctx, task); err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	return nil
}

func (t *TaskTracker) DeleteTask(ctx context.Context, userID, id string) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	if err := t.repo.DeleteTask(ctx, id, userID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	t.logger.InfoContext(ctx, "task deleted", log.FieldOperation, log.OpDelete, log.FieldUserID, userID, log.FieldRecordID, id)
	return nil
}
