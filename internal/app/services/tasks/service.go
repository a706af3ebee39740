// Package tasks implements task management and emits the task lifecycle
// events the notification engine fans out.
package tasks

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	svcerr "github.com/Integral-ind/integral-backend/internal/errors"

	"github.com/Integral-ind/integral-backend/internal/app/domain/notification"
	"github.com/Integral-ind/integral-backend/internal/app/domain/task"
	"github.com/Integral-ind/integral-backend/internal/app/storage"
	"github.com/Integral-ind/integral-backend/pkg/logger"
)

// Notifier receives domain events for fan-out.
type Notifier interface {
	Notify(ctx context.Context, ev notification.Event) (notification.Receipt, error)
}

// Service manages tasks.
type Service struct {
	store    storage.TaskStore
	notifier Notifier
	log      *logger.Logger

	mu          sync.Mutex
	dueNotified map[string]bool
}

// New creates a task Service. notifier may be nil in tools that only read.
func New(store storage.TaskStore, notifier Notifier, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("tasks")
	}
	return &Service{
		store:       store,
		notifier:    notifier,
		log:         log,
		dueNotified: map[string]bool{},
	}
}

// Create validates and stores a new task. Assigning someone else notifies
// them.
func (s *Service) Create(ctx context.Context, t task.Task) (task.Task, error) {
	if strings.TrimSpace(t.Title) == "" {
		return task.Task{}, svcerr.BadRequest("title is required")
	}
	if t.OwnerID == "" {
		return task.Task{}, svcerr.BadRequest("owner is required")
	}
	if t.Status == "" {
		t.Status = task.StatusTodo
	}
	if !t.Status.Valid() {
		return task.Task{}, svcerr.BadRequest("unknown status " + string(t.Status))
	}

	created, err := s.store.CreateTask(ctx, t)
	if err != nil {
		return task.Task{}, err
	}

	if created.AssigneeID != "" && created.AssigneeID != created.OwnerID {
		s.emit(ctx, notification.TypeTaskAssigned, created.OwnerID, []string{created.AssigneeID}, map[string]any{
			"task_id":    created.ID,
			"task_title": created.Title,
		})
	}
	return created, nil
}

// Update applies changes on behalf of actorID. Completing a task notifies
// the other party; reassigning notifies the new assignee.
func (s *Service) Update(ctx context.Context, actorID string, t task.Task) (task.Task, error) {
	if !t.Status.Valid() {
		return task.Task{}, svcerr.BadRequest("unknown status " + string(t.Status))
	}

	prev, err := s.store.GetTask(ctx, t.ID)
	if err != nil {
		return task.Task{}, err
	}

	if t.Status == task.StatusDone && prev.Status != task.StatusDone {
		now := time.Now().UTC()
		t.CompletedAt = &now
	}

	updated, err := s.store.UpdateTask(ctx, t)
	if err != nil {
		return task.Task{}, err
	}

	if updated.Status == task.StatusDone && prev.Status != task.StatusDone {
		s.emit(ctx, notification.TypeTaskCompleted, actorID,
			[]string{updated.OwnerID, updated.AssigneeID}, map[string]any{
				"task_id":    updated.ID,
				"task_title": updated.Title,
			})
	}
	if updated.AssigneeID != "" && updated.AssigneeID != prev.AssigneeID {
		s.emit(ctx, notification.TypeTaskAssigned, actorID, []string{updated.AssigneeID}, map[string]any{
			"task_id":    updated.ID,
			"task_title": updated.Title,
		})
	}
	return updated, nil
}

// Get returns one task.
func (s *Service) Get(ctx context.Context, id string) (task.Task, error) {
	return s.store.GetTask(ctx, id)
}

// List returns the user's tasks.
func (s *Service) List(ctx context.Context, userID string) ([]task.Task, error) {
	return s.store.ListTasks(ctx, userID)
}

// Delete removes a task.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.DeleteTask(ctx, id)
}

// ScanDueSoon notifies assignees about tasks due inside the window. Each
// task is only announced once per process lifetime; the push tag keeps
// restarts from stacking duplicates on devices.
func (s *Service) ScanDueSoon(ctx context.Context, now time.Time, window time.Duration) (int, error) {
	due, err := s.store.ListTasksDueBetween(ctx, now, now.Add(window))
	if err != nil {
		return 0, err
	}

	notified := 0
	for _, t := range due {
		if t.Status == task.StatusDone || t.DueDate == nil {
			continue
		}
		s.mu.Lock()
		seen := s.dueNotified[t.ID]
		if !seen {
			s.dueNotified[t.ID] = true
		}
		s.mu.Unlock()
		if seen {
			continue
		}

		recipient := t.AssigneeID
		if recipient == "" {
			recipient = t.OwnerID
		}
		s.emit(ctx, notification.TypeTaskDueSoon, "", []string{recipient}, map[string]any{
			"task_id":    t.ID,
			"task_title": t.Title,
			"due_date":   t.DueDate.Format(time.RFC3339),
		})
		notified++
	}
	return notified, nil
}

func (s *Service) emit(ctx context.Context, typ notification.Type, actorID string, recipients []string, data map[string]any) {
	if s.notifier == nil {
		return
	}
	raw, err := json.Marshal(data)
	if err != nil {
		s.log.WithError(err).Error("marshal event data")
		return
	}
	_, err = s.notifier.Notify(ctx, notification.Event{
		Type:       typ,
		ActorID:    actorID,
		Recipients: recipients,
		Data:       raw,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		s.log.WithError(err).WithField("type", string(typ)).Warn("notify failed")
	}
}
