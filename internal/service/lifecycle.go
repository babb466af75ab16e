// Package service holds the application's task lifecycle, role-scoped
// query, dashboard aggregation and credential flows. Services accept small
// store interfaces so the logic is independent of the MongoDB layer that
// implements them.
package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/cleancity/waste-collection/internal/model"
	"github.com/cleancity/waste-collection/internal/queue"
	"github.com/cleancity/waste-collection/internal/repository"
)

// ErrInvalidStatus is returned when a transition request carries a status
// label that is neither an internal state nor a known alias.
var ErrInvalidStatus = errors.New("invalid status")

// LifecycleTaskStore is the slice of the task repository the lifecycle
// service needs.
type LifecycleTaskStore interface {
	Create(ctx context.Context, t model.Task) (model.Task, error)
	GetByID(ctx context.Context, id string) (model.Task, error)
	Save(ctx context.Context, t model.Task) (model.Task, error)
	Delete(ctx context.Context, id string) error
}

// PointsStore is the slice of the user repository used for awards.
type PointsStore interface {
	GetByID(ctx context.Context, id string) (model.User, error)
	AddPoints(ctx context.Context, id string, delta int) error
}

// EventPublisher pushes task status events to the broker. Publishing is
// best-effort: the lifecycle never fails a request because the broker is
// down.
type EventPublisher interface {
	PublishTaskStatus(ctx context.Context, ev queue.TaskStatusEvent) error
}

// Lifecycle owns every mutation of the task store: report creation, status
// transitions with the point-award rule, and deletion.
type Lifecycle struct {
	tasks  LifecycleTaskStore
	users  PointsStore
	events EventPublisher // may be nil when no broker is configured
}

func NewLifecycle(tasks LifecycleTaskStore, users PointsStore, events EventPublisher) *Lifecycle {
	if tasks == nil || users == nil {
		panic("nil store passed to NewLifecycle")
	}
	return &Lifecycle{tasks: tasks, users: users, events: events}
}

// ReportInput carries a citizen's waste report submission.
type ReportInput struct {
	WasteType   string
	Amount      string
	Location    string
	Coordinates *model.Coordinates
	CitizenID   string
	ImageURL    string
}

// Report creates a pending task dated today. The image falls back to the
// placeholder when the report arrives without a photo.
func (s *Lifecycle) Report(ctx context.Context, in ReportInput) (model.Task, error) {
	img := in.ImageURL
	if img == "" {
		img = model.DefaultTaskImage
	}
	return s.tasks.Create(ctx, model.Task{
		WasteType:   in.WasteType,
		Amount:      in.Amount,
		Location:    in.Location,
		Coordinates: in.Coordinates,
		Date:        time.Now().UTC().Format("2006-01-02"),
		Status:      model.StatusPending,
		CitizenID:   in.CitizenID,
		ImageURL:    img,
	})
}

// TransitionInput carries a requested status change. CollectorID and
// ProofImage are attached to the task only when non-empty.
type TransitionInput struct {
	Status      string
	CollectorID string
	ProofImage  string
}

// Transition loads the task, normalizes the requested status, applies the
// change and persists it. Points are awarded if and only if the new status
// is verified and the previous one was not: the guard keeps a repeated
// verify call from paying twice. The task write and the award are two
// separate single-document updates; a failure between them leaves the task
// verified with no points, which the store cannot prevent without
// multi-document transactions.
func (s *Lifecycle) Transition(ctx context.Context, taskID string, in TransitionInput) (model.Task, error) {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return model.Task{}, err
	}

	prev := task.Status
	status := model.NormalizeStatus(in.Status)
	if !model.ValidStatus(status) {
		return model.Task{}, ErrInvalidStatus
	}
	task.Status = status
	if in.CollectorID != "" {
		task.CollectorID = in.CollectorID
	}
	if in.ProofImage != "" {
		task.ProofImage = in.ProofImage
	}

	task, err = s.tasks.Save(ctx, task)
	if err != nil {
		return model.Task{}, err
	}

	awarded := 0
	if status == model.StatusVerified && prev != model.StatusVerified {
		awarded = s.awardPoints(ctx, task)
	}

	if s.events != nil && status != prev {
		ev := queue.TaskStatusEvent{
			TaskID:         task.ID.Hex(),
			CitizenID:      task.CitizenID,
			CollectorID:    task.CollectorID,
			WasteType:      task.WasteType,
			Location:       task.Location,
			Status:         status,
			PreviousStatus: prev,
			PointsAwarded:  awarded,
			OccurredAt:     time.Now().UTC().Format(time.RFC3339),
		}
		if err := s.events.PublishTaskStatus(ctx, ev); err != nil {
			log.Printf("lifecycle: publish task status event failed: %v", err)
		}
	}
	return task, nil
}

// awardPoints credits the owning citizen per the waste category table. A
// missing citizen record skips the award silently; the verification itself
// still stands.
func (s *Lifecycle) awardPoints(ctx context.Context, task model.Task) int {
	citizen, err := s.users.GetByID(ctx, task.CitizenID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Printf("lifecycle: citizen %s missing at verification of task %s, award skipped", task.CitizenID, task.ID.Hex())
			return 0
		}
		log.Printf("lifecycle: load citizen %s failed: %v", task.CitizenID, err)
		return 0
	}
	pts := model.PointsFor(task.WasteType)
	if err := s.users.AddPoints(ctx, citizen.ID.Hex(), pts); err != nil {
		log.Printf("lifecycle: award %d points to citizen %s failed: %v", pts, task.CitizenID, err)
		return 0
	}
	return pts
}

// Delete removes a single task. Bulk deletion is the client issuing one
// call per id; a failed delete does not undo the others.
func (s *Lifecycle) Delete(ctx context.Context, taskID string) error {
	return s.tasks.Delete(ctx, taskID)
}
