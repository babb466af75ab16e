package service

import (
	"context"

	"github.com/cleancity/waste-collection/internal/model"
)

// TaskLister is the slice of the task repository the query service needs.
// Every listing is newest-created-first; the store owns the ordering.
type TaskLister interface {
	ListByCitizen(ctx context.Context, citizenID string) ([]model.Task, error)
	ListForCollector(ctx context.Context, collectorID string) ([]model.Task, error)
	ListAll(ctx context.Context) ([]model.Task, error)
}

// Query scopes task listings by role: citizens see their own reports,
// collectors see the pending queue plus their assigned work, admins see
// everything. No pagination; the full scoped set is returned per call.
type Query struct {
	tasks TaskLister
}

func NewQuery(tasks TaskLister) *Query {
	if tasks == nil {
		panic("nil store passed to NewQuery")
	}
	return &Query{tasks: tasks}
}

// ListTasks returns the task set visible to the given role and acting
// user. A role outside the three known ones falls through to the full
// listing, matching the admin view.
func (s *Query) ListTasks(ctx context.Context, role, userID string) ([]model.Task, error) {
	switch {
	case role == model.RoleCitizen && userID != "":
		return s.tasks.ListByCitizen(ctx, userID)
	case role == model.RoleCollector:
		return s.tasks.ListForCollector(ctx, userID)
	default:
		return s.tasks.ListAll(ctx)
	}
}
