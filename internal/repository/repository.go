package repository

import (
	"context"

	"github.com/argus-crm/argus/internal/metrics"
	"github.com/argus-crm/argus/internal/models"
)

// Repository implements the data access interfaces over a Database.
type Repository struct {
	db      Database
	metrics *metrics.Metrics
}

// TaskRepoIface is the task snapshot and mutation surface. ListTasks returns
// live (not soft-deleted) tasks in creation order; the engine never reads
// anything else.
type TaskRepoIface interface {
	ListTasks(ctx context.Context) ([]models.Task, error)
	SaveTask(ctx context.Context, task models.Task) error
	SoftDeleteTask(ctx context.Context, taskID string) error
}

// TeamRepoIface supplies the team snapshot, soft-deleted entries included:
// the directory needs them to tell "deleted" apart from "unknown".
type TeamRepoIface interface {
	ListTeams(ctx context.Context) ([]models.Team, error)
}

// StaffRepoIface supplies the staff snapshot used for rosters and locations.
type StaffRepoIface interface {
	ListStaff(ctx context.Context) ([]models.Viewer, error)
}

func NewTaskRepository(db Database, mtr *metrics.Metrics) TaskRepoIface {
	return &Repository{db: db, metrics: mtr}
}

func NewTeamRepository(db Database, mtr *metrics.Metrics) TeamRepoIface {
	return &Repository{db: db, metrics: mtr}
}

func NewStaffRepository(db Database, mtr *metrics.Metrics) StaffRepoIface {
	return &Repository{db: db, metrics: mtr}
}
