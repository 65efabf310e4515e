package board

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/argus-crm/argus/internal/directory"
	"github.com/argus-crm/argus/internal/lib/logger/sl"
	"github.com/argus-crm/argus/internal/metrics"
	"github.com/argus-crm/argus/internal/models"
	"github.com/argus-crm/argus/internal/repository"
	"github.com/argus-crm/argus/internal/viewstate"
	"github.com/argus-crm/argus/internal/visibility"
)

var (
	// ErrTaskNotFound is returned when a mutation targets a task id that is
	// not in the live snapshot.
	ErrTaskNotFound = errors.New("task not found")

	// ErrNotAuthorized is returned when the authorizer rejects a write.
	ErrNotAuthorized = errors.New("not authorized")
)

// Board ties the engine together: it loads consistent snapshots from the
// repositories, resolves views against them, and guards every task write
// with the same authorizer the read path uses.
type Board struct {
	log     *slog.Logger
	tasks   repository.TaskRepoIface
	teams   repository.TeamRepoIface
	staff   repository.StaffRepoIface
	metrics *metrics.Metrics
}

// Snapshot is one consistent in-memory picture of the organization and its
// tasks, with a resolver bound to it.
type Snapshot struct {
	Dir      *directory.Directory
	Resolver *visibility.Resolver
	Tasks    []models.Task
}

// NewBoard creates a Board service over the given repositories.
func NewBoard(
	log *slog.Logger,
	tasks repository.TaskRepoIface,
	teams repository.TeamRepoIface,
	staff repository.StaffRepoIface,
	mtr *metrics.Metrics,
) *Board {
	return &Board{log: log, tasks: tasks, teams: teams, staff: staff, metrics: mtr}
}

func (b *Board) initLogger(opn string) *slog.Logger {
	return b.log.With(sl.Op(opn))
}

// Snapshot loads teams, staff and tasks and builds a directory and resolver
// over them. Staff rows that fail identity normalization are dropped with a
// warning; they cannot carry visibility anyway.
func (b *Board) Snapshot(ctx context.Context) (*Snapshot, error) {
	const opn = "Board.Snapshot"
	log := b.initLogger(opn)

	teams, err := b.teams.ListTeams(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load teams: %w", err)
	}

	rawStaff, err := b.staff.ListStaff(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load staff: %w", err)
	}

	staff := make([]models.Viewer, 0, len(rawStaff))
	for _, person := range rawStaff {
		normalized, normErr := models.NormalizeViewer(models.RawViewer{
			ID:       person.ID,
			Role:     string(person.Role),
			TeamID:   person.TeamID,
			Location: person.Location,
		})
		if normErr != nil {
			log.WarnContext(ctx, "dropping staff record with invalid identity",
				"staff_id", person.ID, sl.Err(normErr))
			continue
		}
		staff = append(staff, normalized)
	}

	tasks, err := b.tasks.ListTasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}

	dir := directory.New(b.log, teams, staff)

	return &Snapshot{
		Dir:      dir,
		Resolver: visibility.NewResolver(b.log, dir, b.metrics),
		Tasks:    tasks,
	}, nil
}

// NewSession normalizes a raw identity and returns a view-state machine in
// its role-derived initial state, bound to a fresh snapshot's directory.
func (b *Board) NewSession(ctx context.Context, raw models.RawViewer) (*viewstate.Machine, error) {
	viewer, err := models.NormalizeViewer(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize viewer: %w", err)
	}

	snap, err := b.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	return viewstate.NewMachine(b.log, snap.Dir, b.metrics, viewer), nil
}

// View resolves the visible tasks for a viewer and state against a fresh
// snapshot. Named resolver failures pass through untouched so the caller
// can surface them; the task list is always fail-closed.
func (b *Board) View(ctx context.Context, viewer models.Viewer, state models.ViewState) (visibility.Result, error) {
	snap, err := b.Snapshot(ctx)
	if err != nil {
		return visibility.Result{Tasks: []models.Task{}}, err
	}

	return snap.Resolver.Resolve(viewer, state, snap.Tasks)
}

// CreateTask stamps ownership and team membership from the creating viewer
// and persists the task. The stamped team id is final; later filtering never
// rewrites it.
func (b *Board) CreateTask(ctx context.Context, viewer models.Viewer, raw models.RawTask) (models.Task, error) {
	const opn = "Board.CreateTask"
	log := b.initLogger(opn)

	raw.OwnerID = viewer.ID
	if viewer.Role != models.RoleDirector {
		raw.TeamID = viewer.TeamID
	}

	task, err := models.NormalizeTask(raw)
	if err != nil {
		return models.Task{}, fmt.Errorf("failed to normalize task: %w", err)
	}

	if err = b.tasks.SaveTask(ctx, task); err != nil {
		return models.Task{}, fmt.Errorf("failed to persist task: %w", err)
	}

	log.InfoContext(ctx, "task created", "task_id", task.ID, "owner_id", viewer.ID, "team_id", task.TeamID)

	return task, nil
}

// UpdateTask applies an edit after the authorizer approves it. Owner and
// stamped team are preserved from the stored record regardless of what the
// caller sent.
func (b *Board) UpdateTask(ctx context.Context, viewer models.Viewer, raw models.RawTask) (models.Task, error) {
	const opn = "Board.UpdateTask"
	log := b.initLogger(opn)

	snap, err := b.Snapshot(ctx)
	if err != nil {
		return models.Task{}, err
	}

	existing, ok := snap.findTask(raw.ID)
	if !ok {
		return models.Task{}, fmt.Errorf("%w: %q", ErrTaskNotFound, raw.ID)
	}

	if !snap.Resolver.CanEdit(viewer, existing) {
		log.WarnContext(ctx, "task edit denied", "task_id", raw.ID, "viewer_id", viewer.ID)
		return models.Task{}, fmt.Errorf("%w: viewer %q may not edit task %q", ErrNotAuthorized, viewer.ID, raw.ID)
	}

	raw.OwnerID = existing.OwnerID
	raw.TeamID = existing.TeamID

	task, err := models.NormalizeTask(raw)
	if err != nil {
		return models.Task{}, fmt.Errorf("failed to normalize task: %w", err)
	}

	if err = b.tasks.SaveTask(ctx, task); err != nil {
		return models.Task{}, fmt.Errorf("failed to persist task: %w", err)
	}

	return task, nil
}

// DeleteTask soft-deletes a task after the authorizer approves it.
func (b *Board) DeleteTask(ctx context.Context, viewer models.Viewer, taskID string) error {
	const opn = "Board.DeleteTask"
	log := b.initLogger(opn)

	snap, err := b.Snapshot(ctx)
	if err != nil {
		return err
	}

	existing, ok := snap.findTask(taskID)
	if !ok {
		return fmt.Errorf("%w: %q", ErrTaskNotFound, taskID)
	}

	if !snap.Resolver.CanDelete(viewer, existing) {
		log.WarnContext(ctx, "task delete denied", "task_id", taskID, "viewer_id", viewer.ID)
		return fmt.Errorf("%w: viewer %q may not delete task %q", ErrNotAuthorized, viewer.ID, taskID)
	}

	if err = b.tasks.SoftDeleteTask(ctx, taskID); err != nil {
		return fmt.Errorf("failed to soft-delete task: %w", err)
	}

	log.InfoContext(ctx, "task soft-deleted", "task_id", taskID, "viewer_id", viewer.ID)

	return nil
}

func (s *Snapshot) findTask(id string) (models.Task, bool) {
	for _, task := range s.Tasks {
		if task.ID == id {
			return task, true
		}
	}
	return models.Task{}, false
}
