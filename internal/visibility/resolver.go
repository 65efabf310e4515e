package visibility

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/argus-crm/argus/internal/directory"
	"github.com/argus-crm/argus/internal/lib/logger/sl"
	"github.com/argus-crm/argus/internal/metrics"
	"github.com/argus-crm/argus/internal/models"
	"github.com/argus-crm/argus/internal/viewstate"
)

// ErrUnknownTeam is returned when the selected team does not resolve in the
// directory. The result is then empty, never the unfiltered set.
var ErrUnknownTeam = errors.New("unknown team")

// Result is a resolution outcome: the visible subset in input order plus a
// count of malformed records dropped on the way.
type Result struct {
	Tasks    []models.Task
	Rejected int
}

// Resolver computes the visible task subset for a viewer and view state. It
// is pure over the snapshot passed in: no caching, no I/O, safe to call
// concurrently for different viewers. Callers re-invoke it whenever the task
// set, the identity, or the view state changes.
type Resolver struct {
	log     *slog.Logger
	dir     *directory.Directory
	metrics *metrics.Metrics
}

// NewResolver builds a resolver over a directory snapshot.
func NewResolver(log *slog.Logger, dir *directory.Directory, mtr *metrics.Metrics) *Resolver {
	return &Resolver{log: log, dir: dir, metrics: mtr}
}

// Resolve returns the tasks the viewer may see under the given state.
// Malformed individual tasks are dropped and counted, never fatal; every
// named failure comes back with an empty list. Output order follows input
// order, so identical inputs yield identical results.
func (r *Resolver) Resolve(viewer models.Viewer, state models.ViewState, tasks []models.Task) (Result, error) {
	startTime := time.Now()
	defer func() {
		r.metrics.ResolveDuration.WithLabelValues(string(state.Level)).Observe(time.Since(startTime).Seconds())
	}()

	candidates, rejected := r.screen(tasks)
	result := Result{Tasks: []models.Task{}, Rejected: rejected}

	var visible func(models.Task) bool

	switch state.Level {
	case models.LevelPersonal:
		visible = func(t models.Task) bool { return t.IsParticipant(viewer.ID) }

	case models.LevelTeam:
		teamID, err := r.scopedTeamID(viewer, state)
		if err != nil {
			return result, err
		}
		if teamID == "" {
			// empty-until-chosen for directors
			return result, nil
		}
		visible = func(t models.Task) bool { return r.visibleInTeam(viewer, teamID, t) }

	case models.LevelIndividualMember:
		if viewer.Role != models.RoleDirector {
			r.log.Warn("individual-member view requested by non-director", "viewer_id", viewer.ID)
			return result, nil
		}
		if state.SelectedTeamID == "" || state.SelectedMemberID == "" {
			return result, nil
		}
		if _, err := r.dir.TeamByID(state.SelectedTeamID); err != nil {
			return result, fmt.Errorf("%w: %q", ErrUnknownTeam, state.SelectedTeamID)
		}
		visible = func(t models.Task) bool {
			return t.TeamID == state.SelectedTeamID && t.IsParticipant(state.SelectedMemberID)
		}

	case models.LevelDepartment:
		visible = func(t models.Task) bool { return r.visibleInDepartment(viewer, t) }

	default:
		r.log.Warn("unknown view level, failing closed", "level", string(state.Level))
		return result, nil
	}

	for _, task := range candidates {
		if visible(task) {
			result.Tasks = append(result.Tasks, task)
		}
	}

	r.metrics.TasksVisible.WithLabelValues(string(state.Level)).Observe(float64(len(result.Tasks)))

	return result, nil
}

// screen drops tasks that fail the attribution invariant so one decayed row
// never blocks the whole view.
func (r *Resolver) screen(tasks []models.Task) ([]models.Task, int) {
	candidates := make([]models.Task, 0, len(tasks))
	rejected := 0

	for _, task := range tasks {
		if err := task.Validate(); err != nil {
			rejected++
			r.metrics.TasksRejected.Inc()
			r.log.Debug("dropping malformed task record", "task_id", task.ID, sl.Err(err))
			continue
		}
		candidates = append(candidates, task)
	}

	return candidates, rejected
}

// scopedTeamID returns the team the team view is scoped to. Directors scope
// to their explicit selection; an empty selection means "nothing to show yet",
// and a selection the directory does not know yields ErrUnknownTeam. Everyone
// else scopes to their own team through the same check the state machine uses
// on entry, recomputed here on every call so a role change, a team change or a
// soft delete can never leave a stale scope behind; a missing, unknown or
// deleted team yields viewstate.ErrNoTeamAssigned.
func (r *Resolver) scopedTeamID(viewer models.Viewer, state models.ViewState) (string, error) {
	if viewer.Role == models.RoleDirector {
		teamID := state.SelectedTeamID
		if teamID == "" {
			return "", nil
		}

		if _, err := r.dir.TeamByID(teamID); err != nil {
			return "", fmt.Errorf("%w: %q", ErrUnknownTeam, teamID)
		}

		return teamID, nil
	}

	return viewstate.AutoSelectedTeamID(viewer, r.dir)
}

// visibleInTeam applies the team-view rules. The task's stamped team id is
// authoritative; a task with no team never surfaces here, even to its
// owner's team leader. Directors and team leaders see the whole team,
// employees see their own tasks plus teammates' tasks explicitly shared
// with the team.
func (r *Resolver) visibleInTeam(viewer models.Viewer, teamID string, task models.Task) bool {
	if task.TeamID == "" || task.TeamID != teamID {
		return false
	}

	switch viewer.Role {
	case models.RoleDirector, models.RoleTeamLeader:
		return true
	case models.RoleEmployee:
		return task.IsParticipant(viewer.ID) || task.SharedWithTeam
	default:
		return false
	}
}

// visibleInDepartment applies the department-view rules: department-wide
// tasks only, and for non-directors only those anchored to the viewer's
// location through the creator or an assignee. Unknown participants carry
// no location and never widen visibility.
func (r *Resolver) visibleInDepartment(viewer models.Viewer, task models.Task) bool {
	if !task.DepartmentWide || task.TeamID == "" {
		return false
	}

	if viewer.Role == models.RoleDirector {
		return true
	}

	if viewer.Location == "" {
		return false
	}

	participants := append([]string{task.OwnerID, task.PrimaryAssigneeID}, task.ExtraAssigneeIDs...)
	for _, id := range participants {
		if id != "" && r.dir.LocationOf(id) == viewer.Location {
			return true
		}
	}

	return false
}
