package visibility

import "github.com/argus-crm/argus/internal/models"

// CanEdit reports whether the viewer may modify the task: directors, the
// leader of the task's team, the owner, and explicit assignees. It shares
// the participant test with the personal view so read visibility and write
// authorization cannot drift apart.
func (r *Resolver) CanEdit(viewer models.Viewer, task models.Task) bool {
	if viewer.Role == models.RoleDirector {
		return true
	}
	if r.leadsTaskTeam(viewer, task) {
		return true
	}
	return task.IsParticipant(viewer.ID)
}

// CanDelete reports whether the viewer may delete the task. Narrower than
// CanEdit: an assignee who is not the owner may update but not remove the
// task.
func (r *Resolver) CanDelete(viewer models.Viewer, task models.Task) bool {
	if viewer.Role == models.RoleDirector {
		return true
	}
	if r.leadsTaskTeam(viewer, task) {
		return true
	}
	return task.OwnerID == viewer.ID
}

// leadsTaskTeam checks leadership through the directory first, and falls
// back to the viewer's own membership record so duplicate-leader data never
// locks a legitimate leader out of their own team.
func (r *Resolver) leadsTaskTeam(viewer models.Viewer, task models.Task) bool {
	if viewer.Role != models.RoleTeamLeader || task.TeamID == "" {
		return false
	}

	if team, err := r.dir.TeamByID(task.TeamID); err == nil && team.LeaderID == viewer.ID {
		return true
	}

	return viewer.TeamID == task.TeamID
}
