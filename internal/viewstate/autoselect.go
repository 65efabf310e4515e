package viewstate

import (
	"errors"
	"fmt"

	"github.com/argus-crm/argus/internal/directory"
	"github.com/argus-crm/argus/internal/models"
)

// ErrNoTeamAssigned means a non-director viewer has no live team to scope
// their view to. The caller shows an empty view with an explanation, never
// a fallback team.
var ErrNoTeamAssigned = errors.New("no team assigned")

// AutoSelectedTeamID derives the implicit team selection for a viewer.
// Directors always get an empty selection: they must pick a team explicitly.
// Everyone else gets their own team, but only if the directory confirms it
// exists and is not soft-deleted.
func AutoSelectedTeamID(viewer models.Viewer, dir *directory.Directory) (string, error) {
	if viewer.Role == models.RoleDirector {
		return "", nil
	}

	if viewer.TeamID == "" {
		return "", fmt.Errorf("%w: viewer %q has no team id", ErrNoTeamAssigned, viewer.ID)
	}

	team, err := dir.TeamByID(viewer.TeamID)
	if err != nil {
		return "", fmt.Errorf("%w: team %q is unknown to the directory", ErrNoTeamAssigned, viewer.TeamID)
	}
	if team.IsDeleted() {
		return "", fmt.Errorf("%w: team %q is deleted", ErrNoTeamAssigned, viewer.TeamID)
	}

	return viewer.TeamID, nil
}
