package directory

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/argus-crm/argus/internal/models"
)

// ErrTeamNotFound is returned when no live team matches a lookup.
var ErrTeamNotFound = errors.New("team not found")

// Directory answers team and staff lookups over an in-memory snapshot. It is
// the single authoritative source of organizational structure; callers must
// never hardcode rosters. The backing data is known to contain duplicate and
// soft-deleted teams, so lookups tolerate both.
type Directory struct {
	log      *slog.Logger
	teams    []models.Team
	byID     map[string]models.Team
	byLeader map[string]models.Team
	staff    map[string]models.Viewer
	rosters  map[string][]models.Viewer
}

// New builds a Directory from snapshot data. Teams keep insertion order:
// when several non-deleted teams claim the same leader, the first one wins
// and the ambiguity is logged, not raised. Duplicate leadership is a data
// hygiene problem, not a resolver failure.
func New(log *slog.Logger, teams []models.Team, staff []models.Viewer) *Directory {
	dir := &Directory{
		log:      log,
		teams:    teams,
		byID:     make(map[string]models.Team, len(teams)),
		byLeader: make(map[string]models.Team, len(teams)),
		staff:    make(map[string]models.Viewer, len(staff)),
		rosters:  make(map[string][]models.Viewer),
	}

	for _, team := range teams {
		if _, seen := dir.byID[team.ID]; !seen {
			dir.byID[team.ID] = team
		}
		if team.IsDeleted() || team.LeaderID == "" {
			continue
		}
		if prev, seen := dir.byLeader[team.LeaderID]; seen {
			log.Warn("duplicate team leadership in directory data",
				"leader_id", team.LeaderID,
				"kept_team", prev.ID,
				"ignored_team", team.ID,
			)
			continue
		}
		dir.byLeader[team.LeaderID] = team
	}

	for _, person := range staff {
		dir.staff[person.ID] = person
		if person.TeamID != "" {
			dir.rosters[person.TeamID] = append(dir.rosters[person.TeamID], person)
		}
	}

	return dir
}

// TeamByID returns the team with the given id, including soft-deleted ones;
// callers that care about liveness check IsDeleted themselves.
func (d *Directory) TeamByID(id string) (models.Team, error) {
	team, ok := d.byID[id]
	if !ok {
		return models.Team{}, fmt.Errorf("%w: id %q", ErrTeamNotFound, id)
	}
	return team, nil
}

// TeamByLeader returns the first non-deleted team led by the given user.
func (d *Directory) TeamByLeader(leaderID string) (models.Team, error) {
	team, ok := d.byLeader[leaderID]
	if !ok {
		return models.Team{}, fmt.Errorf("%w: leader %q", ErrTeamNotFound, leaderID)
	}
	return team, nil
}

// Members returns the roster of a team in staff-snapshot order.
func (d *Directory) Members(teamID string) []models.Viewer {
	return d.rosters[teamID]
}

// IsMember reports whether the given user belongs to the given team's roster.
func (d *Directory) IsMember(teamID, userID string) bool {
	for _, person := range d.rosters[teamID] {
		if person.ID == userID {
			return true
		}
	}
	return false
}

// LocationOf returns the recorded location of a staff member. Unknown ids
// yield an empty location, which never matches anything downstream.
func (d *Directory) LocationOf(userID string) string {
	return d.staff[userID].Location
}
