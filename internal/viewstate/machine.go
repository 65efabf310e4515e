package viewstate

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/argus-crm/argus/internal/directory"
	"github.com/argus-crm/argus/internal/lib/logger/sl"
	"github.com/argus-crm/argus/internal/metrics"
	"github.com/argus-crm/argus/internal/models"
)

var (
	// ErrForbiddenTeamSelection is returned when a non-director tries to
	// select any team other than their own.
	ErrForbiddenTeamSelection = errors.New("forbidden team selection")

	// ErrForbiddenMemberSelection is returned when a non-director tries to
	// enter the individual-member view.
	ErrForbiddenMemberSelection = errors.New("forbidden member selection")

	// ErrNoTeamSelected is returned when an operation needs a selected team
	// and none is set.
	ErrNoTeamSelected = errors.New("no team selected")

	// ErrMemberNotInTeam is returned when the picked member is not on the
	// selected team's roster.
	ErrMemberNotInTeam = errors.New("member not in selected team")

	// ErrIllegalTransition is returned for level changes the transition
	// table does not allow.
	ErrIllegalTransition = errors.New("illegal view transition")
)

// Machine owns the ViewState for one viewer session. Every legal mutation
// goes through SetLevel, SelectTeam or SelectMember; a rejected mutation
// leaves the prior state untouched. The machine holds no task data; callers
// re-run the resolver against State() after every successful mutation.
type Machine struct {
	log     *slog.Logger
	dir     *directory.Directory
	metrics *metrics.Metrics
	viewer  models.Viewer
	state   models.ViewState
}

// NewMachine builds a machine in the role-derived initial state: directors
// start at the personal view, everyone else at their own team's view with
// the selection synthesized. A non-director without a live team starts with
// an empty selection and sees nothing until the data is repaired.
func NewMachine(log *slog.Logger, dir *directory.Directory, mtr *metrics.Metrics, viewer models.Viewer) *Machine {
	machine := &Machine{log: log, dir: dir, metrics: mtr, viewer: viewer}

	if viewer.Role == models.RoleDirector {
		machine.state = models.ViewState{Level: models.LevelPersonal}
		return machine
	}

	teamID, err := AutoSelectedTeamID(viewer, dir)
	if err != nil {
		log.Warn("viewer has no resolvable team, team view starts empty",
			"viewer_id", viewer.ID, "team_id", viewer.TeamID, sl.Err(err))
	}
	machine.state = models.ViewState{Level: models.LevelTeam, SelectedTeamID: teamID}

	return machine
}

// State returns the current view state.
func (m *Machine) State() models.ViewState {
	return m.state
}

// Viewer returns the identity the machine was built for.
func (m *Machine) Viewer() models.Viewer {
	return m.viewer
}

// SetLevel moves between the personal, team and department views. The
// individual-member view is entered through SelectMember only, since it is
// meaningless without a member pick.
func (m *Machine) SetLevel(level models.ViewLevel) error {
	if level == m.state.Level {
		return nil
	}

	if !m.legalLevelChange(level) {
		m.deny("illegal_transition")
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, m.state.Level, level)
	}

	switch level {
	case models.LevelTeam:
		m.enterTeam()
	case models.LevelPersonal, models.LevelDepartment:
		m.state = models.ViewState{Level: level}
	case models.LevelIndividualMember:
		// unreachable, legalLevelChange rejects it
	}

	return nil
}

// SelectTeam sets the team scoped by the team view. Only directors choose
// freely; a non-director may only "select" their own team, which is a no-op
// on top of the synthesized selection.
func (m *Machine) SelectTeam(teamID string) error {
	if m.viewer.Role != models.RoleDirector {
		if teamID != m.viewer.TeamID {
			m.deny("forbidden_team_selection")
			return fmt.Errorf("%w: viewer %q may only view team %q",
				ErrForbiddenTeamSelection, m.viewer.ID, m.viewer.TeamID)
		}
		m.enterTeam()
		return nil
	}

	if m.state.Level != models.LevelTeam {
		m.deny("illegal_transition")
		return fmt.Errorf("%w: team selection is only valid in the team view", ErrIllegalTransition)
	}

	if _, err := m.dir.TeamByID(teamID); err != nil {
		m.log.Debug("director selected a team unknown to the directory", "team_id", teamID)
	}

	m.state = models.ViewState{Level: models.LevelTeam, SelectedTeamID: teamID}

	return nil
}

// SelectMember enters the individual-member view for one member of the
// currently selected team. Director-only; requires a prior team selection
// and a roster match.
func (m *Machine) SelectMember(memberID string) error {
	if m.viewer.Role != models.RoleDirector {
		m.deny("forbidden_member_selection")
		return fmt.Errorf("%w: viewer %q is not a director", ErrForbiddenMemberSelection, m.viewer.ID)
	}

	if m.state.Level != models.LevelTeam && m.state.Level != models.LevelIndividualMember {
		m.deny("illegal_transition")
		return fmt.Errorf("%w: member selection is only reachable from the team view", ErrIllegalTransition)
	}

	if m.state.SelectedTeamID == "" {
		m.deny("no_team_selected")
		return fmt.Errorf("%w: pick a team before picking a member", ErrNoTeamSelected)
	}

	if !m.dir.IsMember(m.state.SelectedTeamID, memberID) {
		m.deny("member_not_in_team")
		return fmt.Errorf("%w: %q is not on team %q roster",
			ErrMemberNotInTeam, memberID, m.state.SelectedTeamID)
	}

	m.state = models.ViewState{
		Level:            models.LevelIndividualMember,
		SelectedTeamID:   m.state.SelectedTeamID,
		SelectedMemberID: memberID,
	}

	return nil
}

// legalLevelChange encodes the transition table: Personal <-> Team,
// Team <-> Department, Team <-> IndividualMember (the latter via
// SelectMember only).
func (m *Machine) legalLevelChange(target models.ViewLevel) bool {
	switch m.state.Level {
	case models.LevelPersonal:
		return target == models.LevelTeam
	case models.LevelTeam:
		return target == models.LevelPersonal || target == models.LevelDepartment
	case models.LevelIndividualMember:
		return target == models.LevelTeam
	case models.LevelDepartment:
		return target == models.LevelTeam
	default:
		return false
	}
}

// enterTeam applies the team-view entry rules: directors land on an empty
// selection and must pick (showing all teams unselected would leak), while
// non-directors get the selection re-synthesized from the directory.
func (m *Machine) enterTeam() {
	state := models.ViewState{Level: models.LevelTeam}

	if m.viewer.Role != models.RoleDirector {
		teamID, err := AutoSelectedTeamID(m.viewer, m.dir)
		if err != nil {
			m.log.Warn("team view entered without a resolvable team",
				"viewer_id", m.viewer.ID, sl.Err(err))
		}
		state.SelectedTeamID = teamID
	}

	m.state = state
}

func (m *Machine) deny(reason string) {
	m.metrics.DeniedTransitions.WithLabelValues(reason).Inc()
	m.log.Debug("view transition denied", "viewer_id", m.viewer.ID, "reason", reason)
}
