package viewstate_test

import (
	"log/slog"
	"testing"

	"github.com/argus-crm/argus/internal/directory"
	"github.com/argus-crm/argus/internal/metrics"
	"github.com/argus-crm/argus/internal/models"
	"github.com/argus-crm/argus/internal/viewstate"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testDirector = models.Viewer{ID: "dir-1", Role: models.RoleDirector, Location: "kyiv"}
	testLeader   = models.Viewer{ID: "lead-1", Role: models.RoleTeamLeader, TeamID: "t-1", Location: "kyiv"}
	testEmployee = models.Viewer{ID: "emp-1", Role: models.RoleEmployee, TeamID: "t-1", Location: "kyiv"}
)

func newMachine(t *testing.T, viewer models.Viewer) *viewstate.Machine {
	t.Helper()

	dir := directory.New(slog.Default(), []models.Team{
		{ID: "t-1", Name: "North Sales", LeaderID: "lead-1", Location: "kyiv"},
		{ID: "t-2", Name: "West Sales", LeaderID: "lead-2", Location: "lviv"},
	}, []models.Viewer{
		testLeader,
		testEmployee,
		{ID: "emp-2", Role: models.RoleEmployee, TeamID: "t-2", Location: "lviv"},
	})
	mtr := metrics.NewMetrics(prometheus.NewRegistry())

	return viewstate.NewMachine(slog.Default(), dir, mtr, viewer)
}

func TestInitialState(t *testing.T) {
	t.Parallel()

	t.Run("director starts personal", func(t *testing.T) {
		t.Parallel()

		machine := newMachine(t, testDirector)

		assert.Equal(t, models.ViewState{Level: models.LevelPersonal}, machine.State())
	})

	t.Run("employee starts on own team", func(t *testing.T) {
		t.Parallel()

		machine := newMachine(t, testEmployee)

		assert.Equal(t, models.ViewState{Level: models.LevelTeam, SelectedTeamID: "t-1"}, machine.State())
	})

	t.Run("employee without live team starts empty", func(t *testing.T) {
		t.Parallel()

		orphan := models.Viewer{ID: "emp-9", Role: models.RoleEmployee, TeamID: "t-404"}
		machine := newMachine(t, orphan)

		assert.Equal(t, models.ViewState{Level: models.LevelTeam}, machine.State())
	})
}

func TestSetLevel_DirectorTeamEntryClearsSelection(t *testing.T) {
	t.Parallel()

	machine := newMachine(t, testDirector)

	require.NoError(t, machine.SetLevel(models.LevelTeam))
	require.NoError(t, machine.SelectTeam("t-1"))
	require.NoError(t, machine.SetLevel(models.LevelPersonal))
	require.NoError(t, machine.SetLevel(models.LevelTeam))

	// empty-until-chosen: re-entry must not remember the earlier pick
	assert.Empty(t, machine.State().SelectedTeamID)
}

func TestSetLevel_NonDirectorTeamEntryResynthesizes(t *testing.T) {
	t.Parallel()

	machine := newMachine(t, testLeader)

	require.NoError(t, machine.SetLevel(models.LevelPersonal))
	require.NoError(t, machine.SetLevel(models.LevelTeam))

	assert.Equal(t, "t-1", machine.State().SelectedTeamID)
}

func TestSetLevel_IllegalTransitions(t *testing.T) {
	t.Parallel()

	t.Run("personal to department", func(t *testing.T) {
		t.Parallel()

		machine := newMachine(t, testDirector)

		err := machine.SetLevel(models.LevelDepartment)

		require.ErrorIs(t, err, viewstate.ErrIllegalTransition)
		assert.Equal(t, models.LevelPersonal, machine.State().Level)
	})

	t.Run("individual member only via member pick", func(t *testing.T) {
		t.Parallel()

		machine := newMachine(t, testDirector)
		require.NoError(t, machine.SetLevel(models.LevelTeam))

		err := machine.SetLevel(models.LevelIndividualMember)

		require.ErrorIs(t, err, viewstate.ErrIllegalTransition)
	})

	t.Run("department back to team only", func(t *testing.T) {
		t.Parallel()

		machine := newMachine(t, testEmployee)
		require.NoError(t, machine.SetLevel(models.LevelDepartment))

		err := machine.SetLevel(models.LevelPersonal)

		require.ErrorIs(t, err, viewstate.ErrIllegalTransition)
		require.NoError(t, machine.SetLevel(models.LevelTeam))
	})
}

func TestSelectTeam_NonDirectorLockIn(t *testing.T) {
	t.Parallel()

	machine := newMachine(t, testEmployee)
	before := machine.State()

	err := machine.SelectTeam("t-2")

	require.ErrorIs(t, err, viewstate.ErrForbiddenTeamSelection)
	assert.Equal(t, before, machine.State(), "rejected selection must leave state unchanged")

	// selecting the own team is a harmless no-op
	require.NoError(t, machine.SelectTeam("t-1"))
	assert.Equal(t, before, machine.State())
}

func TestSelectTeam_DirectorOutsideTeamView(t *testing.T) {
	t.Parallel()

	machine := newMachine(t, testDirector)

	err := machine.SelectTeam("t-1")

	require.ErrorIs(t, err, viewstate.ErrIllegalTransition)
}

func TestSelectMember(t *testing.T) {
	t.Parallel()

	t.Run("requires a selected team", func(t *testing.T) {
		t.Parallel()

		machine := newMachine(t, testDirector)
		require.NoError(t, machine.SetLevel(models.LevelTeam))

		err := machine.SelectMember("emp-1")

		require.ErrorIs(t, err, viewstate.ErrNoTeamSelected)
	})

	t.Run("member must be on the roster", func(t *testing.T) {
		t.Parallel()

		machine := newMachine(t, testDirector)
		require.NoError(t, machine.SetLevel(models.LevelTeam))
		require.NoError(t, machine.SelectTeam("t-1"))

		err := machine.SelectMember("emp-2")

		require.ErrorIs(t, err, viewstate.ErrMemberNotInTeam)
		assert.Equal(t, models.LevelTeam, machine.State().Level)
	})

	t.Run("director picks a team member", func(t *testing.T) {
		t.Parallel()

		machine := newMachine(t, testDirector)
		require.NoError(t, machine.SetLevel(models.LevelTeam))
		require.NoError(t, machine.SelectTeam("t-1"))

		require.NoError(t, machine.SelectMember("emp-1"))

		assert.Equal(t, models.ViewState{
			Level:            models.LevelIndividualMember,
			SelectedTeamID:   "t-1",
			SelectedMemberID: "emp-1",
		}, machine.State())

		// re-picking within the same team is allowed
		require.NoError(t, machine.SelectMember("lead-1"))
		assert.Equal(t, "lead-1", machine.State().SelectedMemberID)
	})

	t.Run("non-director is rejected", func(t *testing.T) {
		t.Parallel()

		machine := newMachine(t, testLeader)
		before := machine.State()

		err := machine.SelectMember("emp-1")

		require.ErrorIs(t, err, viewstate.ErrForbiddenMemberSelection)
		assert.Equal(t, before, machine.State())
	})
}
