package server_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/argus-crm/argus/internal/metrics"
	"github.com/argus-crm/argus/internal/models"
	"github.com/argus-crm/argus/internal/server"
	"github.com/argus-crm/argus/internal/services/board"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTaskRepo struct{ tasks []models.Task }

func (s *stubTaskRepo) ListTasks(_ context.Context) ([]models.Task, error) { return s.tasks, nil }
func (s *stubTaskRepo) SaveTask(_ context.Context, _ models.Task) error    { return nil }
func (s *stubTaskRepo) SoftDeleteTask(_ context.Context, _ string) error   { return nil }

type stubTeamRepo struct{ teams []models.Team }

func (s *stubTeamRepo) ListTeams(_ context.Context) ([]models.Team, error) { return s.teams, nil }

type stubStaffRepo struct{ staff []models.Viewer }

func (s *stubStaffRepo) ListStaff(_ context.Context) ([]models.Viewer, error) { return s.staff, nil }

func newTestHandler(t *testing.T) *server.BoardHandler {
	t.Helper()

	brd := board.NewBoard(
		slog.Default(),
		&stubTaskRepo{tasks: []models.Task{
			{ID: "task-1", OwnerID: "emp-1", TeamID: "t-1"},
			{ID: "task-2", OwnerID: "emp-2", TeamID: "t-1", SharedWithTeam: true},
			{ID: "task-3", OwnerID: "emp-3", TeamID: "t-2"},
			{ID: "task-4", OwnerID: "emp-9", TeamID: "t-9", SharedWithTeam: true},
		}},
		&stubTeamRepo{teams: []models.Team{
			{ID: "t-1", Name: "North Sales", LeaderID: "lead-1", Location: "kyiv"},
			{ID: "t-2", Name: "West Sales", LeaderID: "lead-2", Location: "lviv"},
			{ID: "t-9", Name: "[DELETED] Harbor Sales", LeaderID: "lead-9", Location: "kyiv"},
		}},
		&stubStaffRepo{staff: []models.Viewer{
			{ID: "lead-1", Role: models.RoleTeamLeader, TeamID: "t-1", Location: "kyiv"},
			{ID: "emp-1", Role: models.RoleEmployee, TeamID: "t-1", Location: "kyiv"},
			{ID: "emp-2", Role: models.RoleEmployee, TeamID: "t-1", Location: "kyiv"},
			{ID: "emp-3", Role: models.RoleEmployee, TeamID: "t-2", Location: "lviv"},
			{ID: "emp-9", Role: models.RoleEmployee, TeamID: "t-9", Location: "kyiv"},
		}},
		metrics.NewMetrics(prometheus.NewRegistry()),
	)

	return server.NewBoardHandler(brd, slog.Default())
}

func doRequest(t *testing.T, handler http.Handler, params url.Values) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/api/tasks?"+params.Encode(), nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	return rr
}

func decodeTaskIDs(t *testing.T, body []byte) []string {
	t.Helper()

	var resp struct {
		Tasks []models.Task `json:"tasks"`
	}
	require.NoError(t, json.Unmarshal(body, &resp))

	ids := make([]string, 0, len(resp.Tasks))
	for _, task := range resp.Tasks {
		ids = append(ids, task.ID)
	}
	return ids
}

func TestBoardHandler_EmployeeDefaultView(t *testing.T) {
	t.Parallel()

	handler := newTestHandler(t)

	rr := doRequest(t, handler, url.Values{
		"viewer_id":      {"emp-1"},
		"role":           {"employee"},
		"viewer_team_id": {"t-1"},
		"location":       {"kyiv"},
	})

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []string{"task-1", "task-2"}, decodeTaskIDs(t, rr.Body.Bytes()))
}

func TestBoardHandler_DirectorTeamPick(t *testing.T) {
	t.Parallel()

	handler := newTestHandler(t)

	rr := doRequest(t, handler, url.Values{
		"viewer_id": {"dir-1"},
		"role":      {"director"},
		"level":     {"team"},
		"team":      {"t-2"},
	})

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []string{"task-3"}, decodeTaskIDs(t, rr.Body.Bytes()))
}

func TestBoardHandler_ForeignTeamRejected(t *testing.T) {
	t.Parallel()

	handler := newTestHandler(t)

	rr := doRequest(t, handler, url.Values{
		"viewer_id":      {"emp-1"},
		"role":           {"employee"},
		"viewer_team_id": {"t-1"},
		"level":          {"team"},
		"team":           {"t-2"},
	})

	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	require.JSONEq(t, `{"reason":"forbidden_team_selection"}`, rr.Body.String())
}

func TestBoardHandler_MemberPickWithoutTeam(t *testing.T) {
	t.Parallel()

	handler := newTestHandler(t)

	rr := doRequest(t, handler, url.Values{
		"viewer_id": {"dir-1"},
		"role":      {"director"},
		"level":     {"individual_member"},
		"member":    {"emp-1"},
	})

	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	require.JSONEq(t, `{"reason":"no_team_selected"}`, rr.Body.String())
}

func TestBoardHandler_UnknownTeamDiagnostic(t *testing.T) {
	t.Parallel()

	handler := newTestHandler(t)

	rr := doRequest(t, handler, url.Values{
		"viewer_id": {"dir-1"},
		"role":      {"director"},
		"level":     {"team"},
		"team":      {"t-404"},
	})

	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Tasks      []models.Task `json:"tasks"`
		Diagnostic string        `json:"diagnostic"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Empty(t, resp.Tasks)
	assert.Equal(t, "unknown_team", resp.Diagnostic)
}

func TestBoardHandler_NoTeamAssignedDiagnostic(t *testing.T) {
	t.Parallel()

	handler := newTestHandler(t)

	// emp-9's team is soft-deleted, so their team view is empty with a
	// diagnostic rather than a leak of the dead team's tasks
	rr := doRequest(t, handler, url.Values{
		"viewer_id":      {"emp-9"},
		"role":           {"employee"},
		"viewer_team_id": {"t-9"},
		"location":       {"kyiv"},
		"level":          {"team"},
	})

	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Tasks      []models.Task `json:"tasks"`
		Diagnostic string        `json:"diagnostic"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Empty(t, resp.Tasks)
	assert.Equal(t, "no_team_assigned", resp.Diagnostic)
}

func TestBoardHandler_InvalidIdentity(t *testing.T) {
	t.Parallel()

	handler := newTestHandler(t)

	rr := doRequest(t, handler, url.Values{
		"viewer_id": {"x"},
		"role":      {"intern"},
	})

	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.JSONEq(t, `{"reason":"invalid_identity"}`, rr.Body.String())
}
