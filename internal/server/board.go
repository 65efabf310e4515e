package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/argus-crm/argus/internal/lib/logger/sl"
	"github.com/argus-crm/argus/internal/models"
	"github.com/argus-crm/argus/internal/services/board"
	"github.com/argus-crm/argus/internal/viewstate"
	"github.com/argus-crm/argus/internal/visibility"
)

// BoardHandler serves the read-only task view. Every request builds a fresh
// session machine and walks it to the requested view, so the HTTP surface
// cannot bypass any transition rule the UI is bound by.
type BoardHandler struct {
	board *board.Board
	log   *slog.Logger
}

func NewBoardHandler(brd *board.Board, log *slog.Logger) *BoardHandler {
	return &BoardHandler{board: brd, log: log}
}

type viewResponse struct {
	Tasks      []models.Task `json:"tasks"`
	Rejected   int           `json:"rejected"`
	Diagnostic string        `json:"diagnostic,omitempty"`
}

type rejectionResponse struct {
	Reason string `json:"reason"`
}

func (h *BoardHandler) ServeHTTP(writer http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	params := req.URL.Query()

	machine, err := h.board.NewSession(ctx, models.RawViewer{
		ID:       params.Get("viewer_id"),
		Role:     params.Get("role"),
		TeamID:   params.Get("viewer_team_id"),
		Location: params.Get("location"),
	})
	if err != nil {
		if errors.Is(err, models.ErrInvalidIdentity) {
			writeJSON(writer, h.log, http.StatusBadRequest, rejectionResponse{Reason: "invalid_identity"})
			return
		}
		h.log.ErrorContext(ctx, "failed to open viewer session", sl.Err(err))
		writer.WriteHeader(http.StatusInternalServerError)
		return
	}

	if err = h.walkToRequestedView(machine, params.Get("level"), params.Get("team"), params.Get("member")); err != nil {
		writeJSON(writer, h.log, http.StatusUnprocessableEntity, rejectionResponse{Reason: rejectionReason(err)})
		return
	}

	result, err := h.board.View(ctx, machine.Viewer(), machine.State())
	if err != nil {
		if diagnostic := viewDiagnostic(err); diagnostic != "" {
			// fail-closed: empty list plus a diagnostic, never "all tasks"
			writeJSON(writer, h.log, http.StatusOK, viewResponse{
				Tasks:      []models.Task{},
				Rejected:   result.Rejected,
				Diagnostic: diagnostic,
			})
			return
		}
		h.log.ErrorContext(ctx, "failed to resolve view", sl.Err(err))
		writer.WriteHeader(http.StatusInternalServerError)
		return
	}

	writeJSON(writer, h.log, http.StatusOK, viewResponse{Tasks: result.Tasks, Rejected: result.Rejected})
}

// walkToRequestedView drives the machine from its initial state to the view
// the query asks for, applying only legal transitions.
func (h *BoardHandler) walkToRequestedView(machine *viewstate.Machine, level, teamID, memberID string) error {
	var err error

	switch models.ViewLevel(level) {
	case models.LevelPersonal:
		err = machine.SetLevel(models.LevelPersonal)

	case models.LevelTeam, "":
		if err = machine.SetLevel(models.LevelTeam); err == nil && teamID != "" {
			err = machine.SelectTeam(teamID)
		}

	case models.LevelDepartment:
		if err = machine.SetLevel(models.LevelTeam); err == nil {
			err = machine.SetLevel(models.LevelDepartment)
		}

	case models.LevelIndividualMember:
		if err = machine.SetLevel(models.LevelTeam); err == nil && teamID != "" {
			err = machine.SelectTeam(teamID)
		}
		if err == nil {
			err = machine.SelectMember(memberID)
		}

	default:
		err = viewstate.ErrIllegalTransition
	}

	return err
}

// viewDiagnostic maps resolve errors that mean "nothing to show" onto the
// diagnostic carried by an otherwise empty 200 response. Anything else is a
// server fault and returns "".
func viewDiagnostic(err error) string {
	switch {
	case errors.Is(err, visibility.ErrUnknownTeam):
		return "unknown_team"
	case errors.Is(err, viewstate.ErrNoTeamAssigned):
		return "no_team_assigned"
	default:
		return ""
	}
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, viewstate.ErrForbiddenTeamSelection):
		return "forbidden_team_selection"
	case errors.Is(err, viewstate.ErrForbiddenMemberSelection):
		return "forbidden_member_selection"
	case errors.Is(err, viewstate.ErrNoTeamSelected):
		return "no_team_selected"
	case errors.Is(err, viewstate.ErrMemberNotInTeam):
		return "member_not_in_team"
	case errors.Is(err, viewstate.ErrIllegalTransition):
		return "illegal_transition"
	default:
		return "rejected"
	}
}

func writeJSON(writer http.ResponseWriter, log *slog.Logger, status int, payload any) {
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)
	if err := json.NewEncoder(writer).Encode(payload); err != nil {
		log.Error("Failed to write response", "error", err)
	}
}
