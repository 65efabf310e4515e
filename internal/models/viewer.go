package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidIdentity is returned when a raw identity record cannot be
// normalized into a Viewer.
var ErrInvalidIdentity = errors.New("invalid identity")

// Role is the closed set of positions in the sales hierarchy.
type Role string

const (
	// RoleDirector covers both retail and project department directors;
	// they are identical for visibility purposes.
	RoleDirector   Role = "director"
	RoleTeamLeader Role = "team_leader"
	RoleEmployee   Role = "employee"
)

// ParseRole maps a raw role string onto the closed role set.
func ParseRole(raw string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleDirector:
		return RoleDirector, nil
	case RoleTeamLeader:
		return RoleTeamLeader, nil
	case RoleEmployee:
		return RoleEmployee, nil
	default:
		return "", fmt.Errorf("%w: unknown role %q", ErrInvalidIdentity, raw)
	}
}

// Viewer is a normalized identity. Immutable for the duration of a session;
// replaced wholesale on login/logout.
type Viewer struct {
	ID       string `json:"id"`
	Role     Role   `json:"role"`
	TeamID   string `json:"teamId"` // empty for directors
	Location string `json:"location"`
}

// RawViewer is an identity record as supplied by the data layer.
type RawViewer struct {
	ID       string `json:"id"`
	Role     string `json:"role"`
	TeamID   string `json:"teamId"`
	Location string `json:"location"`
}

// NormalizeViewer validates a raw identity and returns a Viewer.
// Directors carry no line-team membership; any team id on a director
// record is discarded.
func NormalizeViewer(raw RawViewer) (Viewer, error) {
	if raw.ID == "" {
		return Viewer{}, fmt.Errorf("%w: missing id", ErrInvalidIdentity)
	}

	role, err := ParseRole(raw.Role)
	if err != nil {
		return Viewer{}, err
	}

	teamID := raw.TeamID
	if role == RoleDirector {
		teamID = ""
	}

	return Viewer{
		ID:       raw.ID,
		Role:     role,
		TeamID:   teamID,
		Location: raw.Location,
	}, nil
}
