package models

import (
	"errors"
	"fmt"
	"slices"
)

// ErrInvalidTask is returned when a raw task record cannot be attributed to
// at least a creator or a team.
var ErrInvalidTask = errors.New("invalid task")

// TaskScope describes how widely a task is meant to be seen.
type TaskScope string

const (
	ScopePersonal   TaskScope = "personal"
	ScopeTeam       TaskScope = "team"
	ScopeDepartment TaskScope = "department"
)

// Task is a normalized task record. TeamID is stamped at creation from the
// creator's team and is authoritative: filtering never rewrites it.
type Task struct {
	ID                string    `json:"id"`
	Title             string    `json:"title"`
	OwnerID           string    `json:"ownerId"`
	PrimaryAssigneeID string    `json:"primaryAssigneeId"`
	ExtraAssigneeIDs  []string  `json:"extraAssigneeIds"`
	TeamID            string    `json:"teamId"` // empty for pure personal tasks
	Scope             TaskScope `json:"scope"`
	SharedWithTeam    bool      `json:"isSharedWithTeam"`
	DepartmentWide    bool      `json:"isDepartmentWide"`
}

// RawTask is a task record as supplied by the data layer.
type RawTask struct {
	ID                string   `json:"id"`
	Title             string   `json:"title"`
	OwnerID           string   `json:"ownerId"`
	PrimaryAssigneeID string   `json:"primaryAssigneeId"`
	ExtraAssigneeIDs  []string `json:"extraAssigneeIds"`
	TeamID            string   `json:"teamId"`
	Scope             string   `json:"scope"`
	SharedWithTeam    bool     `json:"isSharedWithTeam"`
	DepartmentWide    bool     `json:"isDepartmentWide"`
}

// NormalizeTask validates a raw task and applies defaults: empty assignee
// list, sharing flags off, and a scope derived from the flags when the
// record carries none.
func NormalizeTask(raw RawTask) (Task, error) {
	if raw.TeamID == "" && raw.OwnerID == "" {
		return Task{}, fmt.Errorf("%w: task %q has neither owner nor team", ErrInvalidTask, raw.ID)
	}

	extras := raw.ExtraAssigneeIDs
	if extras == nil {
		extras = []string{}
	}

	scope := TaskScope(raw.Scope)
	switch scope {
	case ScopePersonal, ScopeTeam, ScopeDepartment:
	default:
		switch {
		case raw.DepartmentWide:
			scope = ScopeDepartment
		case raw.TeamID != "":
			scope = ScopeTeam
		default:
			scope = ScopePersonal
		}
	}

	return Task{
		ID:                raw.ID,
		Title:             raw.Title,
		OwnerID:           raw.OwnerID,
		PrimaryAssigneeID: raw.PrimaryAssigneeID,
		ExtraAssigneeIDs:  extras,
		TeamID:            raw.TeamID,
		Scope:             scope,
		SharedWithTeam:    raw.SharedWithTeam,
		DepartmentWide:    raw.DepartmentWide,
	}, nil
}

// Validate re-checks the attribution invariant on an already-built Task so
// snapshot rows that decayed in storage can be dropped instead of resolved.
func (t Task) Validate() error {
	if t.TeamID == "" && t.OwnerID == "" {
		return fmt.Errorf("%w: task %q has neither owner nor team", ErrInvalidTask, t.ID)
	}
	return nil
}

// HasAssignee reports whether the given user is the primary or an extra
// assignee of the task.
func (t Task) HasAssignee(userID string) bool {
	if userID == "" {
		return false
	}
	return t.PrimaryAssigneeID == userID || slices.Contains(t.ExtraAssigneeIDs, userID)
}

// IsParticipant reports whether the given user owns the task or is assigned
// to it. This is the personal-view membership test; write authorization is
// derived from it.
func (t Task) IsParticipant(userID string) bool {
	if userID == "" {
		return false
	}
	return t.OwnerID == userID || t.HasAssignee(userID)
}
