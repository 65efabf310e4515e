package models

import "strings"

// deletedNamePrefix marks teams that were "removed" by renaming instead of
// being deleted. Observed in production data; treated as soft-deleted.
const deletedNamePrefix = "[DELETED]"

// Team is a line team in the organization.
type Team struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	LeaderID string `json:"leaderId"`
	Location string `json:"location"`
	Deleted  bool   `json:"deleted"`
}

// IsDeleted reports whether the team is soft-deleted, either by flag or by
// the rename-to-"[DELETED]" convention found in legacy records.
func (t Team) IsDeleted() bool {
	return t.Deleted || strings.HasPrefix(strings.TrimSpace(t.Name), deletedNamePrefix)
}
