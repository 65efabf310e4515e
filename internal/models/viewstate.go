package models

// ViewLevel is the visibility mode currently selected in the UI.
type ViewLevel string

const (
	LevelPersonal         ViewLevel = "personal"
	LevelTeam             ViewLevel = "team"
	LevelIndividualMember ViewLevel = "individual_member"
	LevelDepartment       ViewLevel = "department"
)

// ViewState is the single source of truth for the current view. It is owned
// by the viewstate machine and passed explicitly into the resolver; nothing
// else mutates it. SelectedMemberID is only meaningful at
// LevelIndividualMember.
type ViewState struct {
	Level            ViewLevel `json:"level"`
	SelectedTeamID   string    `json:"selectedTeamId"`
	SelectedMemberID string    `json:"selectedMemberId"`
}
