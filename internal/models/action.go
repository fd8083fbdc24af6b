package models

// Canonical action codes. Raw feed labels are normalized to one of these
// before an event is persisted; anything unrecognized maps to UNKNOWN.
const (
	ActionPNR     = "PNR"
	ActionISO     = "ISO"
	ActionPost    = "POST"
	ActionOffBall = "OFFBALL"
	ActionUnknown = "UNKNOWN"
)

// Action represents one row of the action taxonomy
type Action struct {
	ID   int    `db:"action_id"`
	Code string `db:"code"`
	Name string `db:"name"`
}

// DefaultActions is the taxonomy seeded on every load. Display names are
// the canonical bucket keys the summary API groups by.
var DefaultActions = []Action{
	{Code: ActionPNR, Name: "Pick & Roll"},
	{Code: ActionISO, Name: "Isolation"},
	{Code: ActionPost, Name: "Post-up"},
	{Code: ActionOffBall, Name: "Off-Ball Screen"},
	{Code: ActionUnknown, Name: "Unknown Action"},
}
