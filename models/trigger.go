package models

// Trigger is an event that asks the sync scheduler to start a session.
type Trigger int

const (
	// TriggerReachable is emitted when the server becomes reachable.
	TriggerReachable Trigger = iota + 1
	// TriggerForeground is emitted when the application regains the
	// foreground while the server is reachable.
	TriggerForeground
)

func (t Trigger) String() string {
	switch t {
	case TriggerReachable:
		return "reachable"
	case TriggerForeground:
		return "foreground"
	default:
		return "unknown"
	}
}
