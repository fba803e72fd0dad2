package models

import (
	"time"
)

// sessionTimeLayout is ISO-8601 with second precision, matching the exported
// session files.
const sessionTimeLayout = "2006-01-02T15:04:05"

// SessionPhase is the lifecycle state of the session tracker.
type SessionPhase string

const (
	PhaseIdle     SessionPhase = "idle"
	PhaseStarted  SessionPhase = "started"
	PhaseUpdating SessionPhase = "updating"
	PhaseStopped  SessionPhase = "stopped"
)

// SessionState is the live state of the single active play session. Exactly
// one is live at a time; it is zeroed and re-stamped on every rotation.
type SessionState struct {
	Character      string       `json:"character"`
	Phase          SessionPhase `json:"phase"`
	StartValue     int64        `json:"start_value"`
	CurrentValue   int64        `json:"current_value"`
	ProfitValue    int64        `json:"profit_value"`
	InventoryValue int64        `json:"inventory_value"`
	MaterialsValue int64        `json:"materials_value"`
	Coins          int64        `json:"coins"`
	StartTime      time.Time    `json:"start_time"`
	Updated        bool         `json:"updated"`
}

// SessionExport is the durable record written when a session rotates.
// Current and profit values are absent until the first update cycle ran.
type SessionExport struct {
	StartValue   int64  `json:"start_value"`
	CurrentValue *int64 `json:"current_value,omitempty"`
	ProfitValue  *int64 `json:"profit_value,omitempty"`
	StartTime    string `json:"start_time"`
}

// Export builds the durable record for the current state.
func (s SessionState) Export() SessionExport {
	export := SessionExport{
		StartValue: s.StartValue,
		StartTime:  s.StartTime.Format(sessionTimeLayout),
	}
	if s.Updated {
		current, profit := s.CurrentValue, s.ProfitValue
		export.CurrentValue = &current
		export.ProfitValue = &profit
	}
	return export
}
