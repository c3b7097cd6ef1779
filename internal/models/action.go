package models

import (
	"time"
)

type ActionStatus string

const (
	ActionStatusPending ActionStatus = "PENDING"
	ActionStatusSuccess ActionStatus = "SUCCESS"
	ActionStatusFailed  ActionStatus = "FAILED"
)

// Known action types. Action.ActionType stores the raw parsed token, which may be
// outside this set.
const (
	ActionTypeBlockIP      = "BLOCK_IP"
	ActionTypeSlackAlert   = "SLACK_ALERT"
	ActionTypeCreateTicket = "CREATE_TICKET"
)

// ActionDetails is the structured payload stored with every action.
type ActionDetails struct {
	IP   string `json:"ip"`
	Note string `json:"note"`
}

// Action is a remediation step derived from an incident recommendation.
type Action struct {
	ID         uint          `json:"id" gorm:"primaryKey"`
	IncidentID uint          `json:"incident_id" gorm:"index;not null"`
	ActionType string        `json:"action_type" gorm:"index"`
	Details    ActionDetails `json:"details" gorm:"serializer:json;type:text"`
	Status     ActionStatus  `json:"status" gorm:"index;default:PENDING"`
	Error      string        `json:"error,omitempty" gorm:"type:text"`
	CreatedAt  time.Time     `json:"created_at"`
	ExecutedAt *time.Time    `json:"executed_at"`
}

// Resolved reports whether the action reached a terminal status.
func (a Action) Resolved() bool {
	return a.Status == ActionStatusSuccess || a.Status == ActionStatusFailed
}
