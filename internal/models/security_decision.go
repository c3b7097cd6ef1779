package models

import (
	"time"
)

// SecurityDecision stores a block/allow decision taken by an automated response so
// it can be audited and surfaced in the UI.
type SecurityDecision struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	UUID       string    `json:"uuid" gorm:"uniqueIndex"`
	Source     string    `json:"source"` // e.g. incident-agent, manual
	Action     string    `json:"action"` // block, allow
	IP         string    `json:"ip" gorm:"index"`
	IncidentID uint      `json:"incident_id" gorm:"index"`
	RuleID     string    `json:"rule_id"`
	Details    string    `json:"details" gorm:"type:text"`
	CreatedAt  time.Time `json:"created_at"`
}
