package models

import (
	"time"
)

// IncidentStatusOpen is the only status the agent assigns.
const IncidentStatusOpen = "OPEN"

// Incident groups correlated log events with the classifier's verdict.
// LogIDs is an ordered JSON array of LogEvent ids.
type Incident struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	LogIDs         []uint    `json:"log_ids" gorm:"serializer:json;type:text"`
	Summary        string    `json:"summary" gorm:"type:text"`
	Severity       string    `json:"severity" gorm:"index"`
	Recommendation string    `json:"recommendation" gorm:"type:text"`
	Status         string    `json:"status" gorm:"index;default:OPEN"`
	CreatedAt      time.Time `json:"created_at" gorm:"index"`

	Actions []Action   `json:"actions,omitempty" gorm:"foreignKey:IncidentID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Logs    []LogEvent `json:"logs,omitempty" gorm:"-"`
}
