package models

import (
	"time"

	"gorm.io/gorm"
)

// Log severities observed from ingestion. The column is a free string; these are
// the values the agent reasons about.
const (
	SeverityInfo     = "INFO"
	SeverityWarning  = "WARNING"
	SeverityLow      = "LOW"
	SeverityMedium   = "MEDIUM"
	SeverityHigh     = "HIGH"
	SeverityCritical = "CRITICAL"
	SeverityAlert    = "ALERT"
)

// ActionableSeverities are the severities that can trigger a correlation cycle.
var ActionableSeverities = []string{SeverityCritical, SeverityAlert}

// LogEvent is a single ingested security log row.
type LogEvent struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Timestamp time.Time `json:"timestamp" gorm:"index;not null"`
	Source    string    `json:"source"`
	Severity  string    `json:"severity" gorm:"index"`
	Message   string    `json:"message" gorm:"type:text"`
	IPAddress string    `json:"ip_address" gorm:"index"`
	Processed bool      `json:"processed" gorm:"index;default:false"`
}

// TableName keeps the table name shared with the ingestion path.
func (LogEvent) TableName() string {
	return "logs"
}

// BeforeSave stores timestamps in UTC so window comparisons are consistent across drivers.
func (l *LogEvent) BeforeSave(tx *gorm.DB) (err error) {
	if l.Timestamp.IsZero() {
		l.Timestamp = time.Now()
	}
	l.Timestamp = l.Timestamp.UTC()
	return
}
