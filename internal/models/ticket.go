package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const TicketStatusOpen = "OPEN"

// Ticket is the simulated tracker issue opened by CREATE_TICKET actions.
type Ticket struct {
	ID         string    `gorm:"primaryKey" json:"id"`
	IncidentID uint      `json:"incident_id" gorm:"index"`
	Title      string    `json:"title"`
	Body       string    `json:"body" gorm:"type:text"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

func (t *Ticket) BeforeCreate(tx *gorm.DB) (err error) {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.Status == "" {
		t.Status = TicketStatusOpen
	}
	return
}
