package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Wikid82/sentinel/internal/logger"
	"github.com/Wikid82/sentinel/internal/models"
)

// DecisionSource identifies decisions taken by automated incident response.
const DecisionSource = "incident-agent"

// EffectHandler performs the side effect of one action.
type EffectHandler interface {
	Execute(ctx context.Context, action *models.Action) error
}

// EffectFunc adapts a function to EffectHandler.
type EffectFunc func(ctx context.Context, action *models.Action) error

func (f EffectFunc) Execute(ctx context.Context, action *models.Action) error { return f(ctx, action) }

// DefaultEffects wires the simulated effect handlers for the known action kinds.
func DefaultEffects(security *SecurityService, notifications *NotificationService) map[ActionKind]EffectHandler {
	return map[ActionKind]EffectHandler{
		ActionBlockIP:      &BlockIPEffect{Security: security},
		ActionSlackAlert:   &SlackAlertEffect{Notifications: notifications},
		ActionCreateTicket: &CreateTicketEffect{Notifications: notifications},
	}
}

// BlockIPEffect simulates a firewall block by recording a security decision.
type BlockIPEffect struct {
	Security *SecurityService
}

func (e *BlockIPEffect) Execute(ctx context.Context, action *models.Action) error {
	if action.Details.IP == "" {
		return errors.New("no ip address to block")
	}
	logger.Component("effects").WithFields(map[string]interface{}{
		"incident_id": action.IncidentID,
		"ip":          action.Details.IP,
	}).Info("blocking ip (simulated)")

	return e.Security.LogDecision(ctx, &models.SecurityDecision{
		Source:     DecisionSource,
		Action:     "block",
		IP:         action.Details.IP,
		IncidentID: action.IncidentID,
		RuleID:     fmt.Sprintf("incident-%d", action.IncidentID),
		Details:    action.Details.Note,
	})
}

// SlackAlertEffect posts the incident summary to the configured chat target.
type SlackAlertEffect struct {
	Notifications *NotificationService
}

func (e *SlackAlertEffect) Execute(ctx context.Context, action *models.Action) error {
	title, body := e.Notifications.describeIncident(ctx, action.IncidentID)
	if action.Details.IP != "" {
		body = fmt.Sprintf("%s\nSource IP: %s", body, action.Details.IP)
	}
	return e.Notifications.SendAlert(ctx, title, body)
}

// CreateTicketEffect opens a simulated tracker ticket.
type CreateTicketEffect struct {
	Notifications *NotificationService
}

func (e *CreateTicketEffect) Execute(ctx context.Context, action *models.Action) error {
	title, body := e.Notifications.describeIncident(ctx, action.IncidentID)
	_, err := e.Notifications.CreateTicket(ctx, action.IncidentID, title, body)
	return err
}
