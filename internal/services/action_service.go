package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Wikid82/sentinel/internal/live"
	"github.com/Wikid82/sentinel/internal/logger"
	"github.com/Wikid82/sentinel/internal/metrics"
	"github.com/Wikid82/sentinel/internal/models"
)

// ProvenanceNote is stored in the details of every derived action.
const ProvenanceNote = "Auto-response by incident agent"

const directiveMarker = "Action:"

// ActionKind is the closed set of action types the executor understands.
type ActionKind int

const (
	ActionUnknown ActionKind = iota
	ActionBlockIP
	ActionSlackAlert
	ActionCreateTicket
)

func (k ActionKind) String() string {
	switch k {
	case ActionBlockIP:
		return models.ActionTypeBlockIP
	case ActionSlackAlert:
		return models.ActionTypeSlackAlert
	case ActionCreateTicket:
		return models.ActionTypeCreateTicket
	default:
		return "UNKNOWN"
	}
}

// Directive is one "Action: <TOKEN>" line of a recommendation. Token is kept verbatim.
type Directive struct {
	Kind  ActionKind
	Token string
}

// ParseRecommendation extracts directives in line order. The token is the first
// whitespace-delimited field after the first "Action:" on a line; lines without
// the marker or with nothing after it are skipped. Matching is case sensitive.
func ParseRecommendation(text string) []Directive {
	var out []Directive
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		idx := strings.Index(line, directiveMarker)
		if idx == -1 {
			continue
		}
		fields := strings.Fields(line[idx+len(directiveMarker):])
		if len(fields) == 0 {
			continue
		}
		out = append(out, Directive{Kind: kindOf(fields[0]), Token: fields[0]})
	}
	return out
}

func kindOf(token string) ActionKind {
	switch token {
	case models.ActionTypeBlockIP:
		return ActionBlockIP
	case models.ActionTypeSlackAlert:
		return ActionSlackAlert
	case models.ActionTypeCreateTicket:
		return ActionCreateTicket
	default:
		return ActionUnknown
	}
}

// Publisher receives live updates. *live.Hub satisfies it.
type Publisher interface {
	Publish(topic string, v interface{})
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, interface{}) {}

// ActionService derives actions from a recommendation, executes their effects
// and records the outcome of each.
type ActionService struct {
	db        *gorm.DB
	effects   map[ActionKind]EffectHandler
	publisher Publisher
	now       func() time.Time
}

// NewActionService returns an ActionService. A nil publisher disables live updates.
func NewActionService(db *gorm.DB, effects map[ActionKind]EffectHandler, publisher Publisher) *ActionService {
	if publisher == nil {
		publisher = nopPublisher{}
	}
	if effects == nil {
		effects = map[ActionKind]EffectHandler{}
	}
	return &ActionService{db: db, effects: effects, publisher: publisher, now: time.Now}
}

// Process persists, executes and resolves one action per directive, in order.
// Failures are recorded on the affected action and never stop later directives.
// The returned slice holds every action that was persisted.
func (s *ActionService) Process(ctx context.Context, incidentID uint, recommendation, ip string) []models.Action {
	log := logger.Component("actions").WithField("incident_id", incidentID)

	directives := ParseRecommendation(recommendation)
	actions := make([]models.Action, 0, len(directives))
	for _, d := range directives {
		action := models.Action{
			IncidentID: incidentID,
			ActionType: d.Token,
			Details:    models.ActionDetails{IP: ip, Note: ProvenanceNote},
			Status:     models.ActionStatusPending,
		}
		if err := s.db.WithContext(ctx).Create(&action).Error; err != nil {
			log.WithError(err).WithField("action_type", d.Token).Error("failed to persist action")
			continue
		}

		execErr := s.execute(ctx, d, &action)
		if err := s.resolve(ctx, &action, execErr); err != nil {
			log.WithError(err).WithField("action_id", action.ID).Error("failed to resolve action status")
		}
		if action.Resolved() {
			metrics.IncAction(action.ActionType, string(action.Status))
			s.publisher.Publish(live.TopicActions, action)
		}
		actions = append(actions, action)
	}
	return actions
}

func (s *ActionService) execute(ctx context.Context, d Directive, action *models.Action) (err error) {
	log := logger.Component("actions").WithFields(map[string]interface{}{
		"incident_id": action.IncidentID,
		"action_id":   action.ID,
		"action_type": action.ActionType,
	})
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("effect handler panic: %v", r)
			log.WithField("panic", r).Error("action effect panicked")
		}
	}()

	handler, ok := s.effects[d.Kind]
	if d.Kind == ActionUnknown || !ok || handler == nil {
		log.Info("no effect registered for action type, recording as no-op")
		return nil
	}
	if err := handler.Execute(ctx, action); err != nil {
		log.WithError(err).Warn("action effect failed")
		return err
	}
	log.Info("action executed")
	return nil
}

// resolve moves a PENDING action to its terminal status. The update is guarded on
// the current status so a resolved action is never overwritten.
func (s *ActionService) resolve(ctx context.Context, action *models.Action, execErr error) error {
	executedAt := s.now().UTC()
	status := models.ActionStatusSuccess
	reason := ""
	if execErr != nil {
		status = models.ActionStatusFailed
		reason = execErr.Error()
	}

	res := s.db.WithContext(ctx).Model(&models.Action{}).
		Where("id = ? AND status = ?", action.ID, models.ActionStatusPending).
		Updates(map[string]interface{}{
			"status":      status,
			"error":       reason,
			"executed_at": executedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("action %d is no longer pending", action.ID)
	}

	action.Status = status
	action.Error = reason
	action.ExecutedAt = &executedAt
	return nil
}
