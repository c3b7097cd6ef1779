package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/Wikid82/sentinel/internal/classifier"
	"github.com/Wikid82/sentinel/internal/live"
	"github.com/Wikid82/sentinel/internal/logger"
	"github.com/Wikid82/sentinel/internal/metrics"
	"github.com/Wikid82/sentinel/internal/models"
	"github.com/Wikid82/sentinel/internal/util"
)

// CorrelationWindow is the half-width of the time window around a trigger.
const CorrelationWindow = 5 * time.Minute

var (
	ErrNoVerdict       = errors.New("classifier produced no verdict")
	ErrPersistIncident = errors.New("persist incident")
	ErrMarkProcessed   = errors.New("mark logs processed")
)

// CycleResult describes what one correlation cycle did. Outcome is one of the
// metrics.Outcome* values.
type CycleResult struct {
	Outcome  string
	Trigger  *models.LogEvent
	Window   []models.LogEvent
	Incident *models.Incident
	Actions  []models.Action
}

// CorrelationService turns the newest unprocessed critical log into at most one
// incident per cycle.
type CorrelationService struct {
	db         *gorm.DB
	classifier classifier.Classifier
	actions    *ActionService
	publisher  Publisher

	// AtomicConsume marks the window processed in the incident transaction.
	AtomicConsume bool
}

func NewCorrelationService(db *gorm.DB, c classifier.Classifier, actions *ActionService, publisher Publisher) *CorrelationService {
	if publisher == nil {
		publisher = nopPublisher{}
	}
	return &CorrelationService{db: db, classifier: c, actions: actions, publisher: publisher}
}

// RunCycle performs one correlation cycle. A cycle with nothing to do returns an
// idle result and a nil error.
func (s *CorrelationService) RunCycle(ctx context.Context) (*CycleResult, error) {
	start := time.Now()
	res, err := s.runCycle(ctx)
	metrics.ObserveCycle(time.Since(start), res.Outcome)
	return res, err
}

func (s *CorrelationService) runCycle(ctx context.Context) (*CycleResult, error) {
	res := &CycleResult{Outcome: metrics.OutcomeError}
	log := logger.Component("correlation")

	trigger, err := s.selectTrigger(ctx)
	if err != nil {
		return res, fmt.Errorf("select trigger: %w", err)
	}
	if trigger == nil {
		res.Outcome = metrics.OutcomeIdle
		return res, nil
	}
	res.Trigger = trigger
	log = log.WithFields(map[string]interface{}{"trigger_id": trigger.ID, "ip": trigger.IPAddress})

	window, err := s.selectWindow(ctx, trigger)
	if err != nil {
		return res, fmt.Errorf("select window: %w", err)
	}
	res.Window = window
	log.WithField("window_size", len(window)).Info("correlating critical event")

	verdict, err := s.classifier.Classify(ctx, window)
	if err != nil {
		res.Outcome = metrics.OutcomeUnclassified
		log.WithError(err).Warn("classification failed, trigger left for next cycle")
		return res, fmt.Errorf("%w: %w", ErrNoVerdict, err)
	}

	ids := make([]uint, len(window))
	for i, l := range window {
		ids[i] = l.ID
	}

	incident := &models.Incident{
		LogIDs:         ids,
		Summary:        verdict.Summary,
		Severity:       verdict.Severity,
		Recommendation: string(verdict.Recommendation),
		Status:         models.IncidentStatusOpen,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(incident).Error; err != nil {
			return err
		}
		if s.AtomicConsume {
			return markProcessed(tx, ids)
		}
		return nil
	})
	if err != nil {
		log.WithError(err).Error("failed to persist incident, trigger left for next cycle")
		return res, fmt.Errorf("%w: %w", ErrPersistIncident, err)
	}

	incident.Logs = window
	res.Incident = incident
	metrics.IncIncident()
	log = log.WithField("incident_id", incident.ID)
	log.WithFields(map[string]interface{}{
		"severity": incident.Severity,
		"summary":  util.Truncate(util.SanitizeForLog(incident.Summary), 200),
	}).Info("incident created")
	s.publisher.Publish(live.TopicIncidents, incident)

	if s.actions != nil {
		res.Actions = s.actions.Process(ctx, incident.ID, incident.Recommendation, trigger.IPAddress)
	}

	if !s.AtomicConsume {
		if err := markProcessed(s.db.WithContext(ctx), ids); err != nil {
			log.WithError(err).WithField("log_ids", ids).
				Error("failed to mark logs processed, next cycle may create a duplicate incident for this trigger")
			return res, fmt.Errorf("%w: %w", ErrMarkProcessed, err)
		}
	}

	res.Outcome = metrics.OutcomeIncident
	return res, nil
}

// selectTrigger returns the most recent unprocessed actionable log, or nil.
func (s *CorrelationService) selectTrigger(ctx context.Context) (*models.LogEvent, error) {
	var trigger models.LogEvent
	err := s.db.WithContext(ctx).
		Where("processed = ? AND severity IN ?", false, models.ActionableSeverities).
		Order("timestamp desc, id desc").
		Take(&trigger).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &trigger, nil
}

// selectWindow returns every log sharing the trigger's ip within CorrelationWindow
// on either side, regardless of severity or processed state.
func (s *CorrelationService) selectWindow(ctx context.Context, trigger *models.LogEvent) ([]models.LogEvent, error) {
	ts := trigger.Timestamp.UTC()
	var window []models.LogEvent
	err := s.db.WithContext(ctx).
		Where("ip_address = ? AND timestamp BETWEEN ? AND ?", trigger.IPAddress, ts.Add(-CorrelationWindow), ts.Add(CorrelationWindow)).
		Order("timestamp asc, id asc").
		Find(&window).Error
	if err != nil {
		return nil, err
	}
	if len(window) == 0 {
		window = []models.LogEvent{*trigger}
	}
	return window, nil
}

func markProcessed(tx *gorm.DB, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return tx.Model(&models.LogEvent{}).Where("id IN ?", ids).Update("processed", true).Error
}
