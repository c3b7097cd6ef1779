package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/Wikid82/sentinel/internal/models"
)

var ErrIncidentNotFound = errors.New("incident not found")

// Read limits for list endpoints.
const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

// QueryService serves the read-only views over the store.
type QueryService struct {
	db *gorm.DB
}

func NewQueryService(db *gorm.DB) *QueryService {
	return &QueryService{db: db}
}

// ClampLimit maps a requested page size onto [1, MaxListLimit], defaulting when unset.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}

// ListIncidents returns incidents newest first.
func (s *QueryService) ListIncidents(ctx context.Context, limit int) ([]models.Incident, error) {
	var incidents []models.Incident
	err := s.db.WithContext(ctx).
		Order("created_at desc, id desc").
		Limit(ClampLimit(limit)).
		Find(&incidents).Error
	return incidents, err
}

// GetIncident returns one incident with its actions and resolved log rows, in
// the order recorded on the incident.
func (s *QueryService) GetIncident(ctx context.Context, id uint) (*models.Incident, error) {
	var incident models.Incident
	err := s.db.WithContext(ctx).
		Preload("Actions", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		First(&incident, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrIncidentNotFound
		}
		return nil, err
	}

	logs, err := s.logsByID(ctx, incident.LogIDs)
	if err != nil {
		return nil, err
	}
	incident.Logs = logs
	return &incident, nil
}

func (s *QueryService) logsByID(ctx context.Context, ids []uint) ([]models.LogEvent, error) {
	if len(ids) == 0 {
		return []models.LogEvent{}, nil
	}
	var rows []models.LogEvent
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	byID := make(map[uint]models.LogEvent, len(rows))
	for _, r := range rows {
		byID[r.ID] = r
	}
	ordered := make([]models.LogEvent, 0, len(ids))
	for _, id := range ids {
		if r, ok := byID[id]; ok {
			ordered = append(ordered, r)
		}
	}
	return ordered, nil
}

// ListLogs returns log events newest first.
func (s *QueryService) ListLogs(ctx context.Context, limit int) ([]models.LogEvent, error) {
	var logs []models.LogEvent
	err := s.db.WithContext(ctx).
		Order("timestamp desc, id desc").
		Limit(ClampLimit(limit)).
		Find(&logs).Error
	return logs, err
}

// ListActions returns actions newest first.
func (s *QueryService) ListActions(ctx context.Context, limit int) ([]models.Action, error) {
	var actions []models.Action
	err := s.db.WithContext(ctx).
		Order("created_at desc, id desc").
		Limit(ClampLimit(limit)).
		Find(&actions).Error
	return actions, err
}
