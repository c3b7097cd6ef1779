package services

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Wikid82/sentinel/internal/models"
)

var ErrInvalidDecisionIP = errors.New("invalid decision ip address")

type SecurityService struct {
	db *gorm.DB
}

// NewSecurityService returns a SecurityService using the provided DB
func NewSecurityService(db *gorm.DB) *SecurityService {
	return &SecurityService{db: db}
}

// LogDecision stores a security decision record
func (s *SecurityService) LogDecision(ctx context.Context, d *models.SecurityDecision) error {
	if d == nil {
		return nil
	}
	if net.ParseIP(d.IP) == nil {
		return ErrInvalidDecisionIP
	}
	if d.UUID == "" {
		d.UUID = uuid.NewString()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	return s.db.WithContext(ctx).Create(d).Error
}

// ListDecisions returns recent security decisions, newest first
func (s *SecurityService) ListDecisions(ctx context.Context, limit int) ([]models.SecurityDecision, error) {
	var res []models.SecurityDecision
	q := s.db.WithContext(ctx).Order("created_at desc, id desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&res).Error; err != nil {
		return nil, err
	}
	return res, nil
}

// IsBlocked reports whether a block decision exists for ip.
func (s *SecurityService) IsBlocked(ctx context.Context, ip string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.SecurityDecision{}).
		Where("ip = ? AND action = ?", ip, "block").
		Count(&count).Error
	return count > 0, err
}
