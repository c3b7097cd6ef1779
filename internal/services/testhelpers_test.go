package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Wikid82/sentinel/internal/classifier"
	"github.com/Wikid82/sentinel/internal/database"
	"github.com/Wikid82/sentinel/internal/models"
)

// setupTestDB opens a migrated in-memory database unique to the test.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", name)
	db, err := database.Open("sqlite", dsn)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

var baseTime = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func seedLog(t *testing.T, db *gorm.DB, ts time.Time, ip, severity string, processed bool) models.LogEvent {
	t.Helper()
	l := models.LogEvent{
		Timestamp: ts,
		Source:    "Auth",
		Severity:  severity,
		Message:   fmt.Sprintf("%s event from %s", severity, ip),
		IPAddress: ip,
		Processed: processed,
	}
	require.NoError(t, db.Create(&l).Error)
	return l
}

type stubClassifier struct {
	mu      sync.Mutex
	verdict classifier.Verdict
	err     error
	calls   int
	seen    [][]models.LogEvent
}

func (s *stubClassifier) Name() string { return "stub" }

func (s *stubClassifier) Classify(ctx context.Context, logs []models.LogEvent) (*classifier.Verdict, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.seen = append(s.seen, logs)
	if s.err != nil {
		return nil, s.err
	}
	v := s.verdict
	return &v, nil
}

type published struct {
	topic   string
	payload interface{}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
}

func (p *recordingPublisher) Publish(topic string, v interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{topic: topic, payload: v})
}

func (p *recordingPublisher) byTopic(topic string) []interface{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []interface{}
	for _, e := range p.events {
		if e.topic == topic {
			out = append(out, e.payload)
		}
	}
	return out
}

// failOn registers a callback that fails statements against table for the given
// operation ("create" or "update") when match returns true.
func failOn(t *testing.T, db *gorm.DB, op, table string, match func(tx *gorm.DB) bool) {
	t.Helper()
	name := fmt.Sprintf("test:fail_%s_%s", op, table)
	fn := func(tx *gorm.DB) {
		if tx.Statement.Table == table && (match == nil || match(tx)) {
			_ = tx.AddError(fmt.Errorf("injected %s failure on %s", op, table))
		}
	}
	var err error
	switch op {
	case "create":
		err = db.Callback().Create().Before("gorm:create").Register(name, fn)
	case "update":
		err = db.Callback().Update().Before("gorm:update").Register(name, fn)
	default:
		t.Fatalf("unknown op %q", op)
	}
	require.NoError(t, err)
}

func countRows(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}
