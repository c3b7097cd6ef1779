package main

import (
	"fmt"
	"math/rand"
	"time"

	"gorm.io/gorm"

	"github.com/Wikid82/sentinel/internal/models"
)

var (
	sources    = []string{"Firewall", "Auth", "IDS", "System", "WebApp"}
	severities = []string{models.SeverityInfo, models.SeverityWarning, models.SeverityAlert, models.SeverityCritical}
	messages   = map[string]string{
		"Firewall": "Blocked suspicious traffic",
		"Auth":     "Failed login attempt",
		"IDS":      "Potential SQL injection detected",
		"System":   "Service unexpectedly stopped",
		"WebApp":   "Cross-site scripting attempt",
	}
	bruteForceMessage = "Multiple brute-force attempts detected on account 'admin'"
	ipPool            = []string{"203.0.113.45", "198.51.100.2", "192.0.2.88", "203.0.113.101", "198.51.100.14"}
)

// randomLog returns one synthetic security log stamped at now.
func randomLog(rng *rand.Rand, now time.Time) models.LogEvent {
	source := sources[rng.Intn(len(sources))]
	severity := severities[rng.Intn(len(severities))]

	message := messages[source]
	if severity == models.SeverityCritical && rng.Float32() > 0.5 {
		message = bruteForceMessage
	}

	return models.LogEvent{
		Timestamp: now,
		Source:    source,
		Severity:  severity,
		Message:   fmt.Sprintf("%s for user 'testuser'.", message),
		IPAddress: ipPool[rng.Intn(len(ipPool))],
	}
}

// seedScenario inserts one CRITICAL trigger at t with two HIGH neighbours at t-1m
// and t+2m, all from the same address.
func seedScenario(db *gorm.DB, t time.Time) ([]models.LogEvent, error) {
	const ip = "10.0.0.1"
	rows := []models.LogEvent{
		{Timestamp: t.Add(-time.Minute), Source: "Auth", Severity: models.SeverityHigh, Message: "Failed login attempt for user 'admin'.", IPAddress: ip},
		{Timestamp: t, Source: "IDS", Severity: models.SeverityCritical, Message: bruteForceMessage, IPAddress: ip},
		{Timestamp: t.Add(2 * time.Minute), Source: "Firewall", Severity: models.SeverityHigh, Message: "Blocked suspicious traffic from " + ip + ".", IPAddress: ip},
	}
	if err := db.Create(&rows).Error; err != nil {
		return nil, fmt.Errorf("seed scenario: %w", err)
	}
	return rows, nil
}
