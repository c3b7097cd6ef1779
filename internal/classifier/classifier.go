// Package classifier turns a window of correlated log events into a verdict:
// a short summary, a severity and a free-text recommendation carrying
// "Action: <TYPE>" directives.
package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Wikid82/sentinel/internal/models"
)

// ErrMalformed is returned when the provider answered but the verdict could not be decoded.
var ErrMalformed = errors.New("malformed classifier response")

// Classifier summarizes and classifies an ordered window of log events.
// Implementations fail closed: any problem is returned as an error, never a partial verdict.
type Classifier interface {
	Classify(ctx context.Context, logs []models.LogEvent) (*Verdict, error)
	Name() string
}

// Verdict is the structured classifier answer.
type Verdict struct {
	Summary        string         `json:"summary"`
	Severity       string         `json:"severity"`
	Recommendation Recommendation `json:"recommendation"`
}

// Recommendation is newline-delimited recommendation text. Providers sometimes
// answer with a list of lines instead of one block; both decode to the same text.
type Recommendation string

func (r *Recommendation) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*r = ""
		return nil
	}
	if strings.HasPrefix(trimmed, "[") {
		var lines []string
		if err := json.Unmarshal(data, &lines); err != nil {
			return fmt.Errorf("recommendation list: %w", err)
		}
		*r = Recommendation(strings.Join(lines, "\n"))
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("recommendation: %w", err)
	}
	*r = Recommendation(s)
	return nil
}

// ParseVerdict decodes provider content into a verdict. Markdown code fences around
// the JSON are tolerated. A verdict without a summary is malformed.
func ParseVerdict(content string) (*Verdict, error) {
	content = stripCodeFence(content)
	var v Verdict
	if err := json.Unmarshal([]byte(content), &v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	v.Summary = strings.TrimSpace(v.Summary)
	if v.Summary == "" {
		return nil, fmt.Errorf("%w: missing summary", ErrMalformed)
	}
	v.Severity = NormalizeSeverity(v.Severity)
	return &v, nil
}

// NormalizeSeverity upper-cases the model's severity, defaulting to MEDIUM.
func NormalizeSeverity(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return models.SeverityMedium
	}
	return s
}

func stripCodeFence(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```")
	if i := strings.Index(content, "\n"); i != -1 {
		// drop a language tag such as ```json
		if tag := strings.TrimSpace(content[:i]); !strings.ContainsAny(tag, "{[") {
			content = content[i+1:]
		}
	}
	content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	return strings.TrimSpace(content)
}
