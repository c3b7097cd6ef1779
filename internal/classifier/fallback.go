package classifier

import (
	"context"

	"github.com/Wikid82/sentinel/internal/models"
)

// Fallback returns a fixed verdict. It is used whenever no real provider can be
// configured, so the pipeline keeps producing incidents deterministically.
type Fallback struct {
	Verdict Verdict
}

// NewFallback returns the default mock verdict classifier.
func NewFallback() *Fallback {
	return &Fallback{Verdict: Verdict{
		Summary:        "Mock analysis due to missing LLM configuration.",
		Severity:       models.SeverityMedium,
		Recommendation: "Action: BLOCK_IP\nAction: CREATE_TICKET",
	}}
}

func (f *Fallback) Name() string { return "fallback" }

func (f *Fallback) Classify(ctx context.Context, logs []models.LogEvent) (*Verdict, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v := f.Verdict
	return &v, nil
}
