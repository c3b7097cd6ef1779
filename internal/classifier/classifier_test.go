package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Wikid82/sentinel/internal/config"
	"github.com/Wikid82/sentinel/internal/models"
)

func TestRecommendation_StringOrList(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		expected Recommendation
	}{
		{"string", `{"recommendation": "Action: BLOCK_IP\nAction: SLACK_ALERT"}`, "Action: BLOCK_IP\nAction: SLACK_ALERT"},
		{"list", `{"recommendation": ["Action: BLOCK_IP", "Action: CREATE_TICKET"]}`, "Action: BLOCK_IP\nAction: CREATE_TICKET"},
		{"empty list", `{"recommendation": []}`, ""},
		{"null", `{"recommendation": null}`, ""},
		{"missing", `{}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var v Verdict
			require.NoError(t, json.Unmarshal([]byte(tt.payload), &v))
			assert.Equal(t, tt.expected, v.Recommendation)
		})
	}
}

func TestRecommendation_InvalidType(t *testing.T) {
	var v Verdict
	err := json.Unmarshal([]byte(`{"recommendation": 42}`), &v)
	assert.Error(t, err)
}

func TestParseVerdict(t *testing.T) {
	t.Run("plain json", func(t *testing.T) {
		v, err := ParseVerdict(`{"summary": "Brute force from 10.0.0.1", "severity": "high", "recommendation": "Action: BLOCK_IP"}`)
		require.NoError(t, err)
		assert.Equal(t, "Brute force from 10.0.0.1", v.Summary)
		assert.Equal(t, "HIGH", v.Severity)
		assert.Equal(t, Recommendation("Action: BLOCK_IP"), v.Recommendation)
	})

	t.Run("fenced json", func(t *testing.T) {
		v, err := ParseVerdict("```json\n{\"summary\": \"x\", \"severity\": \"LOW\", \"recommendation\": \"\"}\n```")
		require.NoError(t, err)
		assert.Equal(t, "x", v.Summary)
		assert.Equal(t, "LOW", v.Severity)
	})

	t.Run("bare fence", func(t *testing.T) {
		v, err := ParseVerdict("```{\"summary\": \"x\"}```")
		require.NoError(t, err)
		assert.Equal(t, models.SeverityMedium, v.Severity, "missing severity defaults to MEDIUM")
	})

	t.Run("not json", func(t *testing.T) {
		_, err := ParseVerdict("I think you should block that IP")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrMalformed))
	})

	t.Run("missing summary", func(t *testing.T) {
		_, err := ParseVerdict(`{"severity": "HIGH", "recommendation": "Action: BLOCK_IP"}`)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrMalformed))
	})
}

func TestRenderLogs(t *testing.T) {
	ts := time.Date(2026, 5, 1, 8, 30, 0, 0, time.UTC)
	out := RenderLogs([]models.LogEvent{
		{Timestamp: ts, Source: "Auth", Severity: "HIGH", Message: "Failed login attempt"},
		{Timestamp: ts.Add(time.Minute), Source: "IDS", Severity: "CRITICAL", Message: "SQL injection"},
	})
	assert.Equal(t, "[2026-05-01T08:30:00Z] [Auth] [HIGH] Failed login attempt\n[2026-05-01T08:31:00Z] [IDS] [CRITICAL] SQL injection", out)
}

func TestFallback(t *testing.T) {
	fb := NewFallback()
	v1, err := fb.Classify(context.Background(), nil)
	require.NoError(t, err)
	v2, err := fb.Classify(context.Background(), []models.LogEvent{{ID: 1}})
	require.NoError(t, err)

	assert.Equal(t, v1, v2, "fallback verdicts are deterministic")
	assert.Equal(t, "MEDIUM", v1.Severity)
	assert.Equal(t, Recommendation("Action: BLOCK_IP\nAction: CREATE_TICKET"), v1.Recommendation)

	v1.Summary = "mutated"
	v3, _ := fb.Classify(context.Background(), nil)
	assert.NotEqual(t, "mutated", v3.Summary)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = fb.Classify(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNew_SelectsImplementation(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.LLMConfig
		expected string
	}{
		{"mock provider", config.LLMConfig{Provider: "mock", APIKey: "k"}, "fallback"},
		{"missing key", config.LLMConfig{Provider: "openai"}, "fallback"},
		{"placeholder key", config.LLMConfig{Provider: "groq", APIKey: "YOUR_GROQ_KEY"}, "fallback"},
		{"unsupported provider", config.LLMConfig{Provider: "anthropic-cloud", APIKey: "k"}, "fallback"},
		{"openai", config.LLMConfig{Provider: "openai", APIKey: "sk-1", Model: "gpt-4o-mini"}, "openai"},
		{"groq", config.LLMConfig{Provider: "groq", APIKey: "gsk-1", Model: "llama3-70b-8192"}, "groq"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(tt.cfg)
			require.NotNil(t, c)
			assert.Equal(t, tt.expected, c.Name())
		})
	}
}

func TestNew_DefaultBaseURLs(t *testing.T) {
	c, ok := New(config.LLMConfig{Provider: "groq", APIKey: "gsk-1"}).(*ChatClassifier)
	require.True(t, ok)
	assert.Equal(t, GroqBaseURL, c.baseURL)

	c, ok = New(config.LLMConfig{Provider: "openai", APIKey: "sk-1", BaseURL: "http://localhost:9999/v1/"}).(*ChatClassifier)
	require.True(t, ok)
	assert.Equal(t, "http://localhost:9999/v1", c.baseURL)
}
