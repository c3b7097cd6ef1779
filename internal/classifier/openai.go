package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Wikid82/sentinel/internal/logger"
	"github.com/Wikid82/sentinel/internal/models"
	"github.com/Wikid82/sentinel/internal/util"
	"github.com/Wikid82/sentinel/internal/version"
)

// Default chat completion endpoints for the supported providers. Both speak the
// OpenAI chat completions protocol.
const (
	OpenAIBaseURL = "https://api.openai.com/v1"
	GroqBaseURL   = "https://api.groq.com/openai/v1"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	ResponseFormat responseFormat `json:"response_format"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// ChatClassifier calls an OpenAI-compatible chat completions endpoint.
type ChatClassifier struct {
	provider string
	baseURL  string
	apiKey   string
	model    string
	client   *http.Client
}

// NewChatClassifier builds a classifier for provider at baseURL.
func NewChatClassifier(provider, baseURL, apiKey, model string, timeout time.Duration) *ChatClassifier {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ChatClassifier{
		provider: provider,
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiKey:   apiKey,
		model:    model,
		client:   &http.Client{Timeout: timeout},
	}
}

func (c *ChatClassifier) Name() string { return c.provider }

// Classify sends the rendered window and decodes the JSON verdict.
func (c *ChatClassifier) Classify(ctx context.Context, logs []models.LogEvent) (*Verdict, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildPrompt(logs)},
		},
		ResponseFormat: responseFormat{Type: "json_object"},
	})
	if err != nil {
		return nil, fmt.Errorf("encode chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("User-Agent", version.UserAgent())

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", c.provider, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", c.provider, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned status %d: %s", c.provider, resp.StatusCode, util.Truncate(util.SanitizeForLog(string(raw)), 200))
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("%w: decode envelope: %v", ErrMalformed, err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("%s error: %s", c.provider, parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices", ErrMalformed)
	}

	content := parsed.Choices[0].Message.Content
	verdict, err := ParseVerdict(content)
	if err != nil {
		return nil, err
	}

	logger.Component("classifier").WithFields(map[string]interface{}{
		"provider": c.provider,
		"model":    c.model,
		"latency":  time.Since(start).String(),
		"severity": verdict.Severity,
		"summary":  util.Truncate(util.SanitizeForLog(verdict.Summary), 200),
	}).Info("classifier returned verdict")
	return verdict, nil
}
