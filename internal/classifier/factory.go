package classifier

import (
	"strings"

	"github.com/Wikid82/sentinel/internal/config"
	"github.com/Wikid82/sentinel/internal/logger"
)

// New selects a classifier from configuration. Missing or placeholder credentials
// and unsupported providers degrade to the deterministic fallback.
func New(cfg config.LLMConfig) Classifier {
	log := logger.Component("classifier").WithField("provider", cfg.Provider)

	if cfg.Provider == "mock" {
		return NewFallback()
	}
	if cfg.APIKey == "" || strings.HasPrefix(cfg.APIKey, "YOUR_") {
		log.Warn("no valid LLM API key configured, using fallback verdicts")
		return NewFallback()
	}

	baseURL := cfg.BaseURL
	switch cfg.Provider {
	case "openai":
		if baseURL == "" {
			baseURL = OpenAIBaseURL
		}
	case "groq":
		if baseURL == "" {
			baseURL = GroqBaseURL
		}
	default:
		log.Warn("unsupported LLM provider, using fallback verdicts")
		return NewFallback()
	}

	return NewChatClassifier(cfg.Provider, baseURL, cfg.APIKey, cfg.Model, cfg.Timeout)
}
