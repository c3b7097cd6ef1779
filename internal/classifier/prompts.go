package classifier

import (
	"fmt"
	"strings"
	"time"

	"github.com/Wikid82/sentinel/internal/models"
)

const systemPrompt = "You are a helpful cybersecurity analyst. Always return valid JSON."

// incidentPrompt is filled with the rendered log lines.
const incidentPrompt = `You are a cybersecurity analyst.

Logs:
%s

Task:
1. Summarize the incident in 2 sentences.
2. Assign a severity (LOW, MEDIUM, HIGH, CRITICAL).
3. Suggest recommended actions, one per line, like "Action: BLOCK_IP", "Action: SLACK_ALERT", "Action: CREATE_TICKET".
Return JSON only:
{"summary": "...", "severity": "...", "recommendation": "..."}`

// RenderLogs formats events as "[timestamp] [source] [severity] message" lines, in order.
func RenderLogs(logs []models.LogEvent) string {
	lines := make([]string, 0, len(logs))
	for _, l := range logs {
		lines = append(lines, fmt.Sprintf("[%s] [%s] [%s] %s",
			l.Timestamp.UTC().Format(time.RFC3339), l.Source, l.Severity, l.Message))
	}
	return strings.Join(lines, "\n")
}

func buildPrompt(logs []models.LogEvent) string {
	return fmt.Sprintf(incidentPrompt, RenderLogs(logs))
}
