// internal/workers/knowledge/ground-context/models.go
package groundcontext

import (
	"knowledge-workers/internal/models"
)

type Input struct {
	Message   string        `json:"message"`
	History   []HistoryTurn `json:"history"`
	RequestID string        `json:"requestId,omitempty"`
}

type HistoryTurn struct {
	Sender  string `json:"sender"`
	Text    string `json:"text"`
	IsError bool   `json:"isError"`
}

type Output struct {
	RequestID     string                    `json:"requestId"`
	ContextBlock  string                    `json:"contextBlock"`
	Decisions     map[string]DecisionOutput `json:"decisions"`
	Location      *models.LocationContext   `json:"location,omitempty"`
	DetectedLevel string                    `json:"detectedLevel"`
	Degraded      bool                      `json:"degraded"`
	FailedDomains []string                  `json:"failedDomains"`
}

type DecisionOutput struct {
	Call    bool     `json:"call"`
	Score   float64  `json:"score"`
	Reasons []string `json:"reasons"`
}
