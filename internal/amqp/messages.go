package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"finboard/internal/analytics"
)

// AlertMessage is the wire form of one generated alert. The message carries
// the full alert so consumers never need to re-run the computation.
type AlertMessage struct {
	MessageID       string              `json:"messageId"`
	WorkspaceScope  []string            `json:"workspaceScope"`
	Kind            analytics.AlertKind `json:"kind"`
	Severity        analytics.Severity  `json:"severity"`
	Message         string              `json:"message"`
	RelatedEntityID string              `json:"relatedEntityId,omitempty"`
	Timestamp       time.Time           `json:"timestamp"`
}

// NewAlertMessage wraps one alert for publishing.
func NewAlertMessage(scope []string, a analytics.Alert) *AlertMessage {
	return &AlertMessage{
		MessageID:       uuid.NewString(),
		WorkspaceScope:  scope,
		Kind:            a.Kind,
		Severity:        a.Severity,
		Message:         a.Message,
		RelatedEntityID: a.RelatedEntityID,
		Timestamp:       time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *AlertMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// AlertMessageFromJSON creates a message from JSON bytes
func AlertMessageFromJSON(data []byte) (*AlertMessage, error) {
	var msg AlertMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
