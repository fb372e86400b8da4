package amqp

import (
	"encoding/json"
	"time"

	"github.com/gilppon/kaikebu/internal/ledger"
)

// ChangeMessage announces one completed ledger mutation. It carries only
// the operation and entity id; consumers read the current state from the
// snapshot store.
type ChangeMessage struct {
	Op        string    `json:"op"`
	EntityID  string    `json:"entityId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewChangeMessage(c ledger.Change) *ChangeMessage {
	return &ChangeMessage{
		Op:        c.Op,
		EntityID:  c.EntityID,
		Timestamp: time.Now(),
	}
}

func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
