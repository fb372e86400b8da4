package amqp

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/gilppon/kaikebu/internal/ledger"
)

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		base     time.Duration
		attempt  int
		expected time.Duration
	}{
		{time.Second, 0, 1 * time.Second},
		{time.Second, 1, 2 * time.Second},
		{time.Second, 2, 4 * time.Second},
		{time.Second, 3, 8 * time.Second},
		{time.Second, 4, 16 * time.Second},
		{time.Second, 5, 30 * time.Second},  // capped at 30s
		{time.Second, 10, 30 * time.Second}, // capped at 30s
		{time.Second, 64, 30 * time.Second}, // shift overflow still capped
		{5 * time.Second, 0, 5 * time.Second},
		{5 * time.Second, 1, 10 * time.Second},
		{5 * time.Second, 3, 30 * time.Second}, // 40s capped at 30s
		{0, 0, 1 * time.Second},                // non-positive base falls back to 1s
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("base_%s_attempt_%d", tt.base, tt.attempt), func(t *testing.T) {
			result := exponentialBackoff(tt.base, tt.attempt)
			if result != tt.expected {
				t.Errorf("exponentialBackoff(%s, %d) = %v, want %v", tt.base, tt.attempt, result, tt.expected)
			}
		})
	}
}

func TestSetReconnectDelay(t *testing.T) {
	c := &Client{reconnectDelay: time.Second}

	c.SetReconnectDelay(5 * time.Second)
	if c.reconnectDelay != 5*time.Second {
		t.Errorf("reconnectDelay = %v, want 5s", c.reconnectDelay)
	}

	c.SetReconnectDelay(0)
	if c.reconnectDelay != 5*time.Second {
		t.Errorf("reconnectDelay = %v, want 5s after ignoring non-positive value", c.reconnectDelay)
	}
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"connection refused", errors.New("dial tcp: connection refused"), true},
		{"connection closed", errors.New("connection closed"), true},
		{"unexpected EOF", errors.New("unexpected EOF"), true},
		{"broken pipe", errors.New("write: broken pipe"), true},
		{"closed network connection", errors.New("use of closed network connection"), true},
		{"unrelated error", errors.New("some other error"), false},
		{"validation error", errors.New("invalid input"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := isConnectionError(tt.err)
			if result != tt.expected {
				t.Errorf("isConnectionError(%v) = %v, want %v", tt.err, result, tt.expected)
			}
		})
	}
}

func TestChangeMessageRoundTrip(t *testing.T) {
	msg := NewChangeMessage(ledger.Change{Op: ledger.OpAddTransaction, EntityID: "t42"})
	body, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	back, err := ChangeMessageFromJSON(body)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Op != ledger.OpAddTransaction || back.EntityID != "t42" {
		t.Fatalf("round trip mismatch: %+v", back)
	}
}
