package domain

import (
	"context"
)

// EventBus carries evaluation lifecycle events. Backed by Go channels
// (community) or NATS (pro). The scope is the challenge ID.
type EventBus interface {
	// Publish sends a message to a topic.
	Publish(ctx context.Context, scope string, topic string, payload []byte) error

	// Subscribe registers a handler for a topic.
	// Returns a subscription that can be used to unsubscribe.
	Subscribe(ctx context.Context, scope string, topic string, handler MessageHandler) (Subscription, error)

	// Health check
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}

// MessageHandler processes incoming messages.
type MessageHandler func(ctx context.Context, msg *Message) error

// Message represents an event message.
type Message struct {
	ID        string            `json:"id"`
	Scope     string            `json:"scope"`
	Topic     string            `json:"topic"`
	Payload   []byte            `json:"payload"`
	Metadata  map[string]string `json:"metadata"`
	Timestamp int64             `json:"timestamp"`
}

// Subscription represents an active subscription.
type Subscription interface {
	// Unsubscribe stops receiving messages.
	Unsubscribe() error

	// Topic returns the subscribed topic.
	Topic() string
}

// EventBusConfig holds configuration for event bus initialization.
type EventBusConfig struct {
	// Type is the bus type: "channel" or "nats"
	Type string

	// Channel settings (community tier)
	ChannelBufferSize int

	// NATS settings (pro tier)
	NATSUrl           string
	NATSToken         string
	NATSMaxReconnects int
	NATSReconnectWait int // seconds
}

// Standard topic names for the evaluation pipeline. Bus implementations
// prefix these with the scope, so topics stay short.
const (
	TopicEvaluateRequest     = "challenge.evaluate.request"
	TopicChallengeEvaluated  = "challenge.evaluated"
	TopicTransactionRecorded = "transaction.recorded"
)

// EvaluateRequest is the bus payload asking the worker to evaluate a
// challenge (optionally a single role).
type EvaluateRequest struct {
	RunID       string `json:"runId"`
	ChallengeID string `json:"challengeId"`
	Role        Role   `json:"role,omitempty"`
	TraceID     string `json:"traceId,omitempty"`
}
