package messaging

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"

	"BakeryStore/pkg/correlation"
)

// EnvelopeVersion is bumped when the payload layout of published order events changes.
const EnvelopeVersion = 1

// Header keys every transport attaches to a published envelope.
const (
	HeaderEventType = "event_type"
	HeaderVersion   = "envelope_version"
)

// Envelope is what goes on the wire. EventID is stable across redeliveries so consumers can dedupe.
type Envelope struct {
	EventID       string          `json:"event_id"`
	Key           string          `json:"key"`
	Type          string          `json:"type"`
	Version       int             `json:"version"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
	Timestamp     time.Time       `json:"timestamp"`
}

type EnvelopeOption func(*Envelope)

// WithEventID reuses an id that already identifies the payload, such as a stored order event id.
func WithEventID(id string) EnvelopeOption {
	return func(e *Envelope) { e.EventID = id }
}

func WithTimestamp(ts time.Time) EnvelopeOption {
	return func(e *Envelope) { e.Timestamp = ts.UTC() }
}

// NewEnvelope marshals payload. The correlation id comes from ctx.
func NewEnvelope(ctx context.Context, key, msgType string, payload any, opts ...EnvelopeOption) (Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}

	env := Envelope{
		EventID:       uuid.NewString(),
		Key:           key,
		Type:          msgType,
		Version:       EnvelopeVersion,
		CorrelationID: correlation.FromContext(ctx),
		Payload:       data,
		Timestamp:     time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(&env)
	}
	return env, nil
}

// Headers are the broker headers for env. Consumers can route on them without decoding the body.
func (e Envelope) Headers() map[string]string {
	h := map[string]string{
		HeaderEventType: e.Type,
		HeaderVersion:   strconv.Itoa(e.Version),
	}
	if e.CorrelationID != "" {
		h[correlation.MessageHeaderName] = e.CorrelationID
	}
	return h
}

type Publisher interface {
	Publish(ctx context.Context, envelope Envelope) error
	Close() error
}

type MessageHandler func(ctx context.Context, key, value []byte) error

// Worker consumes from a broker until ctx is done.
type Worker interface {
	Start(ctx context.Context, handler MessageHandler) error
	Close() error
}
