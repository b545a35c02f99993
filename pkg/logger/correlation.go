package logger

import (
	"github.com/rs/zerolog"

	"BakeryStore/pkg/correlation"
)

// CorrelationHook adds correlation_id from the event's context to every log record.
type CorrelationHook struct{}

func (CorrelationHook) Run(e *zerolog.Event, _ zerolog.Level, _ string) {
	ctx := e.GetCtx()
	if ctx == nil {
		return
	}
	if corrID := correlation.FromContext(ctx); corrID != "" {
		e.Str("correlation_id", corrID)
	}
}
