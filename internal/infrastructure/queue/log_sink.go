package queue

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/sirpyerre/item-catalog/internal/core/domain"
)

// LogSink writes auth events to the structured log instead of a store.
type LogSink struct {
	log zerolog.Logger
}

func NewLogSink(log zerolog.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) Record(_ context.Context, event domain.AuthEvent) error {
	ev := s.log.Info()
	if !event.Success {
		ev = s.log.Warn()
	}
	ev.Str("event_type", string(event.Type)).
		Str("user_id", event.UserID).
		Str("email", event.Email).
		Str("remote_ip", event.RemoteIP).
		Bool("success", event.Success).
		Time("at", event.At).
		Msg("auth event")
	return nil
}
