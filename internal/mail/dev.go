package mail

import (
	"context"
	"log/slog"
)

// LogSender is a Sender for development environments: it validates the
// message and writes it to the logger instead of delivering it.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a Sender that logs instead of sending.
func NewLogSender(logger *slog.Logger) *LogSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	s.logger.Info("email suppressed in development mode",
		"to", msg.To,
		"subject", msg.Subject,
		"tag", msg.Tag,
	)
	return nil
}
