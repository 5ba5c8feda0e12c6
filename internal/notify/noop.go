package notify

import (
	"context"
	"log/slog"
)

// NoOpSender implements Sender by logging discarded messages. It is used
// when no mail backend is configured.
type NoOpSender struct {
	log *slog.Logger
}

// NewNoOpSender creates a sender that discards messages with a log line.
func NewNoOpSender(log *slog.Logger) *NoOpSender {
	return &NoOpSender{log: log}
}

// Send logs and discards msg.
func (n *NoOpSender) Send(_ context.Context, msg *Message, recipients []string) error {
	n.log.Debug("email discarded (no sender configured)",
		"subject", msg.Subject,
		"recipients", len(recipients),
	)
	return nil
}
