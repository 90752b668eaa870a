package notify

import (
	"context"
	"log/slog"
)

// SlogNotifier writes events to the application log. Used in development
// when no broker is configured.
type SlogNotifier struct {
	logger *slog.Logger
}

// NewSlogNotifier creates a log-backed notification sink.
func NewSlogNotifier(logger *slog.Logger) *SlogNotifier {
	return &SlogNotifier{logger: logger}
}

// Notify logs the event. It never fails.
func (n *SlogNotifier) Notify(_ context.Context, event Event) error {
	n.logger.Info("notification",
		"event", event.Type,
		"report_id", event.ReportID,
		"recipients", len(event.Recipients),
	)
	return nil
}
