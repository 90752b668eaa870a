package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/civicdesk/civicdesk/internal/metrics"
)

// Dispatcher decouples the lifecycle engine from notification delivery.
//
// Dispatch never blocks the caller: events go onto a buffered channel and a
// background goroutine drains them to the sink. If the buffer is full the
// event is dropped. Sink errors are logged and counted, never returned.
type Dispatcher struct {
	sink    Notifier
	logger  *slog.Logger
	timeout time.Duration

	events chan Event
	wg     sync.WaitGroup
	once   sync.Once
}

// NewDispatcher creates a dispatcher draining to the given sink and starts
// its delivery goroutine. Call Close to drain and stop.
func NewDispatcher(sink Notifier, logger *slog.Logger, buffer int, timeout time.Duration) *Dispatcher {
	if buffer <= 0 {
		buffer = 256
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	d := &Dispatcher{
		sink:    sink,
		logger:  logger,
		timeout: timeout,
		events:  make(chan Event, buffer),
	}

	d.wg.Add(1)
	go d.run()

	return d
}

// Dispatch queues an event for delivery. It never blocks and never fails the
// caller; when the buffer is full the event is dropped and counted.
func (d *Dispatcher) Dispatch(event Event) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	select {
	case d.events <- event:
	default:
		metrics.NotificationsTotal.WithLabelValues(string(event.Type), "dropped").Inc()
		d.logger.Warn("notification dropped, dispatch buffer full",
			"event", event.Type,
			"report_id", event.ReportID,
		)
	}
}

// Close stops accepting events, drains the buffer, and waits for delivery
// to finish.
func (d *Dispatcher) Close() {
	d.once.Do(func() {
		close(d.events)
	})
	d.wg.Wait()
}

func (d *Dispatcher) run() {
	defer d.wg.Done()

	for event := range d.events {
		d.deliver(event)
	}
}

func (d *Dispatcher) deliver(event Event) {
	if len(event.Recipients) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	if err := d.sink.Notify(ctx, event); err != nil {
		metrics.NotificationsTotal.WithLabelValues(string(event.Type), "failed").Inc()
		d.logger.Warn("notification delivery failed",
			"event", event.Type,
			"report_id", event.ReportID,
			"recipients", len(event.Recipients),
			"error", err,
		)
		return
	}

	metrics.NotificationsTotal.WithLabelValues(string(event.Type), "sent").Inc()
	d.logger.Debug("notification sent",
		"event", event.Type,
		"report_id", event.ReportID,
		"recipients", len(event.Recipients),
	)
}
