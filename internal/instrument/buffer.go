package instrument

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// EventBuffer collects events in memory and periodically flushes pending
// ones to the logger. The last maxSize events stay queryable by trace id.
type EventBuffer struct {
	mu      sync.Mutex
	pending []Event
	ring    []Event
	next    int
	full    bool
	logger  *zap.Logger
	maxSize int
	ticker  *time.Ticker
	done    chan struct{}
	stopped sync.Once
}

// NewEventBuffer creates a buffer that flushes on a timer or when full.
func NewEventBuffer(logger *zap.Logger, maxSize int, flushIntervalMs int) *EventBuffer {
	if maxSize <= 0 {
		maxSize = 1000
	}
	if flushIntervalMs <= 0 {
		flushIntervalMs = 1000
	}
	eb := &EventBuffer{
		logger:  logger.Named("Trace"),
		maxSize: maxSize,
		ring:    make([]Event, maxSize),
		done:    make(chan struct{}),
	}
	eb.ticker = time.NewTicker(time.Duration(flushIntervalMs) * time.Millisecond)
	go eb.run()
	return eb
}

func (eb *EventBuffer) run() {
	for {
		select {
		case <-eb.done:
			return
		case <-eb.ticker.C:
			eb.Flush()
		}
	}
}

// Enqueue adds an event to the buffer. If the pending batch is full, a flush
// is triggered asynchronously.
func (eb *EventBuffer) Enqueue(event Event) {
	eb.mu.Lock()
	eb.pending = append(eb.pending, event)
	eb.ring[eb.next] = event
	eb.next = (eb.next + 1) % eb.maxSize
	if eb.next == 0 {
		eb.full = true
	}
	shouldFlush := len(eb.pending) >= eb.maxSize
	eb.mu.Unlock()
	if shouldFlush {
		go eb.Flush()
	}
}

// Flush writes all pending events to the logger.
func (eb *EventBuffer) Flush() {
	eb.mu.Lock()
	if len(eb.pending) == 0 {
		eb.mu.Unlock()
		return
	}
	batch := eb.pending
	eb.pending = nil
	eb.mu.Unlock()

	for _, e := range batch {
		fields := []zap.Field{
			zap.String("trace_id", e.TraceID),
			zap.String("span_id", e.SpanID),
			zap.String("type", e.EventType),
			zap.String("source", e.Source),
			zap.String("component", e.Component),
			zap.Float64("duration_ms", e.DurationMs),
			zap.String("status", e.Status),
		}
		if e.ParentSpanID != "" {
			fields = append(fields, zap.String("parent_span_id", e.ParentSpanID))
		}
		if e.Entity != "" {
			fields = append(fields, zap.String("entity", e.Entity), zap.String("record_id", e.RecordID))
		}
		if e.UserID != "" {
			fields = append(fields, zap.String("user", e.UserID))
		}
		if len(e.Metadata) > 0 {
			fields = append(fields, zap.Any("metadata", e.Metadata))
		}
		if e.Status == "error" {
			eb.logger.Warn(e.Action, fields...)
			continue
		}
		eb.logger.Debug(e.Action, fields...)
	}
}

// Recent returns retained events, oldest first, optionally filtered by trace id.
func (eb *EventBuffer) Recent(traceID string) []Event {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	var ordered []Event
	if eb.full {
		ordered = append(ordered, eb.ring[eb.next:]...)
	}
	ordered = append(ordered, eb.ring[:eb.next]...)

	out := make([]Event, 0, len(ordered))
	for _, e := range ordered {
		if traceID == "" || e.TraceID == traceID {
			out = append(out, e)
		}
	}
	return out
}

// Stop halts the background ticker and flushes remaining events.
func (eb *EventBuffer) Stop() {
	eb.stopped.Do(func() {
		eb.ticker.Stop()
		close(eb.done)
		eb.Flush()
	})
}
