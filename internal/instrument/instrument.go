// Package instrument records request-scoped spans and business events.
package instrument

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Instrumenter starts spans and emits business events.
type Instrumenter interface {
	StartSpan(ctx context.Context, source, component, action string) (context.Context, Span)
	EmitBusinessEvent(ctx context.Context, action, entity, recordID string, metadata map[string]any)
}

// Span is one timed unit of work inside a trace.
type Span interface {
	End()
	SetStatus(status string)
	SetMetadata(key string, value any)
	SetEntity(entity, recordID string)
	TraceID() string
	SpanID() string
}

// Event is a finished span or a business event.
type Event struct {
	TraceID      string         `json:"trace_id"`
	SpanID       string         `json:"span_id"`
	ParentSpanID string         `json:"parent_span_id,omitempty"`
	EventType    string         `json:"event_type"` // span, business
	Source       string         `json:"source"`
	Component    string         `json:"component"`
	Action       string         `json:"action"`
	Entity       string         `json:"entity,omitempty"`
	RecordID     string         `json:"record_id,omitempty"`
	UserID       string         `json:"user_id,omitempty"`
	DurationMs   float64        `json:"duration_ms"`
	Status       string         `json:"status"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

type ctxKey int

const (
	instrumenterKey ctxKey = iota
	traceIDKey
	spanIDKey
	userIDKey
)

// WithInstrumenter stores inst in ctx.
func WithInstrumenter(ctx context.Context, inst Instrumenter) context.Context {
	return context.WithValue(ctx, instrumenterKey, inst)
}

// GetInstrumenter returns the instrumenter in ctx, or a no-op one.
func GetInstrumenter(ctx context.Context) Instrumenter {
	if inst, ok := ctx.Value(instrumenterKey).(Instrumenter); ok && inst != nil {
		return inst
	}
	return &NoopInstrumenter{}
}

func WithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, traceIDKey, id)
}

// TraceIDFrom returns the request trace id, or "".
func TraceIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(traceIDKey).(string)
	return id
}

func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

func userIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

// Recorder is the live Instrumenter. Finished spans go to the buffer.
type Recorder struct {
	buffer *EventBuffer
}

func NewRecorder(buffer *EventBuffer) *Recorder {
	return &Recorder{buffer: buffer}
}

func (r *Recorder) StartSpan(ctx context.Context, source, component, action string) (context.Context, Span) {
	traceID := TraceIDFrom(ctx)
	if traceID == "" {
		traceID = uuid.NewString()
		ctx = WithTraceID(ctx, traceID)
	}
	parent, _ := ctx.Value(spanIDKey).(string)

	s := &span{
		buffer: r.buffer,
		start:  time.Now(),
		event: Event{
			TraceID:      traceID,
			SpanID:       uuid.NewString(),
			ParentSpanID: parent,
			EventType:    "span",
			Source:       source,
			Component:    component,
			Action:       action,
			UserID:       userIDFrom(ctx),
			Status:       "ok",
		},
	}
	return context.WithValue(ctx, spanIDKey, s.event.SpanID), s
}

func (r *Recorder) EmitBusinessEvent(ctx context.Context, action, entity, recordID string, metadata map[string]any) {
	parent, _ := ctx.Value(spanIDKey).(string)
	r.buffer.Enqueue(Event{
		TraceID:      TraceIDFrom(ctx),
		SpanID:       uuid.NewString(),
		ParentSpanID: parent,
		EventType:    "business",
		Source:       "console",
		Component:    "business",
		Action:       action,
		Entity:       entity,
		RecordID:     recordID,
		UserID:       userIDFrom(ctx),
		Status:       "ok",
		Metadata:     metadata,
		CreatedAt:    time.Now(),
	})
}

type span struct {
	buffer *EventBuffer
	start  time.Time
	event  Event
	ended  bool
}

func (s *span) End() {
	if s.ended {
		return
	}
	s.ended = true
	s.event.CreatedAt = s.start
	s.event.DurationMs = float64(time.Since(s.start).Microseconds()) / 1000
	s.buffer.Enqueue(s.event)
}

func (s *span) SetStatus(status string) { s.event.Status = status }

func (s *span) SetMetadata(key string, value any) {
	if s.event.Metadata == nil {
		s.event.Metadata = make(map[string]any)
	}
	s.event.Metadata[key] = value
}

func (s *span) SetEntity(entity, recordID string) {
	s.event.Entity = entity
	s.event.RecordID = recordID
}

func (s *span) TraceID() string { return s.event.TraceID }
func (s *span) SpanID() string  { return s.event.SpanID }
