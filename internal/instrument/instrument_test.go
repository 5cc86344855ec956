package instrument

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func TestRecorder_SpansShareTrace(t *testing.T) {
	buf := NewEventBuffer(zap.NewNop(), 10, 1000)
	defer buf.Stop()
	rec := NewRecorder(buf)

	ctx := WithTraceID(context.Background(), "trace-1")
	ctx, parent := rec.StartSpan(ctx, "http", "handler", "GET /console/forms/:doctype")
	_, child := rec.StartSpan(ctx, "frappe", "client", "frappe.get")
	child.SetEntity("Student", "EDU-STU-0001")
	child.End()
	child.End()
	parent.End()

	events := buf.Recent("trace-1")
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].ParentSpanID != parent.SpanID() {
		t.Fatalf("child should reference parent span, got %q", events[0].ParentSpanID)
	}
	if events[0].Entity != "Student" {
		t.Fatalf("expected entity on child span, got %q", events[0].Entity)
	}
}

func TestEventBuffer_RingKeepsNewest(t *testing.T) {
	buf := NewEventBuffer(zap.NewNop(), 3, 1000)
	defer buf.Stop()
	for _, id := range []string{"a", "b", "c", "d"} {
		buf.Enqueue(Event{TraceID: id})
	}
	got := buf.Recent("")
	if len(got) != 3 || got[0].TraceID != "b" || got[2].TraceID != "d" {
		t.Fatalf("unexpected ring contents %+v", got)
	}
}

func TestGetInstrumenter_DefaultsToNoop(t *testing.T) {
	if _, ok := GetInstrumenter(context.Background()).(*NoopInstrumenter); !ok {
		t.Fatal("expected noop instrumenter when none is attached")
	}
}

func TestMiddleware_TraceHeader(t *testing.T) {
	buf := NewEventBuffer(zap.NewNop(), 10, 1000)
	defer buf.Stop()

	app := fiber.New()
	app.Use(Middleware(NewRecorder(buf), true, 1))
	app.Get("/ping", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"trace": TraceIDFrom(c.UserContext())})
	})
	h := NewEventHandler(buf)
	app.Get("/_events/trace/:traceId", h.GetTrace)

	req := httptest.NewRequest("GET", "/ping", nil)
	req.Header.Set(TraceHeader, "not-a-uuid")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	traceID := resp.Header.Get(TraceHeader)
	if traceID == "" || traceID == "not-a-uuid" {
		t.Fatalf("expected a generated trace id, got %q", traceID)
	}
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["trace"] != traceID {
		t.Fatalf("handler saw trace %q, header %q", body["trace"], traceID)
	}

	resp, err = app.Test(httptest.NewRequest("GET", "/_events/trace/"+traceID, nil), -1)
	if err != nil {
		t.Fatalf("trace request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200 for recorded trace, got %d", resp.StatusCode)
	}
}
