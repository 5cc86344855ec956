package frappe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
)

var ErrNotFound = errors.New("frappe: document not found")

// TransportError is a failure to reach the backend at all.
type TransportError struct {
	Op      string
	Timeout bool
	Err     error
}

func (e *TransportError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("%s: backend timeout: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: backend unavailable: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// NewTransportError classifies err as a timeout or an unreachable backend.
func NewTransportError(op string, err error) *TransportError {
	te := &TransportError{Op: op, Err: err}
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		te.Timeout = true
	}
	return te
}

// Error is a non-2xx backend response carrying the backend's own message.
type Error struct {
	Status  int
	Message string
	ExcType string
}

func (e *Error) Error() string {
	if e.ExcType != "" {
		return fmt.Sprintf("backend %d %s: %s", e.Status, e.ExcType, e.Message)
	}
	return fmt.Sprintf("backend %d: %s", e.Status, e.Message)
}

// Is lets errors.Is(err, ErrNotFound) match 404 responses.
func (e *Error) Is(target error) bool {
	return target == ErrNotFound && (e.Status == 404 || e.ExcType == "DoesNotExistError")
}

type errorBody struct {
	ServerMessages string `json:"_server_messages"`
	Message        any    `json:"message"`
	Exception      string `json:"exception"`
	ExcType        string `json:"exc_type"`
}

// parseError builds an *Error from a backend error body. The message comes
// from _server_messages, then message, then exception, then exc_type.
func parseError(status int, body []byte) *Error {
	e := &Error{Status: status}
	var b errorBody
	if err := json.Unmarshal(body, &b); err != nil {
		e.Message = strings.TrimSpace(string(body))
		if e.Message == "" {
			e.Message = fmt.Sprintf("HTTP %d", status)
		}
		return e
	}
	e.ExcType = b.ExcType

	if msg := serverMessage(b.ServerMessages); msg != "" {
		e.Message = msg
		return e
	}
	if s, ok := b.Message.(string); ok && s != "" {
		e.Message = s
		return e
	}
	if b.Exception != "" {
		e.Message = b.Exception
		return e
	}
	if b.ExcType != "" {
		e.Message = b.ExcType
		return e
	}
	e.Message = fmt.Sprintf("HTTP %d", status)
	return e
}

// serverMessage decodes the doubly encoded _server_messages list and returns
// the first message.
func serverMessage(raw string) string {
	if raw == "" {
		return ""
	}
	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return ""
	}
	for _, item := range list {
		var m struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal([]byte(item), &m); err == nil && m.Message != "" {
			return m.Message
		}
		if item != "" && !strings.HasPrefix(item, "{") {
			return item
		}
	}
	return ""
}
