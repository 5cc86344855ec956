package frappe

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"kairos-gateway/internal/config"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(config.BackendConfig{BaseURL: srv.URL, TimeoutMs: 2000}, zap.NewNop())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestList_SendsQueryAndSession(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/resource/Student" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		ck, err := r.Cookie("sid")
		if err != nil || ck.Value != "abc123" {
			t.Errorf("expected sid cookie, got %v", ck)
		}
		q := r.URL.Query()
		if q.Get("fields") != `["name","first_name"]` {
			t.Errorf("unexpected fields %q", q.Get("fields"))
		}
		if q.Get("filters") != `[["program","=","BSc"]]` {
			t.Errorf("unexpected filters %q", q.Get("filters"))
		}
		if q.Get("limit_start") != "20" || q.Get("limit_page_length") != "20" {
			t.Errorf("unexpected paging %v", q)
		}
		writeJSON(w, 200, map[string]any{"data": []map[string]any{{"name": "EDU-STU-0001", "first_name": "Asha"}}})
	})

	ctx := WithSession(context.Background(), "abc123")
	rows, err := c.List(ctx, "Student", ListQuery{
		Fields:     []string{"name", "first_name"},
		Filters:    []Filter{{Field: "program", Operator: "=", Value: "BSc"}},
		OrderBy:    "modified desc",
		Start:      20,
		PageLength: 20,
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 1 || rows[0]["first_name"] != "Asha" {
		t.Fatalf("unexpected rows %v", rows)
	}
}

func TestCount(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/method/frappe.client.get_count" || r.URL.Query().Get("doctype") != "Student" {
			t.Errorf("unexpected request %s", r.URL)
		}
		writeJSON(w, 200, map[string]any{"message": 42})
	})
	n, err := c.Count(context.Background(), "Student", nil)
	if err != nil || n != 42 {
		t.Fatalf("expected 42, got %d (%v)", n, err)
	}
}

func TestBackendErrorMessageExtraction(t *testing.T) {
	inner, _ := json.Marshal(map[string]any{"message": "First Name is mandatory", "indicator": "red"})
	outer, _ := json.Marshal([]string{string(inner)})

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 417, map[string]any{
			"exc_type":         "MandatoryError",
			"exception":        "frappe.exceptions.MandatoryError: first_name",
			"_server_messages": string(outer),
		})
	})
	_, err := c.Insert(context.Background(), "Student", map[string]any{})
	var be *Error
	if !errors.As(err, &be) {
		t.Fatalf("expected *Error, got %T %v", err, err)
	}
	if be.Status != 417 || be.Message != "First Name is mandatory" || be.ExcType != "MandatoryError" {
		t.Fatalf("unexpected error %+v", be)
	}
}

func TestParseError_Order(t *testing.T) {
	if e := parseError(500, []byte(`{"message":"plain","exception":"exc"}`)); e.Message != "plain" {
		t.Fatalf("expected message, got %q", e.Message)
	}
	if e := parseError(500, []byte(`{"exception":"exc","exc_type":"T"}`)); e.Message != "exc" {
		t.Fatalf("expected exception, got %q", e.Message)
	}
	if e := parseError(500, []byte(`{"exc_type":"PermissionError"}`)); e.Message != "PermissionError" {
		t.Fatalf("expected exc_type, got %q", e.Message)
	}
	if e := parseError(502, []byte("<html>Bad Gateway</html>")); e.Message != "<html>Bad Gateway</html>" {
		t.Fatalf("expected raw body, got %q", e.Message)
	}
}

func TestGet_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 404, map[string]any{"exc_type": "DoesNotExistError", "exception": "Student EDU-X not found"})
	})
	_, err := c.Get(context.Background(), "Student", "EDU-X")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTransportError_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()
	c := New(config.BackendConfig{BaseURL: srv.URL, TimeoutMs: 20}, zap.NewNop())

	_, err := c.Get(context.Background(), "Student", "x")
	var te *TransportError
	if !errors.As(err, &te) || !te.Timeout {
		t.Fatalf("expected timeout transport error, got %v", err)
	}
}

func TestTransportError_Unavailable(t *testing.T) {
	c := New(config.BackendConfig{BaseURL: "http://127.0.0.1:1", TimeoutMs: 500}, zap.NewNop())
	_, err := c.Get(context.Background(), "Student", "x")
	var te *TransportError
	if !errors.As(err, &te) || te.Timeout {
		t.Fatalf("expected unavailable transport error, got %v", err)
	}
}

func TestGetSchema_WithChildren(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/method/frappe.desk.form.load.getdoctype" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		writeJSON(w, 200, map[string]any{"docs": []map[string]any{
			{"name": "Student", "title_field": "first_name", "fields": []map[string]any{
				{"fieldname": "first_name", "fieldtype": "Data", "reqd": 1, "in_list_view": 1},
				{"fieldname": "guardians", "fieldtype": "Table", "options": "Student Guardian"},
			}},
			{"name": "Student Guardian", "istable": 1, "fields": []map[string]any{
				{"fieldname": "guardian", "fieldtype": "Link", "options": "Guardian", "in_list_view": 1},
			}},
		}})
	})
	s, err := c.GetSchema(context.Background(), "Student")
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	if s.TitleField != "first_name" || len(s.Fields) != 2 || !s.Fields[0].IsRequired() {
		t.Fatalf("unexpected schema %+v", s)
	}
	child := s.Child(s.Fields[1])
	if child == nil || child.IsTable != 1 || len(child.Fields) != 1 {
		t.Fatalf("expected child schema, got %+v", child)
	}
}

func TestGetSchema_FallsBackToDocTypeResource(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/method/") {
			writeJSON(w, 403, map[string]any{"exc_type": "PermissionError"})
			return
		}
		if r.URL.Path != "/api/resource/DocType/Student" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		writeJSON(w, 200, map[string]any{"data": map[string]any{
			"name":   "Student",
			"fields": []map[string]any{{"fieldname": "first_name", "fieldtype": "Data"}},
		}})
	})
	s, err := c.GetSchema(context.Background(), "Student")
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	if s.Name != "Student" || len(s.Fields) != 1 {
		t.Fatalf("unexpected schema %+v", s)
	}
}

func TestLogin_CapturesSessionCookie(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["usr"] != "admin@kairos.test" || body["pwd"] != "secret" {
			writeJSON(w, 401, map[string]any{"message": "Invalid login credentials"})
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "sid", Value: "s3ss10n", Path: "/"})
		http.SetCookie(w, &http.Cookie{Name: "full_name", Value: "Admin", Path: "/"})
		writeJSON(w, 200, map[string]any{"message": "Logged In", "full_name": "Admin", "home_page": "/app"})
	})

	res, err := c.Login(context.Background(), "admin@kairos.test", "secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if res.SessionID != "s3ss10n" || res.FullName != "Admin" {
		t.Fatalf("unexpected login result %+v", res)
	}

	_, err = c.Login(context.Background(), "admin@kairos.test", "wrong")
	var be *Error
	if !errors.As(err, &be) || be.Message != "Invalid login credentials" {
		t.Fatalf("expected backend error, got %v", err)
	}
}

func TestSearchLink_MessageAndResults(t *testing.T) {
	legacy := false
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		items := []map[string]any{{"value": "GRD-0001", "description": "Maria Lopez"}}
		if legacy {
			writeJSON(w, 200, map[string]any{"results": items})
			return
		}
		writeJSON(w, 200, map[string]any{"message": items})
	})
	for _, l := range []bool{false, true} {
		legacy = l
		got, err := c.SearchLink(context.Background(), "Guardian", "mar", 10)
		if err != nil || len(got) != 1 || got[0].Value != "GRD-0001" {
			t.Fatalf("legacy=%v: unexpected %v (%v)", l, got, err)
		}
	}
}

func TestUpload_Multipart(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		if r.FormValue("doctype") != "Student" || r.FormValue("is_private") != "1" {
			t.Errorf("unexpected form %v", r.MultipartForm.Value)
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form file: %v", err)
			return
		}
		b, _ := io.ReadAll(f)
		writeJSON(w, 200, map[string]any{"message": map[string]any{
			"name": "abc", "file_name": hdr.Filename, "file_url": "/private/files/" + hdr.Filename + "?" + string(b),
		}})
	})

	f, err := c.Upload(context.Background(), Upload{
		FileName:  "photo.png",
		Content:   strings.NewReader("png"),
		Doctype:   "Student",
		DocName:   "EDU-STU-0001",
		FieldName: "image",
		IsPrivate: true,
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if f.FileName != "photo.png" || f.FileURL != "/private/files/photo.png?png" {
		t.Fatalf("unexpected file %+v", f)
	}
}
