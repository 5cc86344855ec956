package frappe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	"kairos-gateway/internal/metadata"
)

// doctypeDoc is one entry of getdoctype's docs list.
type doctypeDoc struct {
	Name       string           `json:"name"`
	TitleField string           `json:"title_field"`
	IsSingle   int              `json:"issingle"`
	IsTable    int              `json:"istable"`
	SortField  string           `json:"sort_field"`
	SortOrder  string           `json:"sort_order"`
	Fields     []metadata.Field `json:"fields"`
}

func (d doctypeDoc) schema() *metadata.Schema {
	return &metadata.Schema{
		Name:       d.Name,
		TitleField: d.TitleField,
		IsSingle:   d.IsSingle,
		IsTable:    d.IsTable,
		SortField:  d.SortField,
		SortOrder:  d.SortOrder,
		Fields:     d.Fields,
	}
}

// GetSchema loads a doctype with its child table doctypes. It uses the desk
// getdoctype method and falls back to the DocType resource, which has no
// child schemas, when the method is not permitted.
func (c *Client) GetSchema(ctx context.Context, doctype string) (*metadata.Schema, error) {
	var out struct {
		Docs []doctypeDoc `json:"docs"`
	}
	err := c.Call(ctx, "frappe.desk.form.load.getdoctype", url.Values{"doctype": {doctype}}, &out)
	if err == nil && len(out.Docs) > 0 {
		var root *metadata.Schema
		children := make(map[string]*metadata.Schema)
		for _, d := range out.Docs {
			if d.Name == doctype {
				root = d.schema()
				continue
			}
			children[d.Name] = d.schema()
		}
		if root != nil {
			if len(children) > 0 {
				root.Children = children
			}
			return root, nil
		}
	}
	var te *TransportError
	if errors.As(err, &te) {
		return nil, err
	}

	var doc doctypeDoc
	if ferr := c.do(ctx, http.MethodGet, resourcePath("DocType", doctype), nil, nil, &doc); ferr != nil {
		if err != nil {
			return nil, err
		}
		return nil, ferr
	}
	if doc.Name == "" {
		doc.Name = doctype
	}
	return doc.schema(), nil
}

// FetchSchema satisfies metadata.Fetcher.
func (c *Client) FetchSchema(ctx context.Context, doctype string) (*metadata.Schema, error) {
	return c.GetSchema(ctx, doctype)
}

// LinkResult is one search_link suggestion.
type LinkResult struct {
	Value       string `json:"value"`
	Label       string `json:"label,omitempty"`
	Description string `json:"description,omitempty"`
}

// SearchLink returns candidate values for a Link field.
func (c *Client) SearchLink(ctx context.Context, doctype, txt string, limit int) ([]LinkResult, error) {
	args := url.Values{"doctype": {doctype}, "txt": {txt}}
	if limit > 0 {
		args.Set("page_length", strconv.Itoa(limit))
	}
	resp, err := c.send(ctx, http.MethodGet, "/api/method/frappe.desk.search.search_link", args, nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	// Older sites answer in results, newer ones in message.
	var out struct {
		Message []LinkResult `json:"message"`
		Results []LinkResult `json:"results"`
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: "read response", Err: err}
	}
	if resp.StatusCode >= 300 {
		return nil, parseError(resp.StatusCode, raw)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode search_link: %w", err)
	}
	if out.Message != nil {
		return out.Message, nil
	}
	if out.Results == nil {
		return []LinkResult{}, nil
	}
	return out.Results, nil
}

// GlobalHit is one full-text search hit.
type GlobalHit struct {
	Doctype string `json:"doctype"`
	Name    string `json:"name"`
	Content string `json:"content"`
	Title   string `json:"title,omitempty"`
	Route   string `json:"route,omitempty"`
}

// GlobalSearch queries the backend full-text index. An empty doctype
// searches every indexed type.
func (c *Client) GlobalSearch(ctx context.Context, text, doctype string, limit int) ([]GlobalHit, error) {
	args := url.Values{"text": {text}, "start": {"0"}}
	if limit > 0 {
		args.Set("limit", strconv.Itoa(limit))
	}
	if doctype != "" {
		args.Set("doctype", doctype)
	}
	var hits []GlobalHit
	if err := c.Call(ctx, "frappe.utils.global_search.search", args, &hits); err != nil {
		return nil, err
	}
	return hits, nil
}

// LoginResult is the backend answer to a successful login.
type LoginResult struct {
	Message  string
	FullName string
	HomePage string
	// SessionID is the sid cookie the backend set.
	SessionID string
	Cookies   []*http.Cookie
}

// Login authenticates against the backend and captures its session cookie.
func (c *Client) Login(ctx context.Context, user, password string) (*LoginResult, error) {
	resp, err := c.send(ctx, http.MethodPost, "/api/method/login", nil, map[string]string{"usr": user, "pwd": password}, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: "read response", Err: err}
	}
	if resp.StatusCode >= 300 {
		return nil, parseError(resp.StatusCode, raw)
	}

	var body struct {
		Message  string `json:"message"`
		FullName string `json:"full_name"`
		HomePage string `json:"home_page"`
	}
	_ = json.Unmarshal(raw, &body)

	res := &LoginResult{
		Message:  body.Message,
		FullName: body.FullName,
		HomePage: body.HomePage,
		Cookies:  resp.Cookies(),
	}
	for _, ck := range res.Cookies {
		if ck.Name == SessionCookie && ck.Value != "" && ck.Value != "Guest" {
			res.SessionID = ck.Value
		}
	}
	if res.SessionID == "" {
		return nil, fmt.Errorf("login: backend did not set a %s cookie", SessionCookie)
	}
	return res, nil
}

// Logout ends the backend session carried by ctx.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/method/logout", nil, nil, nil)
}

// LoggedUser returns the user id of the session carried by ctx.
func (c *Client) LoggedUser(ctx context.Context) (string, error) {
	var user string
	if err := c.Call(ctx, "frappe.auth.get_logged_user", nil, &user); err != nil {
		return "", err
	}
	return user, nil
}

// UploadedFile is the File document created by upload_file.
type UploadedFile struct {
	Name      string `json:"name"`
	FileName  string `json:"file_name"`
	FileURL   string `json:"file_url"`
	IsPrivate int    `json:"is_private"`
}

// Upload describes a file for upload_file, optionally attached to a
// document field.
type Upload struct {
	FileName  string
	Content   io.Reader
	Doctype   string
	DocName   string
	FieldName string
	IsPrivate bool
}

// Upload streams up to the backend as multipart form data.
func (c *Client) Upload(ctx context.Context, up Upload) (*UploadedFile, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		err := func() error {
			fields := map[string]string{
				"doctype":   up.Doctype,
				"docname":   up.DocName,
				"fieldname": up.FieldName,
			}
			if up.IsPrivate {
				fields["is_private"] = "1"
			}
			for k, v := range fields {
				if v == "" {
					continue
				}
				if err := mw.WriteField(k, v); err != nil {
					return err
				}
			}
			part, err := mw.CreateFormFile("file", up.FileName)
			if err != nil {
				return err
			}
			if _, err := io.Copy(part, up.Content); err != nil {
				return err
			}
			return mw.Close()
		}()
		pw.CloseWithError(err)
	}()

	resp, err := c.send(ctx, http.MethodPost, "/api/method/upload_file", nil, pr, mw.FormDataContentType())
	if err != nil {
		pr.CloseWithError(err)
		return nil, err
	}
	defer resp.Body.Close()

	var f UploadedFile
	if err := decode(resp, &f); err != nil {
		return nil, err
	}
	return &f, nil
}
