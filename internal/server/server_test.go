package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/steeplehq/steeple/internal/backup"
	"github.com/steeplehq/steeple/internal/database"
)

type apiResult struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Count   *int            `json:"count"`
}

type apiClient struct {
	t     *testing.T
	ts    *httptest.Server
	orgID int64
	role  string
}

func newAPIClient(t *testing.T) *apiClient {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	// A fresh connection would see a separate empty in-memory database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := New(db, backup.Config{}, logger)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	c := &apiClient{t: t, ts: ts, role: "admin"}

	res := c.do(http.MethodPost, "/api/orgs", map[string]any{"name": "Test Org"}, http.StatusCreated)
	var org struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(res.Data, &org); err != nil {
		t.Fatalf("decode org: %v", err)
	}
	c.orgID = org.ID
	return c
}

func (c *apiClient) do(method, path string, body any, wantStatus int) apiResult {
	c.t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			c.t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, c.ts.URL+path, reader)
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	if c.orgID != 0 {
		req.Header.Set("X-Steeple-Org", fmt.Sprintf("%d", c.orgID))
	}
	req.Header.Set("X-Steeple-Role", c.role)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		c.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != wantStatus {
		c.t.Fatalf("%s %s: status = %d, want %d (body %s)", method, path, resp.StatusCode, wantStatus, raw)
	}

	var res apiResult
	if err := json.Unmarshal(raw, &res); err != nil {
		c.t.Fatalf("%s %s: decode envelope: %v (body %s)", method, path, err, raw)
	}
	return res
}

func TestPersonLifecycle(t *testing.T) {
	c := newAPIClient(t)

	c.do(http.MethodPost, "/api/fields", map[string]any{
		"key": "shirt_size", "type": "select",
		"options": []map[string]string{{"value": "s"}, {"value": "m"}},
	}, http.StatusCreated)

	res := c.do(http.MethodPost, "/api/people", map[string]any{
		"name":   "Alice",
		"fields": map[string]any{"shirt_size": "m"},
	}, http.StatusCreated)
	if !res.Success {
		t.Fatalf("create person failed: %s", res.Message)
	}
	var person struct {
		ID     int64          `json:"id"`
		Fields map[string]any `json:"fields"`
	}
	json.Unmarshal(res.Data, &person)
	if person.Fields["shirt_size"] != "m" {
		t.Errorf("shirt_size = %v, want m", person.Fields["shirt_size"])
	}

	list := c.do(http.MethodGet, "/api/people", nil, http.StatusOK)
	if list.Count == nil || *list.Count != 1 {
		t.Errorf("count = %v, want 1", list.Count)
	}

	c.do(http.MethodDelete, fmt.Sprintf("/api/people/%d", person.ID), nil, http.StatusOK)
	list = c.do(http.MethodGet, "/api/people", nil, http.StatusOK)
	if *list.Count != 0 {
		t.Errorf("count = %d, want 0 after delete", *list.Count)
	}
}

func TestErrorEnvelopeMapping(t *testing.T) {
	c := newAPIClient(t)

	// Validation -> 400
	res := c.do(http.MethodPost, "/api/people", map[string]any{"name": "  "}, http.StatusBadRequest)
	if res.Success {
		t.Error("expected success=false for validation failure")
	}
	if res.Message == "" {
		t.Error("expected a verbatim validation message")
	}

	// Reference -> 404
	c.do(http.MethodPost, "/api/people", map[string]any{
		"name": "Bob", "tag_ids": []int64{9999},
	}, http.StatusNotFound)

	// Conflict -> 409
	p := c.do(http.MethodPost, "/api/people", map[string]any{"name": "Carol"}, http.StatusCreated)
	var person struct {
		ID int64 `json:"id"`
	}
	json.Unmarshal(p.Data, &person)

	h1 := c.do(http.MethodPost, "/api/households", map[string]any{"name": "House One"}, http.StatusCreated)
	h2 := c.do(http.MethodPost, "/api/households", map[string]any{"name": "House Two"}, http.StatusCreated)
	var house1, house2 struct {
		ID int64 `json:"id"`
	}
	json.Unmarshal(h1.Data, &house1)
	json.Unmarshal(h2.Data, &house2)

	c.do(http.MethodPost, fmt.Sprintf("/api/households/%d/members", house1.ID),
		map[string]any{"person_id": person.ID}, http.StatusCreated)
	c.do(http.MethodPost, fmt.Sprintf("/api/households/%d/members", house2.ID),
		map[string]any{"person_id": person.ID}, http.StatusConflict)
}

func TestViewerFiltering(t *testing.T) {
	c := newAPIClient(t)

	c.do(http.MethodPost, "/api/fields", map[string]any{
		"key": "pastoral", "type": "textarea", "visibility": "staff_only",
	}, http.StatusCreated)
	c.do(http.MethodPost, "/api/fields", map[string]any{
		"key": "nickname", "type": "text",
	}, http.StatusCreated)

	res := c.do(http.MethodPost, "/api/people", map[string]any{
		"name":   "Dara",
		"fields": map[string]any{"pastoral": "confidential", "nickname": "D"},
	}, http.StatusCreated)
	var person struct {
		ID int64 `json:"id"`
	}
	json.Unmarshal(res.Data, &person)

	c.do(http.MethodPost, fmt.Sprintf("/api/people/%d/notes", person.ID),
		map[string]any{"body": "public note"}, http.StatusCreated)
	c.do(http.MethodPost, fmt.Sprintf("/api/people/%d/notes", person.ID),
		map[string]any{"body": "staff eyes only", "visibility": "staff_only"}, http.StatusCreated)

	c.role = "viewer"

	got := c.do(http.MethodGet, fmt.Sprintf("/api/people/%d", person.ID), nil, http.StatusOK)
	var filtered struct {
		Fields map[string]any `json:"fields"`
	}
	json.Unmarshal(got.Data, &filtered)
	if _, ok := filtered.Fields["pastoral"]; ok {
		t.Error("staff-only field leaked to viewer")
	}
	if filtered.Fields["nickname"] != "D" {
		t.Errorf("nickname = %v, want kept for viewer", filtered.Fields["nickname"])
	}

	notes := c.do(http.MethodGet, fmt.Sprintf("/api/people/%d/notes", person.ID), nil, http.StatusOK)
	if notes.Count == nil || *notes.Count != 1 {
		t.Errorf("viewer note count = %v, want 1", notes.Count)
	}

	fields := c.do(http.MethodGet, "/api/fields", nil, http.StatusOK)
	if *fields.Count != 1 {
		t.Errorf("viewer field count = %d, want 1", *fields.Count)
	}
}

func TestDashboardRoute(t *testing.T) {
	c := newAPIClient(t)

	c.do(http.MethodPost, "/api/people", map[string]any{"name": "Eli"}, http.StatusCreated)
	c.do(http.MethodPost, "/api/people", map[string]any{"name": "Fay", "status": "visitor"}, http.StatusCreated)

	res := c.do(http.MethodGet, "/api/dashboard", nil, http.StatusOK)
	var stats struct {
		Total    int `json:"total"`
		Active   int `json:"active"`
		Visitors int `json:"visitors"`
	}
	json.Unmarshal(res.Data, &stats)
	if stats.Total != 2 || stats.Active != 1 || stats.Visitors != 1 {
		t.Errorf("stats = %+v, want total 2, active 1, visitors 1", stats)
	}
}

func TestScopeIsolation(t *testing.T) {
	c := newAPIClient(t)
	c.do(http.MethodPost, "/api/people", map[string]any{"name": "Gil"}, http.StatusCreated)

	// A second org sees none of the first org's records
	res := c.do(http.MethodPost, "/api/orgs", map[string]any{"name": "Other Org"}, http.StatusCreated)
	var other struct {
		ID int64 `json:"id"`
	}
	json.Unmarshal(res.Data, &other)

	c.orgID = other.ID
	list := c.do(http.MethodGet, "/api/people", nil, http.StatusOK)
	if *list.Count != 0 {
		t.Errorf("count = %d, want 0 in the other org", *list.Count)
	}
}
