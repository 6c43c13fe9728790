package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ruleworks/arbiter/pkg/config"
	"ruleworks/arbiter/pkg/engine"
	"ruleworks/arbiter/pkg/loader"
)

const incomeDocument = `
name: income
rules:
  - name: high
    condition: "fact.get('income', 0) > 100000"
    action: "{'category': 'high'}"
    priority: 10
  - name: standard
    condition: "fact.get('income', 0) <= 100000"
    action: "{'category': 'standard'}"
    priority: 5
`

func newTestServer(t *testing.T) *Server {
	t.Helper()
	eng := engine.NewEngine(nil)
	rs, err := loader.FromYAML([]byte(incomeDocument))
	if err != nil {
		t.Fatalf("FromYAML() failed: %v", err)
	}
	if err := eng.RegisterRuleSet(rs.Name(), rs); err != nil {
		t.Fatalf("RegisterRuleSet() failed: %v", err)
	}

	cfg := config.NewDefaultConfig()
	cfg.Metrics.Enabled = false
	return New(cfg, eng, nil, nil)
}

func postExecute(t *testing.T, handler http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/execute", bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHandleExecute(t *testing.T) {
	handler := newTestServer(t).Handler()

	rec := postExecute(t, handler, `{
		"ruleset_uri": "income",
		"facts": [{"income": 150000}, {"income": 50000}]
	}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp executeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response decode failed: %v", err)
	}
	if resp.RulesetURI != "income" {
		t.Errorf("ruleset_uri = %q, want income", resp.RulesetURI)
	}
	if resp.FactCount != 2 {
		t.Errorf("fact_count = %d, want 2", resp.FactCount)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(resp.Results))
	}
	first := resp.Results[0].(map[string]any)
	if first["category"] != "high" {
		t.Errorf("results[0].category = %v, want high", first["category"])
	}
}

func TestHandleExecute_UnknownRuleset(t *testing.T) {
	handler := newTestServer(t).Handler()

	rec := postExecute(t, handler, `{"ruleset_uri": "missing", "facts": []}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}

	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response decode failed: %v", err)
	}
	if resp.Error == "" {
		t.Error("error message is empty")
	}
}

func TestHandleExecute_BadRequests(t *testing.T) {
	handler := newTestServer(t).Handler()

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{`},
		{"missing uri", `{"facts": []}`},
		{"unknown field", `{"ruleset_uri": "income", "bogus": 1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postExecute(t, handler, tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestHandleExecute_EmptyFacts(t *testing.T) {
	handler := newTestServer(t).Handler()

	rec := postExecute(t, handler, `{"ruleset_uri": "income", "facts": []}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp executeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response decode failed: %v", err)
	}
	if resp.Results == nil || len(resp.Results) != 0 {
		t.Errorf("results = %v, want empty array", resp.Results)
	}
}

func TestHandleExecute_MethodNotAllowed(t *testing.T) {
	handler := newTestServer(t).Handler()

	req := httptest.NewRequest(http.MethodGet, "/v1/execute", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestHandleRulesets(t *testing.T) {
	handler := newTestServer(t).Handler()

	req := httptest.NewRequest(http.MethodGet, "/v1/rulesets", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp struct {
		Rulesets []rulesetInfo `json:"rulesets"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response decode failed: %v", err)
	}
	if len(resp.Rulesets) != 1 {
		t.Fatalf("len(rulesets) = %d, want 1", len(resp.Rulesets))
	}
	info := resp.Rulesets[0]
	if info.URI != "income" || info.Rules != 2 || info.Strategy != "ALL_MATCHES" {
		t.Errorf("ruleset info = %+v", info)
	}
}

func TestHandleHealth(t *testing.T) {
	handler := newTestServer(t).Handler()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("body = %s, want status ok", rec.Body.String())
	}
}

func TestRequestIDHeader(t *testing.T) {
	handler := newTestServer(t).Handler()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header missing")
	}

	// An incoming ID is echoed.
	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "client-id-1")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-ID"); got != "client-id-1" {
		t.Errorf("X-Request-ID = %q, want client-id-1", got)
	}
}

func TestMaxRequestBytes(t *testing.T) {
	srv := newTestServer(t)
	srv.cfg.Server.MaxRequestBytes = 64
	handler := srv.Handler()

	large := `{"ruleset_uri": "income", "facts": [` + strings.Repeat(`{"income": 1},`, 100) + `{}]}`
	rec := postExecute(t, handler, large)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for oversized body", rec.Code)
	}
}

func TestStatelessAcrossRequests(t *testing.T) {
	// Each request gets its own session; facts never leak between calls.
	handler := newTestServer(t).Handler()

	for i := 0; i < 3; i++ {
		rec := postExecute(t, handler, `{"ruleset_uri": "income", "facts": [{"income": 1}]}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		var resp executeResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("response decode failed: %v", err)
		}
		if len(resp.Results) != 1 {
			t.Errorf("request %d: len(results) = %d, want 1 (no fact accumulation)", i, len(resp.Results))
		}
	}
}
