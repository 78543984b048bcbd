package rag

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/medassist/medassist/internal/domain/queryhistory"
	"github.com/medassist/medassist/internal/llm"
)

func newTestHandler(orch *Orchestrator) (*echo.Echo, *Handler) {
	e := echo.New()
	h := NewHandler(orch, nil)
	h.RegisterRoutes(e.Group("/api/v1"))
	return e, h
}

func doJSON(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHandlerQuery_OK(t *testing.T) {
	ks := &stubKnowledge{entries: testEntries()}
	orch := newTestOrchestrator(&stubDirectory{}, ks, &stubHistory{}, &stubBackend{})
	e, _ := newTestHandler(orch)

	rec := doJSON(e, http.MethodPost, "/api/v1/rag/query", `{"query":"hypertension basics"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var out struct {
		Data      Result `json:"data"`
		Timestamp string `json:"timestamp"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if out.Data.Response == "" {
		t.Error("empty response text")
	}
	if out.Data.Query != "hypertension basics" {
		t.Errorf("query echo = %q", out.Data.Query)
	}
	if out.Timestamp == "" {
		t.Error("missing timestamp")
	}
}

func TestHandlerQuery_EmptyQuery(t *testing.T) {
	orch := newTestOrchestrator(&stubDirectory{}, &stubKnowledge{}, &stubHistory{}, &stubBackend{})
	e, _ := newTestHandler(orch)

	for _, body := range []string{`{}`, `{"query":""}`, `{"query":"   "}`} {
		rec := doJSON(e, http.MethodPost, "/api/v1/rag/query", body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %s: status = %d, want 400", body, rec.Code)
		}
	}
}

func TestHandlerQuery_InvalidContextType(t *testing.T) {
	orch := newTestOrchestrator(&stubDirectory{}, &stubKnowledge{}, &stubHistory{}, &stubBackend{})
	e, _ := newTestHandler(orch)

	rec := doJSON(e, http.MethodPost, "/api/v1/rag/query", `{"query":"x","context_type":"everything"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandlerStatus(t *testing.T) {
	orch := newTestOrchestrator(&stubDirectory{}, &stubKnowledge{}, &stubHistory{}, &stubBackend{ready: true})
	e, _ := newTestHandler(orch)

	rec := doJSON(e, http.MethodGet, "/api/v1/rag/status", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var st struct {
		Status          string   `json:"status"`
		QueueLength     int      `json:"queue_length"`
		Processing      bool     `json:"processing"`
		AvailableModels []string `json:"available_models"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil {
		t.Fatalf("decoding status: %v", err)
	}
	if st.Status != "ready" {
		t.Errorf("status = %q, want ready", st.Status)
	}
	if st.AvailableModels == nil {
		t.Error("available_models should serialize as an empty list")
	}
}

func TestHandlerHistory(t *testing.T) {
	hist := &stubHistory{listed: []*queryhistory.Entry{
		{ID: 2, Query: "b", Response: "r2", ContextType: "all", CreatedAt: time.Now()},
		{ID: 1, Query: "a", Response: "r1", ContextType: "all", CreatedAt: time.Now()},
	}}
	orch := newTestOrchestrator(&stubDirectory{}, &stubKnowledge{}, hist, &stubBackend{})
	e, _ := newTestHandler(orch)

	rec := doJSON(e, http.MethodGet, "/api/v1/rag/history?limit=1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var out struct {
		History []*queryhistory.Entry `json:"history"`
		Count   int                   `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decoding history: %v", err)
	}
	if out.Count != 1 || len(out.History) != 1 {
		t.Errorf("count = %d, entries = %d", out.Count, len(out.History))
	}
}

func TestHandlerHistory_InvalidPatientID(t *testing.T) {
	orch := newTestOrchestrator(&stubDirectory{}, &stubKnowledge{}, &stubHistory{}, &stubBackend{})
	e, _ := newTestHandler(orch)

	rec := doJSON(e, http.MethodGet, "/api/v1/rag/history?patient_id=abc", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandlerHealth(t *testing.T) {
	orch := newTestOrchestrator(&stubDirectory{}, &stubKnowledge{}, &stubHistory{}, &stubBackend{ready: true})
	e, _ := newTestHandler(orch)

	rec := doJSON(e, http.MethodGet, "/api/v1/rag/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var out map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decoding health: %v", err)
	}
	if out["status"] != "ok" || out["llama"] != "ready" {
		t.Errorf("unexpected health payload: %v", out)
	}
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("no route to host") }

func TestHandlerHealth_DatabaseDown(t *testing.T) {
	orch := newTestOrchestrator(&stubDirectory{}, &stubKnowledge{}, &stubHistory{}, &stubBackend{})
	e := echo.New()
	NewHandler(orch, failingPinger{}).RegisterRoutes(e.Group("/api/v1"))

	rec := doJSON(e, http.MethodGet, "/api/v1/rag/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var out map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &out)
	if out["database"] != "unreachable" {
		t.Errorf("database = %v, want unreachable", out["database"])
	}
}

func TestHandlerStream(t *testing.T) {
	backendSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/tags" {
			fmt.Fprint(w, `{"models":[{"name":"test-model"}]}`)
			return
		}
		fmt.Fprintln(w, `{"response":"chunk one ","done":false}`)
		fmt.Fprintln(w, `{"response":"chunk two","done":false}`)
		fmt.Fprintln(w, `{"response":"","done":true,"eval_count":9}`)
	}))
	defer backendSrv.Close()

	client := llm.New(llm.Config{BaseURL: backendSrv.URL, Model: "test-model", Timeout: 5 * time.Second}, zerolog.Nop())
	if err := client.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	defer client.Shutdown()

	orch := newTestOrchestrator(&stubDirectory{}, &stubKnowledge{}, &stubHistory{}, client)
	e, _ := newTestHandler(orch)

	rec := doJSON(e, http.MethodPost, "/api/v1/rag/stream", `{"query":"stream this"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get(echo.HeaderContentType); got != "application/x-ndjson" {
		t.Errorf("content type = %q", got)
	}

	var text string
	var sawDone bool
	for _, line := range strings.Split(strings.TrimSpace(rec.Body.String()), "\n") {
		var chunk llm.Chunk
		if err := json.Unmarshal([]byte(line), &chunk); err != nil {
			t.Fatalf("bad frame %q: %v", line, err)
		}
		text += chunk.Chunk
		if chunk.Done {
			sawDone = true
			if chunk.TokensUsed != 9 {
				t.Errorf("tokens = %d, want 9", chunk.TokensUsed)
			}
		}
	}
	if text != "chunk one chunk two" {
		t.Errorf("streamed text = %q", text)
	}
	if !sawDone {
		t.Error("terminal frame missing")
	}
}

func TestHandlerStream_BackendUnavailable(t *testing.T) {
	orch := newTestOrchestrator(&stubDirectory{}, &stubKnowledge{}, &stubHistory{}, &stubBackend{})
	e, _ := newTestHandler(orch)

	rec := doJSON(e, http.MethodPost, "/api/v1/rag/stream", `{"query":"x"}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestHandlerPullModel(t *testing.T) {
	orch := newTestOrchestrator(&stubDirectory{}, &stubKnowledge{}, &stubHistory{}, &stubBackend{ready: true})
	e, _ := newTestHandler(orch)

	rec := doJSON(e, http.MethodPost, "/api/v1/rag/models/pull", `{"name":"llama3"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var out struct {
		Model   string `json:"model"`
		Success bool   `json:"success"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if out.Model != "llama3" || !out.Success {
		t.Errorf("got %+v", out)
	}
}

func TestHandlerPullModel_MissingName(t *testing.T) {
	orch := newTestOrchestrator(&stubDirectory{}, &stubKnowledge{}, &stubHistory{}, &stubBackend{})
	e, _ := newTestHandler(orch)

	rec := doJSON(e, http.MethodPost, "/api/v1/rag/models/pull", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandlerPullModel_BackendFailure(t *testing.T) {
	orch := newTestOrchestrator(&stubDirectory{}, &stubKnowledge{}, &stubHistory{}, &stubBackend{})
	e, _ := newTestHandler(orch)

	rec := doJSON(e, http.MethodPost, "/api/v1/rag/models/pull", `{"name":"llama3"}`)
	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}
}
