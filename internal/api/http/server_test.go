package httpapi

import (
	stdcontext "context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Paintersrp/relaunch/internal/api"
)

type mockController struct {
	beforeCompileFn func(stdcontext.Context) error
	compileDoneFn   func(stdcontext.Context, api.CompileDoneRequest) error
	statusFn        func(stdcontext.Context) (*api.StatusReport, error)
}

func (m *mockController) BeforeCompile(ctx stdcontext.Context) error {
	if m.beforeCompileFn != nil {
		return m.beforeCompileFn(ctx)
	}
	return nil
}

func (m *mockController) CompileDone(ctx stdcontext.Context, req api.CompileDoneRequest) error {
	if m.compileDoneFn != nil {
		return m.compileDoneFn(ctx, req)
	}
	return nil
}

func (m *mockController) Status(ctx stdcontext.Context) (*api.StatusReport, error) {
	if m.statusFn != nil {
		return m.statusFn(ctx)
	}
	return &api.StatusReport{}, nil
}

func newTestServer(t *testing.T, ctrl api.Controller) *Server {
	t.Helper()
	server, err := NewServer(Config{Controller: ctrl})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	return server
}

func TestNewServerRejectsTypedNilController(t *testing.T) {
	var ctrl api.Controller = (*mockController)(nil)
	_, err := NewServer(Config{Controller: ctrl})
	if err == nil {
		t.Fatal("expected error when controller is typed nil")
	}
	if !strings.Contains(err.Error(), "mockController") {
		t.Fatalf("expected error to describe typed nil controller, got %v", err)
	}
}

func TestNormalizeAddr(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"":           defaultAddr,
		":80":        "127.0.0.1:80",
		"0.0.0.0:80": "0.0.0.0:80",
		"[::]:80":    "[::]:80",
		"host:9000":  "host:9000",
	}

	for input, expected := range tests {
		input, expected := input, expected
		t.Run(fmt.Sprintf("%s->%s", input, expected), func(t *testing.T) {
			t.Parallel()
			if got := normalizeAddr(input); got != expected {
				t.Fatalf("normalizeAddr(%q)=%q, want %q", input, got, expected)
			}
		})
	}
}

func TestHandleCompileDoneForwardsEvent(t *testing.T) {
	var got api.CompileDoneRequest
	ctrl := &mockController{
		compileDoneFn: func(_ stdcontext.Context, req api.CompileDoneRequest) error {
			got = req
			return nil
		},
	}
	server := newTestServer(t, ctrl)

	body := `{"environment":"backend","firstCompile":true,"watch":true,"errors":[]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/events/compile-done", strings.NewReader(body))
	rec := httptest.NewRecorder()

	server.handleCompileDone(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	if got.Environment != "backend" || !got.FirstCompile || !got.Watch {
		t.Fatalf("unexpected forwarded event %+v", got)
	}
}

func TestHandleCompileDoneRejectsMissingEnvironment(t *testing.T) {
	server := newTestServer(t, &mockController{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/events/compile-done", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()

	server.handleCompileDone(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var body errorBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Code != "invalid_event" {
		t.Fatalf("unexpected error code %q", body.Code)
	}
}

func TestHandleCompileDoneRejectsInvalidJSON(t *testing.T) {
	server := newTestServer(t, &mockController{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/events/compile-done", strings.NewReader(`{not json`))
	rec := httptest.NewRecorder()

	server.handleCompileDone(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandleCompileDoneMethodNotAllowed(t *testing.T) {
	server := newTestServer(t, &mockController{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/events/compile-done", nil)
	rec := httptest.NewRecorder()

	server.handleCompileDone(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
	if allow := rec.Header().Get("Allow"); allow != http.MethodPost {
		t.Fatalf("unexpected Allow header %q", allow)
	}
}

func TestHandleBeforeCompile(t *testing.T) {
	called := false
	ctrl := &mockController{
		beforeCompileFn: func(stdcontext.Context) error {
			called = true
			return nil
		},
	}
	server := newTestServer(t, ctrl)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/events/before-compile", nil)
	rec := httptest.NewRecorder()

	server.handleBeforeCompile(rec, req)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	if !called {
		t.Fatal("expected controller notified")
	}
}

func TestHandleStatus(t *testing.T) {
	ctrl := &mockController{
		statusFn: func(stdcontext.Context) (*api.StatusReport, error) {
			return &api.StatusReport{
				GeneratedAt: time.Unix(123, 0),
				Environments: map[string][]api.ProcessReport{
					"backend": {{Key: "backend:node", Environment: "backend", Pid: 42}},
				},
			}, nil
		},
	}
	server := newTestServer(t, ctrl)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	rec := httptest.NewRecorder()

	server.handleStatus(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body api.StatusReport
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Environments["backend"]) != 1 || body.Environments["backend"][0].Key != "backend:node" {
		t.Fatalf("unexpected status body %+v", body)
	}
}

func TestHandleStatusError(t *testing.T) {
	ctrl := &mockController{
		statusFn: func(stdcontext.Context) (*api.StatusReport, error) {
			return nil, errors.New("boom")
		},
	}
	server := newTestServer(t, ctrl)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	rec := httptest.NewRecorder()

	server.handleStatus(rec, req)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestMetricsEndpointRegistered(t *testing.T) {
	server := newTestServer(t, &mockController{})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	server.srv.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from metrics endpoint, got %d", rec.Code)
	}
}

func newLocalListener() (net.Listener, error) {
	return net.Listen("tcp", "127.0.0.1:0")
}

func TestRunServesUntilContextCancelled(t *testing.T) {
	ln, err := newLocalListener()
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	server, err := NewServer(Config{Controller: &mockController{}, Listener: ln})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}

	ctx, cancel := stdcontext.WithCancel(stdcontext.Background())
	done := make(chan error, 1)
	go func() {
		done <- server.Run(ctx)
	}()

	resp, err := http.Get("http://" + server.Addr() + "/api/v1/status")
	if err != nil {
		t.Fatalf("get status: %v", err)
	}
	resp.Body.Close()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down after cancellation")
	}
}
