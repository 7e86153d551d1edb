package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LMMs-Lab/lmms-lab-writer/backend/internal/infrastructure/config"
	"github.com/LMMs-Lab/lmms-lab-writer/backend/internal/shared/types"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.Logging.Development = true

	s, err := NewServer(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func do(s *Server, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestRoutes(t *testing.T) {
	s := newTestServer(t)

	w := do(s, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = do(s, http.MethodGet, "/services", "")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Services []types.Service `json:"services"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	ids := make([]string, 0, len(body.Services))
	for _, svc := range body.Services {
		ids = append(ids, svc.ID)
	}
	assert.Equal(t, []string{"process", "terminal", "watch"}, ids)

	w = do(s, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "writer_http_requests_total")
}

func TestExecuteThroughRouter(t *testing.T) {
	s := newTestServer(t)
	dir := t.TempDir()

	w := do(s, http.MethodPost, "/services/execute", `{"tool_id":"watch.start","params":{"path":"`+jsonEscape(dir)+`"}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(s, http.MethodPost, "/services/execute", `{"tool_id":"watch.status"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var res types.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, true, res.Data["active"])

	w = do(s, http.MethodPost, "/services/execute", `{"tool_id":"terminal.write","params":{"id":"pty_missing","data":"ls\n"}}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(s, http.MethodPost, "/services/execute", `{"tool_id":"watch.start","params":{"path":"`+jsonEscape(dir)+`/missing"}}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/services/execute", nil)
	req.Header.Set("Origin", "http://localhost:1420")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:1420", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestServeShutsDownOnCancel(t *testing.T) {
	s := newTestServer(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	url := "http://" + ln.Addr().String() + "/health"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}

	assert.Equal(t, 0, s.bus.SubscriberCount())
	assert.NoError(t, s.Close(context.Background()))
}

func TestConfigMapping(t *testing.T) {
	cfg := config.Default()

	tc := TerminalConfig(cfg.Terminal)
	assert.Equal(t, uint16(80), tc.DefaultCols)
	assert.Equal(t, 2*time.Second, tc.ExitGrace)
	assert.Equal(t, 250*time.Millisecond, tc.HangupGrace)

	sc := SupervisorConfig(cfg.Process)
	assert.Equal(t, 4096, sc.DefaultPort)
	assert.Equal(t, 10, sc.PortWindow)
	assert.Equal(t, 10*time.Second, sc.StartTimeout)

	wc := WatchConfig(cfg.Watch)
	assert.Equal(t, 100*time.Millisecond, wc.Debounce)
	assert.Contains(t, wc.IgnoredDirs, "node_modules")
}

func jsonEscape(s string) string {
	b, _ := json.Marshal(s)
	return string(b[1 : len(b)-1])
}
