package gateway

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/echoreply/echoreply/internal/config"
	"github.com/echoreply/echoreply/internal/engine"
	"github.com/echoreply/echoreply/internal/memory"
	"github.com/echoreply/echoreply/internal/ratelimit"
)

const testToken = "secret-token"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testConfig returns a rules-only configuration with one greeting rule.
func testConfig() config.Config {
	var c config.Config
	c.Defaults()
	c.Server.AuthToken = testToken
	c.Reply.Enabled = true
	c.Reply.Rules = []config.ReplyRule{{Match: "hi", Reply: "Hello!"}}
	return c
}

type serverOptions struct {
	limiter *ratelimit.Limiter
	store   memory.Store
	reload  ReloadFunc
}

func newTestServer(t *testing.T, cfg config.Config, opts serverOptions) (*Server, *httptest.Server) {
	t.Helper()
	eng := engine.New(cfg, opts.store, testLogger())
	s := New(cfg.Server, eng, opts.limiter, opts.store, opts.reload, testLogger())
	ts := httptest.NewServer(s.routes())
	t.Cleanup(ts.Close)
	return s, ts
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	buf, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(buf))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func doAuthed(t *testing.T, method, url, token string, body []byte) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}
