package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/revenue-intel/internal/license"
)

func TestServeStdio(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, license.TierFree)

	in := strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		``,
		`not json`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"score_pipeline_health","arguments":{"source":"sample"}}}`,
		`{"jsonrpc":"2.0","id":3,"method":"ping"}`,
	}, "\n")

	var out strings.Builder
	require.NoError(t, s.ServeStdio(context.Background(), strings.NewReader(in), &out))

	byID := map[string]Response{}
	scanner := bufio.NewScanner(strings.NewReader(out.String()))
	scanner.Buffer(make([]byte, 0, maxLineSize), maxLineSize)
	lines := 0
	for scanner.Scan() {
		lines++
		var resp Response
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &resp))
		byID[string(resp.ID)] = resp
	}
	// initialize, parse error, tools/call, ping; the notification is silent.
	assert.Equal(t, 4, lines)

	require.Contains(t, byID, "null")
	assert.Equal(t, CodeParseError, byID["null"].Error.Code)

	require.Contains(t, byID, "2")
	var res toolResult
	require.NoError(t, json.Unmarshal(byID["2"].Result, &res))
	assert.False(t, res.IsError)
	assert.Contains(t, res.Content[0].Text, `"health_score": 75`)

	require.Contains(t, byID, "3")
	assert.Nil(t, byID["3"].Error)
}

func postRPC(t *testing.T, srv *httptest.Server, session, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/mcp", strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if session != "" {
		req.Header.Set(SessionHeader, session)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHTTPTransport(t *testing.T) {
	t.Parallel()
	m := NewMetrics()
	s := newTestServer(t, license.TierFree, WithMetrics(m))
	srv := httptest.NewServer(s.Handler(HTTPConfig{}))
	defer srv.Close()

	// Health
	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))

	// Requests before initialize need a session.
	resp = postRPC(t, srv, "", `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = postRPC(t, srv, "not-a-session", `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Initialize assigns a session.
	resp = postRPC(t, srv, "", `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	session := resp.Header.Get(SessionHeader)
	require.NotEmpty(t, session)

	resp = postRPC(t, srv, session, `{"jsonrpc":"2.0","method":"notifications/initialized"}`)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	resp = postRPC(t, srv, session,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"analyze_engine","arguments":{"source":"sample","engine_type":"growth"}}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var rpcResp Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rpcResp))
	require.Nil(t, rpcResp.Error)
	var res toolResult
	require.NoError(t, json.Unmarshal(rpcResp.Result, &res))
	assert.False(t, res.IsError)

	// Malformed body
	resp = postRPC(t, srv, session, `{`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Metrics
	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(body), "revintel_tool_calls_total")
	assert.Contains(t, string(body), `tool="analyze_engine"`)

	// Session teardown
	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/mcp", nil)
	require.NoError(t, err)
	req.Header.Set(SessionHeader, session)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = postRPC(t, srv, session, `{"jsonrpc":"2.0","id":3,"method":"ping"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHTTPCORS(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, license.TierFree)
	srv := httptest.NewServer(s.Handler(HTTPConfig{AllowedOrigins: []string{"https://app.example.com"}}))
	defer srv.Close()

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/mcp", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "https://app.example.com", resp.Header.Get("Access-Control-Allow-Origin"))
}
