package rpc

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/plurality-game/plurality/events"
)

func newTestServer(t *testing.T, authToken string) *httptest.Server {
	t.Helper()
	h, _, _ := newTestHandler(t)
	s := NewServer(":0", h, events.NewEmitter(), authToken, nil)
	ts := httptest.NewServer(s.srv.Handler)
	t.Cleanup(ts.Close)
	return ts
}

func postRPC(t *testing.T, ts *httptest.Server, token string, body any) Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/", bytes.NewReader(data))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	httpResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer httpResp.Body.Close()

	var resp Response
	require.NoError(t, json.NewDecoder(httpResp.Body).Decode(&resp))
	return resp
}

func TestServerServesRPC(t *testing.T) {
	ts := newTestServer(t, "")

	resp := postRPC(t, ts, "", Request{JSONRPC: "2.0", ID: 1, Method: "getInfo"})
	require.Nil(t, resp.Error)
}

func TestServerRejectsBadVersion(t *testing.T) {
	ts := newTestServer(t, "")

	resp := postRPC(t, ts, "", Request{JSONRPC: "1.0", ID: 1, Method: "getInfo"})
	require.NotNil(t, resp.Error)
	require.Equal(t, CodeInvalidRequest, resp.Error.Code)
}

func TestServerEnforcesBearerAuth(t *testing.T) {
	ts := newTestServer(t, "sekrit")

	resp := postRPC(t, ts, "", Request{JSONRPC: "2.0", ID: 1, Method: "getInfo"})
	require.NotNil(t, resp.Error)
	require.Equal(t, CodeUnauthorized, resp.Error.Code)

	resp = postRPC(t, ts, "sekrit", Request{JSONRPC: "2.0", ID: 1, Method: "getInfo"})
	require.Nil(t, resp.Error)
}

func TestServerGatesRebindWithoutToken(t *testing.T) {
	ts := newTestServer(t, "")

	resp := postRPC(t, ts, "", Request{JSONRPC: "2.0", ID: 1, Method: "rebindCollaborators"})
	require.NotNil(t, resp.Error)
	require.Equal(t, CodeUnauthorized, resp.Error.Code)
}

func TestServerHealthz(t *testing.T) {
	ts := newTestServer(t, "")

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
