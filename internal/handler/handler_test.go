package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"railviz/internal/metrics"
	"railviz/internal/repository/sqlite"
	"railviz/internal/service"
	"railviz/internal/session"
	"railviz/internal/toggle"
	"railviz/internal/viewport"
)

const stationJSON = `{
  "nodes": [
    {"uuid": "e1", "type": "NodeType.Endpoint", "x": 0, "y": 0.5},
    {"uuid": "p1", "type": "NodeType.Point", "name": "W1", "x": 0.3, "y": 0.5},
    {"uuid": "s1", "type": "NodeType.Signal", "name": "A1", "x": 0.6, "y": 0.5, "angle": 90, "direction": "in"}
  ],
  "edges": [
    {"uuid": "edge-00001", "source": "e1", "target": "p1", "type": 1},
    {"uuid": "edge-00002", "source": "p1", "target": "s1", "type": "4"}
  ],
  "properties": {"max_x": 1, "max_y": 1}
}`

const danglingJSON = `{
  "nodes": [{"uuid": "p1", "type": "Point", "x": 0.5, "y": 0.5}],
  "edges": [{"uuid": "edge-00001", "source": "p1", "target": "gone"}]
}`

type testServer struct {
	srv *httptest.Server
	svc *service.RenderService
	reg *metrics.Registry
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	repo, err := sqlite.New(":memory:")
	require.NoError(t, err)

	cfg := session.DefaultConfig()
	cfg.Layout.MaxIterations = 20
	reg := metrics.NewRegistry()
	svc := service.NewRenderService(repo, cfg, service.NewEventBus(), reg)

	mux := http.NewServeMux()
	NewRenderHandler(svc).Register(mux)
	srv := httptest.NewServer(Chain(mux, Recover, CORS, Logger, Metrics(reg)))

	t.Cleanup(func() {
		srv.Close()
		svc.Close()
		repo.Close()
	})
	return &testServer{srv: srv, svc: svc, reg: reg}
}

func (ts *testServer) do(t *testing.T, method, path, contentType, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, ts.srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func (ts *testServer) create(t *testing.T) session.State {
	t.Helper()
	resp := ts.do(t, "POST", "/api/sessions?name=station", "application/json", stationJSON)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var st session.State
	decode(t, resp, &st)
	require.NoError(t, ts.svc.Wait(st.ID))
	return st
}

func TestCreateSession(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, "POST", "/api/sessions", "application/json", stationJSON)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var st session.State
	decode(t, resp, &st)
	assert.NotEmpty(t, st.ID)
	assert.Equal(t, "/api/sessions/"+st.ID, resp.Header.Get("Location"))
	assert.Equal(t, 3, st.Nodes)
	assert.Equal(t, 2, st.Edges)
}

func TestCreateSessionYAML(t *testing.T) {
	ts := newTestServer(t)

	body := "nodes:\n  - uuid: p1\n    type: Point\n    x: 0.5\n    y: 0.5\nedges: []\n"
	resp := ts.do(t, "POST", "/api/sessions", "application/yaml", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestCreateSessionErrors(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"dangling edge", danglingJSON, http.StatusUnprocessableEntity},
		{"broken json", `{"nodes": [`, http.StatusBadRequest},
		{"missing uuid", `{"nodes": [{"type": "Point"}], "edges": []}`, http.StatusBadRequest},
		{"out of range", `{"nodes": [{"uuid": "a", "x": 1.5, "y": 0}], "edges": []}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.do(t, "POST", "/api/sessions", "application/json", tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)

			var body ErrorResponse
			decode(t, resp, &body)
			assert.NotEmpty(t, body.Error)
			assert.NotEmpty(t, body.Details)
		})
	}

	assert.Empty(t, ts.svc.List())
}

func TestGetAndListSessions(t *testing.T) {
	ts := newTestServer(t)
	st := ts.create(t)

	resp := ts.do(t, "GET", "/api/sessions/"+st.ID, "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got session.State
	decode(t, resp, &got)
	assert.Equal(t, st.ID, got.ID)
	assert.True(t, got.ZoomSet)

	resp = ts.do(t, "GET", "/api/sessions", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []session.State
	decode(t, resp, &list)
	assert.Len(t, list, 1)

	resp = ts.do(t, "GET", "/api/sessions/nope", "", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetSVG(t *testing.T) {
	ts := newTestServer(t)
	st := ts.create(t)

	resp := ts.do(t, "GET", "/api/sessions/"+st.ID+"/svg", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/svg+xml", resp.Header.Get("Content-Type"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "<svg")
	assert.Contains(t, string(body), `id="signal-s1"`)
}

func TestGetScene(t *testing.T) {
	ts := newTestServer(t)
	st := ts.create(t)

	resp := ts.do(t, "GET", "/api/sessions/"+st.ID+"/scene", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var view struct {
		Revealed bool              `json:"revealed"`
		Lines    []json.RawMessage `json:"lines"`
		Groups   []json.RawMessage `json:"groups"`
	}
	decode(t, resp, &view)
	assert.True(t, view.Revealed)
	assert.Len(t, view.Lines, 2)
	assert.Len(t, view.Groups, 3)
}

func TestSetToggle(t *testing.T) {
	ts := newTestServer(t)
	st := ts.create(t)
	path := "/api/sessions/" + st.ID + "/toggles"

	resp := ts.do(t, "PUT", path, "application/json", `{"name": "signal_labels", "enabled": true}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var state toggle.State
	decode(t, resp, &state)
	assert.True(t, state.SignalLabels)

	resp = ts.do(t, "PUT", path, "application/json", `{"name": "edge_labels", "enabled": true}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &state)
	assert.True(t, state.EdgeLabels)
	assert.False(t, state.SignalLabels)

	resp = ts.do(t, "PUT", path, "application/json", `{"name": "fog", "enabled": true}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = ts.do(t, "PUT", path, "application/json", `not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestViewport(t *testing.T) {
	ts := newTestServer(t)
	st := ts.create(t)
	path := "/api/sessions/" + st.ID + "/viewport"

	resp := ts.do(t, "POST", path, "application/json", `{"action": "zoom", "factor": 1000, "x": 0, "y": 0}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var tr viewport.Transform
	decode(t, resp, &tr)
	assert.Equal(t, viewport.MaxScale, tr.K)

	resp = ts.do(t, "POST", path, "application/json", `{"action": "reset"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &tr)
	assert.Equal(t, 1.0, tr.K)

	resp = ts.do(t, "POST", path, "application/json", `{"action": "set", "k": 0.01, "x": 40, "y": 30}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &tr)
	assert.Equal(t, viewport.Transform{K: viewport.MinScale, X: 40, Y: 30}, tr)

	resp = ts.do(t, "POST", path, "application/json", `{"action": "tilt"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDownloadGraph(t *testing.T) {
	ts := newTestServer(t)
	st := ts.create(t)

	resp := ts.do(t, "GET", "/api/sessions/"+st.ID+"/graph?format=yaml", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/x-yaml", resp.Header.Get("Content-Type"))
	assert.Equal(t, "attachment; filename=graph-"+st.ID+".yaml", resp.Header.Get("Content-Disposition"))

	resp = ts.do(t, "GET", "/api/sessions/"+st.ID+"/graph", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var payload struct {
		Nodes []json.RawMessage `json:"nodes"`
	}
	decode(t, resp, &payload)
	assert.Len(t, payload.Nodes, 3)

	resp = ts.do(t, "GET", "/api/sessions/"+st.ID+"/graph?format=csv", "", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRerenderAndDelete(t *testing.T) {
	ts := newTestServer(t)
	st := ts.create(t)

	resp := ts.do(t, "POST", "/api/sessions/"+st.ID+"/render", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var again session.State
	decode(t, resp, &again)
	assert.Greater(t, again.Generation, st.Generation)

	resp = ts.do(t, "DELETE", "/api/sessions/"+st.ID, "", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = ts.do(t, "DELETE", "/api/sessions/"+st.ID, "", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = ts.do(t, "POST", "/api/sessions/"+st.ID+"/render", "", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListGraphs(t *testing.T) {
	ts := newTestServer(t)
	ts.create(t)

	resp := ts.do(t, "GET", "/api/graphs", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var records []map[string]interface{}
	decode(t, resp, &records)
	require.Len(t, records, 1)
	assert.Equal(t, "station", records[0]["name"])
	assert.EqualValues(t, 3, records[0]["nodes"])
	assert.NotContains(t, records[0], "graph")
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, "GET", "/healthz", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]interface{}
	decode(t, resp, &body)
	assert.Equal(t, "ok", body["status"])
}

func TestMetricsMiddlewareUsesRoutePattern(t *testing.T) {
	ts := newTestServer(t)

	ts.do(t, "GET", "/api/sessions/abc", "", "")
	ts.do(t, "GET", "/api/sessions/def", "", "")

	c, err := ts.reg.HTTPRequestsTotal.GetMetricWithLabelValues("GET", "/api/sessions/{id}", "404")
	require.NoError(t, err)
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	assert.Equal(t, 2.0, m.Counter.GetValue())
}

func TestRecover(t *testing.T) {
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}), Recover)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	called := false
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}), CORS)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("OPTIONS", "/api/sessions", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.False(t, called)
}

func TestChainOrder(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}), mark("a"), mark("b"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, []string{"a", "b"}, order)
}
