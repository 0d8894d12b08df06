package web

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rusenback/vitalviz/internal/engine"
	"github.com/rusenback/vitalviz/internal/model"
	"github.com/rusenback/vitalviz/internal/sysinfo"
)

type stubProvider struct {
	host    model.HostInfo
	hostErr error
}

var _ sysinfo.Provider = (*stubProvider)(nil)

func (p *stubProvider) CPUPerCore(ctx context.Context) ([]float64, error) { return nil, nil }
func (p *stubProvider) Memory(ctx context.Context) (*model.Memory, error) { return nil, nil }
func (p *stubProvider) Disks(ctx context.Context) ([]model.Disk, error)   { return nil, nil }
func (p *stubProvider) NetCounters(ctx context.Context) (*model.NetCounters, error) {
	return nil, nil
}
func (p *stubProvider) Host(ctx context.Context) (model.HostInfo, error) { return p.host, p.hostErr }
func (p *stubProvider) Processes(ctx context.Context, limit int) ([]model.Process, error) {
	return nil, nil
}
func (p *stubProvider) Terminate(ctx context.Context, pid int32) error { return nil }

func newTestServer(t *testing.T, provider *stubProvider) (*Server, *httptest.Server) {
	t.Helper()
	eng := engine.New(provider)
	s := NewServer(eng, provider)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func testTick() engine.Tick {
	return engine.Tick{
		Seq: 7,
		Sample: model.Sample{
			Timestamp: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
			CPU:       []float64{10, 20},
			Memory:    &model.Memory{Total: 100, Used: 55, Percent: 55},
			Processes: []model.Process{
				{PID: 42, Name: "vitalviz", CPUPercent: 3.2, MemPercent: 1.1},
			},
		},
		Rates: &model.Rates{BytesSentPerSec: 1000, BytesRecvPerSec: 2000},
	}
}

func getJSON(t *testing.T, url string, out any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func TestHealth(t *testing.T) {
	_, ts := newTestServer(t, &stubProvider{})

	var body map[string]string
	resp := getJSON(t, ts.URL+"/health", &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}

func TestHostEndpoint(t *testing.T) {
	provider := &stubProvider{host: model.HostInfo{
		Hostname: "devbox",
		Platform: "linux",
		Procs:    123,
	}}
	_, ts := newTestServer(t, provider)

	var body map[string]any
	resp := getJSON(t, ts.URL+"/api/host", &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "devbox", body["hostname"])
	assert.Equal(t, "linux", body["platform"])
	assert.Equal(t, float64(123), body["procs"])
}

func TestHostEndpointUnavailable(t *testing.T) {
	provider := &stubProvider{hostErr: errors.New("no host info")}
	_, ts := newTestServer(t, provider)

	resp, err := http.Get(ts.URL + "/api/host")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestSnapshotEndpoint(t *testing.T) {
	s, ts := newTestServer(t, &stubProvider{})

	// Before any tick there is no sample, but history and alert state
	// are still served.
	var body map[string]any
	getJSON(t, ts.URL+"/api/snapshot", &body)
	assert.NotContains(t, body, "sample")
	assert.Contains(t, body, "history")
	assert.Contains(t, body, "alerts")

	require.NoError(t, s.OnTick(testTick()))

	body = map[string]any{}
	getJSON(t, ts.URL+"/api/snapshot", &body)
	sample, ok := body["sample"].(map[string]any)
	require.True(t, ok, "sample missing after tick")
	memory := sample["memory"].(map[string]any)
	assert.Equal(t, 55.0, memory["percent"])
	rates := body["rates"].(map[string]any)
	assert.Equal(t, 1000.0, rates["bytes_sent_per_sec"])
}

func TestProcessesEndpoint(t *testing.T) {
	s, ts := newTestServer(t, &stubProvider{})

	var procs []map[string]any
	getJSON(t, ts.URL+"/api/processes", &procs)
	assert.Empty(t, procs)

	require.NoError(t, s.OnTick(testTick()))

	procs = nil
	getJSON(t, ts.URL+"/api/processes", &procs)
	require.Len(t, procs, 1)
	assert.Equal(t, "vitalviz", procs[0]["name"])
	assert.Equal(t, float64(42), procs[0]["pid"])
}

func TestExportEndpoint(t *testing.T) {
	provider := &stubProvider{host: model.HostInfo{Hostname: "devbox"}}
	_, ts := newTestServer(t, provider)

	resp, err := http.Get(ts.URL + "/api/export?format=csv")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), ".csv")

	var line [64]byte
	n, _ := resp.Body.Read(line[:])
	assert.Contains(t, string(line[:n]), "Timestamp,CPU Avg %")

	var body map[string]any
	jsonResp := getJSON(t, ts.URL+"/api/export?format=json", &body)
	assert.Equal(t, http.StatusOK, jsonResp.StatusCode)
	host, ok := body["host"].(map[string]any)
	require.True(t, ok, "host missing from json export")
	assert.Equal(t, "devbox", host["hostname"])

	bad, err := http.Get(ts.URL + "/api/export?format=xml")
	require.NoError(t, err)
	bad.Body.Close()
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)
}

func dialWS(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readWS(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg map[string]any
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestWebSocketStream(t *testing.T) {
	s, ts := newTestServer(t, &stubProvider{})
	conn := dialWS(t, ts)

	hello := readWS(t, conn)
	assert.Equal(t, "hello", hello["type"])
	assert.Contains(t, hello, "history")

	require.NoError(t, s.OnTick(testTick()))
	tick := readWS(t, conn)
	assert.Equal(t, "tick", tick["type"])
	assert.Equal(t, float64(7), tick["seq"])

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "reset_history"}))
	ack := readWS(t, conn)
	assert.Equal(t, "history_reset", ack["type"])

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "bogus"}))
	errMsg := readWS(t, conn)
	assert.Equal(t, "error", errMsg["type"])
	assert.Contains(t, errMsg["message"], "bogus")
}

func TestWebSocketDroppedSubscriberIsRemoved(t *testing.T) {
	s, ts := newTestServer(t, &stubProvider{})
	conn := dialWS(t, ts)
	readWS(t, conn) // hello

	conn.Close()

	// The write to the closed socket fails and the subscriber table is
	// pruned; broadcasting must keep working for everyone else.
	deadline := time.Now().Add(2 * time.Second)
	for {
		require.NoError(t, s.OnTick(testTick()))
		s.mu.Lock()
		n := len(s.subscribers)
		s.mu.Unlock()
		if n == 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("subscriber still registered after close, %d left", n)
		}
		time.Sleep(10 * time.Millisecond)
	}
}
