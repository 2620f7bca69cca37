package server_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"termcore/internal/server"
	"termcore/internal/vt"
)

type cellJSON struct {
	Ch string `json:"ch"`
	Fg string `json:"fg"`
	Bg string `json:"bg"`
	W  int    `json:"w"`
}

type snapshotJSON struct {
	Rows       int          `json:"rows"`
	Cols       int          `json:"cols"`
	CursorX    int          `json:"cursor_x"`
	CursorY    int          `json:"cursor_y"`
	Title      string       `json:"title"`
	Cells      [][]cellJSON `json:"cells"`
	Generation uint64       `json:"generation"`
}

func (s snapshotJSON) row(y int) string {
	var b strings.Builder
	for _, c := range s.Cells[y] {
		b.WriteString(c.Ch)
	}
	return strings.TrimRight(b.String(), " ")
}

func newServer(t *testing.T, opts ...server.Option) (*vt.Terminal, *httptest.Server) {
	t.Helper()
	term := vt.New(vt.WithSize(4, 10))
	srv := server.New(term, opts...)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go srv.Run(ctx)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return term, ts
}

func TestSnapshotEndpoint(t *testing.T) {
	term, ts := newServer(t)
	term.ProcessInput([]byte("\x1b]2;build\x07\x1b[31mhi"))

	resp, err := http.Get(ts.URL + "/api/snapshot")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var snap snapshotJSON
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	assert.Equal(t, 4, snap.Rows)
	assert.Equal(t, 10, snap.Cols)
	assert.Equal(t, 2, snap.CursorX)
	assert.Equal(t, "build", snap.Title)
	require.Len(t, snap.Cells, 4)
	assert.Equal(t, "hi", snap.row(0))
	assert.Equal(t, vt.DefaultScheme().Palette[vt.Red].Hex(), snap.Cells[0][0].Fg)
	assert.Equal(t, 1, snap.Cells[0][0].W)
}

func TestTabsEndpoint(t *testing.T) {
	term, ts := newServer(t)
	term.CreateNewTab("logs")
	term.SwitchTab(1)

	resp, err := http.Get(ts.URL + "/api/tabs")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body struct {
		Tabs   []vt.Tab `json:"tabs"`
		Active int      `json:"active"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Tabs, 2)
	assert.Equal(t, vt.DefaultTabTitle, body.Tabs[0].Title)
	assert.Equal(t, "logs", body.Tabs[1].Title)
	assert.Equal(t, 1, body.Active)
}

func TestResizeEndpoint(t *testing.T) {
	var hooked [2]int
	term, ts := newServer(t, server.WithResizeHook(func(rows, cols int) error {
		hooked = [2]int{rows, cols}
		return nil
	}))

	tests := []struct {
		name   string
		body   string
		status int
		rows   int
		cols   int
	}{
		{"valid", `{"rows":30,"cols":100}`, http.StatusOK, 30, 100},
		{"zero rows", `{"rows":0,"cols":100}`, http.StatusBadRequest, 30, 100},
		{"negative cols", `{"rows":10,"cols":-1}`, http.StatusBadRequest, 30, 100},
		{"malformed", `{"rows":`, http.StatusBadRequest, 30, 100},
		{"unknown field", `{"rows":10,"cols":10,"depth":3}`, http.StatusBadRequest, 30, 100},
		{"shrink", `{"rows":5,"cols":20}`, http.StatusOK, 5, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(ts.URL+"/api/resize", "application/json", strings.NewReader(tt.body))
			require.NoError(t, err)
			resp.Body.Close()

			assert.Equal(t, tt.status, resp.StatusCode)
			rows, cols := term.Size()
			assert.Equal(t, tt.rows, rows)
			assert.Equal(t, tt.cols, cols)
		})
	}
	assert.Equal(t, [2]int{5, 20}, hooked)
}

func TestResizeHookFailure(t *testing.T) {
	_, ts := newServer(t, server.WithResizeHook(func(int, int) error {
		return errors.New("pty gone")
	}))

	resp, err := http.Post(ts.URL+"/api/resize", "application/json", strings.NewReader(`{"rows":10,"cols":10}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "pty gone", body["error"])
}

func TestWrongMethod(t *testing.T) {
	_, ts := newServer(t)

	resp, err := http.Get(ts.URL + "/api/resize")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/api/missing")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readSnapshot(t *testing.T, conn *websocket.Conn) snapshotJSON {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	kind, data, err := conn.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, websocket.TextMessage, kind)

	var snap snapshotJSON
	require.NoError(t, json.Unmarshal(data, &snap))
	return snap
}

func TestWebSocketStreamsChanges(t *testing.T) {
	term, ts := newServer(t, server.WithFrameRate(100))
	term.ProcessInput([]byte("first"))

	conn := dial(t, ts)
	initial := readSnapshot(t, conn)
	assert.Equal(t, "first", initial.row(0))

	term.ProcessInput([]byte("\r\nsecond"))

	// The hub may resend the initial frame before it sees the change.
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		snap := readSnapshot(t, conn)
		if snap.row(1) == "second" {
			assert.Equal(t, "first", snap.row(0))
			assert.Greater(t, snap.Generation, initial.Generation)
			return
		}
	}
	t.Fatal("change was never streamed")
}

func TestWebSocketClosedOnShutdown(t *testing.T) {
	term := vt.New(vt.WithSize(2, 10))
	srv := server.New(term, server.WithFrameRate(100))
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		srv.Run(ctx)
		close(stopped)
	}()

	conn := dial(t, ts)
	readSnapshot(t, conn)

	cancel()
	<-stopped

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		_, _, err := conn.ReadMessage()
		if err != nil {
			assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
			return
		}
	}
}

func TestStatsEndpoint(t *testing.T) {
	term, ts := newServer(t)
	term.ProcessInput([]byte("1\r\n2\r\n3\r\n4\r\n5\r\n"))

	resp, err := http.Get(ts.URL + "/api/stats")
	require.NoError(t, err)
	defer resp.Body.Close()

	var stats server.Stats
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	assert.Equal(t, term.Generation(), stats.Generation)
	assert.Equal(t, 2, stats.ScrollbackLines)
	assert.Positive(t, stats.Goroutines)
	assert.Positive(t, stats.AllocMB)
	assert.Zero(t, stats.Clients)
}

func TestWebSocketOriginCheck(t *testing.T) {
	tests := []struct {
		name    string
		opts    []server.Option
		origin  func(ts *httptest.Server) string
		allowed bool
	}{
		{"no origin", nil, func(*httptest.Server) string { return "" }, true},
		{"same origin", nil, func(ts *httptest.Server) string { return ts.URL }, true},
		{"foreign origin", nil, func(*httptest.Server) string { return "http://evil.example" }, false},
		{
			"allowed origin",
			[]server.Option{server.WithAllowedOrigins("http://localhost:3000/")},
			func(*httptest.Server) string { return "http://localhost:3000" },
			true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ts := newServer(t, tt.opts...)
			header := http.Header{}
			if origin := tt.origin(ts); origin != "" {
				header.Set("Origin", origin)
			}

			url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
			conn, resp, err := websocket.DefaultDialer.Dial(url, header)
			if tt.allowed {
				require.NoError(t, err)
				conn.Close()
				return
			}
			require.Error(t, err)
			require.NotNil(t, resp)
			assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		})
	}
}
