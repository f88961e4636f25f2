package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"nhooyr.io/websocket"

	"github.com/coal/deauthwatch/internal/audit"
	"github.com/coal/deauthwatch/internal/backend"
	"github.com/coal/deauthwatch/internal/blocklist"
	"github.com/coal/deauthwatch/internal/render"
)

// fakeBackend is an httptest server speaking the backend REST surface.
type fakeBackend struct {
	mu        sync.Mutex
	logs      string
	chain     string
	hybrid    string
	blocklist string
	down      bool
	requests  []string
}

func (f *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, r.URL.Path)

	if f.down {
		hj, ok := w.(http.Hijacker)
		if ok {
			conn, _, _ := hj.Hijack()
			conn.Close()
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.URL.Path == "/logs":
		w.Write([]byte(f.logs))
	case r.URL.Path == "/logs/blockchain":
		w.Write([]byte(f.chain))
	case r.URL.Path == "/logs/hybrid":
		w.Write([]byte(f.hybrid))
	case r.URL.Path == "/blocklist":
		w.Write([]byte(f.blocklist))
	case strings.HasPrefix(r.URL.Path, "/block/"), strings.HasPrefix(r.URL.Path, "/unblock/"):
		w.Write([]byte(`{"status": "ok"}`))
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeBackend) calls(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, p := range f.requests {
		if strings.HasPrefix(p, prefix) {
			n++
		}
	}
	return n
}

func (f *fakeBackend) setDown(down bool) {
	f.mu.Lock()
	f.down = down
	f.mu.Unlock()
}

func newTestDashboard(t *testing.T) (*Dashboard, *fakeBackend, *httptest.Server) {
	t.Helper()
	fb := &fakeBackend{
		logs:      `[]`,
		chain:     `{"total_blockchain_logs": 0, "app_id": "X", "explorer": ""}`,
		hybrid:    `{"local_logs": 0}`,
		blocklist: `{"blocked_macs": [], "total": 0, "last_updated": "Never"}`,
	}
	backendSrv := httptest.NewServer(fb)
	t.Cleanup(backendSrv.Close)

	client, err := backend.New(backendSrv.URL)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	d := New(client, Options{
		ClearDelay: time.Hour,
		Logger:     zerolog.Nop(),
		Audit:      audit.NopLogger(),
	})
	srv := httptest.NewServer(Handler(d))
	t.Cleanup(srv.Close)
	return d, fb, srv
}

func postJSON(t *testing.T, url, body string) map[string]any {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return out
}

func TestDashboard_EmptyPollCycle(t *testing.T) {
	d, _, srv := newTestDashboard(t)

	if err := d.Poller().Tick(context.Background()); err != nil {
		t.Fatalf("tick failed: %v", err)
	}

	f := d.Hub().Latest()
	if !strings.Contains(f.LogsTable, render.MsgNoAttacks) {
		t.Errorf("expected empty-state placeholder, got %q", f.LogsTable)
	}
	if f.LocalLogs != "0" || f.BlockchainLogs != "0" || f.AppID != "App ID: X" {
		t.Errorf("unexpected summary fragments %+v", f)
	}

	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }}
	resp, err := client.Get(srv.URL + "/api/explorer")
	if err != nil {
		t.Fatalf("GET explorer: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("explorer with no URL should be a no-op, got %d", resp.StatusCode)
	}
}

func TestDashboard_ExplorerRedirect(t *testing.T) {
	d, fb, srv := newTestDashboard(t)
	fb.mu.Lock()
	fb.chain = `{"total_blockchain_logs": 3, "app_id": 748319582, "explorer": "https://explorer.example/application/748319582"}`
	fb.mu.Unlock()
	d.Poller().Tick(context.Background())

	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }}
	resp, err := client.Get(srv.URL + "/api/explorer")
	if err != nil {
		t.Fatalf("GET explorer: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected redirect, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "https://explorer.example/application/748319582" {
		t.Errorf("unexpected location %q", loc)
	}
}

func TestDashboard_BackendUnreachable(t *testing.T) {
	d, fb, _ := newTestDashboard(t)
	fb.mu.Lock()
	fb.chain = `{"total_blockchain_logs": 12, "app_id": "A1", "explorer": ""}`
	fb.hybrid = `{"local_logs": 4}`
	fb.logs = `[{"timestamp": "t", "mac": "AA:BB:CC:DD:EE:FF", "signal": -40, "channel": 1, "message": "Deauth"}]`
	fb.mu.Unlock()
	if err := d.Poller().Tick(context.Background()); err != nil {
		t.Fatalf("tick failed: %v", err)
	}

	fb.setDown(true)
	if err := d.Poller().Tick(context.Background()); err == nil {
		t.Fatal("expected tick to fail")
	}

	f := d.Hub().Latest()
	if strings.Count(f.LogsTable, "<tr>") != 1 || !strings.Contains(f.LogsTable, render.MsgBackendDown) {
		t.Errorf("expected one backend-down row, got %q", f.LogsTable)
	}
	if f.LocalLogs != "4" || f.BlockchainLogs != "12" || f.AppID != "App ID: A1" {
		t.Errorf("summaries should be unchanged, got %+v", f)
	}

	stats := d.Hub().StatsSnapshot()
	if stats.TicksOK != 1 || stats.TicksFailed != 1 || stats.BackendReachable {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestDashboard_BlockInvalidFromField(t *testing.T) {
	d, fb, srv := newTestDashboard(t)

	out := postJSON(t, srv.URL+"/api/block", `{"input": "not-a-mac"}`)
	if out["ok"] != false || out["clear_input"] != false {
		t.Errorf("unexpected response %v", out)
	}
	if fb.calls("/block/") != 0 {
		t.Error("backend must not be called")
	}
	if got := d.Hub().Latest().BlockResult; got != "Invalid MAC address format!" {
		t.Errorf("unexpected result area %q", got)
	}
}

func TestDashboard_BlockFromFieldRefreshesOpenPanel(t *testing.T) {
	d, fb, srv := newTestDashboard(t)

	open := postJSON(t, srv.URL+"/api/blocklist/toggle", `{}`)
	if open["open"] != true {
		t.Fatalf("expected panel open, got %v", open)
	}
	if fb.calls("/blocklist") != 1 {
		t.Fatal("opening the panel should fetch the blocklist")
	}

	fb.mu.Lock()
	fb.blocklist = `{"blocked_macs": ["aa:bb:cc:dd:ee:ff"], "total": 1, "last_updated": "2024-05-01 10:00:00"}`
	fb.mu.Unlock()

	out := postJSON(t, srv.URL+"/api/block", `{"input": "AA:BB:CC:DD:EE:FF"}`)
	if out["ok"] != true || out["clear_input"] != true {
		t.Fatalf("unexpected response %v", out)
	}
	if fb.calls("/block/AA:BB:CC:DD:EE:FF") != 1 {
		t.Error("expected one block request")
	}
	if fb.calls("/blocklist") != 2 {
		t.Error("open panel should be re-fetched after block")
	}
	if d.Store().Input() != "" {
		t.Error("input field should be cleared")
	}

	f := d.Hub().Latest()
	if !strings.Contains(f.BlockResult, "AA:BB:CC:DD:EE:FF") || f.ResultClass != "block-result success" {
		t.Errorf("unexpected result %q / %q", f.BlockResult, f.ResultClass)
	}
	if !strings.Contains(f.BlockedContent, "Total: 1 | Last Updated: 2024-05-01 10:00:00") {
		t.Errorf("unexpected panel %q", f.BlockedContent)
	}

	if n := d.Hub().Activity().Len(); n != 1 {
		t.Errorf("expected 1 activity event, got %d", n)
	}
}

func TestDashboard_RowBlockAndUnblock(t *testing.T) {
	d, fb, srv := newTestDashboard(t)
	d.Store().SetInput("AA:BB:CC:00:00:01")

	out := postJSON(t, srv.URL+"/api/block", `{"mac": "11:22:33:44:55:66"}`)
	if out["ok"] != true || out["clear_input"] != true {
		t.Fatalf("unexpected response %v", out)
	}
	if d.Store().Input() != "" {
		t.Error("row block should clear the pre-filled input field")
	}
	if fb.calls("/block/11:22:33:44:55:66") != 1 {
		t.Error("row block must send the row's MAC, not the input field")
	}

	out = postJSON(t, srv.URL+"/api/unblock", `{"mac": "11:22:33:44:55:66"}`)
	if out["ok"] != true {
		t.Fatalf("unexpected response %v", out)
	}
	if fb.calls("/unblock/11:22:33:44:55:66") != 1 {
		t.Error("expected one unblock request")
	}
	if fb.calls("/blocklist") != 0 {
		t.Error("closed panel should not be fetched")
	}
}

func TestDashboard_WebSocketInitialState(t *testing.T) {
	d, _, srv := newTestDashboard(t)
	d.Poller().Tick(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.CloseNow()

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	var msg struct {
		Type    string       `json:"type"`
		Payload InitialState `json:"payload"`
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg.Type != "initial_state" {
		t.Fatalf("expected initial_state, got %s", msg.Type)
	}
	if msg.Payload.View.AppID != "App ID: X" {
		t.Errorf("unexpected initial view %+v", msg.Payload.View)
	}

	d.Store().SetInput("not-a-mac")
	d.Workflow().Block(context.Background(), blocklist.FromField())

	for {
		_, data, err = conn.Read(ctx)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		var m struct {
			Type    string           `json:"type"`
			Payload render.Fragments `json:"payload"`
		}
		json.Unmarshal(data, &m)
		if m.Type == "render" && m.Payload.BlockResult == "Invalid MAC address format!" {
			return
		}
	}
}

func TestDashboard_ViewAndIndex(t *testing.T) {
	_, _, srv := newTestDashboard(t)

	resp, err := http.Get(srv.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/html") {
		t.Errorf("unexpected index response %d %s", resp.StatusCode, resp.Header.Get("Content-Type"))
	}

	resp, err = http.Get(srv.URL + "/api/view")
	if err != nil {
		t.Fatalf("GET /api/view: %v", err)
	}
	defer resp.Body.Close()
	var v render.View
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	if v.Attacks.Message != render.MsgWaiting {
		t.Errorf("expected waiting message before first tick, got %q", v.Attacks.Message)
	}
}
