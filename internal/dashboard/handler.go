package dashboard

import (
	"context"
	"embed"
	"encoding/json"
	"net/http"

	"nhooyr.io/websocket"

	"github.com/coal/deauthwatch/internal/blocklist"
)

//go:embed static/dashboard.html
var staticFS embed.FS

type blockRequest struct {
	// MAC set means a row button; nil means read the input field.
	MAC   *string `json:"mac"`
	Input *string `json:"input"`
}

type unblockRequest struct {
	MAC string `json:"mac"`
}

type actionResponse struct {
	blocklist.Outcome
	OK         bool   `json:"ok"`
	ClearInput bool   `json:"clear_input"`
	Error      string `json:"error,omitempty"`
}

// Handler returns an http.Handler that serves the dashboard routes.
func Handler(d *Dashboard) http.Handler {
	mux := http.NewServeMux()

	// Dashboard HTML
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		data, err := staticFS.ReadFile("static/dashboard.html")
		if err != nil {
			http.Error(w, "dashboard not found", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(data)
	})

	// WebSocket endpoint
	mux.HandleFunc("GET /ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.CloseNow()

		d.hub.Register(conn)
		defer d.hub.Unregister(conn)

		// Client messages are ignored; actions go through the REST routes.
		ctx := conn.CloseRead(context.Background())
		<-ctx.Done()
	})

	mux.HandleFunc("GET /api/view", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, d.View())
	})

	mux.HandleFunc("GET /api/stats", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, d.hub.StatsSnapshot())
	})

	mux.HandleFunc("GET /api/activity", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, d.hub.Activity().All())
	})

	mux.HandleFunc("POST /api/block", func(w http.ResponseWriter, r *http.Request) {
		var req blockRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		wr := blocklist.FromField()
		if req.MAC != nil {
			wr = blocklist.FromArgument(*req.MAC)
		} else if req.Input != nil {
			d.store.SetInput(*req.Input)
		}

		out := d.workflow.Block(detach(r), wr)
		writeOutcome(w, out, out.OK())
	})

	mux.HandleFunc("POST /api/unblock", func(w http.ResponseWriter, r *http.Request) {
		var req unblockRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		writeOutcome(w, d.workflow.Unblock(detach(r), req.MAC), false)
	})

	mux.HandleFunc("POST /api/blocklist/toggle", func(w http.ResponseWriter, r *http.Request) {
		open := d.workflow.TogglePanel(detach(r))
		writeJSON(w, http.StatusOK, map[string]bool{"open": open})
	})

	mux.HandleFunc("GET /api/blocklist", func(w http.ResponseWriter, r *http.Request) {
		d.workflow.RefreshPanel(detach(r))
		writeJSON(w, http.StatusOK, d.View().Panel)
	})

	// Explorer: redirect to the cached URL, or do nothing if there is none.
	mux.HandleFunc("GET /api/explorer", func(w http.ResponseWriter, r *http.Request) {
		target := d.store.ExplorerURL()
		if target == "" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		http.Redirect(w, r, target, http.StatusFound)
	})

	mux.Handle("GET /metrics", d.metrics.Handler())

	return mux
}

// detach keeps backend calls running if the browser goes away; in-flight
// requests are never aborted.
func detach(r *http.Request) context.Context {
	return context.WithoutCancel(r.Context())
}

func writeOutcome(w http.ResponseWriter, out blocklist.Outcome, clearInput bool) {
	resp := actionResponse{Outcome: out, OK: out.OK(), ClearInput: clearInput}
	if out.Err != nil {
		resp.Error = out.Err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
