// Package web serves the decoder's HTTP API: runtime status, the vessel
// table, recent logs and a websocket stream of decoded messages.
package web

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"strconv"
	"strings"
	"time"

	"aisdecode/internal/vessel"
)

type Deps struct {
	Status  *Status
	Vessels *vessel.Store
	Logs    *LogBuffer
	Hub     *Hub
}

func Handler(d Deps) http.Handler {
	if d.Status == nil {
		d.Status = NewStatus()
	}
	mux := http.NewServeMux()

	mux.HandleFunc("/api/status", func(w http.ResponseWriter, r *http.Request) {
		if !allowMethod(w, r, http.MethodGet) {
			return
		}
		writeJSON(w, d.Status.Snapshot(time.Now().UTC()))
	})

	mux.HandleFunc("/api/vessels", func(w http.ResponseWriter, r *http.Request) {
		if !allowMethod(w, r, http.MethodGet) {
			return
		}
		if d.Vessels == nil {
			writeJSON(w, []vessel.Vessel{})
			return
		}
		list := d.Vessels.Snapshot()
		if raw := strings.TrimSpace(r.URL.Query().Get("bbox")); raw != "" {
			box, err := parseBBox(raw)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			list = d.Vessels.Within(box)
		}
		if list == nil {
			list = []vessel.Vessel{}
		}
		writeJSON(w, list)
	})

	mux.HandleFunc("/api/vessels/{mmsi}", func(w http.ResponseWriter, r *http.Request) {
		if !allowMethod(w, r, http.MethodGet) {
			return
		}
		mmsi, err := strconv.ParseUint(r.PathValue("mmsi"), 10, 32)
		if err != nil {
			http.Error(w, "mmsi must be a decimal number", http.StatusBadRequest)
			return
		}
		v, ok := d.Vessels.Get(uint32(mmsi))
		if !ok {
			http.Error(w, "vessel not found", http.StatusNotFound)
			return
		}
		writeJSON(w, v)
	})

	if d.Logs != nil {
		mux.Handle("/api/logs", d.Logs.Handler())
	}

	mux.Handle("/ws", streamHandler(d.Hub))

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if !allowMethod(w, r, http.MethodGet) {
			return
		}
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		snap := d.Status.Snapshot(time.Now().UTC())
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = fmt.Fprintf(w, "<!doctype html><html><head><meta charset=\"utf-8\"><title>aisdecode</title></head><body>")
		_, _ = fmt.Fprintf(w, "<h1>aisdecode</h1><ul>")
		for _, src := range snap.Sources {
			_, _ = fmt.Fprintf(w, "<li>%s %s: %s, %d messages</li>",
				html.EscapeString(src.Feed.Name), html.EscapeString(src.Feed.Target),
				html.EscapeString(src.Feed.State), src.Decoder.Messages,
			)
		}
		_, _ = fmt.Fprintf(w, "</ul><p>%d vessels. See <a href=\"/api/status\">/api/status</a>, ", snap.Vessels)
		_, _ = fmt.Fprintf(w, "<a href=\"/api/vessels\">/api/vessels</a> and <a href=\"/api/logs?format=text\">/api/logs</a>.</p>")
		_, _ = fmt.Fprintf(w, "</body></html>")
	})

	return mux
}

// parseBBox reads "south,west,north,east" in degrees.
func parseBBox(raw string) (vessel.BBox, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return vessel.BBox{}, fmt.Errorf("bbox must be south,west,north,east")
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return vessel.BBox{}, fmt.Errorf("bbox value %q is not a number", p)
		}
		v[i] = f
	}
	box := vessel.BBox{South: v[0], West: v[1], North: v[2], East: v[3]}
	if box.South < -90 || box.North > 90 || box.South > box.North {
		return vessel.BBox{}, fmt.Errorf("bbox latitudes must satisfy -90 <= south <= north <= 90")
	}
	if box.West < -180 || box.East > 180 || box.West > box.East {
		return vessel.BBox{}, fmt.Errorf("bbox longitudes must satisfy -180 <= west <= east <= 180")
	}
	return box, nil
}

func allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	return false
}

func writeJSON(w http.ResponseWriter, v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		http.Error(w, "marshal failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(b)
	_, _ = w.Write([]byte("\n"))
}

func Serve(ctx context.Context, listenAddr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              listenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       30 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1 MiB
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
