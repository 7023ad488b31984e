package monitor

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"html/template"
	"image"
	"image/png"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/banshee-data/heightmap/internal/heightmap/export"
	"github.com/banshee-data/heightmap/internal/heightmap/l4regions"
	"github.com/banshee-data/heightmap/internal/heightmap/pipeline"
	"github.com/banshee-data/heightmap/internal/heightmap/storage/sqlite"
	"github.com/banshee-data/heightmap/internal/monitoring"
)

//go:embed index.html
var indexHTML string

var indexTemplate = template.Must(template.New("index").Parse(indexHTML))

// ServerConfig configures a ProbeServer.
type ServerConfig struct {
	Address   string
	Result    *pipeline.Result
	Highlight [3]uint8

	// Probes, when set, records every committed probe under RunID.
	Probes *sqlite.ProbeStore
	RunID  string
}

// ProbeServer exposes one run's rasters and its Probe over HTTP.
type ProbeServer struct {
	address string
	result  *pipeline.Result
	probes  *sqlite.ProbeStore
	runID   string
	server  *http.Server

	mu    sync.Mutex
	probe *l4regions.Probe
}

// ProbeResponse is the JSON body returned for a probe click.
type ProbeResponse struct {
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Value  uint8  `json:"value"`
	Sealed int    `json:"sealed"`
	Bounds [4]int `json:"bounds"` // x0, y0, x1, y1 (exclusive)
}

// NewProbeServer builds the server and its probe context.
func NewProbeServer(cfg ServerConfig) (*ProbeServer, error) {
	if cfg.Result == nil {
		return nil, fmt.Errorf("no run result to serve")
	}
	probe, err := cfg.Result.NewProbe(cfg.Highlight)
	if err != nil {
		return nil, err
	}
	ps := &ProbeServer{
		address: cfg.Address,
		result:  cfg.Result,
		probes:  cfg.Probes,
		runID:   cfg.RunID,
		probe:   probe,
	}
	ps.server = &http.Server{
		Addr:              ps.address,
		Handler:           ps.setupRoutes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return ps, nil
}

// Handler returns the HTTP handler.
func (ps *ProbeServer) Handler() http.Handler { return ps.server.Handler }

// Start serves until ctx is cancelled, then shuts down.
func (ps *ProbeServer) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting probe server on http://%s", ps.address)
		if err := ps.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("probe server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()
	if err := ps.server.Shutdown(shutdownCtx); err != nil {
		log.Printf("probe server shutdown error: %v", err)
		if err := ps.server.Close(); err != nil {
			log.Printf("probe server force close error: %v", err)
		}
	}
	log.Printf("probe server stopped")
	return nil
}

func (ps *ProbeServer) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", ps.handleHealth)
	mux.HandleFunc("GET /{$}", ps.handleIndex)
	mux.HandleFunc("GET /paint.png", ps.handlePaint)
	mux.HandleFunc("GET /heightmap.png", ps.handleRaster)
	mux.HandleFunc("GET /edges.png", ps.handleRaster)
	mux.HandleFunc("GET /report", ps.handleReport)
	mux.HandleFunc("POST /api/probe", ps.handleProbe)
	mux.HandleFunc("POST /api/reset", ps.handleReset)
	mux.HandleFunc("GET /api/history", ps.handleHistory)
	return mux
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writePNG(w http.ResponseWriter, img image.Image) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("encode png: %v", err))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(buf.Bytes())
}

func (ps *ProbeServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (ps *ProbeServer) handleIndex(w http.ResponseWriter, r *http.Request) {
	res := ps.result
	display := res.Cols
	for display < 600 {
		display *= 2
	}
	var buf bytes.Buffer
	err := indexTemplate.Execute(&buf, map[string]interface{}{
		"Title":        "Heightmap probe",
		"Source":       res.Source,
		"Width":        res.Cols,
		"Height":       res.Rows,
		"DisplayWidth": display,
		"Box":          res.Box.String(),
	})
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func (ps *ProbeServer) handlePaint(w http.ResponseWriter, r *http.Request) {
	ps.mu.Lock()
	img := ps.probe.Paint.RGBA()
	ps.mu.Unlock()
	writePNG(w, img)
}

func (ps *ProbeServer) handleRaster(w http.ResponseWriter, r *http.Request) {
	raster := ps.result.Heightmap
	if r.URL.Path == "/edges.png" {
		if ps.result.Closed == nil {
			writeJSONError(w, http.StatusNotFound, "edge stages did not run")
			return
		}
		raster = ps.result.Closed
	}
	writePNG(w, raster.Gray())
}

func (ps *ProbeServer) handleReport(w http.ResponseWriter, r *http.Request) {
	hm, err := export.HeatmapChart(ps.result.Heightmap, ps.result.Box, "Heightmap", export.DefaultMaxCells)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	var buf bytes.Buffer
	if err := hm.Render(&buf); err != nil {
		writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render chart: %v", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func (ps *ProbeServer) handleProbe(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	x, errX := strconv.Atoi(q.Get("x"))
	y, errY := strconv.Atoi(q.Get("y"))
	if errX != nil || errY != nil {
		writeJSONError(w, http.StatusBadRequest, "x and y must be integers")
		return
	}

	ps.mu.Lock()
	g, err := ps.probe.Click(x, y)
	ps.mu.Unlock()
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	if ps.probes != nil && ps.runID != "" {
		rec := &sqlite.ProbeRecord{RunID: ps.runID, Seed: g.Seed, Value: g.Value, Sealed: g.Sealed, Bounds: g.Bounds}
		if err := ps.probes.Insert(rec); err != nil {
			monitoring.Logf("[probe] failed to record probe: %v", err)
		}
	}
	writeJSON(w, http.StatusOK, toResponse(g.Summary()))
}

func (ps *ProbeServer) handleReset(w http.ResponseWriter, r *http.Request) {
	ps.mu.Lock()
	ps.probe.Reset()
	ps.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func (ps *ProbeServer) handleHistory(w http.ResponseWriter, r *http.Request) {
	ps.mu.Lock()
	hist := ps.probe.History()
	ps.mu.Unlock()
	out := make([]ProbeResponse, 0, len(hist))
	for _, g := range hist {
		out = append(out, toResponse(g))
	}
	writeJSON(w, http.StatusOK, out)
}

func toResponse(g l4regions.Region) ProbeResponse {
	return ProbeResponse{
		X:      g.Seed.X,
		Y:      g.Seed.Y,
		Value:  g.Value,
		Sealed: g.Sealed,
		Bounds: [4]int{g.Bounds.Min.X, g.Bounds.Min.Y, g.Bounds.Max.X, g.Bounds.Max.Y},
	}
}
