package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/df07/go-irradiance-tracer/pkg/core"
	"github.com/df07/go-irradiance-tracer/pkg/renderer"
	"github.com/df07/go-irradiance-tracer/pkg/scene"
)

// Server handles web requests for the irradiance tracer
type Server struct {
	port      int
	scenesDir string // YAML scenes offered next to the built-in ones
	logger    *core.SlogLogger

	mu   sync.Mutex
	last *renderer.PathTracer // Tracer of the most recent render, for /api/debug
}

// NewServer creates a new web server
func NewServer(port int, scenesDir string, logger *core.SlogLogger) *Server {
	if logger == nil {
		logger = core.NewDefaultLogger(nil, false)
	}
	return &Server{port: port, scenesDir: scenesDir, logger: logger}
}

// Handler returns the routes of the server
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.Dir("static/")))
	mux.HandleFunc("/api/render", s.handleRender)
	mux.HandleFunc("/api/inspect", s.handleInspect)
	mux.HandleFunc("/api/debug", s.handleDebug)
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/scenes", s.handleScenes)
	return mux
}

// Start starts the web server
func (s *Server) Start() error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Infof("starting web server on http://localhost%s", srv.Addr)
	return srv.ListenAndServe()
}

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleScenes lists the available scenes with the default settings and
// the limits accepted by /api/render
func (s *Server) handleScenes(w http.ResponseWriter, r *http.Request) {
	scenes, err := scene.ListScenes(s.scenesDir)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	d := renderer.DefaultConfig()
	writeJSON(w, http.StatusOK, map[string]any{
		"scenes": scenes,
		"defaults": map[string]any{
			"width":     defaultWidth,
			"height":    defaultHeight,
			"samples":   d.SamplesX,
			"bounces":   d.NumBounces,
			"tolerance": d.ErrorTolerance,
			"weight":    d.Weight,
		},
		"limits": map[string]any{
			"width":     map[string]int{"min": 16, "max": 2000},
			"height":    map[string]int{"min": 16, "max": 2000},
			"samples":   map[string]int{"min": 1, "max": 8},
			"bounces":   map[string]int{"min": 0, "max": 8},
			"tolerance": map[string]float64{"min": 0.01, "max": 2},
		},
	})
}

// handleDebug returns the debug bundle of the most recent render
func (s *Server) handleDebug(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	pt := s.last
	s.mu.Unlock()

	var data *renderer.DebugData
	if pt != nil {
		data = pt.DebugData()
	}
	if data == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no finished render"})
		return
	}
	writeJSON(w, http.StatusOK, data)
}

// SceneParams are the request parameters shared by rendering and
// inspection
type SceneParams struct {
	Scene  string `json:"scene"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

const (
	defaultScene  = "cornell"
	defaultWidth  = 400
	defaultHeight = 300
)

// parseSceneParams parses the scene name and image size
func parseSceneParams(values url.Values) (SceneParams, error) {
	p := SceneParams{Scene: values.Get("scene")}
	if p.Scene == "" {
		p.Scene = defaultScene
	}

	var err error
	if p.Width, err = parseIntParam(values, "width", defaultWidth, 16, 2000); err != nil {
		return p, err
	}
	if p.Height, err = parseIntParam(values, "height", defaultHeight, 16, 2000); err != nil {
		return p, err
	}
	return p, nil
}

// loadScene opens and flattens a scene by id. Accelerators are built with
// the render seed so inspection matches rendering.
func (s *Server) loadScene(id string, seed int64) (*scene.Description, *scene.FlatScene, error) {
	desc, err := scene.Open(id, s.scenesDir)
	if err != nil {
		return nil, nil, err
	}
	flat, err := desc.Flatten()
	if err != nil {
		return nil, nil, err
	}
	flat.BuildAccelerators(rand.New(rand.NewSource(seed)))
	return desc, flat, nil
}

// parseIntParam parses an integer parameter from URL query with validation
func parseIntParam(values url.Values, key string, defaultValue, min, max int) (int, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %d and %d, got: %d", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// parseFloatParam parses a float parameter from URL query with validation
func parseFloatParam(values url.Values, key string, defaultValue, min, max float64) (float64, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %g and %g, got: %g", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// writeJSON writes v with the given status
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

var errStreamingUnsupported = errors.New("streaming not supported")
