package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"time"

	"github.com/df07/go-irradiance-tracer/pkg/renderer"
	"github.com/df07/go-irradiance-tracer/pkg/scene"
	"github.com/google/uuid"
	"golang.org/x/image/draw"
)

const (
	progressInterval = 200 * time.Millisecond
	thumbnailWidth   = 160
)

// RenderRequest represents a render request from the client
type RenderRequest struct {
	SceneParams
	Samples   int     `json:"samples"` // Stratified samples per pixel axis
	Bounces   int     `json:"bounces"`
	Tolerance float64 `json:"tolerance"`
	Weight    string  `json:"weight"`
	Seed      int64   `json:"seed"`
}

// ProgressUpdate is sent while the passes run
type ProgressUpdate struct {
	Progress  float64 `json:"progress"` // Completed share of both passes
	ElapsedMs int64   `json:"elapsedMs"`
}

// CompleteUpdate carries the finished image
type CompleteUpdate struct {
	RenderID  string               `json:"renderId"`
	ImageData string               `json:"imageData"` // Base64 encoded PNG
	Thumbnail string               `json:"thumbnail"` // Base64 encoded PNG, thumbnailWidth wide
	Stats     renderer.RenderStats `json:"stats"`
	HitRate   float64              `json:"hitRate"`
	ElapsedMs int64                `json:"elapsedMs"`
}

// renderOutcome is handed from the render goroutine to the handler
type renderOutcome struct {
	result *renderer.Result
	err    error
}

// handleRender renders a scene and streams progress, console messages and
// the final image via SSE. All writes happen on the handler goroutine.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	setSSEHeaders(w)
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, errStreamingUnsupported.Error(), http.StatusInternalServerError)
		return
	}
	send := func(event string, v any) error {
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	req, err := parseRenderRequest(r)
	if err != nil {
		send("error", fmt.Sprintf("Invalid request: %v", err))
		return
	}

	requestID := uuid.New().String()
	consoleChan := make(chan ConsoleMessage, 50)
	logger := NewWebLogger(requestID, s.logger.With("request", requestID), consoleChan)

	desc, flat, err := s.loadScene(req.Scene, req.Seed)
	if err != nil {
		send("error", err.Error())
		return
	}
	pt, err := renderer.NewPathTracer(flat, req.config(), logger)
	if err != nil {
		send("error", err.Error())
		return
	}

	camera := scene.NewCamera(desc.Camera, float64(req.Width)/float64(req.Height))
	out := image.NewRGBA(image.Rect(0, 0, req.Width, req.Height))
	done := make(chan renderOutcome, 1)
	start := time.Now()

	if err := pt.RenderScene(camera, out, func(result *renderer.Result, err error) {
		done <- renderOutcome{result, err}
	}); err != nil {
		send("error", err.Error())
		return
	}

	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()
	ctx := r.Context()

	for {
		select {
		case msg := <-consoleChan:
			if send("console", msg) != nil {
				return
			}

		case <-ticker.C:
			update := ProgressUpdate{Progress: pt.Progress(), ElapsedMs: time.Since(start).Milliseconds()}
			if send("progress", update) != nil {
				return
			}

		case outcome := <-done:
			drainConsole(consoleChan, func(msg ConsoleMessage) { send("console", msg) })
			if outcome.err != nil {
				send("error", fmt.Sprintf("Rendering failed: %v", outcome.err))
				return
			}
			s.mu.Lock()
			s.last = pt
			s.mu.Unlock()

			update, err := completeUpdate(outcome.result, time.Since(start))
			if err != nil {
				send("error", err.Error())
				return
			}
			send("complete", update)
			return

		case <-ctx.Done():
			// Client went away; the render finishes in the background
			return
		}
	}
}

// parseRenderRequest parses request parameters
func parseRenderRequest(r *http.Request) (*RenderRequest, error) {
	values := r.URL.Query()
	params, err := parseSceneParams(values)
	if err != nil {
		return nil, err
	}

	d := renderer.DefaultConfig()
	req := &RenderRequest{SceneParams: params, Weight: values.Get("weight"), Seed: d.Seed}
	if req.Samples, err = parseIntParam(values, "samples", d.SamplesX, 1, 8); err != nil {
		return nil, err
	}
	if req.Bounces, err = parseIntParam(values, "bounces", d.NumBounces, 0, 8); err != nil {
		return nil, err
	}
	if req.Tolerance, err = parseFloatParam(values, "tolerance", d.ErrorTolerance, 0.01, 2); err != nil {
		return nil, err
	}
	if req.Weight == "" {
		req.Weight = d.Weight
	}
	if v := values.Get("seed"); v != "" {
		seed, err := parseIntParam(values, "seed", 0, 0, 1<<31-1)
		if err != nil {
			return nil, err
		}
		req.Seed = int64(seed)
	}
	return req, nil
}

// config converts the request into renderer settings
func (req *RenderRequest) config() renderer.Config {
	cfg := renderer.DefaultConfig()
	cfg.Width, cfg.Height = req.Width, req.Height
	cfg.SamplesX, cfg.SamplesY = req.Samples, req.Samples
	cfg.NumBounces = req.Bounces
	cfg.ErrorTolerance = req.Tolerance
	cfg.Weight = req.Weight
	cfg.Seed = req.Seed
	return cfg
}

func completeUpdate(result *renderer.Result, elapsed time.Duration) (CompleteUpdate, error) {
	imageData, err := imageToBase64PNG(result.Image)
	if err != nil {
		return CompleteUpdate{}, fmt.Errorf("failed to encode image: %w", err)
	}
	thumb, err := imageToBase64PNG(thumbnail(result.Image, thumbnailWidth))
	if err != nil {
		return CompleteUpdate{}, fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return CompleteUpdate{
		RenderID:  result.ID.String(),
		ImageData: imageData,
		Thumbnail: thumb,
		Stats:     result.Stats,
		HitRate:   result.Stats.HitRate(),
		ElapsedMs: elapsed.Milliseconds(),
	}, nil
}

// thumbnail scales img to the given width, keeping its aspect ratio
func thumbnail(img image.Image, width int) *image.RGBA {
	b := img.Bounds()
	height := max(1, b.Dy()*width/max(1, b.Dx()))
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// drainConsole flushes the messages already queued
func drainConsole(ch <-chan ConsoleMessage, fn func(ConsoleMessage)) {
	for {
		select {
		case msg := <-ch:
			fn(msg)
		default:
			return
		}
	}
}

// setSSEHeaders sets the required headers for Server-Sent Events
func setSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
}

// imageToBase64PNG converts an image to base64-encoded PNG
func imageToBase64PNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
