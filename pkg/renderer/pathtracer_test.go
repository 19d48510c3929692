package renderer

import (
	"context"
	"errors"
	"image"
	"testing"
	"time"

	"github.com/df07/go-irradiance-tracer/pkg/core"
	"github.com/df07/go-irradiance-tracer/pkg/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPathTracer(t *testing.T, d *scene.Description, cfg Config) (*PathTracer, *scene.Camera) {
	t.Helper()
	fs, err := d.Flatten()
	require.NoError(t, err)
	pt, err := NewPathTracer(fs, cfg, core.NopLogger())
	require.NoError(t, err)
	return pt, scene.NewCamera(d.Camera, float64(cfg.Width)/float64(cfg.Height))
}

func TestNewPathTracer_InvalidConfig(t *testing.T) {
	fs, err := scene.NewQuadScene().Flatten()
	require.NoError(t, err)

	cfg := smallConfig()
	cfg.Width = 0
	_, err = NewPathTracer(fs, cfg, nil)
	assert.Error(t, err)
}

func TestPathTracer_LitQuadImage(t *testing.T) {
	pt, camera := newTestPathTracer(t, scene.NewQuadScene(), smallConfig())

	result, err := pt.Render(context.Background(), camera)
	require.NoError(t, err)

	// The view centre sees the flat lit quad; the black sky adds nothing
	// so the pixel is exactly the tone mapped direct term
	assert.Equal(t, vec3ToColor(litQuadRadiance()), result.Image.RGBAAt(16, 12))
	assert.Greater(t, result.Stats.PrimaryMisses, 0)
}

func TestPathTracer_IdenticalAcrossWorkerCounts(t *testing.T) {
	render := func(workers int) *Result {
		cfg := smallConfig()
		cfg.NumWorkers = workers
		pt, camera := newTestPathTracer(t, scene.NewCornellScene(), cfg)
		result, err := pt.Render(context.Background(), camera)
		require.NoError(t, err)
		return result
	}

	one, many := render(1), render(4)

	assert.Equal(t, one.Stats.Records, many.Stats.Records)
	assert.Equal(t, one.Stats.CacheHits, many.Stats.CacheHits)
	assert.Equal(t, one.Stats.CacheMisses, many.Stats.CacheMisses)
	assert.Equal(t, one.Image.Pix, many.Image.Pix)
	assert.Equal(t, len(one.Debug.OctreeBounds), len(many.Debug.OctreeBounds))
	assert.Greater(t, one.Stats.Records, 0)
	assert.Greater(t, one.Stats.CacheHits, 0)
}

func TestPathTracer_BounceNeverDarkens(t *testing.T) {
	luminance := func(bounces int) float64 {
		cfg := smallConfig()
		cfg.NumBounces = bounces
		pt, camera := newTestPathTracer(t, scene.NewOpenBoxScene(), cfg)
		result, err := pt.Render(context.Background(), camera)
		require.NoError(t, err)
		return CalculateAverageLuminance(result.Image)
	}

	assert.Greater(t, luminance(1), luminance(0))
}

func TestPathTracer_ProgressAndBusy(t *testing.T) {
	pt, camera := newTestPathTracer(t, scene.NewQuadScene(), smallConfig())
	assert.Zero(t, pt.Progress())
	assert.False(t, pt.Busy())
	assert.Nil(t, pt.DebugData())

	_, err := pt.Render(context.Background(), camera)
	require.NoError(t, err)
	assert.Equal(t, 1.0, pt.Progress())
	assert.False(t, pt.Busy())

	pt.busy.Store(true)
	_, err = pt.Render(context.Background(), camera)
	assert.True(t, errors.Is(err, core.ErrBusy))
	out := image.NewRGBA(image.Rect(0, 0, 32, 24))
	assert.True(t, errors.Is(pt.RenderScene(camera, out, nil), core.ErrBusy))
}

func TestPathTracer_RenderSceneAsync(t *testing.T) {
	pt, camera := newTestPathTracer(t, scene.NewOpenBoxScene(), smallConfig())
	out := image.NewRGBA(image.Rect(0, 0, 32, 24))

	done := make(chan *Result, 1)
	require.NoError(t, pt.RenderScene(camera, out, func(r *Result, err error) {
		assert.NoError(t, err)
		done <- r
	}))

	select {
	case r := <-done:
		assert.Same(t, out, r.Image)
		assert.False(t, pt.Busy())
		assert.Equal(t, 1.0, pt.Progress())
	case <-time.After(time.Minute):
		t.Fatal("render did not finish")
	}
}

func TestPathTracer_RenderSceneRejectsWrongSize(t *testing.T) {
	pt, camera := newTestPathTracer(t, scene.NewQuadScene(), smallConfig())
	err := pt.RenderScene(camera, image.NewRGBA(image.Rect(0, 0, 10, 10)), nil)
	assert.Error(t, err)
	assert.False(t, pt.Busy())
}

func TestPathTracer_RenderSceneRejectsOffsetOrigin(t *testing.T) {
	pt, camera := newTestPathTracer(t, scene.NewQuadScene(), smallConfig())
	out := image.NewRGBA(image.Rect(100, 100, 132, 124))

	err := pt.RenderScene(camera, out, func(*Result, error) {
		t.Error("render should not start")
	})
	assert.Error(t, err)
	assert.False(t, pt.Busy())

	sub := image.NewRGBA(image.Rect(0, 0, 64, 48)).SubImage(image.Rect(32, 24, 64, 48)).(*image.RGBA)
	assert.Error(t, pt.RenderScene(camera, sub, nil))
}

func TestPathTracer_RenderSceneResetsProgress(t *testing.T) {
	pt, camera := newTestPathTracer(t, scene.NewQuadScene(), smallConfig())
	_, err := pt.Render(context.Background(), camera)
	require.NoError(t, err)
	require.Equal(t, 1.0, pt.Progress())
	previous := pt.current.Load()

	done := make(chan struct{})
	out := image.NewRGBA(image.Rect(0, 0, 32, 24))
	require.NoError(t, pt.RenderScene(camera, out, func(*Result, error) { close(done) }))

	// The new render is visible to Progress before RenderScene returns
	current := pt.current.Load()
	assert.NotSame(t, previous, current)
	assert.Same(t, out, current.Output)

	select {
	case <-done:
	case <-time.After(time.Minute):
		t.Fatal("render did not finish")
	}
}

func TestPathTracer_PassTotals(t *testing.T) {
	cfg := smallConfig()
	cfg.SamplesX, cfg.SamplesY = 2, 2
	pt, camera := newTestPathTracer(t, scene.NewOpenBoxScene(), cfg)

	result, err := pt.Render(context.Background(), camera)
	require.NoError(t, err)

	s := result.Stats
	assert.Equal(t, s.CacheWidth*s.CacheHeight, s.CachePassTotals.Samples)
	assert.Equal(t, cfg.Width*cfg.Height*4, s.FinalPassTotals.Samples)
	assert.Equal(t, s.CachePassTotals.Records, s.Records)
	assert.Equal(t, s.FinalPassTotals.CacheHits, s.CacheHits)
	assert.Equal(t, s.FinalPassTotals.PrimaryMisses, s.PrimaryMisses)
	assert.Zero(t, s.FinalPassTotals.Records)
}

func TestPathTracer_CancelledBeforeStart(t *testing.T) {
	pt, camera := newTestPathTracer(t, scene.NewQuadScene(), smallConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := pt.Render(ctx, camera)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.False(t, pt.Busy())
}

func TestPathTracer_DebugData(t *testing.T) {
	cfg := smallConfig()
	pt, camera := newTestPathTracer(t, scene.NewCornellScene(), cfg)

	result, err := pt.Render(context.Background(), camera)
	require.NoError(t, err)

	debug := pt.DebugData()
	require.NotNil(t, debug)
	assert.Equal(t, result.ID.String(), debug.RenderID)
	assert.NotEmpty(t, debug.SampleHits)
	assert.LessOrEqual(t, len(debug.SampleHits), 16*12)
	assert.NotEmpty(t, debug.OctreeBounds)
	assert.Len(t, debug.HemisphereRays, cfg.HemisphereTheta*cfg.HemispherePhi)
}

func TestPathTracer_Trace(t *testing.T) {
	pt, _ := newTestPathTracer(t, scene.NewQuadScene(), smallConfig())

	info := pt.Trace(core.NewRay(core.NewVec3(0, 1, 0), core.NewVec3(0, -1, 0)))
	require.True(t, info.Hit())
	assert.InDelta(t, 1.0, info.T, 1e-9)
}
