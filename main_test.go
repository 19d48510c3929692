package main

import (
	"bytes"
	"context"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateScene(t *testing.T) {
	yamlPath := filepath.Join(t.TempDir(), "floor.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(`
name: floor
materials: [{name: grey, albedo: [0.5, 0.5, 0.5]}]
meshes:
  - name: tile
    kind: quads
    material: grey
    positions: [[-1, 0, 1], [1, 0, 1], [1, 0, -1], [-1, 0, -1]]
    indices: [0, 1, 2, 3]
nodes: [{name: tile, mesh: tile}]
`), 0o644))

	tests := []struct {
		name        string
		sceneType   string
		expectError bool
	}{
		{"quad scene", "quad", false},
		{"cornell scene", "cornell", false},
		{"open box scene", "open-box", false},
		{"yaml scene", yamlPath, false},
		{"bundled yaml scene", "scenes/pyramids.yaml", false},
		{"bundled scene id", "file:pyramids", false},
		{"unknown scene", "nonexistent", true},
		{"missing yaml", "scenes/nonexistent.yaml", true},
		{"empty scene name", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			desc, err := createScene(tt.sceneType)
			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, desc)
				return
			}
			require.NoError(t, err)
			_, err = desc.Flatten()
			assert.NoError(t, err)
		})
	}
}

func TestRun_WritesImage(t *testing.T) {
	out := filepath.Join(t.TempDir(), "quad.png")
	var stdout, stderr bytes.Buffer

	err := run(context.Background(), []string{
		"-scene", "quad", "-out", out,
		"-width", "24", "-height", "16", "-workers", "2", "-quiet",
	}, &stdout, &stderr)
	require.NoError(t, err, stderr.String())

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 24, img.Bounds().Dx())
	assert.Equal(t, 16, img.Bounds().Dy())
	assert.Contains(t, stdout.String(), "records")
}

func TestRun_ConfigFileAndOverrides(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "render.toml")
	require.NoError(t, os.WriteFile(configPath, []byte(`
scene = "open-box"
output = "`+filepath.ToSlash(filepath.Join(dir, "box.bmp"))+`"

[image]
width = 16
height = 12

[cache]
hemisphere_theta = 3
hemisphere_phi = 6
`), 0o644))

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"-config", configPath, "-width", "20", "-quiet"}, &stdout, &stderr)
	require.NoError(t, err, stderr.String())
	assert.FileExists(t, filepath.Join(dir, "box.bmp"))
}

func TestRun_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown flag", []string{"-bogus"}},
		{"unknown scene", []string{"-scene", "teapot", "-quiet"}},
		{"bad format", []string{"-out", "render.gif", "-quiet"}},
		{"bad size", []string{"-width", "-3", "-quiet"}},
		{"missing config", []string{"-config", "nope.toml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			assert.Error(t, run(context.Background(), tt.args, &stdout, &stderr))
		})
	}
}

func TestRun_ListScenes(t *testing.T) {
	var stdout, stderr bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"-list"}, &stdout, &stderr))
	for _, id := range []string{"quad", "open-box", "cornell"} {
		assert.Contains(t, stdout.String(), id)
	}
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var stdout, stderr bytes.Buffer
	out := filepath.Join(t.TempDir(), "never.png")
	err := run(ctx, []string{"-scene", "quad", "-out", out, "-width", "8", "-height", "8"}, &stdout, &stderr)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, out)
}
