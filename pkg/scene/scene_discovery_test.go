package scene

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTitleCase(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"cornell-empty", "Cornell Empty"},
		{"dragon_gold", "Dragon Gold"},
		{"open-box", "Open Box"},
		{"simple", "Simple"},
		{"UPPER-case", "Upper Case"},
		{"", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.expected, titleCase(tc.input))
		})
	}
}

func writeScene(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseSceneMetadata(t *testing.T) {
	dir := t.TempDir()

	path := writeScene(t, dir, "floor_tiles.yaml", "# Name: Tiled Floor\n\n# Description: Two tiles\n"+floorYAML)
	info, err := ParseSceneMetadata(path)
	require.NoError(t, err)
	assert.Equal(t, SceneInfo{
		ID:          "file:floor_tiles",
		Name:        "Tiled Floor",
		Description: "Two tiles",
		Type:        "file",
		FilePath:    path,
	}, info)

	// Without comments the name comes from the file
	path = writeScene(t, dir, "bare-floor.yml", floorYAML)
	info, err = ParseSceneMetadata(path)
	require.NoError(t, err)
	assert.Equal(t, "Bare Floor", info.Name)
	assert.Empty(t, info.Description)

	_, err = ParseSceneMetadata(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestListScenes(t *testing.T) {
	dir := t.TempDir()
	writeScene(t, dir, "b.yaml", "# Name: Beta\n"+floorYAML)
	writeScene(t, dir, "a.yml", "# Name: Alpha\n"+floorYAML)
	writeScene(t, dir, "notes.txt", "not a scene")

	scenes, err := ListScenes(dir)
	require.NoError(t, err)

	var ids []string
	for _, s := range scenes {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{"cornell", "open-box", "quad", "file:a", "file:b"}, ids)
	assert.Equal(t, "builtin", scenes[0].Type)
	assert.NotEmpty(t, scenes[0].Description)

	scenes, err = ListScenes(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.Len(t, scenes, len(BuiltinNames()))
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	writeScene(t, dir, "floor.yaml", floorYAML)

	d, err := Open("file:floor", dir)
	require.NoError(t, err)
	assert.Equal(t, "floor", d.Name)

	d, err = Open("quad", dir)
	require.NoError(t, err)
	assert.Equal(t, "quad", d.Name)

	for _, id := range []string{"file:missing", "file:", "file:../floor", "teapot"} {
		_, err := Open(id, dir)
		assert.Error(t, err, id)
	}
}
