package renderer

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTileGrid_CoversImage(t *testing.T) {
	tiles := NewTileGrid(70, 40, 32, 1)
	require.Len(t, tiles, 6)

	covered := 0
	for i, tile := range tiles {
		assert.Equal(t, i, tile.ID)
		assert.True(t, tile.Bounds.In(image.Rect(0, 0, 70, 40)))
		covered += tile.Bounds.Dx() * tile.Bounds.Dy()
	}
	assert.Equal(t, 70*40, covered)
	assert.Equal(t, image.Rect(64, 32, 70, 40), tiles[5].Bounds)
}

func TestNewTile_DeterministicRandom(t *testing.T) {
	a := NewTile(3, image.Rect(0, 0, 1, 1), 9)
	b := NewTile(3, image.Rect(0, 0, 1, 1), 9)
	c := NewTile(4, image.Rect(0, 0, 1, 1), 9)

	x := a.Random.Float64()
	assert.Equal(t, x, b.Random.Float64())
	assert.NotEqual(t, x, c.Random.Float64())
}
