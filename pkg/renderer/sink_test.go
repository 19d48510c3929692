package renderer

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

func testImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	img.SetRGBA(0, 0, color.RGBA{200, 10, 20, 255})
	img.SetRGBA(2, 1, color.RGBA{5, 180, 90, 255})
	return img
}

func TestFileSink_Formats(t *testing.T) {
	decoders := map[string]func(f *os.File) (image.Image, error){
		"out.png":  func(f *os.File) (image.Image, error) { return png.Decode(f) },
		"out.bmp":  func(f *os.File) (image.Image, error) { return bmp.Decode(f) },
		"out.TIFF": func(f *os.File) (image.Image, error) { return tiff.Decode(f) },
	}

	for name, decode := range decoders {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)
			sink, err := NewFileSink(path)
			require.NoError(t, err)
			require.NoError(t, sink.Write(testImage()))

			f, err := os.Open(path)
			require.NoError(t, err)
			defer f.Close()
			img, err := decode(f)
			require.NoError(t, err)

			r, g, b, _ := img.At(2, 1).RGBA()
			assert.Equal(t, []uint32{5, 180, 90}, []uint32{r >> 8, g >> 8, b >> 8})
		})
	}
}

func TestNewFileSink_UnknownFormat(t *testing.T) {
	_, err := NewFileSink("render.jpg")
	assert.Error(t, err)
}
