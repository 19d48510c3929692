package renderer

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// Sink receives the finished pixel buffer of a render
type Sink interface {
	Write(img image.Image) error
}

// Encoder writes an image in one file format
type Encoder func(w io.Writer, img image.Image) error

// encoders maps file extensions to image encoders
var encoders = map[string]Encoder{
	".png":  png.Encode,
	".bmp":  bmp.Encode,
	".tif":  encodeTIFF,
	".tiff": encodeTIFF,
}

func encodeTIFF(w io.Writer, img image.Image) error {
	return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
}

// EncoderFor returns the encoder for the extension of path
func EncoderFor(path string) (Encoder, error) {
	ext := strings.ToLower(filepath.Ext(path))
	enc, ok := encoders[ext]
	if !ok {
		return nil, fmt.Errorf("unsupported image format %q (want .png, .bmp or .tiff)", ext)
	}
	return enc, nil
}

// FileSink writes images to a file, creating parent directories
type FileSink struct {
	Path    string
	encoder Encoder
}

// NewFileSink picks the image format from the extension of path
func NewFileSink(path string) (*FileSink, error) {
	enc, err := EncoderFor(path)
	if err != nil {
		return nil, err
	}
	return &FileSink{Path: path, encoder: enc}, nil
}

// Write encodes img to the sink's path
func (s *FileSink) Write(img image.Image) error {
	if dir := filepath.Dir(s.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	f, err := os.Create(s.Path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := s.encoder(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", s.Path, err)
	}
	return f.Close()
}
