package renderer

import (
	"image/color"

	"github.com/df07/go-irradiance-tracer/pkg/core"
)

// DisplayGamma is the gamma applied after tone mapping
const DisplayGamma = 2.2

// ToneMapACES applies Narkowicz's fit of the ACES filmic curve per channel
func ToneMapACES(c core.Vec3) core.Vec3 {
	aces := func(x float64) float64 {
		x = max(x, 0)
		return (x * (2.51*x + 0.03)) / (x*(2.43*x+0.59) + 0.14)
	}
	return core.NewVec3(aces(c.X), aces(c.Y), aces(c.Z)).Clamp(0, 1)
}

// vec3ToColor converts linear radiance to a display color: filmic tone
// map, gamma correction, 8-bit quantization
func vec3ToColor(radiance core.Vec3) color.RGBA {
	c := ToneMapACES(radiance).GammaCorrect(DisplayGamma).Clamp(0, 1)

	return color.RGBA{
		R: uint8(255*c.X + 0.5),
		G: uint8(255*c.Y + 0.5),
		B: uint8(255*c.Z + 0.5),
		A: 255,
	}
}
