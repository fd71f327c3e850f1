package software

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-trace/common"
	"github.com/Carmen-Shannon/oxy-trace/engine/renderer"
	"github.com/go-gl/mathgl/mgl32"
)

// Image is the software backend's render target: an RGBA32F pixel grid held in host memory.
// Row 0 is the top of the image, matching framebuffer coordinates.
type Image struct {
	mu    *sync.RWMutex
	label string
	tex   common.FloatTexture
}

var _ renderer.Target = &Image{}

func newImage(label string, width, height int) *Image {
	return &Image{
		mu:    &sync.RWMutex{},
		label: label,
		tex: common.FloatTexture{
			Texels: make([]float32, width*height*4),
			Width:  uint32(width),
			Height: uint32(height),
		},
	}
}

func (img *Image) Label() string {
	return img.label
}

func (img *Image) Width() int {
	img.mu.RLock()
	defer img.mu.RUnlock()
	return int(img.tex.Width)
}

func (img *Image) Height() int {
	img.mu.RLock()
	defer img.mu.RUnlock()
	return int(img.tex.Height)
}

func (img *Image) Release() {
	img.mu.Lock()
	defer img.mu.Unlock()
	img.tex = common.FloatTexture{}
}

// At returns the pixel at column x, row y, or the zero vector outside the image.
func (img *Image) At(x, y int) mgl32.Vec4 {
	img.mu.RLock()
	defer img.mu.RUnlock()
	return img.tex.At(x, y)
}

// Set overwrites one pixel. Out-of-range coordinates are ignored.
func (img *Image) Set(x, y int, v mgl32.Vec4) {
	img.mu.Lock()
	defer img.mu.Unlock()
	if x < 0 || y < 0 || x >= int(img.tex.Width) || y >= int(img.tex.Height) {
		return
	}
	i := (y*int(img.tex.Width) + x) * 4
	copy(img.tex.Texels[i:i+4], v[:])
}

// Snapshot returns a copy of the pixel data.
func (img *Image) Snapshot() common.FloatTexture {
	img.mu.RLock()
	defer img.mu.RUnlock()
	out := img.tex
	out.Texels = make([]float32, len(img.tex.Texels))
	copy(out.Texels, img.tex.Texels)
	return out
}

func (img *Image) released() bool {
	img.mu.RLock()
	defer img.mu.RUnlock()
	return img.tex.Texels == nil
}

// swap installs freshly rendered pixels.
func (img *Image) swap(texels []float32, width, height int) {
	img.mu.Lock()
	defer img.mu.Unlock()
	img.tex = common.FloatTexture{Texels: texels, Width: uint32(width), Height: uint32(height)}
}
