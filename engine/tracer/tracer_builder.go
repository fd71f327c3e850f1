package tracer

import (
	"math/rand/v2"

	"github.com/Carmen-Shannon/oxy-trace/engine/camera"
	"github.com/Carmen-Shannon/oxy-trace/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-trace/engine/scene"
	"github.com/Carmen-Shannon/oxy-trace/engine/screen"
)

type TracerBuilderOption func(*tracerImpl)

// WithResolution sets the initial render resolution.
//
// Parameters:
//   - width, height: resolution in pixels
//
// Returns:
//   - TracerBuilderOption: a function that sets the resolution
func WithResolution(width, height int) TracerBuilderOption {
	return func(t *tracerImpl) {
		t.width, t.height = width, height
	}
}

// WithPixelSampler sets the sampler reported before the first Update.
func WithPixelSampler(ps PixelSampler) TracerBuilderOption {
	return func(t *tracerImpl) {
		t.sampler = ps
	}
}

// WithRandomSeedCount sets how many random seeds are uploaded per render. Values below 1 become 1.
//
// Parameters:
//   - n: the seed count
//
// Returns:
//   - TracerBuilderOption: a function that sets the seed count
func WithRandomSeedCount(n int) TracerBuilderOption {
	return func(t *tracerImpl) {
		t.seedCount = n
	}
}

// WithRandomSource sets the source the per-render seeds are drawn from. A fixed source makes renders reproducible.
//
// Parameters:
//   - src: the random source
//
// Returns:
//   - TracerBuilderOption: a function that sets the random source
func WithRandomSource(src rand.Source) TracerBuilderOption {
	return func(t *tracerImpl) {
		t.rng = rand.New(src)
	}
}

// WithStrictShaders enables strict specialization: missing or leftover placeholders fail Update and each
// specialized stage is validated before use.
func WithStrictShaders(strict bool) TracerBuilderOption {
	return func(t *tracerImpl) {
		t.strict = strict
	}
}

// WithSpecializer replaces the specializer built from WithStrictShaders.
func WithSpecializer(s shader.Specializer) TracerBuilderOption {
	return func(t *tracerImpl) {
		t.specializer = s
	}
}

// WithTemplate replaces DefaultTemplate.
//
// Parameters:
//   - tmpl: the shader template to specialize on every Update
//
// Returns:
//   - TracerBuilderOption: a function that sets the template
func WithTemplate(tmpl shader.Template) TracerBuilderOption {
	return func(t *tracerImpl) {
		t.template = tmpl
	}
}

// WithScreen sets the quad the tracer draws with.
func WithScreen(s screen.Screen) TracerBuilderOption {
	return func(t *tracerImpl) {
		t.screen = s
	}
}

// WithScene sets the scene used when Update receives nil.
func WithScene(s scene.Scene) TracerBuilderOption {
	return func(t *tracerImpl) {
		if s != nil {
			t.scene = s.Clone()
		}
	}
}

// WithCamera sets the camera used when Update receives nil.
func WithCamera(cam camera.Camera) TracerBuilderOption {
	return func(t *tracerImpl) {
		t.camera = cam
	}
}
