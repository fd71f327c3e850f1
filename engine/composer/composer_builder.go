package composer

import "github.com/Carmen-Shannon/oxy-trace/engine/screen"

type ComposerBuilderOption func(*composerImpl)

// WithOffscreenOutput draws the averaged image into an owned target instead of the surface.
//
// Parameters:
//   - offscreen: true to allocate an output target
//
// Returns:
//   - ComposerBuilderOption: a function that sets the output mode
func WithOffscreenOutput(offscreen bool) ComposerBuilderOption {
	return func(c *composerImpl) {
		c.offscreen = offscreen
	}
}

// WithScreen sets the quad both passes are drawn with.
func WithScreen(s screen.Screen) ComposerBuilderOption {
	return func(c *composerImpl) {
		c.screen = s
	}
}
