package scene

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// ErrUnsupportedVariant is the sentinel wrapped by every error that reports a material, shape, or light kind the
// consumer does not know how to handle.
var ErrUnsupportedVariant = errors.New("unsupported scene variant")

// MaterialType identifies a material category. The numeric values are shared with the tracer's WGSL source.
type MaterialType int32

const (
	MaterialTypeLambert MaterialType = 0
	MaterialTypeMirror  MaterialType = 1
)

// String returns the lowercase category name used in scene files and error messages.
func (t MaterialType) String() string {
	switch t {
	case MaterialTypeLambert:
		return "lambert"
	case MaterialTypeMirror:
		return "mirror"
	default:
		return fmt.Sprintf("material(%d)", int32(t))
	}
}

// Material is a surface description. The set of implementations is closed to this package; consumers switch over
// the concrete types and report anything else as unsupported.
type Material interface {
	// MaterialType returns the category of the material.
	//
	// Returns:
	//   - MaterialType: the category constant shared with shader code
	MaterialType() MaterialType

	isMaterial()
}

// Lambert is a perfectly diffuse material.
type Lambert struct {
	// Color is the diffuse albedo in linear RGB.
	Color mgl32.Vec3
}

// Mirror is a specular material. A Gloss of 0 is a perfect mirror; larger values blur the reflection.
type Mirror struct {
	Gloss float32
}

func (Lambert) MaterialType() MaterialType { return MaterialTypeLambert }
func (Mirror) MaterialType() MaterialType  { return MaterialTypeMirror }

func (Lambert) isMaterial() {}
func (Mirror) isMaterial()  {}

// Shape is the analytic surface of a Geometry.
type Shape interface {
	// ShapeName returns the lowercase shape name used in scene files and error messages.
	//
	// Returns:
	//   - string: the shape name
	ShapeName() string

	isShape()
}

// Sphere is a sphere centered at Position.
type Sphere struct {
	Position mgl32.Vec3
	Radius   float32
}

// Plane is an infinite plane through Position facing Normal. Normal need not be unit length but must not be zero.
type Plane struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
}

func (Sphere) ShapeName() string { return "sphere" }
func (Plane) ShapeName() string  { return "plane" }

func (Sphere) isShape() {}
func (Plane) isShape()  {}

// Geometry pairs a Shape with the index of its material in the owning scene's material list.
type Geometry struct {
	Shape         Shape
	MaterialIndex int
}

// Light is an emitter.
type Light interface {
	// LightColor returns the emitted color in linear RGB.
	//
	// Returns:
	//   - mgl32.Vec3: the light color
	LightColor() mgl32.Vec3

	// LightIntensity returns the scalar multiplier applied to LightColor.
	//
	// Returns:
	//   - float32: the light intensity
	LightIntensity() float32

	isLight()
}

// SphereLight is a spherical area light.
type SphereLight struct {
	Position  mgl32.Vec3
	Radius    float32
	Color     mgl32.Vec3
	Intensity float32
}

func (l SphereLight) LightColor() mgl32.Vec3  { return l.Color }
func (l SphereLight) LightIntensity() float32 { return l.Intensity }
func (SphereLight) isLight()                  {}
