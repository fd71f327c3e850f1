package camera

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

const eps = 1e-4

// nearFloat compares with an absolute tolerance. mgl32's relative comparison collapses to eps*eps when one side is
// zero, which float noise from trigonometry and matrix inversion exceeds.
func nearFloat(a, b float32) bool {
	return math.Abs(float64(a-b)) < eps
}

// near compares vectors or matrices component by component with an absolute tolerance.
func near[T mgl32.Vec3 | mgl32.Mat4](a, b T) bool {
	for i := 0; i < len(a); i++ {
		if !nearFloat(a[i], b[i]) {
			return false
		}
	}
	return true
}

func TestNearToleratesNoiseAroundZero(t *testing.T) {
	noisy := mgl32.Vec3{0, -2.1855695e-07, 5}
	if !near(noisy, mgl32.Vec3{0, 0, 5}) {
		t.Fatal("absolute comparison rejected float noise")
	}
	if near(mgl32.Vec3{0, 0.01, 5}, mgl32.Vec3{0, 0, 5}) {
		t.Fatal("absolute comparison accepted a real difference")
	}
}

func TestDefaults(t *testing.T) {
	c := NewCamera()
	if c.Position() != (mgl32.Vec3{}) || c.Target() != (mgl32.Vec3{0, 0, -1}) {
		t.Fatalf("pose = %v -> %v", c.Position(), c.Target())
	}
	if !nearFloat(c.Fov(), mgl32.DegToRad(75)) {
		t.Errorf("fov = %v", c.Fov())
	}
	if c.Aspect() != 1 || c.Near() != 0.1 || c.Far() != 1000 {
		t.Errorf("projection = %v %v %v", c.Aspect(), c.Near(), c.Far())
	}
	if !near(c.ViewMatrix(), mgl32.Ident4()) {
		t.Errorf("view at origin looking down -Z should be identity, got %v", c.ViewMatrix())
	}
}

func TestWorldMatrixInvertsView(t *testing.T) {
	c := NewCamera(WithPosition(mgl32.Vec3{3, 2, 5}), WithTarget(mgl32.Vec3{0, 1, 0}))

	if got := c.WorldMatrix().Mul4(c.ViewMatrix()); !near(got, mgl32.Ident4()) {
		t.Fatalf("world * view = %v", got)
	}
	origin := c.WorldMatrix().Mul4x1(mgl32.Vec4{0, 0, 0, 1}).Vec3()
	if !near(origin, mgl32.Vec3{3, 2, 5}) {
		t.Fatalf("camera origin in world = %v", origin)
	}
}

func TestInverseProjectionUnprojectsCenterRay(t *testing.T) {
	c := NewCamera(WithAspect(16.0 / 9.0))
	if got := c.InverseProjectionMatrix().Mul4(c.ProjectionMatrix()); !near(got, mgl32.Ident4()) {
		t.Fatalf("inverse projection * projection = %v", got)
	}
	// the centre of the near plane in NDC unprojects onto the -Z axis
	p := c.InverseProjectionMatrix().Mul4x1(mgl32.Vec4{0, 0, -1, 1})
	dir := p.Vec3().Mul(1 / p.W()).Normalize()
	if !near(dir, mgl32.Vec3{0, 0, -1}) {
		t.Fatalf("centre ray = %v", dir)
	}
}

func TestRevisionBumpsOnEveryMutation(t *testing.T) {
	c := NewCamera()
	steps := []func(){
		func() { c.SetPosition(mgl32.Vec3{1, 0, 0}) },
		func() { c.SetTarget(mgl32.Vec3{0, 0, -2}) },
		func() { c.SetUp(mgl32.Vec3{0, 1, 0}) },
		func() { c.SetFov(1) },
		func() { c.SetAspect(2) },
		func() { c.SetNear(0.5) },
		func() { c.SetFar(50) },
	}
	for i, step := range steps {
		before := c.Revision()
		step()
		if c.Revision() <= before {
			t.Fatalf("step %d did not bump the revision", i)
		}
	}
}

func TestUpdateFollowsController(t *testing.T) {
	ctrl := NewCameraController(WithRadius(5), WithElevation(0))
	c := NewCamera(WithController(ctrl))
	if !near(c.Position(), mgl32.Vec3{0, 0, 5}) {
		t.Fatalf("initial position = %v", c.Position())
	}

	rev := c.Revision()
	c.Update()
	if c.Revision() != rev {
		t.Fatal("Update bumped the revision without movement")
	}

	ctrl.SetAzimuth(math.Pi / 2)
	c.Update()
	if c.Revision() == rev {
		t.Fatal("Update missed controller movement")
	}
	if !near(c.Position(), mgl32.Vec3{5, 0, 0}) {
		t.Fatalf("orbited position = %v", c.Position())
	}
}

func TestControllerClampsAndPans(t *testing.T) {
	ctrl := NewCameraController(WithRadius(4), WithElevation(0), WithRadiusBounds(1, 6), WithPanSpeed(1))

	ctrl.Zoom(100)
	if ctrl.Radius() != 1 {
		t.Errorf("radius = %v, want clamp to 1", ctrl.Radius())
	}
	ctrl.SetElevation(10)
	if ctrl.Elevation() >= math.Pi/2 {
		t.Errorf("elevation %v not clamped", ctrl.Elevation())
	}

	ctrl.SetElevation(0)
	ctrl.PanRight(2)
	// eye on +Z looking at the origin: right is +X
	if !near(ctrl.Target(), mgl32.Vec3{2, 0, 0}) {
		t.Fatalf("target after pan = %v", ctrl.Target())
	}
	if d := ctrl.Position().Sub(ctrl.Target()).Len(); !nearFloat(d, 1) {
		t.Fatalf("pan changed the orbit radius to %v", d)
	}
}
