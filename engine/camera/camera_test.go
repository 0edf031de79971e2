package camera

import (
	"math"
	"testing"
)

func TestOrbitControllerDefaults(t *testing.T) {
	cc := NewOrbitController()
	if cc.Radius() != 3.0 {
		t.Errorf("Radius() = %f, want 3.0", cc.Radius())
	}
	x, y, z := cc.Target()
	if x != 0 || y != 0 || z != 0 {
		t.Errorf("Target() = (%f, %f, %f), want origin", x, y, z)
	}
}

func TestOrbitControllerPositionOnSphere(t *testing.T) {
	cc := NewOrbitController(
		WithRadius(2),
		WithAzimuth(0),
		WithElevation(0),
	)
	x, y, z := cc.Position()
	// Azimuth 0, elevation 0 places the camera on the +Z axis.
	if math.Abs(float64(x)) > 1e-5 || math.Abs(float64(y)) > 1e-5 || math.Abs(float64(z-2)) > 1e-5 {
		t.Errorf("Position() = (%f, %f, %f), want (0, 0, 2)", x, y, z)
	}
}

func TestOrbitControllerZoomClamp(t *testing.T) {
	cc := NewOrbitController(
		WithRadius(1),
		WithRadiusBounds(0.5, 10),
		WithDampingRate(1e6), // settle instantly
	)
	cc.Zoom(1000)
	cc.Update(1)
	if cc.Radius() != 0.5 {
		t.Errorf("Radius() after zoom in = %f, want clamped 0.5", cc.Radius())
	}
	cc.Zoom(-10000)
	cc.Update(1)
	if cc.Radius() != 10 {
		t.Errorf("Radius() after zoom out = %f, want clamped 10", cc.Radius())
	}
}

func TestOrbitControllerElevationClamp(t *testing.T) {
	cc := NewOrbitController(WithElevationBounds(0.1, 1.0))
	cc.SetElevation(5)
	if cc.Elevation() != 1.0 {
		t.Errorf("Elevation() = %f, want clamped 1.0", cc.Elevation())
	}
	cc.SetElevation(-5)
	if cc.Elevation() != 0.1 {
		t.Errorf("Elevation() = %f, want clamped 0.1", cc.Elevation())
	}
}

func TestOrbitControllerDampingConverges(t *testing.T) {
	cc := NewOrbitController(WithAzimuth(0), WithDampingRate(8))
	cc.Rotate(-200, 0) // desired azimuth moves by +1 radian

	// One tiny step covers only part of the gap.
	cc.Update(0.016)
	after := cc.Azimuth()
	if after <= 0 || after >= 1 {
		t.Fatalf("Azimuth() after one step = %f, want strictly between 0 and 1", after)
	}

	// Many steps settle at the desired angle.
	for i := 0; i < 600; i++ {
		cc.Update(0.016)
	}
	if math.Abs(float64(cc.Azimuth()-1)) > 1e-3 {
		t.Errorf("Azimuth() after settling = %f, want ~1", cc.Azimuth())
	}
}

func TestOrbitControllerUpdateZeroDt(t *testing.T) {
	cc := NewOrbitController(WithAzimuth(0.5))
	cc.Rotate(-200, 0)
	cc.Update(0)
	if cc.Azimuth() != 0.5 {
		t.Errorf("Azimuth() after zero-dt update = %f, want unchanged 0.5", cc.Azimuth())
	}
}

func TestCameraDefaults(t *testing.T) {
	c := NewCamera()
	if math.Abs(float64(c.Fov())-math.Pi/3) > 1e-5 {
		t.Errorf("Fov() = %f, want pi/3", c.Fov())
	}
	if c.Near() != 0.1 {
		t.Errorf("Near() = %f, want 0.1", c.Near())
	}
	if c.Far() != 1000 {
		t.Errorf("Far() = %f, want 1000", c.Far())
	}
}

func TestCameraViewProjectionTracksController(t *testing.T) {
	cc := NewOrbitController(WithRadius(2), WithAzimuth(0), WithElevation(0))
	c := NewCamera(WithController(cc), WithAspect(16.0/9.0))

	before := c.ViewProjectionMatrix()
	cc.SetAzimuth(float32(math.Pi / 2))
	c.Update(0.016)
	after := c.ViewProjectionMatrix()

	if before == after {
		t.Error("view-projection matrix did not change after orbiting")
	}
}

func TestCameraUpdateWithoutController(t *testing.T) {
	c := NewCamera()
	// Must not panic or change state.
	c.Update(0.016)
	m := c.ViewMatrix()
	if m[0] != 1 || m[5] != 1 || m[10] != 1 || m[15] != 1 {
		t.Error("view matrix should stay identity without a controller")
	}
}
