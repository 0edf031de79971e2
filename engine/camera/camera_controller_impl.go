package camera

import (
	"math"
	"sync"
)

// cameraControllerImpl is the damped orbit implementation of
// CameraController. Input adjusts the desired spherical coordinates and
// Update eases the actual coordinates toward them, so the camera keeps
// drifting briefly after the user releases the mouse.
type cameraControllerImpl struct {
	mu *sync.Mutex

	// Camera position (computed from target + spherical coords)
	position [3]float32
	target   [3]float32

	// Current spherical coordinates (offset from target)
	radius    float32
	azimuth   float32 // horizontal angle around Y axis
	elevation float32 // vertical angle from horizontal plane

	// Desired spherical coordinates, chased by Update
	desiredRadius    float32
	desiredAzimuth   float32
	desiredElevation float32

	// Orbit constraints
	minRadius    float32
	maxRadius    float32
	minElevation float32
	maxElevation float32

	// Input scaling
	mouseSensitivity float32
	zoomSpeed        float32
	panSpeed         float32

	// dampingRate controls how quickly Update closes the gap to the
	// desired coordinates. Higher values settle faster.
	dampingRate float32
}

var _ CameraController = &cameraControllerImpl{}

// NewOrbitController creates a damped orbit controller with defaults suited
// to a character scaled to roughly 1.5 units: radius 3 looking at the
// origin, elevation slightly above horizontal.
//
// Parameters:
//   - options: functional options to configure the controller
//
// Returns:
//   - CameraController: the newly created controller
func NewOrbitController(options ...CameraControllerOption) CameraController {
	cc := &cameraControllerImpl{
		mu:     &sync.Mutex{},
		target: [3]float32{0, 0, 0},

		radius:    3.0,
		azimuth:   0.0,
		elevation: float32(math.Pi / 12),

		minRadius:    0.5,
		maxRadius:    50.0,
		minElevation: -0.3,
		maxElevation: float32(math.Pi/2 - 0.1),

		mouseSensitivity: 0.005,
		zoomSpeed:        0.25,
		panSpeed:         1.0,

		dampingRate: 8.0,
	}

	for _, option := range options {
		option(cc)
	}

	cc.desiredRadius = cc.radius
	cc.desiredAzimuth = cc.azimuth
	cc.desiredElevation = cc.elevation
	cc.updatePosition()
	return cc
}

// updatePosition recomputes the camera position from spherical coordinates.
// Must be called whenever radius, azimuth, elevation, or target changes.
// Caller must hold the mutex.
func (cc *cameraControllerImpl) updatePosition() {
	cosElev := float32(math.Cos(float64(cc.elevation)))
	sinElev := float32(math.Sin(float64(cc.elevation)))
	cosAzim := float32(math.Cos(float64(cc.azimuth)))
	sinAzim := float32(math.Sin(float64(cc.azimuth)))

	cc.position[0] = cc.target[0] + cc.radius*cosElev*sinAzim
	cc.position[1] = cc.target[1] + cc.radius*sinElev
	cc.position[2] = cc.target[2] + cc.radius*cosElev*cosAzim
}

// localAxes computes the camera's local right and up axes consistent with
// the LookAt matrix. If position and target coincide, all components are
// zero. Caller must hold the mutex.
func (cc *cameraControllerImpl) localAxes() (rx, ry, rz, ux, uy, uz float32) {
	// backward = normalize(position - target), matching LookAt's z-axis
	bx := cc.position[0] - cc.target[0]
	by := cc.position[1] - cc.target[1]
	bz := cc.position[2] - cc.target[2]
	bLen := float32(math.Sqrt(float64(bx*bx + by*by + bz*bz)))
	if bLen < 1e-8 {
		return
	}
	bx /= bLen
	by /= bLen
	bz /= bLen

	// right = normalize(cross(worldUp, backward)) where worldUp = (0, 1, 0)
	rx = bz
	rz = -bx
	rLen := float32(math.Sqrt(float64(rx*rx + rz*rz)))
	if rLen < 1e-8 {
		return
	}
	rx /= rLen
	rz /= rLen

	// up = cross(backward, right), matching LookAt's y-axis
	ux = by*rz - bz*ry
	uy = bz*rx - bx*rz
	uz = bx*ry - by*rx
	return
}

func (cc *cameraControllerImpl) clampDesired() {
	if cc.desiredRadius < cc.minRadius {
		cc.desiredRadius = cc.minRadius
	}
	if cc.desiredRadius > cc.maxRadius {
		cc.desiredRadius = cc.maxRadius
	}
	if cc.desiredElevation < cc.minElevation {
		cc.desiredElevation = cc.minElevation
	}
	if cc.desiredElevation > cc.maxElevation {
		cc.desiredElevation = cc.maxElevation
	}
}

func (cc *cameraControllerImpl) Position() (x, y, z float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.position[0], cc.position[1], cc.position[2]
}

func (cc *cameraControllerImpl) Target() (x, y, z float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.target[0], cc.target[1], cc.target[2]
}

func (cc *cameraControllerImpl) SetTarget(x, y, z float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.target[0] = x
	cc.target[1] = y
	cc.target[2] = z
	cc.updatePosition()
}

func (cc *cameraControllerImpl) Rotate(dx, dy float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.desiredAzimuth -= dx * cc.mouseSensitivity
	cc.desiredElevation += dy * cc.mouseSensitivity
	cc.clampDesired()
}

func (cc *cameraControllerImpl) Zoom(delta float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.desiredRadius -= delta * cc.zoomSpeed
	cc.clampDesired()
}

func (cc *cameraControllerImpl) PanRight(delta float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	rx, _, rz, _, _, _ := cc.localAxes()
	offset := delta * cc.panSpeed

	cc.target[0] += rx * offset
	cc.target[2] += rz * offset
	cc.updatePosition()
}

func (cc *cameraControllerImpl) PanUp(delta float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	_, _, _, ux, uy, uz := cc.localAxes()
	offset := delta * cc.panSpeed

	cc.target[0] += ux * offset
	cc.target[1] += uy * offset
	cc.target[2] += uz * offset
	cc.updatePosition()
}

func (cc *cameraControllerImpl) Radius() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.radius
}

func (cc *cameraControllerImpl) SetRadius(radius float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.desiredRadius = radius
	cc.clampDesired()
	cc.radius = cc.desiredRadius
	cc.updatePosition()
}

func (cc *cameraControllerImpl) Azimuth() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.azimuth
}

func (cc *cameraControllerImpl) SetAzimuth(azimuth float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.azimuth = azimuth
	cc.desiredAzimuth = azimuth
	cc.updatePosition()
}

func (cc *cameraControllerImpl) Elevation() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.elevation
}

func (cc *cameraControllerImpl) SetElevation(elevation float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.desiredElevation = elevation
	cc.clampDesired()
	cc.elevation = cc.desiredElevation
	cc.updatePosition()
}

func (cc *cameraControllerImpl) Update(dt float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	if dt <= 0 {
		return
	}

	// Exponential ease toward the desired coordinates. Frame-rate
	// independent: the same wall-clock time covers the same fraction of
	// the remaining gap regardless of dt granularity.
	k := 1 - float32(math.Exp(float64(-dt*cc.dampingRate)))
	cc.azimuth += (cc.desiredAzimuth - cc.azimuth) * k
	cc.elevation += (cc.desiredElevation - cc.elevation) * k
	cc.radius += (cc.desiredRadius - cc.radius) * k
	cc.updatePosition()
}
