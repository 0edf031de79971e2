package camera

// CameraController drives the camera's position and target. The single
// implementation is a damped orbit controller: drag and zoom input adjusts
// desired spherical coordinates, and Update eases the actual coordinates
// toward them each frame so motion settles smoothly after input stops.
type CameraController interface {
	// Position returns the current camera position.
	//
	// Returns:
	//   - x, y, z: position components
	Position() (x, y, z float32)

	// Target returns the look-at/pivot point.
	//
	// Returns:
	//   - x, y, z: target components
	Target() (x, y, z float32)

	// SetTarget moves the look-at/pivot point immediately, without damping.
	//
	// Parameters:
	//   - x, y, z: the new target position
	SetTarget(x, y, z float32)

	// Rotate applies a drag delta in pixels. Horizontal movement changes
	// the azimuth, vertical movement changes the elevation. The change is
	// applied to the desired angles and eased in by Update.
	//
	// Parameters:
	//   - dx: horizontal drag delta in pixels
	//   - dy: vertical drag delta in pixels
	Rotate(dx, dy float32)

	// Zoom adjusts the desired orbit radius. Positive delta zooms in.
	//
	// Parameters:
	//   - delta: scroll wheel delta
	Zoom(delta float32)

	// PanRight translates target and position along the camera's local
	// right axis.
	//
	// Parameters:
	//   - delta: pan distance (positive = right)
	PanRight(delta float32)

	// PanUp translates target and position along the camera's local up axis.
	//
	// Parameters:
	//   - delta: pan distance (positive = up)
	PanUp(delta float32)

	// Radius returns the current orbit radius.
	//
	// Returns:
	//   - float32: distance from the target
	Radius() float32

	// SetRadius sets the orbit radius immediately, clamped to bounds.
	//
	// Parameters:
	//   - radius: the new distance from the target
	SetRadius(radius float32)

	// Azimuth returns the current horizontal angle around the Y axis.
	//
	// Returns:
	//   - float32: azimuth in radians (0 = +Z axis)
	Azimuth() float32

	// SetAzimuth sets the horizontal angle immediately.
	//
	// Parameters:
	//   - azimuth: angle in radians
	SetAzimuth(azimuth float32)

	// Elevation returns the current vertical angle from the horizontal plane.
	//
	// Returns:
	//   - float32: elevation in radians
	Elevation() float32

	// SetElevation sets the vertical angle immediately, clamped to bounds.
	//
	// Parameters:
	//   - elevation: angle in radians
	SetElevation(elevation float32)

	// Update eases the orbit coordinates toward their desired values.
	// Call once per frame before reading Position.
	//
	// Parameters:
	//   - dt: seconds since the previous frame
	Update(dt float32)
}
