// Package light defines the stage's light rig. The viewer renders with a
// fixed two-light setup: an ambient fill plus one directional key light.
package light

// Ambient is an omnidirectional fill light applied uniformly to every
// surface.
type Ambient struct {
	// Color is the light color in [0, 1] per component.
	Color [3]float32

	// Intensity scales the color's contribution.
	Intensity float32
}

// Directional is an infinitely distant light shining along Direction.
type Directional struct {
	// Direction is the direction the light shines toward, in world space.
	// It does not need to be normalized.
	Direction [3]float32

	// Color is the light color in [0, 1] per component.
	Color [3]float32

	// Intensity scales the color's contribution.
	Intensity float32
}

// DefaultAmbient returns the stage's default fill light, a soft white.
//
// Returns:
//   - Ambient: white at 0.6 intensity
func DefaultAmbient() Ambient {
	return Ambient{
		Color:     [3]float32{1, 1, 1},
		Intensity: 0.6,
	}
}

// DefaultDirectional returns the stage's default key light, angled down
// and slightly to the side so the avatar's hands stay readable.
//
// Returns:
//   - Directional: white at 0.8 intensity shining toward (-0.5, -1, -0.5)
func DefaultDirectional() Directional {
	return Directional{
		Direction: [3]float32{-0.5, -1, -0.5},
		Color:     [3]float32{1, 1, 1},
		Intensity: 0.8,
	}
}
