package screen

import "time"

// ScreenBuilderOption is a functional option applied to a screen during construction via NewScreen.
type ScreenBuilderOption func(*screenImpl)

// WithPlayingTimer overrides how long a selection is considered playing
// before further selections are accepted again.
//
// Parameters:
//   - d: the playing window duration
//
// Returns:
//   - ScreenBuilderOption: a function that applies the timer option to a screen
func WithPlayingTimer(d time.Duration) ScreenBuilderOption {
	return func(s *screenImpl) {
		if d > 0 {
			s.playingDuration = d
		}
	}
}

// WithBackground sets the background color applied to the stage on Ready.
//
// Parameters:
//   - r, g, b: the color components in [0, 1]
//
// Returns:
//   - ScreenBuilderOption: a function that applies the background option to a screen
func WithBackground(r, g, b float32) ScreenBuilderOption {
	return func(s *screenImpl) {
		s.background = [3]float32{r, g, b}
	}
}
