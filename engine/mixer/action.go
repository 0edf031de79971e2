package mixer

import (
	"sync"

	"github.com/silentbridge/signavatar/engine/model"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// Action is a playable instance of an animation clip. Its weight controls
// how strongly it contributes to the blended pose; fades drive the weight
// through a linear tween so crossfades settle smoothly.
type Action interface {
	// Name returns the clip name this action plays.
	//
	// Returns:
	//   - string: the clip name
	Name() string

	// Duration returns the clip length in seconds.
	//
	// Returns:
	//   - float32: the duration
	Duration() float32

	// Play starts the action at full weight from its current time.
	Play()

	// Stop halts the action and removes it from the blend.
	Stop()

	// Reset rewinds the action to time zero and clears the finished flag.
	Reset()

	// FadeIn starts the action and ramps its weight from its current
	// value to 1 over the given duration.
	//
	// Parameters:
	//   - duration: fade length in seconds (0 or less applies immediately)
	FadeIn(duration float32)

	// FadeOut ramps the weight from its current value to 0 over the given
	// duration, then stops the action.
	//
	// Parameters:
	//   - duration: fade length in seconds (0 or less stops immediately)
	FadeOut(duration float32)

	// SetTimeScale sets the playback rate multiplier for this action.
	//
	// Parameters:
	//   - scale: rate multiplier (1 = normal speed)
	SetTimeScale(scale float32)

	// TimeScale returns the playback rate multiplier.
	//
	// Returns:
	//   - float32: the rate multiplier
	TimeScale() float32

	// SetLoopOnce selects play-once mode: the action clamps at the last
	// frame instead of wrapping around.
	//
	// Parameters:
	//   - once: true to clamp at the end, false to loop
	SetLoopOnce(once bool)

	// Weight returns the current blend weight in [0, 1].
	//
	// Returns:
	//   - float32: the blend weight
	Weight() float32

	// Time returns the current playback position in seconds.
	//
	// Returns:
	//   - float32: the playback position
	Time() float32

	// SetTime seeks to a playback position in seconds.
	//
	// Parameters:
	//   - t: the position to seek to
	SetTime(t float32)

	// Running reports whether the action contributes to the blend.
	//
	// Returns:
	//   - bool: true while playing or holding a clamped final pose
	Running() bool

	// Finished reports whether a play-once action has reached its end.
	//
	// Returns:
	//   - bool: true once the clamped final frame is reached
	Finished() bool
}

// actionImpl is the implementation of the Action interface.
type actionImpl struct {
	mu *sync.Mutex

	clip *model.AnimationClip

	time      float32
	timeScale float32
	loopOnce  bool

	weight      float32
	weightTween *gween.Tween
	stopOnFade  bool

	playing  bool
	finished bool
}

var _ Action = &actionImpl{}

func newAction(clip *model.AnimationClip) *actionImpl {
	return &actionImpl{
		mu:        &sync.Mutex{},
		clip:      clip,
		timeScale: 1,
	}
}

func (a *actionImpl) Name() string {
	return a.clip.Name
}

func (a *actionImpl) Duration() float32 {
	return a.clip.Duration
}

func (a *actionImpl) Play() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.playing = true
	a.weight = 1
	a.weightTween = nil
	a.stopOnFade = false
}

func (a *actionImpl) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.playing = false
	a.weight = 0
	a.weightTween = nil
	a.stopOnFade = false
}

func (a *actionImpl) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.time = 0
	a.finished = false
}

func (a *actionImpl) FadeIn(duration float32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.playing = true
	a.stopOnFade = false
	if duration <= 0 {
		a.weight = 1
		a.weightTween = nil
		return
	}
	a.weightTween = gween.New(a.weight, 1, duration, ease.Linear)
}

func (a *actionImpl) FadeOut(duration float32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if duration <= 0 {
		a.playing = false
		a.weight = 0
		a.weightTween = nil
		return
	}
	a.stopOnFade = true
	a.weightTween = gween.New(a.weight, 0, duration, ease.Linear)
}

func (a *actionImpl) SetTimeScale(scale float32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.timeScale = scale
}

func (a *actionImpl) TimeScale() float32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.timeScale
}

func (a *actionImpl) SetLoopOnce(once bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.loopOnce = once
}

func (a *actionImpl) Weight() float32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.weight
}

func (a *actionImpl) Time() float32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.time
}

func (a *actionImpl) SetTime(t float32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.time = t
}

func (a *actionImpl) Running() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.playing
}

func (a *actionImpl) Finished() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.finished
}

// advance moves playback time and the weight tween forward by dt seconds
// (already scaled by the mixer's global time scale). Returns true when a
// play-once action reaches its final frame during this step.
func (a *actionImpl) advance(dt float32) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.playing {
		return false
	}

	if a.weightTween != nil {
		w, done := a.weightTween.Update(dt)
		a.weight = w
		if done {
			a.weightTween = nil
			if a.stopOnFade {
				a.playing = false
				a.stopOnFade = false
				return false
			}
		}
	}

	if a.finished {
		return false
	}

	a.time += dt * a.timeScale

	duration := a.clip.Duration
	if duration <= 0 {
		return false
	}

	if a.loopOnce {
		if a.time >= duration {
			a.time = duration
			a.finished = true
			return true
		}
		return false
	}

	for a.time >= duration {
		a.time -= duration
	}
	return false
}

// snapshot returns the state the sampler needs, taken under the lock.
func (a *actionImpl) snapshot() (time, weight float32, active bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.time, a.weight, a.playing && a.weight > 0
}
