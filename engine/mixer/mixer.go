// package mixer blends animation clips into a flat bone matrix palette.
// Clips are registered as Actions whose weights are crossfaded; each
// Update samples the active actions, blends per-bone transforms, walks the
// bone hierarchy, and writes world * inverseBind matrices ready for the
// renderer's skinning buffer.
package mixer

import (
	"fmt"
	"sync"

	"github.com/silentbridge/signavatar/common"
	"github.com/silentbridge/signavatar/engine/model"
)

// Mixer owns the action registry for a single skeleton and produces the
// blended bone palette each frame.
type Mixer interface {
	// Register binds a clip to the skeleton and creates an action for it.
	// Channels are rebound by bone name, so clips from standalone action
	// files retarget onto this skeleton. Registering a name that already
	// exists replaces the previous action.
	//
	// Parameters:
	//   - clip: the clip to register
	//
	// Returns:
	//   - Action: the action created for the clip
	Register(clip *model.AnimationClip) Action

	// Action returns the action registered under a clip name.
	//
	// Parameters:
	//   - name: the clip name
	//
	// Returns:
	//   - Action: the action, or nil if the name is unknown
	Action(name string) Action

	// ActionNames returns the registered clip names in registration order.
	//
	// Returns:
	//   - []string: the clip names
	ActionNames() []string

	// CrossFadeTo fades the named action in and every other running
	// action out over the given duration. The target is rewound and
	// started. A zero or negative fade switches immediately.
	//
	// Parameters:
	//   - name: the clip name to fade to
	//   - fade: crossfade duration in seconds
	//
	// Returns:
	//   - Action: the target action
	//   - error: error if the name is unknown
	CrossFadeTo(name string, fade float32) (Action, error)

	// StopAll halts every action.
	StopAll()

	// SetTimeScale sets the global playback rate applied on top of each
	// action's own rate.
	//
	// Parameters:
	//   - scale: rate multiplier (1 = normal speed)
	SetTimeScale(scale float32)

	// TimeScale returns the global playback rate.
	//
	// Returns:
	//   - float32: the rate multiplier
	TimeScale() float32

	// SetOnFinished sets a callback fired from Update when a play-once
	// action reaches its final frame.
	//
	// Parameters:
	//   - callback: function receiving the finished clip's name (or nil)
	SetOnFinished(callback func(name string))

	// Update advances all running actions by dt seconds and recomputes
	// the bone palette.
	//
	// Parameters:
	//   - dt: seconds since the previous frame
	Update(dt float32)

	// Palette returns the current bone palette: one column-major 4x4
	// matrix per bone (world * inverseBind), flattened. The slice is
	// reused across updates; callers must not retain it.
	//
	// Returns:
	//   - []float32: 16 floats per bone
	Palette() []float32
}

// boundChannel is a clip channel resolved against the mixer's skeleton.
type boundChannel struct {
	boneIndex int32
	channel   *model.AnimationChannel
}

// boundClip is a registered clip with its channels resolved to skeleton
// bone indices.
type boundClip struct {
	clip     *model.AnimationClip
	channels []boundChannel
}

// mixerImpl is the implementation of the Mixer interface.
type mixerImpl struct {
	mu *sync.Mutex

	skeleton *model.Skeleton

	actions map[string]*actionImpl
	bound   map[string]*boundClip
	order   []string

	timeScale  float32
	onFinished func(name string)

	// Per-frame scratch, sized to the skeleton.
	samples []boneSample
	locals  [][16]float32
	worlds  [][16]float32
	palette []float32
}

var _ Mixer = &mixerImpl{}

// NewMixer creates a mixer for a skeleton.
//
// Parameters:
//   - skeleton: the bone hierarchy to animate (must be topologically sorted)
//
// Returns:
//   - Mixer: the newly created mixer
func NewMixer(skeleton *model.Skeleton) Mixer {
	boneCount := len(skeleton.Bones)
	m := &mixerImpl{
		mu:        &sync.Mutex{},
		skeleton:  skeleton,
		actions:   make(map[string]*actionImpl),
		bound:     make(map[string]*boundClip),
		timeScale: 1,
		samples:   make([]boneSample, boneCount),
		locals:    make([][16]float32, boneCount),
		worlds:    make([][16]float32, boneCount),
		palette:   make([]float32, boneCount*16),
	}

	// Start from the bind pose so an un-animated character renders
	// correctly before any action plays.
	m.computePalette()
	return m
}

func (m *mixerImpl) Register(clip *model.AnimationClip) Action {
	m.mu.Lock()
	defer m.mu.Unlock()

	bc := &boundClip{clip: clip}
	for i := range clip.Channels {
		ch := &clip.Channels[i]

		boneIndex := int32(-1)
		if idx, ok := m.skeleton.NameToIndex[ch.BoneName]; ok {
			boneIndex = idx
		} else if ch.BoneIndex >= 0 && int(ch.BoneIndex) < len(m.skeleton.Bones) {
			boneIndex = ch.BoneIndex
		}
		if boneIndex < 0 {
			// Channel targets a bone this skeleton does not have.
			continue
		}

		bc.channels = append(bc.channels, boundChannel{boneIndex: boneIndex, channel: ch})
	}

	if _, exists := m.actions[clip.Name]; !exists {
		m.order = append(m.order, clip.Name)
	}

	action := newAction(clip)
	m.actions[clip.Name] = action
	m.bound[clip.Name] = bc
	return action
}

func (m *mixerImpl) Action(name string) Action {
	m.mu.Lock()
	defer m.mu.Unlock()
	action, ok := m.actions[name]
	if !ok {
		return nil
	}
	return action
}

func (m *mixerImpl) ActionNames() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.order...)
}

func (m *mixerImpl) CrossFadeTo(name string, fade float32) (Action, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	target, ok := m.actions[name]
	if !ok {
		return nil, fmt.Errorf("unknown animation %q", name)
	}

	for actionName, action := range m.actions {
		if actionName == name {
			continue
		}
		if action.Running() {
			action.FadeOut(fade)
		}
	}

	target.Reset()
	if fade <= 0 {
		target.Play()
	} else {
		target.FadeIn(fade)
	}
	return target, nil
}

func (m *mixerImpl) StopAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, action := range m.actions {
		action.Stop()
	}
}

func (m *mixerImpl) SetTimeScale(scale float32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timeScale = scale
}

func (m *mixerImpl) TimeScale() float32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.timeScale
}

func (m *mixerImpl) SetOnFinished(callback func(name string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onFinished = callback
}

func (m *mixerImpl) Update(dt float32) {
	m.mu.Lock()

	var finished []string
	scaled := dt * m.timeScale
	for _, name := range m.order {
		if m.actions[name].advance(scaled) {
			finished = append(finished, name)
		}
	}

	m.computePalette()

	callback := m.onFinished
	m.mu.Unlock()

	if callback != nil {
		for _, name := range finished {
			callback(name)
		}
	}
}

func (m *mixerImpl) Palette() []float32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.palette
}

// computePalette samples all active actions, blends per-bone transforms,
// walks the hierarchy, and writes the skinning matrices. Caller must hold
// the mutex.
func (m *mixerImpl) computePalette() {
	bones := m.skeleton.Bones

	// Start every bone from its bind transform.
	for i := range bones {
		m.samples[i] = boneSample{
			translation: bones[i].BindTransform.Translation,
			rotation:    bones[i].BindTransform.Rotation,
			scale:       bones[i].BindTransform.Scale,
		}
	}

	// Blend in each active action, weighted.
	for _, name := range m.order {
		action := m.actions[name]
		time, weight, active := action.snapshot()
		if !active {
			continue
		}

		bc := m.bound[name]
		for _, bound := range bc.channels {
			sample := sampleChannel(bound.channel, time, &bones[bound.boneIndex].BindTransform)
			m.samples[bound.boneIndex].blend(sample, weight)
		}
	}

	// Compose locals, walk the hierarchy (parents first), and apply the
	// inverse bind matrices.
	for i := range bones {
		s := &m.samples[i]
		common.ComposeTRS(m.locals[i][:], s.translation, common.NormalizeQuat(s.rotation), s.scale)

		parent := bones[i].ParentIndex
		if parent >= 0 {
			common.Mul4(m.worlds[i][:], m.worlds[parent][:], m.locals[i][:])
		} else {
			m.worlds[i] = m.locals[i]
		}

		common.Mul4(m.palette[i*16:(i+1)*16], m.worlds[i][:], bones[i].InverseBindMatrix[:])
	}
}
