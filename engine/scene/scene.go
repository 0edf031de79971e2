// package scene owns the viewer's stage: the loaded character, its
// animation mixer, the camera, and the light rig. Each frame the stage
// advances animation, eases the background color, and hands the renderer a
// flat draw list.
package scene

import (
	"fmt"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/silentbridge/signavatar/common"
	"github.com/silentbridge/signavatar/engine/camera"
	"github.com/silentbridge/signavatar/engine/light"
	"github.com/silentbridge/signavatar/engine/loader"
	"github.com/silentbridge/signavatar/engine/mixer"
	"github.com/silentbridge/signavatar/engine/model"
	"github.com/silentbridge/signavatar/engine/renderer"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

const (
	// targetModelSize is the world-space size a freshly loaded model's
	// largest dimension is scaled to.
	targetModelSize = 1.5

	// minModelSize and maxModelSize bound the model's world-space size when
	// re-centering, so a drifted or degenerate scale stays usable.
	minModelSize = 1.0
	maxModelSize = 3.0

	// actionPlaybackRate slows standalone sign actions so individual hand
	// shapes stay readable.
	actionPlaybackRate = 0.7
)

// Stage is the viewer's 3D scene: one character, its animations, a camera,
// and a fixed two-light rig.
type Stage interface {
	// LoadModel imports a character file on a background worker, then
	// uploads its meshes and registers its bundled clips on the next Update.
	//
	// Parameters:
	//   - path: the glTF/GLB file to load
	//   - done: called on the update goroutine when the load completes (or nil)
	LoadModel(path string, done func(err error))

	// PlayActionFile imports a standalone action file on a background
	// worker, then plays its first clip once at a reduced rate with no
	// crossfade. The clip retargets onto the loaded character by bone name.
	//
	// Parameters:
	//   - path: the glTF/GLB file containing the action
	//   - fade: accepted for symmetry with Play but unused; action clips
	//     always start at full weight
	//   - done: called on the update goroutine when playback starts (or nil)
	PlayActionFile(path string, fade float32, done func(err error))

	// ClipNames returns the names of all registered animation clips.
	//
	// Returns:
	//   - []string: the clip names, in registration order
	ClipNames() []string

	// Play crossfades to a registered clip.
	//
	// Parameters:
	//   - name: the clip name
	//   - fade: the crossfade duration in seconds
	//
	// Returns:
	//   - error: error if no character is loaded or the clip is unknown
	Play(name string, fade float32) error

	// CenterModel fits the loaded character into view: the model is scaled
	// toward a fixed world size (clamped), grounded at the origin, and the
	// camera target is raised toward the character's chest. Calling it again
	// recomputes the same placement, so it is safe after every load.
	CenterModel()

	// SetBackground eases the background clear color to a new value.
	//
	// Parameters:
	//   - r, g, b: the target color components in [0, 1]
	//   - fade: the ease duration in seconds (0 or less applies immediately)
	SetBackground(r, g, b float32, fade float32)

	// SetTimeScale sets the global animation playback rate.
	//
	// Parameters:
	//   - scale: rate multiplier (1 = normal speed)
	SetTimeScale(scale float32)

	// SetOnActionFinished sets a callback fired from Update when a play-once
	// action reaches its end.
	//
	// Parameters:
	//   - callback: function receiving the finished clip's name (or nil)
	SetOnActionFinished(callback func(name string))

	// Stop halts all animation, freezing the character in its current pose.
	Stop()

	// Resize forwards a new surface size to the renderer and updates the
	// camera's aspect ratio. Zero dimensions are ignored.
	//
	// Parameters:
	//   - width: the new surface width in pixels
	//   - height: the new surface height in pixels
	Resize(width, height int)

	// Update advances animation and the background ease by dt seconds, then
	// draws and presents one frame.
	//
	// Parameters:
	//   - dt: seconds since the previous frame
	//
	// Returns:
	//   - error: error if the frame could not be presented
	Update(dt float32) error

	// Dispose releases the loaded character's GPU resources and stops the
	// stage. The renderer itself is not released.
	Dispose()
}

// stage is the implementation of the Stage interface.
type stage struct {
	mu *sync.Mutex

	cam      camera.Camera
	r        renderer.Renderer
	importer loader.Importer

	loadPool worker.DynamicWorkerPool
	nextTask int

	// completions holds work handed from loader workers back to the update
	// goroutine, which owns all GPU calls.
	completions chan func()

	character *model.Character
	meshIDs   []renderer.MeshID
	mix       mixer.Mixer

	modelTranslation [3]float32
	modelScale       float32

	background   [3]float32
	bgFrom, bgTo [3]float32
	bgTween      *gween.Tween

	ambient light.Ambient
	key     light.Directional

	onActionFinished func(name string)
	pendingFinished  []string

	disposed bool
}

var _ Stage = &stage{}

// NewStage creates a stage bound to a camera and renderer.
//
// Parameters:
//   - cam: the camera to render with (must not be nil)
//   - r: the renderer to draw with (must not be nil)
//   - options: functional options to further configure the stage
//
// Returns:
//   - Stage: the newly created stage
func NewStage(cam camera.Camera, r renderer.Renderer, options ...StageBuilderOption) Stage {
	if cam == nil {
		panic("scene: NewStage requires a non-nil Camera")
	}
	if r == nil {
		panic("scene: NewStage requires a non-nil Renderer")
	}

	s := &stage{
		mu:               &sync.Mutex{},
		cam:              cam,
		r:                r,
		importer:         loader.NewImporter(),
		completions:      make(chan func(), 16),
		modelScale:       1,
		background:       [3]float32{0.1, 0.1, 0.1},
		ambient:          light.DefaultAmbient(),
		key:              light.DefaultDirectional(),
	}

	for _, option := range options {
		option(s)
	}

	// Two workers cover the viewer's load pattern: one character import
	// overlapping one action import.
	s.loadPool = worker.NewDynamicWorkerPool(2, 16, 1*time.Second)

	s.r.SetClearColor(float64(s.background[0]), float64(s.background[1]), float64(s.background[2]), 1)

	return s
}

func (s *stage) LoadModel(path string, done func(err error)) {
	s.submit(func() (any, error) {
		character, err := s.importer.ImportModel(path)

		s.completions <- func() {
			if err != nil {
				s.finish(done, fmt.Errorf("failed to load model %s: %w", path, err))
				return
			}
			s.finish(done, s.installCharacter(character))
		}
		return nil, nil
	})
}

func (s *stage) PlayActionFile(path string, _ float32, done func(err error)) {
	s.submit(func() (any, error) {
		clips, err := s.importer.ImportAction(path)

		s.completions <- func() {
			if err != nil {
				s.finish(done, fmt.Errorf("failed to load action %s: %w", path, err))
				return
			}
			s.finish(done, s.playImportedAction(clips[0]))
		}
		return nil, nil
	})
}

// submit schedules work on the load pool.
func (s *stage) submit(do func() (any, error)) {
	s.mu.Lock()
	id := s.nextTask
	s.nextTask++
	s.mu.Unlock()

	s.loadPool.SubmitTask(worker.Task{
		ID: id,
		Do: do,
	})
}

func (s *stage) finish(done func(err error), err error) {
	if done != nil {
		done(err)
	}
}

// installCharacter replaces the loaded character: old GPU meshes are
// released, new meshes uploaded, and a fresh mixer is built with the
// character's bundled clips registered. Runs on the update goroutine.
func (s *stage) installCharacter(character *model.Character) error {
	s.releaseCharacter()

	meshIDs := make([]renderer.MeshID, 0, len(character.Meshes))
	for i := range character.Meshes {
		id, err := s.r.UploadMesh(&character.Meshes[i])
		if err != nil {
			for _, uploaded := range meshIDs {
				s.r.ReleaseMesh(uploaded)
			}
			return err
		}
		meshIDs = append(meshIDs, id)
	}

	// Scale so the model's largest dimension spans exactly targetModelSize;
	// CenterModel only re-clamps a scale that has drifted out of bounds.
	scale := float32(1)
	if bounds := character.Bounds(); bounds.Valid() && bounds.MaxDimension() > 0 {
		scale = targetModelSize / bounds.MaxDimension()
	}

	s.mu.Lock()
	s.character = character
	s.meshIDs = meshIDs
	s.modelTranslation = [3]float32{}
	s.modelScale = scale

	if character.Skeleton != nil {
		s.mix = mixer.NewMixer(character.Skeleton)
		s.mix.SetOnFinished(s.recordFinished)
		for _, clip := range character.Clips {
			// Bundled clips hold their last frame instead of looping.
			action := s.mix.Register(clip)
			action.SetLoopOnce(true)
		}
	} else {
		s.mix = nil
	}
	s.mu.Unlock()

	s.CenterModel()
	return nil
}

// playImportedAction registers an action-file clip and starts it as a
// one-shot at the reduced action rate, replacing the current animation with
// no crossfade. Runs on the update goroutine.
func (s *stage) playImportedAction(clip *model.AnimationClip) error {
	s.mu.Lock()
	mix := s.mix
	s.mu.Unlock()

	if mix == nil {
		return fmt.Errorf("no character loaded")
	}

	action := mix.Register(clip)
	action.SetLoopOnce(true)
	action.SetTimeScale(actionPlaybackRate)

	_, err := mix.CrossFadeTo(clip.Name, 0)
	return err
}

// recordFinished queues a finished-clip notification; Update drains the
// queue so callbacks fire on the update goroutine.
func (s *stage) recordFinished(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingFinished = append(s.pendingFinished, name)
}

func (s *stage) ClipNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mix == nil {
		return nil
	}
	return s.mix.ActionNames()
}

func (s *stage) Play(name string, fade float32) error {
	s.mu.Lock()
	mix := s.mix
	s.mu.Unlock()

	if mix == nil {
		return fmt.Errorf("no character loaded")
	}
	action, err := mix.CrossFadeTo(name, fade)
	if err != nil {
		return err
	}
	// A prior sign may have left this clip at the reduced action rate.
	action.SetTimeScale(1)
	return nil
}

func (s *stage) CenterModel() {
	s.mu.Lock()
	character := s.character
	scale := s.modelScale
	s.mu.Unlock()

	if character == nil {
		return
	}

	bounds := character.Bounds()
	if !bounds.Valid() {
		return
	}

	maxDim := bounds.MaxDimension()
	if maxDim <= 0 {
		return
	}
	if scale <= 0 {
		scale = 1
	}

	// Rescale only when the model's world size has drifted out of bounds.
	if size := maxDim * scale; size > maxModelSize {
		scale = maxModelSize / maxDim
	} else if size < minModelSize {
		scale = minModelSize / maxDim
	}

	// Ground the model at the origin: centered on x/z, feet at y=0.
	center := bounds.Center()
	translation := [3]float32{
		-center[0] * scale,
		-bounds.Min[1] * scale,
		-center[2] * scale,
	}

	// Aim the camera at the upper body rather than the feet.
	size := bounds.Size()
	targetHeight := size[1] * scale * 0.6

	s.mu.Lock()
	s.modelScale = scale
	s.modelTranslation = translation
	s.mu.Unlock()

	if controller := s.cam.Controller(); controller != nil {
		controller.SetTarget(0, targetHeight, 0)
	}
}

func (s *stage) SetBackground(r, g, b float32, fade float32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if fade <= 0 {
		s.background = [3]float32{r, g, b}
		s.bgTween = nil
		s.r.SetClearColor(float64(r), float64(g), float64(b), 1)
		return
	}

	s.bgFrom = s.background
	s.bgTo = [3]float32{r, g, b}
	s.bgTween = gween.New(0, 1, fade, ease.Linear)
}

func (s *stage) SetTimeScale(scale float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mix != nil {
		s.mix.SetTimeScale(scale)
	}
}

func (s *stage) SetOnActionFinished(callback func(name string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onActionFinished = callback
}

func (s *stage) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mix != nil {
		s.mix.StopAll()
	}
}

func (s *stage) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	s.r.Resize(width, height)
	s.cam.SetAspect(float32(width) / float32(height))
}

func (s *stage) Update(dt float32) error {
	s.mu.Lock()
	disposed := s.disposed
	s.mu.Unlock()

	// Drain loader completions first so a freshly loaded character renders
	// this frame. Results that raced a Dispose are discarded unrun; the GPU
	// resources they would create have nowhere to live.
drain:
	for {
		select {
		case completion := <-s.completions:
			if !disposed {
				completion()
			}
		default:
			break drain
		}
	}

	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return fmt.Errorf("stage disposed")
	}

	if s.bgTween != nil {
		t, done := s.bgTween.Update(dt)
		s.background = common.Lerp3(s.bgFrom, s.bgTo, t)
		if done {
			s.bgTween = nil
		}
		s.r.SetClearColor(float64(s.background[0]), float64(s.background[1]), float64(s.background[2]), 1)
	}

	mix := s.mix
	s.mu.Unlock()

	if mix != nil {
		mix.Update(dt)
	}
	s.cam.Update(dt)

	s.notifyFinished()

	frame := s.buildFrame()
	return s.r.RenderFrame(frame)
}

// notifyFinished fires queued finished-clip callbacks outside the lock.
func (s *stage) notifyFinished() {
	s.mu.Lock()
	finished := s.pendingFinished
	s.pendingFinished = nil
	callback := s.onActionFinished
	s.mu.Unlock()

	if callback == nil {
		return
	}
	for _, name := range finished {
		callback(name)
	}
}

// buildFrame assembles the renderer frame for the current state.
func (s *stage) buildFrame() *renderer.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()

	frame := &renderer.Frame{
		CameraPosition:   s.cameraPosition(),
		AmbientColor:     s.ambient.Color,
		AmbientIntensity: s.ambient.Intensity,
		LightDirection:   s.key.Direction,
		LightColor:       s.key.Color,
		LightIntensity:   s.key.Intensity,
	}
	frame.ViewProjection = s.cam.ViewProjectionMatrix()

	if s.character == nil {
		return frame
	}

	var modelMatrix [16]float32
	common.ComposeTRS(modelMatrix[:], s.modelTranslation, [4]float32{0, 0, 0, 1}, [3]float32{s.modelScale, s.modelScale, s.modelScale})

	var palette []float32
	if s.mix != nil {
		palette = s.mix.Palette()
	}

	for _, id := range s.meshIDs {
		frame.Items = append(frame.Items, renderer.DrawItem{
			Mesh:        id,
			ModelMatrix: modelMatrix,
			Palette:     palette,
		})
	}

	return frame
}

func (s *stage) cameraPosition() [3]float32 {
	if controller := s.cam.Controller(); controller != nil {
		x, y, z := controller.Position()
		return [3]float32{x, y, z}
	}
	return [3]float32{}
}

// releaseCharacter frees the current character's GPU meshes. Caller must
// not hold the mutex.
func (s *stage) releaseCharacter() {
	s.mu.Lock()
	meshIDs := s.meshIDs
	s.meshIDs = nil
	s.character = nil
	s.mix = nil
	s.mu.Unlock()

	for _, id := range meshIDs {
		s.r.ReleaseMesh(id)
	}
}

func (s *stage) Dispose() {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return
	}
	s.disposed = true
	s.mu.Unlock()

	s.loadPool.Stop()
	s.releaseCharacter()

	// Discard completions already queued by in-flight imports.
	for {
		select {
		case <-s.completions:
		default:
			return
		}
	}
}
