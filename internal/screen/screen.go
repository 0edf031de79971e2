// Package screen is the presentation layer: it owns the sign catalogue,
// the loading/playing/error flags the UI reflects, and the lifecycle of
// the stage it drives.
package screen

import (
	"fmt"
	"sync"
	"time"

	"github.com/silentbridge/signavatar/internal/catalog"
)

// defaultPlayingDuration is how long a selection is considered playing.
// Action files carry no reliable length metadata up front, so a fixed
// window blocks re-entrant selections; the clip-finished callback clears
// the flag earlier when it fires.
const defaultPlayingDuration = 4 * time.Second

// Stage is the subset of the scene stage the screen drives. Declared here
// so tests can substitute a fake.
type Stage interface {
	LoadModel(path string, done func(err error))
	PlayActionFile(path string, fade float32, done func(err error))
	ClipNames() []string
	CenterModel()
	SetBackground(r, g, b float32, fade float32)
	SetOnActionFinished(callback func(name string))
	Resize(width, height int)
	Dispose()
}

// State is a snapshot of the screen's UI-visible flags.
type State struct {
	// Loading is true while the base character import is outstanding.
	Loading bool

	// CharacterLoaded is true once the base character is installed.
	CharacterLoaded bool

	// IsPlaying is true while a selected sign's animation is considered
	// in progress; further selections are ignored until it clears.
	IsPlaying bool

	// Err holds the most recent user-visible error, or "".
	Err string

	// ClipNames lists the clips embedded in the loaded character.
	ClipNames []string
}

// Screen drives a stage from UI lifecycle events and sign selections.
type Screen interface {
	// Ready handles the view-ready lifecycle signal: it sets the stage
	// background and starts loading the base character.
	Ready()

	// Select plays the catalogue sign with the given ID. Selections are
	// ignored while the character is loading or another sign is playing.
	//
	// Parameters:
	//   - signID: the catalogue entry to play
	Select(signID string)

	// Resize forwards a new surface size to the stage.
	//
	// Parameters:
	//   - width: the new surface width in pixels
	//   - height: the new surface height in pixels
	Resize(width, height int)

	// Teardown handles the view-torn-down lifecycle signal: it cancels the
	// playing timer and disposes the stage. Safe to call more than once.
	Teardown()

	// Snapshot returns the current UI-visible state.
	//
	// Returns:
	//   - State: a copy of the flags and clip names
	Snapshot() State
}

// screenImpl is the implementation of the Screen interface.
type screenImpl struct {
	mu *sync.Mutex

	stage     Stage
	assetRoot string
	charPath  string

	background      [3]float32
	playingDuration time.Duration
	playingTimer    *time.Timer

	state State
	ready bool
	torn  bool
}

var _ Screen = &screenImpl{}

// NewScreen creates a screen over a stage.
//
// Parameters:
//   - stage: the stage to drive (must not be nil)
//   - assetRoot: the directory holding the viewer's assets
//   - characterPath: the base character file path
//   - options: functional options to further configure the screen
//
// Returns:
//   - Screen: the newly created screen
func NewScreen(stage Stage, assetRoot, characterPath string, options ...ScreenBuilderOption) Screen {
	if stage == nil {
		panic("screen: NewScreen requires a non-nil Stage")
	}

	s := &screenImpl{
		mu:              &sync.Mutex{},
		stage:           stage,
		assetRoot:       assetRoot,
		charPath:        characterPath,
		background:      [3]float32{0.12, 0.12, 0.15},
		playingDuration: defaultPlayingDuration,
	}
	for _, option := range options {
		option(s)
	}

	stage.SetOnActionFinished(func(string) { s.clearPlaying() })

	return s
}

func (s *screenImpl) Ready() {
	s.mu.Lock()
	if s.ready || s.torn {
		s.mu.Unlock()
		return
	}
	s.ready = true
	s.state.Loading = true
	s.state.Err = ""
	background := s.background
	path := s.charPath
	s.mu.Unlock()

	s.stage.SetBackground(background[0], background[1], background[2], 0)
	s.stage.LoadModel(path, s.onCharacterLoaded)
}

// onCharacterLoaded records the load result and captures the character's
// clip names.
func (s *screenImpl) onCharacterLoaded(err error) {
	if err != nil {
		s.mu.Lock()
		s.state.Loading = false
		s.state.Err = err.Error()
		s.mu.Unlock()
		return
	}

	clipNames := s.stage.ClipNames()
	s.stage.CenterModel()

	s.mu.Lock()
	s.state.Loading = false
	s.state.CharacterLoaded = true
	s.state.ClipNames = clipNames
	s.mu.Unlock()
}

func (s *screenImpl) Select(signID string) {
	s.mu.Lock()
	if s.torn || s.state.Loading || s.state.IsPlaying {
		s.mu.Unlock()
		return
	}
	if !s.state.CharacterLoaded {
		s.state.Err = "no character loaded"
		s.mu.Unlock()
		return
	}

	sign, ok := catalog.Lookup(signID)
	if !ok {
		s.state.Err = fmt.Sprintf("unknown sign: %s", signID)
		s.mu.Unlock()
		return
	}

	s.state.Err = ""
	s.state.IsPlaying = true
	s.playingTimer = time.AfterFunc(s.playingDuration, s.clearPlaying)
	path := catalog.ActionPath(s.assetRoot, sign)
	s.mu.Unlock()

	s.stage.PlayActionFile(path, 0, s.onActionStarted)
}

// onActionStarted handles the action import result. On failure the playing
// flag clears immediately and the model is re-centered so a broken attempt
// does not leave it mispositioned.
func (s *screenImpl) onActionStarted(err error) {
	if err == nil {
		return
	}

	s.mu.Lock()
	s.state.Err = err.Error()
	s.state.IsPlaying = false
	if s.playingTimer != nil {
		s.playingTimer.Stop()
		s.playingTimer = nil
	}
	s.mu.Unlock()

	s.stage.CenterModel()
}

// clearPlaying marks the current sign finished.
func (s *screenImpl) clearPlaying() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.IsPlaying = false
	if s.playingTimer != nil {
		s.playingTimer.Stop()
		s.playingTimer = nil
	}
}

func (s *screenImpl) Resize(width, height int) {
	s.stage.Resize(width, height)
}

func (s *screenImpl) Teardown() {
	s.mu.Lock()
	if s.torn {
		s.mu.Unlock()
		return
	}
	s.torn = true
	if s.playingTimer != nil {
		s.playingTimer.Stop()
		s.playingTimer = nil
	}
	s.state.IsPlaying = false
	s.mu.Unlock()

	s.stage.Dispose()
}

func (s *screenImpl) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state
	snapshot.ClipNames = append([]string(nil), s.state.ClipNames...)
	return snapshot
}
