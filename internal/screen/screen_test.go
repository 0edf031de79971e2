package screen

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

// fakeStage records calls and lets tests resolve loads manually, standing
// in for the real scene stage.
type fakeStage struct {
	mu sync.Mutex

	clipNames []string

	loadedPaths   []string
	loadDone      func(err error)
	actionPaths   []string
	actionDone    func(err error)
	centerCalls   int
	resizes       [][2]int
	disposed      int
	background    [3]float32
	finished      func(name string)
}

func (f *fakeStage) LoadModel(path string, done func(err error)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loadedPaths = append(f.loadedPaths, path)
	f.loadDone = done
}

func (f *fakeStage) PlayActionFile(path string, fade float32, done func(err error)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actionPaths = append(f.actionPaths, path)
	f.actionDone = done
}

func (f *fakeStage) ClipNames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.clipNames
}

func (f *fakeStage) CenterModel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.centerCalls++
}

func (f *fakeStage) SetBackground(r, g, b float32, fade float32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.background = [3]float32{r, g, b}
}

func (f *fakeStage) SetOnActionFinished(callback func(name string)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finished = callback
}

func (f *fakeStage) Resize(width, height int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resizes = append(f.resizes, [2]int{width, height})
}

func (f *fakeStage) Dispose() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disposed++
}

func (f *fakeStage) resolveLoad(err error) {
	f.mu.Lock()
	done := f.loadDone
	f.mu.Unlock()
	done(err)
}

func (f *fakeStage) resolveAction(err error) {
	f.mu.Lock()
	done := f.actionDone
	f.mu.Unlock()
	done(err)
}

func (f *fakeStage) actionCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.actionPaths)
}

func readyScreen(t *testing.T, options ...ScreenBuilderOption) (Screen, *fakeStage) {
	t.Helper()
	stage := &fakeStage{clipNames: []string{"Idle"}}
	s := NewScreen(stage, "assets/models", "assets/models/avatar.glb", options...)
	s.Ready()
	stage.resolveLoad(nil)
	return s, stage
}

func TestReadyLoadsCharacter(t *testing.T) {
	stage := &fakeStage{clipNames: []string{"Idle"}}
	s := NewScreen(stage, "assets/models", "assets/models/avatar.glb")

	s.Ready()
	snap := s.Snapshot()
	if !snap.Loading {
		t.Error("expected loading flag while the import is outstanding")
	}
	if len(stage.loadedPaths) != 1 || stage.loadedPaths[0] != "assets/models/avatar.glb" {
		t.Errorf("unexpected load paths: %v", stage.loadedPaths)
	}

	stage.resolveLoad(nil)
	snap = s.Snapshot()
	if snap.Loading {
		t.Error("expected loading flag cleared")
	}
	if !snap.CharacterLoaded {
		t.Error("expected character loaded")
	}
	if len(snap.ClipNames) != 1 || snap.ClipNames[0] != "Idle" {
		t.Errorf("unexpected clip names: %v", snap.ClipNames)
	}
	if stage.centerCalls != 1 {
		t.Errorf("expected exactly one center call, got %d", stage.centerCalls)
	}
}

func TestReadyIsIdempotent(t *testing.T) {
	stage := &fakeStage{}
	s := NewScreen(stage, "assets/models", "avatar.glb")

	s.Ready()
	s.Ready()

	if len(stage.loadedPaths) != 1 {
		t.Errorf("expected a single load, got %d", len(stage.loadedPaths))
	}
}

func TestReadyLoadFailure(t *testing.T) {
	stage := &fakeStage{}
	s := NewScreen(stage, "assets/models", "avatar.glb")

	s.Ready()
	stage.resolveLoad(fmt.Errorf("network failure"))

	snap := s.Snapshot()
	if snap.Loading {
		t.Error("expected loading flag cleared after failure")
	}
	if snap.CharacterLoaded {
		t.Error("character must not be marked loaded after failure")
	}
	if snap.Err == "" {
		t.Error("expected a user-visible error")
	}
}

func TestSelectPlaysDerivedActionPath(t *testing.T) {
	s, stage := readyScreen(t)

	s.Select("Ball")

	if stage.actionCount() != 1 {
		t.Fatalf("expected 1 action load, got %d", stage.actionCount())
	}
	want := "assets/models/actions/Ball.glb"
	if stage.actionPaths[0] != want {
		t.Errorf("action path = %q, expected %q", stage.actionPaths[0], want)
	}
	if !s.Snapshot().IsPlaying {
		t.Error("expected playing flag set")
	}
}

func TestSelectIgnoredWhilePlaying(t *testing.T) {
	s, stage := readyScreen(t)

	s.Select("Ball")
	s.Select("Hello")

	if stage.actionCount() != 1 {
		t.Errorf("expected the second selection to be ignored, got %d loads", stage.actionCount())
	}
}

func TestSelectUnknownSign(t *testing.T) {
	s, stage := readyScreen(t)

	s.Select("NotASign")

	if stage.actionCount() != 0 {
		t.Error("expected no action load for an unknown sign")
	}
	snap := s.Snapshot()
	if snap.IsPlaying {
		t.Error("playing flag must stay clear")
	}
	if snap.Err == "" {
		t.Error("expected a user-visible error")
	}
}

func TestSelectBeforeCharacterLoads(t *testing.T) {
	stage := &fakeStage{}
	s := NewScreen(stage, "assets/models", "avatar.glb")
	s.Ready()

	// Still loading: selection ignored outright.
	s.Select("Ball")
	if stage.actionCount() != 0 {
		t.Error("expected selection ignored while loading")
	}
}

func TestPlayingTimerClearsFlag(t *testing.T) {
	s, _ := readyScreen(t, WithPlayingTimer(20*time.Millisecond))

	s.Select("Ball")
	if !s.Snapshot().IsPlaying {
		t.Fatal("expected playing flag set")
	}

	deadline := time.After(2 * time.Second)
	for s.Snapshot().IsPlaying {
		select {
		case <-deadline:
			t.Fatal("playing flag never cleared")
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}
}

func TestClipFinishedClearsFlagEarly(t *testing.T) {
	s, stage := readyScreen(t, WithPlayingTimer(time.Hour))

	s.Select("Ball")
	stage.finished("BallSign")

	if s.Snapshot().IsPlaying {
		t.Error("expected clip-finished callback to clear the playing flag")
	}

	// The screen accepts new selections again.
	s.Select("Hello")
	if stage.actionCount() != 2 {
		t.Errorf("expected a second action load, got %d", stage.actionCount())
	}
}

func TestActionFailureResetsAndRecenters(t *testing.T) {
	s, stage := readyScreen(t)

	s.Select("Ball")
	stage.resolveAction(fmt.Errorf("missing file"))

	snap := s.Snapshot()
	if snap.IsPlaying {
		t.Error("expected playing flag cleared after failure")
	}
	if snap.Err == "" {
		t.Error("expected a user-visible error")
	}
	// One center from the load, one from the failure recovery.
	if stage.centerCalls != 2 {
		t.Errorf("expected recovery re-center, got %d center calls", stage.centerCalls)
	}
}

func TestResizeForwards(t *testing.T) {
	s, stage := readyScreen(t)

	s.Resize(800, 600)
	if len(stage.resizes) != 1 || stage.resizes[0] != [2]int{800, 600} {
		t.Errorf("unexpected resizes: %v", stage.resizes)
	}
}

func TestTeardownIsIdempotent(t *testing.T) {
	s, stage := readyScreen(t)

	s.Teardown()
	s.Teardown()

	if stage.disposed != 1 {
		t.Errorf("expected a single dispose, got %d", stage.disposed)
	}

	// Selections after teardown are ignored.
	s.Select("Ball")
	if stage.actionCount() != 0 {
		t.Error("expected selection ignored after teardown")
	}
}
