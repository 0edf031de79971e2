package scene

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/silentbridge/signavatar/common"
	"github.com/silentbridge/signavatar/engine/camera"
	"github.com/silentbridge/signavatar/engine/model"
	"github.com/silentbridge/signavatar/engine/renderer"
)

type fakeRenderer struct {
	mu sync.Mutex

	nextID     renderer.MeshID
	uploaded   map[renderer.MeshID]string
	released   []renderer.MeshID
	lastFrame  *renderer.Frame
	clearColor [4]float64
	resizes    [][2]int
}

func newFakeRenderer() *fakeRenderer {
	return &fakeRenderer{nextID: 1, uploaded: make(map[renderer.MeshID]string)}
}

func (f *fakeRenderer) Resize(width, height int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resizes = append(f.resizes, [2]int{width, height})
}

func (f *fakeRenderer) SetClearColor(r, g, b, a float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clearColor = [4]float64{r, g, b, a}
}

func (f *fakeRenderer) UploadMesh(mesh *model.Mesh) (renderer.MeshID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextID
	f.nextID++
	f.uploaded[id] = mesh.Name
	return id, nil
}

func (f *fakeRenderer) ReleaseMesh(id renderer.MeshID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.released = append(f.released, id)
	delete(f.uploaded, id)
}

func (f *fakeRenderer) RenderFrame(frame *renderer.Frame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastFrame = frame
	return nil
}

func (f *fakeRenderer) Release() {}

func (f *fakeRenderer) frame() *renderer.Frame {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastFrame
}

type fakeImporter struct {
	character *model.Character
	clips     []*model.AnimationClip
	modelErr  error
	actionErr error
}

func (f *fakeImporter) ImportModel(path string) (*model.Character, error) {
	if f.modelErr != nil {
		return nil, f.modelErr
	}
	return f.character, nil
}

func (f *fakeImporter) ImportAction(path string) ([]*model.AnimationClip, error) {
	if f.actionErr != nil {
		return nil, f.actionErr
	}
	return f.clips, nil
}

// testCharacter builds a one-mesh, two-bone character spanning the given
// height, with one bundled idle clip.
func testCharacter(height float32) *model.Character {
	root := model.Bone{Name: "Hips", ParentIndex: -1, BindTransform: model.IdentityTransform()}
	spine := model.Bone{Name: "Spine", ParentIndex: 0, BindTransform: model.IdentityTransform()}
	root.InverseBindMatrix = identityMatrix()
	spine.InverseBindMatrix = identityMatrix()

	bounds := common.NewAABB()
	bounds.Extend([3]float32{-height / 4, 0, -height / 4})
	bounds.Extend([3]float32{height / 4, height, height / 4})

	return &model.Character{
		Name: "TestAvatar",
		Meshes: []model.Mesh{
			{Name: "body", Bounds: bounds},
		},
		Skeleton: &model.Skeleton{
			Bones:       []model.Bone{root, spine},
			RootIndices: []int32{0},
			NameToIndex: map[string]int32{"Hips": 0, "Spine": 1},
		},
		Clips: []*model.AnimationClip{idleClip()},
	}
}

func identityMatrix() [16]float32 {
	return [16]float32{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}
}

func idleClip() *model.AnimationClip {
	return &model.AnimationClip{
		Name:     "Idle",
		Duration: 2,
		Channels: []model.AnimationChannel{
			{
				BoneIndex: -1,
				BoneName:  "Spine",
				PositionKeys: []model.VectorKeyframe{
					{Time: 0, Value: [3]float32{0, 0, 0}},
					{Time: 2, Value: [3]float32{0, 0.1, 0}},
				},
			},
		},
	}
}

func signClip(name string, duration float32) *model.AnimationClip {
	clip := idleClip()
	clip.Name = name
	clip.Duration = duration
	clip.Channels[0].PositionKeys[1].Time = duration
	return clip
}

func newTestStage(t *testing.T, imp *fakeImporter) (Stage, *fakeRenderer, camera.Camera) {
	t.Helper()
	cam := camera.NewCamera(camera.WithController(camera.NewOrbitController()))
	r := newFakeRenderer()
	s := NewStage(cam, r, WithImporter(imp))
	return s, r, cam
}

// loadAndWait loads a model and pumps Update until the done callback fires.
func loadAndWait(t *testing.T, s Stage, path string) error {
	t.Helper()
	result := make(chan error, 1)
	s.LoadModel(path, func(err error) { result <- err })
	return pumpUntil(t, s, result)
}

func pumpUntil(t *testing.T, s Stage, result chan error) error {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case err := <-result:
			return err
		case <-deadline:
			t.Fatal("timed out waiting for load completion")
			return nil
		default:
			if err := s.Update(0.016); err != nil {
				t.Fatalf("update failed: %v", err)
			}
			time.Sleep(time.Millisecond)
		}
	}
}

func TestLoadModelInstallsCharacter(t *testing.T) {
	imp := &fakeImporter{character: testCharacter(1.8)}
	s, r, cam := newTestStage(t, imp)

	if err := loadAndWait(t, s, "assets/models/avatar.glb"); err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}

	names := s.ClipNames()
	if len(names) != 1 || names[0] != "Idle" {
		t.Errorf("unexpected clip names: %v", names)
	}

	r.mu.Lock()
	uploads := len(r.uploaded)
	r.mu.Unlock()
	if uploads != 1 {
		t.Errorf("expected 1 uploaded mesh, got %d", uploads)
	}

	// Centering raises the camera target off the floor.
	if _, ty, _ := cam.Controller().Target(); ty <= 0 {
		t.Errorf("expected raised camera target, got y=%f", ty)
	}
}

func TestLoadModelReportsImportError(t *testing.T) {
	imp := &fakeImporter{modelErr: fmt.Errorf("corrupt file")}
	s, _, _ := newTestStage(t, imp)

	if err := loadAndWait(t, s, "broken.glb"); err == nil {
		t.Error("expected load error")
	}
}

func TestLoadModelReplacesPreviousCharacter(t *testing.T) {
	imp := &fakeImporter{character: testCharacter(1.8)}
	s, r, _ := newTestStage(t, imp)

	if err := loadAndWait(t, s, "first.glb"); err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	imp.character = testCharacter(2.0)
	if err := loadAndWait(t, s, "second.glb"); err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.released) != 1 {
		t.Errorf("expected 1 released mesh, got %d", len(r.released))
	}
	if len(r.uploaded) != 1 {
		t.Errorf("expected 1 live mesh, got %d", len(r.uploaded))
	}
}

func TestLoadModelScalesToTargetSize(t *testing.T) {
	// Loading always normalizes the largest dimension to targetModelSize,
	// whatever the export's units were.
	for _, height := range []float32{0.1, 1.5, 20} {
		t.Run(fmt.Sprintf("height %g", height), func(t *testing.T) {
			imp := &fakeImporter{character: testCharacter(height)}
			s, r, _ := newTestStage(t, imp)

			if err := loadAndWait(t, s, "avatar.glb"); err != nil {
				t.Fatalf("unexpected load error: %v", err)
			}
			if err := s.Update(0.016); err != nil {
				t.Fatalf("update failed: %v", err)
			}

			frame := r.frame()
			if len(frame.Items) != 1 {
				t.Fatalf("expected 1 draw item, got %d", len(frame.Items))
			}
			want := float32(targetModelSize) / height
			if got := frame.Items[0].ModelMatrix[0]; got != want {
				t.Errorf("expected model scale %f, got %f", want, got)
			}
		})
	}
}

func TestCenterModelClampsWorldSize(t *testing.T) {
	// CenterModel leaves an in-bounds scale alone and pulls a drifted one
	// back so the model's world size lands in [minModelSize, maxModelSize].
	cases := []struct {
		name      string
		scale     float32
		wantScale float32
	}{
		{"in bounds untouched", 0.75, 0.75},
		{"oversized pulled down", 5, maxModelSize / 2},
		{"undersized pulled up", 0.1, minModelSize / 2},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			imp := &fakeImporter{character: testCharacter(2)}
			s, _, _ := newTestStage(t, imp)

			if err := loadAndWait(t, s, "avatar.glb"); err != nil {
				t.Fatalf("unexpected load error: %v", err)
			}

			st := s.(*stage)
			st.mu.Lock()
			st.modelScale = tc.scale
			st.mu.Unlock()

			s.CenterModel()

			st.mu.Lock()
			got := st.modelScale
			st.mu.Unlock()
			if got != tc.wantScale {
				t.Errorf("expected scale %f after centering, got %f", tc.wantScale, got)
			}
		})
	}
}

func TestCenterModelIsIdempotent(t *testing.T) {
	imp := &fakeImporter{character: testCharacter(1.8)}
	s, _, _ := newTestStage(t, imp)

	if err := loadAndWait(t, s, "avatar.glb"); err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}

	st := s.(*stage)
	s.CenterModel()
	st.mu.Lock()
	scale, translation := st.modelScale, st.modelTranslation
	st.mu.Unlock()

	s.CenterModel()
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.modelScale != scale || st.modelTranslation != translation {
		t.Errorf("second centering changed the transform: scale %f -> %f, translation %v -> %v",
			scale, st.modelScale, translation, st.modelTranslation)
	}
}

func TestPlayWithoutCharacter(t *testing.T) {
	s, _, _ := newTestStage(t, &fakeImporter{})
	if err := s.Play("Idle", 0.3); err == nil {
		t.Error("expected error playing with no character loaded")
	}
}

func TestPlayUnknownClip(t *testing.T) {
	imp := &fakeImporter{character: testCharacter(1.8)}
	s, _, _ := newTestStage(t, imp)

	if err := loadAndWait(t, s, "avatar.glb"); err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	if err := s.Play("Missing", 0.3); err == nil {
		t.Error("expected error for unknown clip")
	}
}

func TestBundledClipsHoldLastFrame(t *testing.T) {
	imp := &fakeImporter{character: testCharacter(1.8)}
	s, _, _ := newTestStage(t, imp)

	if err := loadAndWait(t, s, "avatar.glb"); err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	if err := s.Play("Idle", 0); err != nil {
		t.Fatalf("unexpected play error: %v", err)
	}

	// Pump well past the 2 second clip.
	for i := 0; i < 30; i++ {
		if err := s.Update(0.1); err != nil {
			t.Fatalf("update failed: %v", err)
		}
	}

	action := s.(*stage).mix.Action("Idle")
	if action == nil {
		t.Fatal("expected Idle registered")
	}
	if !action.Finished() {
		t.Error("expected bundled clip to finish rather than loop")
	}
	if got := action.Time(); got != action.Duration() {
		t.Errorf("expected time clamped to %f, got %f", action.Duration(), got)
	}
}

func TestPlayResetsActionRate(t *testing.T) {
	imp := &fakeImporter{
		character: testCharacter(1.8),
		clips:     []*model.AnimationClip{signClip("BallSign", 1)},
	}
	s, _, _ := newTestStage(t, imp)

	if err := loadAndWait(t, s, "avatar.glb"); err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}

	result := make(chan error, 1)
	s.PlayActionFile("assets/models/actions/Ball.glb", 0, func(err error) { result <- err })
	if err := pumpUntil(t, s, result); err != nil {
		t.Fatalf("unexpected action error: %v", err)
	}

	// Replaying the registered clip directly runs at normal speed again.
	if err := s.Play("BallSign", 0.3); err != nil {
		t.Fatalf("unexpected play error: %v", err)
	}
	action := s.(*stage).mix.Action("BallSign")
	if got := action.TimeScale(); got != 1 {
		t.Errorf("expected rate reset to 1, got %f", got)
	}
}

func TestPlayActionFileRunsOnceAtReducedRate(t *testing.T) {
	imp := &fakeImporter{
		character: testCharacter(1.8),
		clips:     []*model.AnimationClip{signClip("BallSign", 1)},
	}
	s, _, _ := newTestStage(t, imp)

	if err := loadAndWait(t, s, "avatar.glb"); err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}

	var finished []string
	var finishedMu sync.Mutex
	s.SetOnActionFinished(func(name string) {
		finishedMu.Lock()
		finished = append(finished, name)
		finishedMu.Unlock()
	})

	result := make(chan error, 1)
	s.PlayActionFile("assets/models/actions/Ball.glb", 0.3, func(err error) { result <- err })
	if err := pumpUntil(t, s, result); err != nil {
		t.Fatalf("unexpected action error: %v", err)
	}

	st := s.(*stage)
	action := st.mix.Action("BallSign")
	if action == nil {
		t.Fatal("expected BallSign registered")
	}
	if got := action.TimeScale(); got != 0.7 {
		t.Errorf("expected action rate 0.7, got %f", got)
	}

	// A 1 second clip at 0.7x finishes in ~1.43s of wall time.
	for i := 0; i < 16; i++ {
		if err := s.Update(0.1); err != nil {
			t.Fatalf("update failed: %v", err)
		}
	}

	if !action.Finished() {
		t.Error("expected one-shot action to finish")
	}
	finishedMu.Lock()
	defer finishedMu.Unlock()
	if len(finished) != 1 || finished[0] != "BallSign" {
		t.Errorf("unexpected finished callbacks: %v", finished)
	}
}

func TestSetBackgroundEases(t *testing.T) {
	s, r, _ := newTestStage(t, &fakeImporter{})

	s.SetBackground(1, 0, 0, 0.5)
	if err := s.Update(0.25); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	r.mu.Lock()
	mid := r.clearColor
	r.mu.Unlock()
	if mid[0] <= 0.1 || mid[0] >= 1 {
		t.Errorf("expected red channel mid-ease, got %f", mid[0])
	}

	if err := s.Update(0.3); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	r.mu.Lock()
	end := r.clearColor
	r.mu.Unlock()
	if end[0] != 1 || end[1] != 0 || end[2] != 0 {
		t.Errorf("expected settled color (1,0,0), got %v", end)
	}
}

func TestSetBackgroundImmediate(t *testing.T) {
	s, r, _ := newTestStage(t, &fakeImporter{})

	s.SetBackground(0, 0.5, 1, 0)
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.clearColor != [4]float64{0, 0.5, 1, 1} {
		t.Errorf("unexpected clear color: %v", r.clearColor)
	}
}

func TestResizeIgnoresZeroDimensions(t *testing.T) {
	s, r, _ := newTestStage(t, &fakeImporter{})

	s.Resize(0, 720)
	s.Resize(1280, 0)
	s.Resize(1280, 720)

	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.resizes) != 1 || r.resizes[0] != [2]int{1280, 720} {
		t.Errorf("unexpected resizes: %v", r.resizes)
	}
}

func TestDisposeReleasesMeshes(t *testing.T) {
	imp := &fakeImporter{character: testCharacter(1.8)}
	s, r, _ := newTestStage(t, imp)

	if err := loadAndWait(t, s, "avatar.glb"); err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}

	s.Dispose()

	r.mu.Lock()
	released := len(r.released)
	r.mu.Unlock()
	if released != 1 {
		t.Errorf("expected 1 released mesh, got %d", released)
	}

	if err := s.Update(0.016); err == nil {
		t.Error("expected update to fail after dispose")
	}
}

func TestDisposeDropsInFlightLoad(t *testing.T) {
	imp := &fakeImporter{character: testCharacter(1.8)}
	s, r, _ := newTestStage(t, imp)
	st := s.(*stage)

	called := make(chan error, 1)
	s.LoadModel("avatar.glb", func(err error) { called <- err })

	// Wait for the worker to queue its completion, then tear down before
	// the update loop runs it.
	deadline := time.Now().Add(5 * time.Second)
	for len(st.completions) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("worker never queued the load completion")
		}
		time.Sleep(time.Millisecond)
	}
	s.Dispose()

	if err := s.Update(0.016); err == nil {
		t.Error("expected update to fail after dispose")
	}

	select {
	case err := <-called:
		t.Errorf("expected the load result to be dropped, got callback (%v)", err)
	default:
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.uploaded) != 0 {
		t.Errorf("expected no uploads into a disposed stage, got %d", len(r.uploaded))
	}
}
