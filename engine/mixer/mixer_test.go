package mixer

import (
	"math"
	"testing"

	"github.com/silentbridge/signavatar/engine/model"
)

func approx(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-4
}

// twoBoneSkeleton builds a root bone at the origin with one child bone bound
// one unit above it. Inverse bind matrices undo the bind pose so the palette
// is identity until an animation moves a bone.
func twoBoneSkeleton() *model.Skeleton {
	root := model.Bone{
		Name:          "Hips",
		ParentIndex:   -1,
		BindTransform: model.IdentityTransform(),
	}
	root.InverseBindMatrix = [16]float32{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}

	arm := model.Bone{
		Name:          "Arm",
		ParentIndex:   0,
		BindTransform: model.IdentityTransform(),
	}
	arm.BindTransform.Translation = [3]float32{0, 1, 0}
	arm.InverseBindMatrix = [16]float32{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, -1, 0, 1,
	}

	return &model.Skeleton{
		Bones:       []model.Bone{root, arm},
		RootIndices: []int32{0},
		NameToIndex: map[string]int32{"Hips": 0, "Arm": 1},
	}
}

// raiseArmClip animates the child bone from its bind height to one unit
// higher over the given duration. Channels come back unbound (BoneIndex -1)
// the way clips from standalone action files do.
func raiseArmClip(name string, duration float32) *model.AnimationClip {
	return &model.AnimationClip{
		Name:     name,
		Duration: duration,
		Channels: []model.AnimationChannel{
			{
				BoneIndex: -1,
				BoneName:  "Arm",
				PositionKeys: []model.VectorKeyframe{
					{Time: 0, Value: [3]float32{0, 1, 0}},
					{Time: duration, Value: [3]float32{0, 2, 0}},
				},
			},
		},
	}
}

func TestBindPosePaletteIsIdentity(t *testing.T) {
	m := NewMixer(twoBoneSkeleton())

	palette := m.Palette()
	if len(palette) != 32 {
		t.Fatalf("expected 32 palette floats, got %d", len(palette))
	}

	identity := [16]float32{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}
	for bone := 0; bone < 2; bone++ {
		for i := 0; i < 16; i++ {
			if !approx(palette[bone*16+i], identity[i]) {
				t.Errorf("bone %d palette[%d] = %f, expected %f", bone, i, palette[bone*16+i], identity[i])
			}
		}
	}
}

func TestRegisterRebindsChannelsByName(t *testing.T) {
	m := NewMixer(twoBoneSkeleton()).(*mixerImpl)
	m.Register(raiseArmClip("Raise", 1))

	bc := m.bound["Raise"]
	if len(bc.channels) != 1 {
		t.Fatalf("expected 1 bound channel, got %d", len(bc.channels))
	}
	if bc.channels[0].boneIndex != 1 {
		t.Errorf("expected channel bound to bone 1, got %d", bc.channels[0].boneIndex)
	}
}

func TestRegisterDropsUnknownBones(t *testing.T) {
	m := NewMixer(twoBoneSkeleton()).(*mixerImpl)

	clip := raiseArmClip("Raise", 1)
	clip.Channels[0].BoneName = "Tail"
	m.Register(clip)

	if got := len(m.bound["Raise"].channels); got != 0 {
		t.Errorf("expected 0 bound channels for unknown bone, got %d", got)
	}
}

func TestPaletteTracksAnimatedBone(t *testing.T) {
	m := NewMixer(twoBoneSkeleton())
	m.Register(raiseArmClip("Raise", 1))

	if _, err := m.CrossFadeTo("Raise", 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Halfway through the clip the bone sits at y=1.5, half a unit above
	// its bind height.
	m.Update(0.5)

	palette := m.Palette()
	if !approx(palette[16+13], 0.5) {
		t.Errorf("expected child bone y offset 0.5, got %f", palette[16+13])
	}
	if !approx(palette[13], 0) {
		t.Errorf("expected root bone y offset 0, got %f", palette[13])
	}
}

func TestCrossFadeWeights(t *testing.T) {
	m := NewMixer(twoBoneSkeleton())
	m.Register(raiseArmClip("Idle", 2))
	m.Register(raiseArmClip("Wave", 2))

	if _, err := m.CrossFadeTo("Idle", 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m.Update(0.1)

	if _, err := m.CrossFadeTo("Wave", 0.3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	m.Update(0.15)
	idle, wave := m.Action("Idle"), m.Action("Wave")
	if !approx(idle.Weight(), 0.5) {
		t.Errorf("expected fading-out weight 0.5, got %f", idle.Weight())
	}
	if !approx(wave.Weight(), 0.5) {
		t.Errorf("expected fading-in weight 0.5, got %f", wave.Weight())
	}

	m.Update(0.2)
	if idle.Running() {
		t.Error("expected faded-out action to stop")
	}
	if !approx(wave.Weight(), 1) {
		t.Errorf("expected faded-in weight 1, got %f", wave.Weight())
	}
	if !wave.Running() {
		t.Error("expected faded-in action to keep running")
	}
}

func TestCrossFadeRewindsTarget(t *testing.T) {
	m := NewMixer(twoBoneSkeleton())
	m.Register(raiseArmClip("Raise", 2))

	if _, err := m.CrossFadeTo("Raise", 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m.Update(1.5)

	if _, err := m.CrossFadeTo("Raise", 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := m.Action("Raise").Time(); got != 0 {
		t.Errorf("expected rewound action time 0, got %f", got)
	}
}

func TestCrossFadeUnknownClip(t *testing.T) {
	m := NewMixer(twoBoneSkeleton())
	if _, err := m.CrossFadeTo("Missing", 0.3); err == nil {
		t.Error("expected error for unknown clip name")
	}
}

func TestLoopOnceClampsAndNotifies(t *testing.T) {
	m := NewMixer(twoBoneSkeleton())
	action := m.Register(raiseArmClip("Raise", 1))
	action.SetLoopOnce(true)

	var finishedName string
	m.SetOnFinished(func(name string) { finishedName = name })

	if _, err := m.CrossFadeTo("Raise", 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	m.Update(0.6)
	if finishedName != "" {
		t.Errorf("finished fired too early with %q", finishedName)
	}

	m.Update(0.6)
	if finishedName != "Raise" {
		t.Errorf("expected finished callback for Raise, got %q", finishedName)
	}
	if got := action.Time(); got != 1 {
		t.Errorf("expected time clamped to duration 1, got %f", got)
	}
	if !action.Finished() {
		t.Error("expected action to report finished")
	}

	// The clamped final pose keeps contributing to the blend.
	if !action.Running() {
		t.Error("expected clamped action to stay running")
	}
	palette := m.Palette()
	if !approx(palette[16+13], 1) {
		t.Errorf("expected final pose y offset 1, got %f", palette[16+13])
	}
}

func TestLoopingWrapsAround(t *testing.T) {
	m := NewMixer(twoBoneSkeleton())
	action := m.Register(raiseArmClip("Raise", 1))

	if _, err := m.CrossFadeTo("Raise", 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m.Update(2.25)

	if !approx(action.Time(), 0.25) {
		t.Errorf("expected wrapped time 0.25, got %f", action.Time())
	}
	if action.Finished() {
		t.Error("looping action must not finish")
	}
}

func TestActionTimeScaleSlowsPlayback(t *testing.T) {
	m := NewMixer(twoBoneSkeleton())
	action := m.Register(raiseArmClip("Raise", 10))
	action.SetTimeScale(0.7)

	if _, err := m.CrossFadeTo("Raise", 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m.Update(1)

	if !approx(action.Time(), 0.7) {
		t.Errorf("expected time 0.7 after one second at 0.7x, got %f", action.Time())
	}
}

func TestGlobalTimeScale(t *testing.T) {
	m := NewMixer(twoBoneSkeleton())
	action := m.Register(raiseArmClip("Raise", 10))
	m.SetTimeScale(0.5)

	if _, err := m.CrossFadeTo("Raise", 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m.Update(1)

	if !approx(action.Time(), 0.5) {
		t.Errorf("expected time 0.5 at half global speed, got %f", action.Time())
	}
	if got := m.TimeScale(); got != 0.5 {
		t.Errorf("expected global time scale 0.5, got %f", got)
	}
}

func TestStopAllClearsBlend(t *testing.T) {
	m := NewMixer(twoBoneSkeleton())
	m.Register(raiseArmClip("Raise", 1))

	if _, err := m.CrossFadeTo("Raise", 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m.Update(0.5)
	m.StopAll()
	m.Update(0.1)

	if m.Action("Raise").Running() {
		t.Error("expected action stopped")
	}
	// With nothing playing the palette returns to the bind pose.
	if got := m.Palette()[16+13]; !approx(got, 0) {
		t.Errorf("expected bind pose after StopAll, got y offset %f", got)
	}
}

func TestActionNamesKeepRegistrationOrder(t *testing.T) {
	m := NewMixer(twoBoneSkeleton())
	m.Register(raiseArmClip("B", 1))
	m.Register(raiseArmClip("A", 1))
	m.Register(raiseArmClip("B", 2))

	names := m.ActionNames()
	if len(names) != 2 || names[0] != "B" || names[1] != "A" {
		t.Errorf("unexpected action names: %v", names)
	}
	if got := m.Action("B").Duration(); got != 2 {
		t.Errorf("expected re-registered duration 2, got %f", got)
	}
}

func TestSampleChannelClampsOutsideTrack(t *testing.T) {
	clip := raiseArmClip("Raise", 1)
	bind := model.IdentityTransform()

	before := sampleChannel(&clip.Channels[0], -1, &bind)
	if !approx(before.translation[1], 1) {
		t.Errorf("expected clamp to first key, got %f", before.translation[1])
	}

	after := sampleChannel(&clip.Channels[0], 5, &bind)
	if !approx(after.translation[1], 2) {
		t.Errorf("expected clamp to last key, got %f", after.translation[1])
	}
}

func TestSampleChannelFallsBackToBind(t *testing.T) {
	ch := &model.AnimationChannel{
		BoneName: "Arm",
		RotationKeys: []model.QuaternionKeyframe{
			{Time: 0, Value: [4]float32{0, 0, 0, 1}},
		},
	}
	bind := model.IdentityTransform()
	bind.Translation = [3]float32{3, 4, 5}

	s := sampleChannel(ch, 0.5, &bind)
	if s.translation != bind.Translation {
		t.Errorf("expected bind translation fallback, got %v", s.translation)
	}
	if s.scale != [3]float32{1, 1, 1} {
		t.Errorf("expected bind scale fallback, got %v", s.scale)
	}
}
