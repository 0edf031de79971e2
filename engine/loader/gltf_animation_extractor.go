package loader

import (
	"fmt"

	"github.com/silentbridge/signavatar/engine/model"
)

// extractAnimation converts a glTF animation into an AnimationClip.
//
// Translation, rotation, and scale channels targeting the same bone are
// merged into a single AnimationChannel. Each channel records the target
// bone's name so the clip can later be rebound to a different skeleton by
// name. boneMapping maps glTF node indices to sorted skeleton bone
// indices; channels targeting nodes outside the mapping keep BoneIndex -1
// and rely on name rebinding.
//
// Parameters:
//   - p: the parser containing a loaded document
//   - animIndex: the index of the animation in the document
//   - boneMapping: maps glTF node index to skeleton bone index (may be empty)
//
// Returns:
//   - *model.AnimationClip: the extracted clip
//   - error: error if extraction fails
func extractAnimation(p *gltfParser, animIndex int, boneMapping map[int]int32) (*model.AnimationClip, error) {
	doc := p.Document()
	if doc == nil {
		return nil, fmt.Errorf("no document loaded")
	}
	if animIndex < 0 || animIndex >= len(doc.Animations) {
		return nil, fmt.Errorf("animation index %d out of range", animIndex)
	}

	anim := &doc.Animations[animIndex]

	// Group channels by target node so translation/rotation/scale merge
	// into one AnimationChannel per bone.
	channelMap := make(map[int]*model.AnimationChannel)
	channelOrder := make([]int, 0, len(anim.Channels))

	var maxTime float32

	for i := range anim.Channels {
		ch := &anim.Channels[i]

		// Channels with no target node (morph targets) are skipped.
		if ch.Target.Node == nil || ch.Target.Path == gltfAnimPathWeights {
			continue
		}
		nodeIndex := *ch.Target.Node
		if nodeIndex < 0 || nodeIndex >= len(doc.Nodes) {
			return nil, fmt.Errorf("animation %q channel %d: invalid target node %d", anim.Name, i, nodeIndex)
		}

		if ch.Sampler < 0 || ch.Sampler >= len(anim.Samplers) {
			return nil, fmt.Errorf("animation %q channel %d: invalid sampler index %d", anim.Name, i, ch.Sampler)
		}
		sampler := &anim.Samplers[ch.Sampler]

		timestamps, err := p.ReadScalarAccessor(sampler.Input)
		if err != nil {
			return nil, fmt.Errorf("animation %q channel %d: failed to read timestamps: %w", anim.Name, i, err)
		}

		if len(timestamps) > 0 {
			if t := timestamps[len(timestamps)-1]; t > maxTime {
				maxTime = t
			}
		}

		animCh, exists := channelMap[nodeIndex]
		if !exists {
			boneIndex := int32(-1)
			if idx, ok := boneMapping[nodeIndex]; ok {
				boneIndex = idx
			}
			animCh = &model.AnimationChannel{
				BoneIndex: boneIndex,
				BoneName:  doc.Nodes[nodeIndex].Name,
			}
			channelMap[nodeIndex] = animCh
			channelOrder = append(channelOrder, nodeIndex)
		}

		switch ch.Target.Path {
		case gltfAnimPathTranslation:
			values, err := p.ReadVec3Accessor(sampler.Output)
			if err != nil {
				return nil, fmt.Errorf("animation %q channel %d: failed to read translation values: %w", anim.Name, i, err)
			}
			animCh.PositionKeys = makeVectorKeys(timestamps, values)

		case gltfAnimPathRotation:
			values, err := p.ReadVec4Accessor(sampler.Output)
			if err != nil {
				return nil, fmt.Errorf("animation %q channel %d: failed to read rotation values: %w", anim.Name, i, err)
			}
			keys := make([]model.QuaternionKeyframe, min(len(timestamps), len(values)))
			for j := range keys {
				keys[j] = model.QuaternionKeyframe{Time: timestamps[j], Value: values[j]}
			}
			animCh.RotationKeys = keys

		case gltfAnimPathScale:
			values, err := p.ReadVec3Accessor(sampler.Output)
			if err != nil {
				return nil, fmt.Errorf("animation %q channel %d: failed to read scale values: %w", anim.Name, i, err)
			}
			animCh.ScaleKeys = makeVectorKeys(timestamps, values)
		}
	}

	// Flatten in first-seen order so extraction is deterministic.
	channels := make([]model.AnimationChannel, 0, len(channelOrder))
	for _, nodeIndex := range channelOrder {
		channels = append(channels, *channelMap[nodeIndex])
	}

	name := anim.Name
	if name == "" {
		name = fmt.Sprintf("animation_%d", animIndex)
	}

	return &model.AnimationClip{
		Name:     name,
		Duration: maxTime,
		Channels: channels,
	}, nil
}

// extractAllAnimations extracts every animation from the document.
func extractAllAnimations(p *gltfParser, boneMapping map[int]int32) ([]*model.AnimationClip, error) {
	doc := p.Document()
	if doc == nil {
		return nil, fmt.Errorf("no document loaded")
	}

	clips := make([]*model.AnimationClip, len(doc.Animations))
	for i := range doc.Animations {
		clip, err := extractAnimation(p, i, boneMapping)
		if err != nil {
			return nil, fmt.Errorf("animation %d: %w", i, err)
		}
		clips[i] = clip
	}

	return clips, nil
}

func makeVectorKeys(timestamps []float32, values [][3]float32) []model.VectorKeyframe {
	keys := make([]model.VectorKeyframe, min(len(timestamps), len(values)))
	for j := range keys {
		keys[j] = model.VectorKeyframe{Time: timestamps[j], Value: values[j]}
	}
	return keys
}
