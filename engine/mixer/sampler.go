package mixer

import (
	"github.com/silentbridge/signavatar/common"
	"github.com/silentbridge/signavatar/engine/model"
)

// boneSample is a local-space pose for one bone, accumulated across the
// active actions.
type boneSample struct {
	translation [3]float32
	rotation    [4]float32
	scale       [3]float32

	accumWeight float32
}

// blend folds another weighted sample into this one. The first contribution
// replaces the bind pose outright; later contributions interpolate toward
// their value with t = weight / accumulated, which keeps pairwise blending
// equivalent to a normalized weighted average.
func (s *boneSample) blend(other boneSample, weight float32) {
	if weight <= 0 {
		return
	}

	if s.accumWeight <= 0 {
		s.translation = other.translation
		s.rotation = other.rotation
		s.scale = other.scale
		s.accumWeight = weight
		return
	}

	s.accumWeight += weight
	t := weight / s.accumWeight
	s.translation = common.Lerp3(s.translation, other.translation, t)
	s.rotation = common.Slerp(s.rotation, other.rotation, t)
	s.scale = common.Lerp3(s.scale, other.scale, t)
}

// sampleChannel evaluates a channel at a playback time, interpolating
// between the bracketing keyframes. Components the channel does not animate
// fall back to the bone's bind transform.
func sampleChannel(ch *model.AnimationChannel, time float32, bind *model.Transform) boneSample {
	sample := boneSample{
		translation: bind.Translation,
		rotation:    bind.Rotation,
		scale:       bind.Scale,
	}

	if len(ch.PositionKeys) > 0 {
		sample.translation = sampleVectorKeys(ch.PositionKeys, time)
	}
	if len(ch.RotationKeys) > 0 {
		sample.rotation = sampleQuaternionKeys(ch.RotationKeys, time)
	}
	if len(ch.ScaleKeys) > 0 {
		sample.scale = sampleVectorKeys(ch.ScaleKeys, time)
	}

	return sample
}

// sampleVectorKeys linearly interpolates a vector track. Times before the
// first key or after the last clamp to the endpoint values.
func sampleVectorKeys(keys []model.VectorKeyframe, time float32) [3]float32 {
	if time <= keys[0].Time {
		return keys[0].Value
	}
	last := len(keys) - 1
	if time >= keys[last].Time {
		return keys[last].Value
	}

	i := bracketIndex(len(keys), time, func(k int) float32 { return keys[k].Time })
	a, b := &keys[i], &keys[i+1]
	t := keyBlendFactor(a.Time, b.Time, time)
	return common.Lerp3(a.Value, b.Value, t)
}

// sampleQuaternionKeys spherically interpolates a rotation track with the
// same endpoint clamping as vector tracks.
func sampleQuaternionKeys(keys []model.QuaternionKeyframe, time float32) [4]float32 {
	if time <= keys[0].Time {
		return keys[0].Value
	}
	last := len(keys) - 1
	if time >= keys[last].Time {
		return keys[last].Value
	}

	i := bracketIndex(len(keys), time, func(k int) float32 { return keys[k].Time })
	a, b := &keys[i], &keys[i+1]
	t := keyBlendFactor(a.Time, b.Time, time)
	return common.Slerp(a.Value, b.Value, t)
}

// bracketIndex finds i such that time(i) <= t < time(i+1) by binary search.
// Callers guarantee t lies strictly inside the track.
func bracketIndex(count int, t float32, timeAt func(int) float32) int {
	lo, hi := 0, count-1
	for hi-lo > 1 {
		mid := (lo + hi) / 2
		if timeAt(mid) <= t {
			lo = mid
		} else {
			hi = mid
		}
	}
	return lo
}

// keyBlendFactor maps a time between two keyframes to [0, 1], treating
// coincident keyframes as a step.
func keyBlendFactor(t0, t1, t float32) float32 {
	span := t1 - t0
	if span <= 0 {
		return 0
	}
	return (t - t0) / span
}
