// package model holds the CPU-side representation of an imported character:
// meshes, skeleton, and animation clips. Importers produce these types and
// the mixer and renderer consume them.
package model

import (
	"github.com/silentbridge/signavatar/common"
)

// Transform is a decomposed local transform used for keyframe interpolation.
type Transform struct {
	// Translation is the position offset.
	Translation [3]float32

	// Rotation is the orientation as a quaternion (x, y, z, w).
	Rotation [4]float32

	// Scale is the scale factor along each axis.
	Scale [3]float32
}

// IdentityTransform returns a transform with no translation, identity
// rotation, and unit scale.
func IdentityTransform() Transform {
	return Transform{
		Rotation: [4]float32{0, 0, 0, 1},
		Scale:    [3]float32{1, 1, 1},
	}
}

// Bone is a single joint in a skeleton hierarchy.
type Bone struct {
	// Name identifies the bone for animation targeting and debugging.
	Name string

	// ParentIndex is the index of the parent bone (-1 for roots).
	// Bones are stored parents-before-children so a single forward pass
	// can compute world transforms.
	ParentIndex int32

	// InverseBindMatrix transforms from model space to bone space at
	// bind pose, column-major.
	InverseBindMatrix [16]float32

	// BindTransform is the bone's rest transform relative to its parent.
	BindTransform Transform
}

// Skeleton is a bone hierarchy for skeletal animation.
type Skeleton struct {
	// Bones in topological order (parents before children).
	Bones []Bone

	// RootIndices are indices of bones with no parent.
	RootIndices []int32

	// NameToIndex maps bone names to their indices.
	NameToIndex map[string]int32
}

// AnimationClip is a single named animation.
type AnimationClip struct {
	// Name is the clip identifier used by the action registry.
	Name string

	// Duration is the clip length in seconds.
	Duration float32

	// Channels holds keyframe data per animated bone.
	Channels []AnimationChannel
}

// AnimationChannel contains keyframe tracks for a single bone.
type AnimationChannel struct {
	// BoneIndex is the skeleton bone this channel animates, or -1 when the
	// clip was imported standalone and has not been bound to a skeleton yet.
	BoneIndex int32

	// BoneName is the name of the targeted bone. Used to rebind the
	// channel when a clip from one file is played on a character from
	// another.
	BoneName string

	// PositionKeys are translation keyframes.
	PositionKeys []VectorKeyframe

	// RotationKeys are quaternion keyframes.
	RotationKeys []QuaternionKeyframe

	// ScaleKeys are scale keyframes.
	ScaleKeys []VectorKeyframe
}

// VectorKeyframe stores a 3D vector value at a timestamp in seconds.
type VectorKeyframe struct {
	Time  float32
	Value [3]float32
}

// QuaternionKeyframe stores a rotation (x, y, z, w) at a timestamp in seconds.
type QuaternionKeyframe struct {
	Time  float32
	Value [4]float32
}

// Mesh is a single renderable mesh of an imported character.
type Mesh struct {
	// Name is the mesh identifier.
	Name string

	// Vertices are the skinned vertices (static meshes carry zero weights).
	Vertices []SkinnedVertex

	// Indices are the triangle indices.
	Indices []uint32

	// BaseColor is the material albedo (RGBA).
	BaseColor [4]float32

	// Bounds is the mesh bounding box in model space.
	Bounds common.AABB
}

// Character is a fully imported asset: meshes, optional skeleton, and any
// animation clips bundled in the file. Sign action files typically carry
// clips with no meshes.
type Character struct {
	// Name is derived from the scene name or the source path.
	Name string

	// Meshes contains all renderable geometry.
	Meshes []Mesh

	// Skeleton is the bone hierarchy (nil for static assets).
	Skeleton *Skeleton

	// Clips are the animation clips bundled with the asset.
	Clips []*AnimationClip
}

// Bounds returns the union of all mesh bounding boxes.
//
// Returns:
//   - common.AABB: the combined box (invalid when the character has no meshes)
func (c *Character) Bounds() common.AABB {
	box := common.NewAABB()
	for i := range c.Meshes {
		box.Union(c.Meshes[i].Bounds)
	}
	return box
}

// ClipNames returns the names of all bundled clips in file order.
//
// Returns:
//   - []string: clip names, empty when the asset has none
func (c *Character) ClipNames() []string {
	names := make([]string, 0, len(c.Clips))
	for _, clip := range c.Clips {
		names = append(names, clip.Name)
	}
	return names
}
