package loader

import (
	"fmt"
	"math"

	"github.com/silentbridge/signavatar/engine/model"
)

// extractSkeleton converts a glTF skin into a Skeleton with topologically
// sorted bones (parents before children). It also returns the old-to-new
// bone index mapping, needed to remap mesh bone indices after sorting.
//
// Parameters:
//   - p: the parser containing a loaded document
//   - skinIndex: the index of the skin to extract
//
// Returns:
//   - *model.Skeleton: the extracted skeleton
//   - map[int32]int32: mapping from pre-sort bone index to post-sort index
//   - error: error if extraction fails
func extractSkeleton(p *gltfParser, skinIndex int) (*model.Skeleton, map[int32]int32, error) {
	doc := p.Document()
	if doc == nil {
		return nil, nil, fmt.Errorf("no document loaded")
	}
	if skinIndex < 0 || skinIndex >= len(doc.Skins) {
		return nil, nil, fmt.Errorf("skin index %d out of range", skinIndex)
	}

	skin := &doc.Skins[skinIndex]

	// Inverse bind matrices are optional but usually present.
	var inverseBindMatrices [][16]float32
	if skin.InverseBindMatrices != nil {
		var err error
		inverseBindMatrices, err = p.ReadMat4Accessor(*skin.InverseBindMatrices)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read inverse bind matrices: %w", err)
		}
	}

	// First pass: create bones and map names.
	bones := make([]model.Bone, len(skin.Joints))
	nameToIndex := make(map[string]int32)

	for i, jointIndex := range skin.Joints {
		if jointIndex < 0 || jointIndex >= len(doc.Nodes) {
			return nil, nil, fmt.Errorf("joint %d: invalid node index %d", i, jointIndex)
		}

		node := &doc.Nodes[jointIndex]
		bone := &bones[i]

		bone.Name = node.Name
		if bone.Name == "" {
			bone.Name = fmt.Sprintf("bone_%d", i)
		}
		nameToIndex[bone.Name] = int32(i)

		if i < len(inverseBindMatrices) {
			bone.InverseBindMatrix = inverseBindMatrices[i]
		} else {
			bone.InverseBindMatrix = [16]float32{
				1, 0, 0, 0,
				0, 1, 0, 0,
				0, 0, 1, 0,
				0, 0, 0, 1,
			}
		}

		bone.BindTransform = gltfNodeTransform(node)
	}

	// Second pass: establish parent relationships by scanning node children.
	nodeToBone := make(map[int]int32)
	for boneIdx, jointNodeIdx := range skin.Joints {
		nodeToBone[jointNodeIdx] = int32(boneIdx)
	}

	var rootIndices []int32
	for boneIdx, jointNodeIdx := range skin.Joints {
		parentFound := false

		for nodeIdx := range doc.Nodes {
			for _, childIdx := range doc.Nodes[nodeIdx].Children {
				if childIdx == jointNodeIdx {
					if parentBoneIdx, ok := nodeToBone[nodeIdx]; ok {
						bones[boneIdx].ParentIndex = parentBoneIdx
						parentFound = true
					}
					break
				}
			}
			if parentFound {
				break
			}
		}

		if !parentFound {
			bones[boneIdx].ParentIndex = -1
			rootIndices = append(rootIndices, int32(boneIdx))
		}
	}

	sortedBones, sortedRoots, sortedNames, oldToNew := topologicalSortBones(bones, rootIndices)

	return &model.Skeleton{
		Bones:       sortedBones,
		RootIndices: sortedRoots,
		NameToIndex: sortedNames,
	}, oldToNew, nil
}

// findSkinForMesh finds which skin is associated with a mesh by scanning
// the node hierarchy. Returns -1 if none.
func findSkinForMesh(doc *gltfDocument, meshIndex int) int {
	for i := range doc.Nodes {
		node := &doc.Nodes[i]
		if node.Mesh != nil && *node.Mesh == meshIndex && node.Skin != nil {
			return *node.Skin
		}
	}
	return -1
}

// gltfNodeTransform extracts the TRS transform of a glTF node, decomposing
// the matrix form when present.
func gltfNodeTransform(node *gltfNode) model.Transform {
	if node.Matrix != nil {
		return decomposeMatrix(*node.Matrix)
	}

	transform := model.IdentityTransform()
	if node.Translation != nil {
		transform.Translation = *node.Translation
	}
	if node.Rotation != nil {
		transform.Rotation = *node.Rotation
	}
	if node.Scale != nil {
		transform.Scale = *node.Scale
	}
	return transform
}

// decomposeMatrix decomposes a column-major 4x4 matrix into translation,
// rotation, and scale. Assumes no shear.
func decomposeMatrix(m [16]float32) model.Transform {
	var t model.Transform

	t.Translation = [3]float32{m[12], m[13], m[14]}

	sx := vecLength(m[0], m[1], m[2])
	sy := vecLength(m[4], m[5], m[6])
	sz := vecLength(m[8], m[9], m[10])
	t.Scale = [3]float32{sx, sy, sz}

	if sx < 0.0001 {
		sx = 1
	}
	if sy < 0.0001 {
		sy = 1
	}
	if sz < 0.0001 {
		sz = 1
	}

	r := [9]float32{
		m[0] / sx, m[1] / sx, m[2] / sx,
		m[4] / sy, m[5] / sy, m[6] / sy,
		m[8] / sz, m[9] / sz, m[10] / sz,
	}

	t.Rotation = matrixToQuaternion(r)
	return t
}

func vecLength(x, y, z float32) float32 {
	return float32(math.Sqrt(float64(x*x + y*y + z*z)))
}

// matrixToQuaternion converts a 3x3 rotation matrix to a quaternion.
// Matrix is row-major: [r00, r01, r02, r10, r11, r12, r20, r21, r22].
// Returns quaternion as [x, y, z, w].
func matrixToQuaternion(m [9]float32) [4]float32 {
	r00, r01, r02 := m[0], m[1], m[2]
	r10, r11, r12 := m[3], m[4], m[5]
	r20, r21, r22 := m[6], m[7], m[8]

	trace := r00 + r11 + r22

	var x, y, z, w float32

	if trace > 0 {
		s := float32(math.Sqrt(float64(trace+1.0))) * 2
		w = 0.25 * s
		x = (r21 - r12) / s
		y = (r02 - r20) / s
		z = (r10 - r01) / s
	} else if r00 > r11 && r00 > r22 {
		s := float32(math.Sqrt(float64(1.0+r00-r11-r22))) * 2
		w = (r21 - r12) / s
		x = 0.25 * s
		y = (r01 + r10) / s
		z = (r02 + r20) / s
	} else if r11 > r22 {
		s := float32(math.Sqrt(float64(1.0+r11-r00-r22))) * 2
		w = (r02 - r20) / s
		x = (r01 + r10) / s
		y = 0.25 * s
		z = (r12 + r21) / s
	} else {
		s := float32(math.Sqrt(float64(1.0+r22-r00-r11))) * 2
		w = (r10 - r01) / s
		x = (r02 + r20) / s
		y = (r12 + r21) / s
		z = 0.25 * s
	}

	length := float32(math.Sqrt(float64(x*x + y*y + z*z + w*w)))
	if length > 0.0001 {
		x /= length
		y /= length
		z /= length
		w /= length
	}

	return [4]float32{x, y, z, w}
}

// topologicalSortBones sorts bones so that parents always come before
// children. The mixer's hierarchy walk relies on this ordering: it
// iterates bones forward and multiplies by the parent's already-computed
// world matrix.
//
// Parameters:
//   - bones: original bone array
//   - rootIndices: indices of root bones (no parent)
//
// Returns:
//   - []model.Bone: sorted bone array with updated parent indices
//   - []int32: new root indices
//   - map[string]int32: updated name-to-index mapping
//   - map[int32]int32: old bone index to new bone index mapping
func topologicalSortBones(bones []model.Bone, rootIndices []int32) ([]model.Bone, []int32, map[string]int32, map[int32]int32) {
	if len(bones) == 0 {
		return bones, rootIndices, map[string]int32{}, map[int32]int32{}
	}

	children := make(map[int32][]int32)
	for i := range bones {
		if bones[i].ParentIndex >= 0 {
			children[bones[i].ParentIndex] = append(children[bones[i].ParentIndex], int32(i))
		}
	}

	// BFS from the roots gives a parents-first order.
	sorted := make([]int32, 0, len(bones))
	queue := append([]int32(nil), rootIndices...)

	for len(queue) > 0 {
		oldIdx := queue[0]
		queue = queue[1:]
		sorted = append(sorted, oldIdx)
		queue = append(queue, children[oldIdx]...)
	}

	// Disconnected bones get appended at the end.
	if len(sorted) < len(bones) {
		visited := make(map[int32]bool, len(sorted))
		for _, idx := range sorted {
			visited[idx] = true
		}
		for i := range bones {
			if !visited[int32(i)] {
				sorted = append(sorted, int32(i))
			}
		}
	}

	oldToNew := make(map[int32]int32, len(sorted))
	for newIdx, oldIdx := range sorted {
		oldToNew[oldIdx] = int32(newIdx)
	}

	newBones := make([]model.Bone, len(bones))
	newNameToIndex := make(map[string]int32, len(bones))
	var newRootIndices []int32

	for newIdx, oldIdx := range sorted {
		bone := bones[oldIdx]

		if bone.ParentIndex >= 0 {
			bone.ParentIndex = oldToNew[bone.ParentIndex]
		} else {
			newRootIndices = append(newRootIndices, int32(newIdx))
		}

		newBones[newIdx] = bone
		newNameToIndex[bone.Name] = int32(newIdx)
	}

	return newBones, newRootIndices, newNameToIndex, oldToNew
}
