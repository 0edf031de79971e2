package model

// SkinnedVertex is the GPU vertex layout shared by the skinned and static
// pipelines. Static geometry uploads the same layout with zero bone weights.
//
// The field order matches the WGSL vertex input struct and must not change
// without updating the shaders and the vertex buffer layout.
type SkinnedVertex struct {
	// Position in model space, offset 0.
	Position [3]float32

	// Normal in model space, offset 12.
	Normal [3]float32

	// TexCoord UV, offset 24.
	TexCoord [2]float32

	// Color RGBA vertex color, offset 32.
	Color [4]float32

	// BoneIndices are skeleton bone indices, offset 48.
	BoneIndices [4]uint32

	// BoneWeights are skinning weights summing to 1, offset 64.
	BoneWeights [4]float32
}

// Vertex attribute offsets and stride in bytes.
const (
	VertexPositionOffset = 0
	VertexNormalOffset   = 12
	VertexTexCoordOffset = 24
	VertexColorOffset    = 32
	VertexJointsOffset   = 48
	VertexWeightsOffset  = 64
	VertexStride         = 80
)
