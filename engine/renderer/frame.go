package renderer

// MeshID identifies a mesh uploaded to the GPU via UploadMesh.
type MeshID uint64

// Frame describes everything needed to draw one image: the camera, the
// light rig, and the meshes to draw with their transforms and poses.
type Frame struct {
	// ViewProjection is the camera's combined view-projection matrix,
	// column-major.
	ViewProjection [16]float32

	// CameraPosition is the camera's world-space position.
	CameraPosition [3]float32

	// AmbientColor and AmbientIntensity describe the scene's ambient light.
	AmbientColor     [3]float32
	AmbientIntensity float32

	// LightDirection is the direction the directional light shines toward,
	// in world space. It does not need to be normalized.
	LightDirection [3]float32

	// LightColor and LightIntensity describe the directional light.
	LightColor     [3]float32
	LightIntensity float32

	// Items are the draw calls for this frame, drawn in order.
	Items []DrawItem
}

// DrawItem is a single mesh instance to draw.
type DrawItem struct {
	// Mesh is the GPU mesh to draw, as returned by UploadMesh.
	Mesh MeshID

	// ModelMatrix is the mesh's world transform, column-major.
	ModelMatrix [16]float32

	// Palette is the bone matrix palette for skinned meshes, 16 floats per
	// bone. A nil palette draws the mesh with the static pipeline.
	Palette []float32
}

// sceneData packs a Frame's camera and lights into the GPU uniform layout.
func (f *Frame) sceneData() sceneUniform {
	return sceneUniform{
		ViewProjection: f.ViewProjection,
		CameraPosition: [4]float32{f.CameraPosition[0], f.CameraPosition[1], f.CameraPosition[2], 1},
		Ambient:        [4]float32{f.AmbientColor[0], f.AmbientColor[1], f.AmbientColor[2], f.AmbientIntensity},
		LightDirection: [4]float32{f.LightDirection[0], f.LightDirection[1], f.LightDirection[2], 0},
		LightColor:     [4]float32{f.LightColor[0], f.LightColor[1], f.LightColor[2], f.LightIntensity},
	}
}
