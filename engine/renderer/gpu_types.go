package renderer

// maxPaletteBones is the bone capacity of every palette storage buffer.
// Sign avatars sit well under this; exceeding it fails mesh upload.
const maxPaletteBones = 256

// sceneUniform is the per-frame GPU uniform shared by every draw call.
// Field order and padding match the SceneUniform struct in the WGSL
// shaders; vec3 data is padded to vec4 per WGSL alignment rules.
type sceneUniform struct {
	ViewProjection [16]float32
	CameraPosition [4]float32 // xyz + padding
	Ambient        [4]float32 // rgb + intensity
	LightDirection [4]float32 // xyz + padding
	LightColor     [4]float32 // rgb + intensity
}

// modelUniform is the per-draw GPU uniform, matching the ModelUniform
// struct in the WGSL shaders.
type modelUniform struct {
	Model     [16]float32
	BaseColor [4]float32
}

const (
	sceneUniformSize = 16*4 + 4*4*4
	modelUniformSize = 16*4 + 4*4
	paletteBufferSize = maxPaletteBones * 16 * 4
)
