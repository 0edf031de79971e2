package renderer

import (
	"testing"
	"unsafe"

	"github.com/silentbridge/signavatar/engine/model"
)

func TestUniformSizesMatchGPULayout(t *testing.T) {
	if got := unsafe.Sizeof(sceneUniform{}); got != sceneUniformSize {
		t.Errorf("sceneUniform size = %d, expected %d", got, sceneUniformSize)
	}
	if got := unsafe.Sizeof(modelUniform{}); got != modelUniformSize {
		t.Errorf("modelUniform size = %d, expected %d", got, modelUniformSize)
	}
	if got := unsafe.Sizeof(model.SkinnedVertex{}); got != model.VertexStride {
		t.Errorf("SkinnedVertex size = %d, expected %d", got, model.VertexStride)
	}
}

func TestFrameSceneDataPacking(t *testing.T) {
	f := &Frame{
		CameraPosition:   [3]float32{1, 2, 3},
		AmbientColor:     [3]float32{1, 1, 1},
		AmbientIntensity: 0.6,
		LightDirection:   [3]float32{0, -1, 0},
		LightColor:       [3]float32{1, 0.9, 0.8},
		LightIntensity:   0.8,
	}
	f.ViewProjection[0] = 42

	scene := f.sceneData()
	if scene.ViewProjection[0] != 42 {
		t.Errorf("view projection not carried through, got %f", scene.ViewProjection[0])
	}
	if scene.CameraPosition != [4]float32{1, 2, 3, 1} {
		t.Errorf("unexpected camera position: %v", scene.CameraPosition)
	}
	if scene.Ambient != [4]float32{1, 1, 1, 0.6} {
		t.Errorf("unexpected ambient: %v", scene.Ambient)
	}
	if scene.LightDirection != [4]float32{0, -1, 0, 0} {
		t.Errorf("unexpected light direction: %v", scene.LightDirection)
	}
	if scene.LightColor[3] != 0.8 {
		t.Errorf("unexpected light intensity: %f", scene.LightColor[3])
	}
}
