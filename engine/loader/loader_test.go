package loader

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"testing"
)

// buildGLB assembles a GLB payload from a JSON document and an optional
// binary chunk, with the 4-byte chunk padding the format requires.
func buildGLB(t *testing.T, jsonDoc string, bin []byte) []byte {
	t.Helper()

	jsonChunk := []byte(jsonDoc)
	for len(jsonChunk)%4 != 0 {
		jsonChunk = append(jsonChunk, ' ')
	}

	binChunk := append([]byte(nil), bin...)
	for len(binChunk)%4 != 0 {
		binChunk = append(binChunk, 0)
	}

	var buf bytes.Buffer
	total := 12 + 8 + len(jsonChunk)
	if len(binChunk) > 0 {
		total += 8 + len(binChunk)
	}

	write := func(v any) {
		if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
			t.Fatalf("buildGLB: %v", err)
		}
	}

	write(uint32(gltfGLBMagic))
	write(uint32(gltfGLBVersion))
	write(uint32(total))

	write(uint32(len(jsonChunk)))
	write(uint32(gltfGLBChunkJSON))
	buf.Write(jsonChunk)

	if len(binChunk) > 0 {
		write(uint32(len(binChunk)))
		write(uint32(gltfGLBChunkBIN))
		buf.Write(binChunk)
	}

	return buf.Bytes()
}

func f32bytes(t *testing.T, vals ...float32) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, vals); err != nil {
		t.Fatalf("f32bytes: %v", err)
	}
	return buf.Bytes()
}

func u16bytes(t *testing.T, vals ...uint16) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, vals); err != nil {
		t.Fatalf("u16bytes: %v", err)
	}
	return buf.Bytes()
}

func TestParseGLBBadMagic(t *testing.T) {
	data := buildGLB(t, `{"asset":{"version":"2.0"}}`, nil)
	binary.LittleEndian.PutUint32(data[0:4], 0xDEADBEEF)

	p := newGLTFParser()
	if err := p.ParseBytes(data, ""); err != errInvalidGLBMagic {
		t.Errorf("ParseBytes error = %v, want errInvalidGLBMagic", err)
	}
}

func TestParseGLBWrongVersion(t *testing.T) {
	data := buildGLB(t, `{"asset":{"version":"2.0"}}`, nil)
	binary.LittleEndian.PutUint32(data[4:8], 1)

	p := newGLTFParser()
	if err := p.ParseBytes(data, ""); err != errInvalidGLBVersion {
		t.Errorf("ParseBytes error = %v, want errInvalidGLBVersion", err)
	}
}

func TestParseGLBRejectsOldGLTFVersion(t *testing.T) {
	data := buildGLB(t, `{"asset":{"version":"1.0"}}`, nil)

	p := newGLTFParser()
	if err := p.ParseBytes(data, ""); err != errInvalidGLTFVersion {
		t.Errorf("ParseBytes error = %v, want errInvalidGLTFVersion", err)
	}
}

func TestParseGLBTooSmall(t *testing.T) {
	p := newGLTFParser()
	if err := p.ParseBytes([]byte{0x67, 0x6C, 0x54, 0x46}, ""); err == nil {
		t.Error("ParseBytes should fail on a truncated header")
	}
}

// triangleGLB builds a single red triangle with uint16 indices and no
// normals, exercising normal generation and material resolution.
func triangleGLB(t *testing.T) []byte {
	t.Helper()

	bin := f32bytes(t,
		0, 0, 0,
		1, 0, 0,
		0, 1, 0,
	)
	bin = append(bin, u16bytes(t, 0, 1, 2)...)

	doc := `{
		"asset": {"version": "2.0"},
		"scene": 0,
		"scenes": [{"name": "Triangle", "nodes": [0]}],
		"nodes": [{"name": "tri", "mesh": 0}],
		"meshes": [{"name": "tri", "primitives": [
			{"attributes": {"POSITION": 0}, "indices": 1, "material": 0}
		]}],
		"materials": [{"pbrMetallicRoughness": {"baseColorFactor": [1, 0, 0, 1]}}],
		"accessors": [
			{"bufferView": 0, "componentType": 5126, "count": 3, "type": "VEC3"},
			{"bufferView": 1, "componentType": 5123, "count": 3, "type": "SCALAR"}
		],
		"bufferViews": [
			{"buffer": 0, "byteOffset": 0, "byteLength": 36},
			{"buffer": 0, "byteOffset": 36, "byteLength": 6}
		],
		"buffers": [{"byteLength": 42}]
	}`

	return buildGLB(t, doc, bin)
}

func TestImportTriangle(t *testing.T) {
	p := newGLTFParser()
	if err := p.ParseBytes(triangleGLB(t), ""); err != nil {
		t.Fatalf("ParseBytes: %v", err)
	}

	char, err := importCharacter(p, "tri.glb")
	if err != nil {
		t.Fatalf("importCharacter: %v", err)
	}

	if char.Name != "Triangle" {
		t.Errorf("Name = %q, want scene name %q", char.Name, "Triangle")
	}
	if len(char.Meshes) != 1 {
		t.Fatalf("len(Meshes) = %d, want 1", len(char.Meshes))
	}

	mesh := &char.Meshes[0]
	if len(mesh.Vertices) != 3 || len(mesh.Indices) != 3 {
		t.Fatalf("vertices/indices = %d/%d, want 3/3", len(mesh.Vertices), len(mesh.Indices))
	}
	if mesh.BaseColor != [4]float32{1, 0, 0, 1} {
		t.Errorf("BaseColor = %v, want red", mesh.BaseColor)
	}
	if mesh.Bounds.Min != [3]float32{0, 0, 0} || mesh.Bounds.Max != [3]float32{1, 1, 0} {
		t.Errorf("Bounds = %v..%v", mesh.Bounds.Min, mesh.Bounds.Max)
	}
	// CCW triangle in the XY plane faces +Z.
	for i, v := range mesh.Vertices {
		if v.Normal != [3]float32{0, 0, 1} {
			t.Errorf("vertex %d normal = %v, want (0, 0, 1)", i, v.Normal)
		}
	}
}

// riggedGLB builds a two-bone skeleton with a single animation. The skin
// lists the child joint before its parent to exercise topological sorting.
func riggedGLB(t *testing.T) []byte {
	t.Helper()

	// times at 0 (8 bytes), translations at 8 (24), rotations at 32 (32)
	bin := f32bytes(t, 0, 1.5)
	bin = append(bin, f32bytes(t,
		0, 0, 0,
		0, 2, 0,
	)...)
	bin = append(bin, f32bytes(t,
		0, 0, 0, 1,
		0, 0, 0, 1,
	)...)

	doc := `{
		"asset": {"version": "2.0"},
		"nodes": [
			{"name": "Hips", "children": [1]},
			{"name": "Spine"}
		],
		"skins": [{"joints": [1, 0]}],
		"animations": [{
			"name": "BallSign",
			"channels": [
				{"sampler": 0, "target": {"node": 1, "path": "translation"}},
				{"sampler": 1, "target": {"node": 1, "path": "rotation"}}
			],
			"samplers": [
				{"input": 0, "output": 1},
				{"input": 0, "output": 2}
			]
		}],
		"accessors": [
			{"bufferView": 0, "componentType": 5126, "count": 2, "type": "SCALAR"},
			{"bufferView": 1, "componentType": 5126, "count": 2, "type": "VEC3"},
			{"bufferView": 2, "componentType": 5126, "count": 2, "type": "VEC4"}
		],
		"bufferViews": [
			{"buffer": 0, "byteOffset": 0, "byteLength": 8},
			{"buffer": 0, "byteOffset": 8, "byteLength": 24},
			{"buffer": 0, "byteOffset": 32, "byteLength": 32}
		],
		"buffers": [{"byteLength": 64}]
	}`

	return buildGLB(t, doc, bin)
}

func TestImportRiggedCharacter(t *testing.T) {
	p := newGLTFParser()
	if err := p.ParseBytes(riggedGLB(t), ""); err != nil {
		t.Fatalf("ParseBytes: %v", err)
	}

	char, err := importCharacter(p, "rigged.glb")
	if err != nil {
		t.Fatalf("importCharacter: %v", err)
	}

	if char.Skeleton == nil {
		t.Fatal("Skeleton is nil")
	}
	bones := char.Skeleton.Bones
	if len(bones) != 2 {
		t.Fatalf("len(Bones) = %d, want 2", len(bones))
	}

	// Parent must come first after topological sorting.
	if bones[0].Name != "Hips" || bones[0].ParentIndex != -1 {
		t.Errorf("bone 0 = %q parent %d, want Hips with parent -1", bones[0].Name, bones[0].ParentIndex)
	}
	if bones[1].Name != "Spine" || bones[1].ParentIndex != 0 {
		t.Errorf("bone 1 = %q parent %d, want Spine with parent 0", bones[1].Name, bones[1].ParentIndex)
	}
	if char.Skeleton.NameToIndex["Spine"] != 1 {
		t.Errorf("NameToIndex[Spine] = %d, want 1", char.Skeleton.NameToIndex["Spine"])
	}

	if len(char.Clips) != 1 {
		t.Fatalf("len(Clips) = %d, want 1", len(char.Clips))
	}
	clip := char.Clips[0]
	if clip.Name != "BallSign" {
		t.Errorf("clip name = %q, want BallSign", clip.Name)
	}
	if clip.Duration != 1.5 {
		t.Errorf("clip duration = %f, want 1.5", clip.Duration)
	}

	// Translation and rotation channels on the same node merge into one.
	if len(clip.Channels) != 1 {
		t.Fatalf("len(Channels) = %d, want 1", len(clip.Channels))
	}
	ch := &clip.Channels[0]
	if ch.BoneName != "Spine" {
		t.Errorf("channel bone name = %q, want Spine", ch.BoneName)
	}
	if ch.BoneIndex != 1 {
		t.Errorf("channel bone index = %d, want sorted index 1", ch.BoneIndex)
	}
	if len(ch.PositionKeys) != 2 || len(ch.RotationKeys) != 2 {
		t.Errorf("keys = %d position, %d rotation, want 2 each", len(ch.PositionKeys), len(ch.RotationKeys))
	}
	if ch.PositionKeys[1].Value != [3]float32{0, 2, 0} {
		t.Errorf("second position key = %v, want (0, 2, 0)", ch.PositionKeys[1].Value)
	}
}

func TestExtractClipsUnbound(t *testing.T) {
	p := newGLTFParser()
	if err := p.ParseBytes(riggedGLB(t), ""); err != nil {
		t.Fatalf("ParseBytes: %v", err)
	}

	// Extraction with an empty mapping leaves channels unbound but named,
	// the shape clips take when loaded from a standalone action file.
	clips, err := extractAllAnimations(p, map[int]int32{})
	if err != nil {
		t.Fatalf("extractAllAnimations: %v", err)
	}
	if len(clips) != 1 {
		t.Fatalf("len(clips) = %d, want 1", len(clips))
	}
	ch := &clips[0].Channels[0]
	if ch.BoneIndex != -1 {
		t.Errorf("unbound channel BoneIndex = %d, want -1", ch.BoneIndex)
	}
	if ch.BoneName != "Spine" {
		t.Errorf("unbound channel BoneName = %q, want Spine", ch.BoneName)
	}
}

func TestReadIndicesAccessorComponentTypes(t *testing.T) {
	for _, tc := range []struct {
		componentType int
		bin           []byte
	}{
		{gltfComponentTypeUnsignedByte, []byte{0, 1, 2}},
		{gltfComponentTypeUnsignedShort, u16bytes(t, 0, 1, 2)},
	} {
		doc := fmt.Sprintf(`{
			"asset": {"version": "2.0"},
			"accessors": [{"bufferView": 0, "componentType": %d, "count": 3, "type": "SCALAR"}],
			"bufferViews": [{"buffer": 0, "byteOffset": 0, "byteLength": %d}],
			"buffers": [{"byteLength": %d}]
		}`, tc.componentType, len(tc.bin), len(tc.bin))

		p := newGLTFParser()
		if err := p.ParseBytes(buildGLB(t, doc, tc.bin), ""); err != nil {
			t.Fatalf("componentType %d: ParseBytes: %v", tc.componentType, err)
		}

		indices, err := p.ReadIndicesAccessor(0)
		if err != nil {
			t.Fatalf("componentType %d: ReadIndicesAccessor: %v", tc.componentType, err)
		}
		want := []uint32{0, 1, 2}
		for i := range want {
			if indices[i] != want[i] {
				t.Errorf("componentType %d: indices[%d] = %d, want %d", tc.componentType, i, indices[i], want[i])
			}
		}
	}
}

func TestReadAccessorOutOfBounds(t *testing.T) {
	doc := `{
		"asset": {"version": "2.0"},
		"accessors": [{"bufferView": 0, "componentType": 5126, "count": 100, "type": "VEC3"}],
		"bufferViews": [{"buffer": 0, "byteOffset": 0, "byteLength": 12}],
		"buffers": [{"byteLength": 12}]
	}`

	p := newGLTFParser()
	if err := p.ParseBytes(buildGLB(t, doc, f32bytes(t, 1, 2, 3)), ""); err != nil {
		t.Fatalf("ParseBytes: %v", err)
	}

	if _, err := p.ReadVec3Accessor(0); err == nil {
		t.Error("ReadVec3Accessor should fail when the accessor reads past the buffer")
	}
}

func TestCharacterNameFallsBackToFileName(t *testing.T) {
	doc := `{"asset": {"version": "2.0"}}`
	p := newGLTFParser()
	if err := p.ParseBytes(buildGLB(t, doc, nil), ""); err != nil {
		t.Fatalf("ParseBytes: %v", err)
	}

	char, err := importCharacter(p, "assets/models/actions/Ball.glb")
	if err != nil {
		t.Fatalf("importCharacter: %v", err)
	}
	if char.Name != "Ball" {
		t.Errorf("Name = %q, want Ball", char.Name)
	}
}
