package loader

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/silentbridge/signavatar/engine/model"
)

// gltfImporterImpl is the implementation of the Importer interface.
type gltfImporterImpl struct{}

// Importer loads character and action assets from glTF/GLB files.
type Importer interface {
	// ImportModel loads a glTF/GLB file and extracts meshes, skeleton, and
	// any bundled animation clips into a Character.
	//
	// Parameters:
	//   - path: the file path to the glTF or GLB file
	//
	// Returns:
	//   - *model.Character: the fully populated character
	//   - error: error if import fails
	ImportModel(path string) (*model.Character, error)

	// ImportAction loads a glTF/GLB file and extracts only its animation
	// clips. Sign action files carry a clip targeting the character's
	// armature by bone name; the clips come back unbound (BoneIndex -1)
	// and are rebound when registered with a mixer.
	//
	// Parameters:
	//   - path: the file path to the glTF or GLB file
	//
	// Returns:
	//   - []*model.AnimationClip: the clips found in the file
	//   - error: error if import fails, or if the file has no animations
	ImportAction(path string) ([]*model.AnimationClip, error)
}

var _ Importer = &gltfImporterImpl{}

// NewImporter creates a new glTF importer.
//
// Returns:
//   - Importer: the importer
func NewImporter() Importer {
	return &gltfImporterImpl{}
}

func (imp *gltfImporterImpl) ImportModel(path string) (*model.Character, error) {
	parser := newGLTFParser()
	if err := parser.Parse(path); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return importCharacter(parser, path)
}

func (imp *gltfImporterImpl) ImportAction(path string) ([]*model.AnimationClip, error) {
	parser := newGLTFParser()
	if err := parser.Parse(path); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	doc := parser.Document()
	if len(doc.Animations) == 0 {
		return nil, fmt.Errorf("%s contains no animations", path)
	}

	// Channels stay unbound; registration rebinds them by bone name.
	clips, err := extractAllAnimations(parser, map[int]int32{})
	if err != nil {
		return nil, fmt.Errorf("animation extraction failed: %w", err)
	}

	return clips, nil
}

// importCharacter performs a full import from a parser that has already
// loaded a document.
func importCharacter(parser *gltfParser, fallbackPath string) (*model.Character, error) {
	doc := parser.Document()
	if doc == nil {
		return nil, fmt.Errorf("no document after parsing")
	}

	meshes, err := extractMeshes(parser)
	if err != nil {
		return nil, fmt.Errorf("mesh extraction failed: %w", err)
	}

	// Use the skin associated with the first mesh, falling back to skin 0.
	// Character files carry a single skin in practice.
	var skeleton *model.Skeleton
	var boneMapping map[int]int32 // glTF node index -> sorted bone index

	if len(doc.Skins) > 0 {
		skinIndex := 0
		if len(doc.Meshes) > 0 {
			if si := findSkinForMesh(doc, 0); si >= 0 {
				skinIndex = si
			}
		}

		var oldToNew map[int32]int32
		skeleton, oldToNew, err = extractSkeleton(parser, skinIndex)
		if err != nil {
			return nil, fmt.Errorf("skeleton extraction failed: %w", err)
		}

		// skin.Joints[i] is the glTF node index of pre-sort bone i.
		skin := &doc.Skins[skinIndex]
		boneMapping = make(map[int]int32, len(skin.Joints))
		for originalBoneIdx, nodeIdx := range skin.Joints {
			if newBoneIdx, ok := oldToNew[int32(originalBoneIdx)]; ok {
				boneMapping[nodeIdx] = newBoneIdx
			}
		}

		remapMeshBoneIndices(meshes, oldToNew)
	}

	var clips []*model.AnimationClip
	if len(doc.Animations) > 0 {
		if boneMapping == nil {
			boneMapping = map[int]int32{}
		}
		clips, err = extractAllAnimations(parser, boneMapping)
		if err != nil {
			return nil, fmt.Errorf("animation extraction failed: %w", err)
		}
	}

	return &model.Character{
		Name:     characterName(doc, fallbackPath),
		Meshes:   meshes,
		Skeleton: skeleton,
		Clips:    clips,
	}, nil
}

// remapMeshBoneIndices updates the BoneIndices of all skinned vertices to
// reflect the topologically sorted bone order.
func remapMeshBoneIndices(meshes []model.Mesh, oldToNew map[int32]int32) {
	if len(oldToNew) == 0 {
		return
	}

	for i := range meshes {
		for j := range meshes[i].Vertices {
			v := &meshes[i].Vertices[j]
			for k := 0; k < 4; k++ {
				if newIdx, ok := oldToNew[int32(v.BoneIndices[k])]; ok {
					v.BoneIndices[k] = uint32(newIdx)
				}
			}
		}
	}
}

// characterName derives a character name from the default scene name,
// falling back to the file name without extension.
func characterName(doc *gltfDocument, fallbackPath string) string {
	if doc.Scene != nil && *doc.Scene >= 0 && *doc.Scene < len(doc.Scenes) {
		if name := doc.Scenes[*doc.Scene].Name; name != "" {
			return name
		}
	}

	if fallbackPath != "" {
		base := filepath.Base(fallbackPath)
		return strings.TrimSuffix(base, filepath.Ext(base))
	}

	return "unnamed_character"
}
