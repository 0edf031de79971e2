package loader

import (
	"fmt"
	"math"

	"github.com/silentbridge/signavatar/common"
	"github.com/silentbridge/signavatar/engine/model"
)

// extractMeshes converts every mesh primitive in the document into a
// model.Mesh. glTF meshes may contain multiple primitives; the result is
// flattened with one Mesh per primitive. Material base colors are resolved
// inline since the viewer renders base colors only.
//
// Parameters:
//   - p: the parser containing a loaded document
//
// Returns:
//   - []model.Mesh: all meshes, one per primitive
//   - error: error if extraction fails
func extractMeshes(p *gltfParser) ([]model.Mesh, error) {
	doc := p.Document()
	if doc == nil {
		return nil, fmt.Errorf("no document loaded")
	}

	baseColors := materialBaseColors(doc)

	var result []model.Mesh
	for meshIdx := range doc.Meshes {
		mesh := &doc.Meshes[meshIdx]
		for primIdx := range mesh.Primitives {
			m, err := extractPrimitive(p, &mesh.Primitives[primIdx], mesh.Name, primIdx, baseColors)
			if err != nil {
				return nil, fmt.Errorf("mesh %d primitive %d: %w", meshIdx, primIdx, err)
			}
			result = append(result, *m)
		}
	}

	return result, nil
}

// materialBaseColors resolves the base color factor of every material,
// defaulting to opaque white.
func materialBaseColors(doc *gltfDocument) [][4]float32 {
	colors := make([][4]float32, len(doc.Materials))
	for i := range doc.Materials {
		colors[i] = [4]float32{1, 1, 1, 1}
		if pbr := doc.Materials[i].PbrMetallicRoughness; pbr != nil && pbr.BaseColorFactor != nil {
			colors[i] = *pbr.BaseColorFactor
		}
	}
	return colors
}

// extractPrimitive extracts a single primitive as a model.Mesh.
func extractPrimitive(p *gltfParser, prim *gltfPrimitive, meshName string, primIndex int, baseColors [][4]float32) (*model.Mesh, error) {
	if prim.Mode != nil && *prim.Mode != gltfPrimitiveModeTriangles {
		return nil, fmt.Errorf("unsupported primitive mode: %d (only triangles supported)", *prim.Mode)
	}

	posAccessor, ok := prim.Attributes["POSITION"]
	if !ok {
		return nil, fmt.Errorf("primitive has no POSITION attribute")
	}

	positions, err := p.ReadVec3Accessor(posAccessor)
	if err != nil {
		return nil, fmt.Errorf("failed to read positions: %w", err)
	}

	vertexCount := len(positions)
	vertices := make([]model.SkinnedVertex, vertexCount)
	bounds := common.NewAABB()
	for i, pos := range positions {
		vertices[i].Position = pos
		vertices[i].Color = [4]float32{1, 1, 1, 1}
		bounds.Extend(pos)
	}

	hasNormals := false
	if normalAccessor, ok := prim.Attributes["NORMAL"]; ok {
		normals, err := p.ReadVec3Accessor(normalAccessor)
		if err != nil {
			return nil, fmt.Errorf("failed to read normals: %w", err)
		}
		for i := range normals {
			if i < vertexCount {
				vertices[i].Normal = normals[i]
			}
		}
		hasNormals = true
	}

	if texCoordAccessor, ok := prim.Attributes["TEXCOORD_0"]; ok {
		texCoords, err := p.ReadVec2Accessor(texCoordAccessor)
		if err != nil {
			return nil, fmt.Errorf("failed to read texcoords: %w", err)
		}
		for i := range texCoords {
			if i < vertexCount {
				vertices[i].TexCoord = texCoords[i]
			}
		}
	}

	if colorAccessor, ok := prim.Attributes["COLOR_0"]; ok {
		colors, err := readColorAccessor(p, colorAccessor)
		if err != nil {
			return nil, fmt.Errorf("failed to read colors: %w", err)
		}
		for i := range colors {
			if i < vertexCount {
				vertices[i].Color = colors[i]
			}
		}
	}

	if jointsAccessor, ok := prim.Attributes["JOINTS_0"]; ok {
		joints, err := p.ReadJointsAccessor(jointsAccessor)
		if err != nil {
			return nil, fmt.Errorf("failed to read joints: %w", err)
		}
		for i := range joints {
			if i < vertexCount {
				vertices[i].BoneIndices = joints[i]
			}
		}
	}

	if weightsAccessor, ok := prim.Attributes["WEIGHTS_0"]; ok {
		weights, err := p.ReadVec4Accessor(weightsAccessor)
		if err != nil {
			return nil, fmt.Errorf("failed to read weights: %w", err)
		}
		for i := range weights {
			if i < vertexCount {
				vertices[i].BoneWeights = weights[i]
			}
		}
	}

	var indices []uint32
	if prim.Indices != nil {
		indices, err = p.ReadIndicesAccessor(*prim.Indices)
		if err != nil {
			return nil, fmt.Errorf("failed to read indices: %w", err)
		}
	} else {
		indices = make([]uint32, vertexCount)
		for i := range indices {
			indices[i] = uint32(i)
		}
	}

	// Generate smooth vertex normals from the triangle geometry when the
	// file omits the NORMAL attribute.
	if !hasNormals && len(indices) >= 3 {
		generateNormals(vertices, indices)
	}

	baseColor := [4]float32{1, 1, 1, 1}
	if prim.Material != nil && *prim.Material >= 0 && *prim.Material < len(baseColors) {
		baseColor = baseColors[*prim.Material]
	}

	name := meshName
	if name == "" {
		name = fmt.Sprintf("mesh_%d", primIndex)
	}
	if primIndex > 0 {
		name = fmt.Sprintf("%s_prim%d", name, primIndex)
	}

	return &model.Mesh{
		Name:      name,
		Vertices:  vertices,
		Indices:   indices,
		BaseColor: baseColor,
		Bounds:    bounds,
	}, nil
}

// readColorAccessor reads a COLOR_0 accessor, handling the formats glTF
// allows: VEC3/VEC4 float, and normalized unsigned byte/short.
func readColorAccessor(p *gltfParser, accessorIndex int) ([][4]float32, error) {
	doc := p.Document()
	acc := &doc.Accessors[accessorIndex]

	if acc.Type == gltfAccessorTypeVec4 && acc.ComponentType == gltfComponentTypeFloat {
		return p.ReadVec4Accessor(accessorIndex)
	}

	if acc.Type == gltfAccessorTypeVec3 && acc.ComponentType == gltfComponentTypeFloat {
		vec3s, err := p.ReadVec3Accessor(accessorIndex)
		if err != nil {
			return nil, err
		}
		result := make([][4]float32, len(vec3s))
		for i, v := range vec3s {
			result[i] = [4]float32{v[0], v[1], v[2], 1.0}
		}
		return result, nil
	}

	if acc.ComponentType == gltfComponentTypeUnsignedByte {
		data, err := p.readAccessorData(accessorIndex)
		if err != nil {
			return nil, err
		}
		result := make([][4]float32, acc.Count)
		switch acc.Type {
		case gltfAccessorTypeVec4:
			for i := 0; i < acc.Count; i++ {
				offset := i * 4
				result[i] = [4]float32{
					float32(data[offset]) / 255.0,
					float32(data[offset+1]) / 255.0,
					float32(data[offset+2]) / 255.0,
					float32(data[offset+3]) / 255.0,
				}
			}
			return result, nil
		case gltfAccessorTypeVec3:
			for i := 0; i < acc.Count; i++ {
				offset := i * 3
				result[i] = [4]float32{
					float32(data[offset]) / 255.0,
					float32(data[offset+1]) / 255.0,
					float32(data[offset+2]) / 255.0,
					1.0,
				}
			}
			return result, nil
		}
	}

	if acc.ComponentType == gltfComponentTypeUnsignedShort {
		data, err := p.readAccessorData(accessorIndex)
		if err != nil {
			return nil, err
		}
		result := make([][4]float32, acc.Count)
		switch acc.Type {
		case gltfAccessorTypeVec4:
			for i := 0; i < acc.Count; i++ {
				offset := i * 8
				result[i] = [4]float32{
					float32(uint16(data[offset])|uint16(data[offset+1])<<8) / 65535.0,
					float32(uint16(data[offset+2])|uint16(data[offset+3])<<8) / 65535.0,
					float32(uint16(data[offset+4])|uint16(data[offset+5])<<8) / 65535.0,
					float32(uint16(data[offset+6])|uint16(data[offset+7])<<8) / 65535.0,
				}
			}
			return result, nil
		case gltfAccessorTypeVec3:
			for i := 0; i < acc.Count; i++ {
				offset := i * 6
				result[i] = [4]float32{
					float32(uint16(data[offset])|uint16(data[offset+1])<<8) / 65535.0,
					float32(uint16(data[offset+2])|uint16(data[offset+3])<<8) / 65535.0,
					float32(uint16(data[offset+4])|uint16(data[offset+5])<<8) / 65535.0,
					1.0,
				}
			}
			return result, nil
		}
	}

	return nil, fmt.Errorf("unsupported color format: type=%s, componentType=%d", acc.Type, acc.ComponentType)
}

// generateNormals computes smooth vertex normals from the triangle
// geometry. Face normals are accumulated (area-weighted) onto every vertex
// of each triangle, then normalized.
//
// Parameters:
//   - vertices: the vertex slice to write normal data into
//   - indices: the triangle index buffer (must be a multiple of 3)
func generateNormals(vertices []model.SkinnedVertex, indices []uint32) {
	n := len(vertices)
	accum := make([][3]float32, n)

	for i := 0; i+2 < len(indices); i += 3 {
		i0, i1, i2 := indices[i], indices[i+1], indices[i+2]
		if int(i0) >= n || int(i1) >= n || int(i2) >= n {
			continue
		}

		p0, p1, p2 := vertices[i0].Position, vertices[i1].Position, vertices[i2].Position

		edge1 := [3]float32{p1[0] - p0[0], p1[1] - p0[1], p1[2] - p0[2]}
		edge2 := [3]float32{p2[0] - p0[0], p2[1] - p0[1], p2[2] - p0[2]}

		// Cross product: face normal, length proportional to triangle area.
		faceNormal := [3]float32{
			edge1[1]*edge2[2] - edge1[2]*edge2[1],
			edge1[2]*edge2[0] - edge1[0]*edge2[2],
			edge1[0]*edge2[1] - edge1[1]*edge2[0],
		}

		for _, idx := range []uint32{i0, i1, i2} {
			accum[idx][0] += faceNormal[0]
			accum[idx][1] += faceNormal[1]
			accum[idx][2] += faceNormal[2]
		}
	}

	for i := range vertices {
		length := float32(math.Sqrt(float64(accum[i][0]*accum[i][0] + accum[i][1]*accum[i][1] + accum[i][2]*accum[i][2])))
		if length < 1e-6 {
			vertices[i].Normal = [3]float32{0, 1, 0}
			continue
		}
		invLen := 1.0 / length
		vertices[i].Normal = [3]float32{
			accum[i][0] * invLen,
			accum[i][1] * invLen,
			accum[i][2] * invLen,
		}
	}
}
