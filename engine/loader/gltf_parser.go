package loader

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Common errors returned by the parser
var (
	errInvalidGLTFVersion = errors.New("invalid glTF version: must be 2.0")
	errInvalidGLBMagic    = errors.New("invalid GLB magic number")
	errInvalidGLBVersion  = errors.New("invalid GLB version: must be 2")
	errMissingJSONChunk   = errors.New("GLB file missing JSON chunk")
	errInvalidBufferURI   = errors.New("invalid buffer URI")
	errBufferSizeMismatch = errors.New("buffer size mismatch")
)

// gltfParser loads a glTF/GLB file, resolves its buffers, and provides typed
// accessor reads. Internal to the loader package.
type gltfParser struct {
	baseDir        string
	document       *gltfDocument
	glbBinaryChunk []byte
}

// newGLTFParser creates a new glTF parser instance.
//
// Returns:
//   - *gltfParser: a new parser instance
func newGLTFParser() *gltfParser {
	return &gltfParser{}
}

// Document returns the parsed glTF document, or nil before a successful parse.
func (p *gltfParser) Document() *gltfDocument {
	return p.document
}

// Parse loads and parses a glTF/GLB file from the given path.
// Detects .gltf (JSON) vs .glb (binary) by extension and magic number.
//
// Parameters:
//   - path: path to the glTF or GLB file
//
// Returns:
//   - error: error if parsing fails
func (p *gltfParser) Parse(path string) error {
	p.baseDir = filepath.Dir(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".glb" || (len(data) >= 4 && binary.LittleEndian.Uint32(data[:4]) == gltfGLBMagic) {
		return p.parseGLB(data)
	}

	return p.parseGLTF(data)
}

// ParseBytes parses an in-memory glTF/GLB payload. External buffer URIs are
// resolved relative to baseDir.
//
// Parameters:
//   - data: the raw glTF JSON or GLB binary content
//   - baseDir: directory for resolving relative buffer URIs
//
// Returns:
//   - error: error if parsing fails
func (p *gltfParser) ParseBytes(data []byte, baseDir string) error {
	p.baseDir = baseDir

	if looksLikeJSON(data) {
		return p.parseGLTF(data)
	}
	return p.parseGLB(data)
}

// looksLikeJSON reports whether the payload opens a JSON object. glTF JSON
// always does; anything else is treated as a GLB container so a corrupted
// header surfaces the GLB sentinel errors instead of a JSON syntax error.
func looksLikeJSON(data []byte) bool {
	for _, b := range data {
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		case '{':
			return true
		default:
			return false
		}
	}
	return false
}

// parseGLTF parses a glTF JSON payload.
func (p *gltfParser) parseGLTF(data []byte) error {
	var doc gltfDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse glTF JSON: %w", err)
	}

	if !strings.HasPrefix(doc.Asset.Version, "2.") {
		return errInvalidGLTFVersion
	}

	if err := p.loadBuffers(&doc); err != nil {
		return fmt.Errorf("failed to load buffers: %w", err)
	}

	p.document = &doc
	return nil
}

// parseGLB parses a GLB binary payload.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#glb-file-format-specification
func (p *gltfParser) parseGLB(data []byte) error {
	if len(data) < 12 {
		return errors.New("GLB file too small")
	}

	r := bytes.NewReader(data)

	var header gltfGLBHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return fmt.Errorf("failed to read GLB header: %w", err)
	}

	if header.Magic != gltfGLBMagic {
		return errInvalidGLBMagic
	}
	if header.Version != gltfGLBVersion {
		return errInvalidGLBVersion
	}

	var jsonData []byte
	var binData []byte

	for {
		var chunkHeader gltfGLBChunkHeader
		if err := binary.Read(r, binary.LittleEndian, &chunkHeader); err != nil {
			if err == io.EOF {
				break
			}
			return fmt.Errorf("failed to read chunk header: %w", err)
		}

		chunkData := make([]byte, chunkHeader.ChunkLength)
		if _, err := io.ReadFull(r, chunkData); err != nil {
			return fmt.Errorf("failed to read chunk data: %w", err)
		}

		switch chunkHeader.ChunkType {
		case gltfGLBChunkJSON:
			jsonData = chunkData
		case gltfGLBChunkBIN:
			binData = chunkData
		}
	}

	if jsonData == nil {
		return errMissingJSONChunk
	}

	p.glbBinaryChunk = binData

	var doc gltfDocument
	if err := json.Unmarshal(jsonData, &doc); err != nil {
		return fmt.Errorf("failed to parse glTF JSON: %w", err)
	}

	if !strings.HasPrefix(doc.Asset.Version, "2.") {
		return errInvalidGLTFVersion
	}

	if err := p.loadBuffers(&doc); err != nil {
		return fmt.Errorf("failed to load buffers: %w", err)
	}

	p.document = &doc
	return nil
}

// loadBuffers loads all buffer data (URIs, embedded data, or the GLB binary chunk).
func (p *gltfParser) loadBuffers(doc *gltfDocument) error {
	for i := range doc.Buffers {
		buf := &doc.Buffers[i]

		if buf.URI == "" {
			// Buffer 0 without a URI refers to the GLB binary chunk.
			if i == 0 && p.glbBinaryChunk != nil {
				buf.Data = p.glbBinaryChunk
				if len(buf.Data) < buf.ByteLength {
					return fmt.Errorf("buffer %d: %w", i, errBufferSizeMismatch)
				}
				continue
			}
			return fmt.Errorf("buffer %d has no URI and no GLB binary chunk", i)
		}

		data, err := p.loadBufferURI(buf.URI)
		if err != nil {
			return fmt.Errorf("buffer %d: %w", i, err)
		}
		buf.Data = data

		if len(buf.Data) < buf.ByteLength {
			return fmt.Errorf("buffer %d: %w", i, errBufferSizeMismatch)
		}
	}

	return nil
}

// loadBufferURI loads buffer data from a data: URI or a file path relative
// to the base directory.
func (p *gltfParser) loadBufferURI(uri string) ([]byte, error) {
	if strings.HasPrefix(uri, "data:") {
		commaIdx := strings.Index(uri, ",")
		if commaIdx < 0 {
			return nil, errInvalidBufferURI
		}
		header := uri[5:commaIdx]
		if !strings.Contains(header, "base64") {
			return nil, fmt.Errorf("unsupported data URI encoding: %s", header)
		}
		data, err := base64.StdEncoding.DecodeString(uri[commaIdx+1:])
		if err != nil {
			return nil, fmt.Errorf("failed to decode base64: %w", err)
		}
		return data, nil
	}

	fullPath := filepath.Join(p.baseDir, uri)
	data, err := os.ReadFile(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load buffer file %q: %w", uri, err)
	}

	return data, nil
}

// readAccessorData reads the raw tightly-packed bytes of an accessor,
// resolving interleaved bufferView strides.
func (p *gltfParser) readAccessorData(accessorIndex int) ([]byte, error) {
	if p.document == nil {
		return nil, errors.New("no document loaded")
	}
	if accessorIndex < 0 || accessorIndex >= len(p.document.Accessors) {
		return nil, fmt.Errorf("accessor index %d out of range", accessorIndex)
	}

	acc := &p.document.Accessors[accessorIndex]

	if acc.Sparse != nil {
		return nil, errors.New("sparse accessors not supported")
	}

	if acc.BufferView == nil {
		return nil, errors.New("accessor has no bufferView")
	}
	if *acc.BufferView < 0 || *acc.BufferView >= len(p.document.BufferViews) {
		return nil, fmt.Errorf("bufferView index %d out of range", *acc.BufferView)
	}

	bv := &p.document.BufferViews[*acc.BufferView]
	if bv.Buffer < 0 || bv.Buffer >= len(p.document.Buffers) {
		return nil, fmt.Errorf("buffer index %d out of range", bv.Buffer)
	}
	buf := &p.document.Buffers[bv.Buffer]

	componentSize := gltfComponentTypeSize(acc.ComponentType)
	componentCount := gltfAccessorTypeComponentCount(acc.Type)
	if componentSize == 0 || componentCount == 0 {
		return nil, fmt.Errorf("unsupported accessor format: type=%s, componentType=%d", acc.Type, acc.ComponentType)
	}
	elementSize := componentSize * componentCount

	stride := elementSize
	if bv.ByteStride != nil && *bv.ByteStride > 0 {
		stride = *bv.ByteStride
	}

	bufferOffset := bv.ByteOffset + acc.ByteOffset
	if acc.Count > 0 {
		end := bufferOffset + (acc.Count-1)*stride + elementSize
		if end > len(buf.Data) {
			return nil, fmt.Errorf("accessor %d reads past buffer end", accessorIndex)
		}
	}

	result := make([]byte, acc.Count*elementSize)
	for i := 0; i < acc.Count; i++ {
		srcOffset := bufferOffset + i*stride
		dstOffset := i * elementSize
		copy(result[dstOffset:dstOffset+elementSize], buf.Data[srcOffset:srcOffset+elementSize])
	}

	return result, nil
}

// readFloatAccessor reads an accessor of FLOAT elements into typed values.
// T must be float32 or a fixed-size float32 array matching the accessor type.
func readFloatAccessor[T any](p *gltfParser, accessorIndex int, wantType string) ([]T, error) {
	acc := &p.document.Accessors[accessorIndex]
	if acc.Type != wantType || acc.ComponentType != gltfComponentTypeFloat {
		return nil, fmt.Errorf("accessor is not %s FLOAT: type=%s, componentType=%d", wantType, acc.Type, acc.ComponentType)
	}

	data, err := p.readAccessorData(accessorIndex)
	if err != nil {
		return nil, err
	}

	result := make([]T, acc.Count)
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &result); err != nil {
		return nil, err
	}

	return result, nil
}

// ReadScalarAccessor reads an accessor as scalar float data.
func (p *gltfParser) ReadScalarAccessor(accessorIndex int) ([]float32, error) {
	return readFloatAccessor[float32](p, accessorIndex, gltfAccessorTypeScalar)
}

// ReadVec2Accessor reads an accessor as vec2 float data.
func (p *gltfParser) ReadVec2Accessor(accessorIndex int) ([][2]float32, error) {
	return readFloatAccessor[[2]float32](p, accessorIndex, gltfAccessorTypeVec2)
}

// ReadVec3Accessor reads an accessor as vec3 float data.
func (p *gltfParser) ReadVec3Accessor(accessorIndex int) ([][3]float32, error) {
	return readFloatAccessor[[3]float32](p, accessorIndex, gltfAccessorTypeVec3)
}

// ReadVec4Accessor reads an accessor as vec4 float data.
func (p *gltfParser) ReadVec4Accessor(accessorIndex int) ([][4]float32, error) {
	return readFloatAccessor[[4]float32](p, accessorIndex, gltfAccessorTypeVec4)
}

// ReadMat4Accessor reads an accessor as mat4 float data.
func (p *gltfParser) ReadMat4Accessor(accessorIndex int) ([][16]float32, error) {
	return readFloatAccessor[[16]float32](p, accessorIndex, gltfAccessorTypeMat4)
}

// ReadIndicesAccessor reads an accessor as index data, converting
// UNSIGNED_BYTE and UNSIGNED_SHORT components to uint32.
func (p *gltfParser) ReadIndicesAccessor(accessorIndex int) ([]uint32, error) {
	acc := &p.document.Accessors[accessorIndex]
	if acc.Type != gltfAccessorTypeScalar {
		return nil, fmt.Errorf("index accessor is not SCALAR: type=%s", acc.Type)
	}

	data, err := p.readAccessorData(accessorIndex)
	if err != nil {
		return nil, err
	}

	result := make([]uint32, acc.Count)

	switch acc.ComponentType {
	case gltfComponentTypeUnsignedByte:
		for i := 0; i < acc.Count; i++ {
			result[i] = uint32(data[i])
		}
	case gltfComponentTypeUnsignedShort:
		for i := 0; i < acc.Count; i++ {
			result[i] = uint32(binary.LittleEndian.Uint16(data[i*2:]))
		}
	case gltfComponentTypeUnsignedInt:
		for i := 0; i < acc.Count; i++ {
			result[i] = binary.LittleEndian.Uint32(data[i*4:])
		}
	default:
		return nil, fmt.Errorf("unsupported index component type: %d", acc.ComponentType)
	}

	return result, nil
}

// ReadJointsAccessor reads an accessor as vec4 joint indices, converting
// UNSIGNED_BYTE and UNSIGNED_SHORT components to uint32.
func (p *gltfParser) ReadJointsAccessor(accessorIndex int) ([][4]uint32, error) {
	acc := &p.document.Accessors[accessorIndex]
	if acc.Type != gltfAccessorTypeVec4 {
		return nil, fmt.Errorf("joints accessor is not VEC4: type=%s", acc.Type)
	}

	data, err := p.readAccessorData(accessorIndex)
	if err != nil {
		return nil, err
	}

	result := make([][4]uint32, acc.Count)

	switch acc.ComponentType {
	case gltfComponentTypeUnsignedByte:
		for i := 0; i < acc.Count; i++ {
			for k := 0; k < 4; k++ {
				result[i][k] = uint32(data[i*4+k])
			}
		}
	case gltfComponentTypeUnsignedShort:
		for i := 0; i < acc.Count; i++ {
			for k := 0; k < 4; k++ {
				result[i][k] = uint32(binary.LittleEndian.Uint16(data[(i*4+k)*2:]))
			}
		}
	default:
		return nil, fmt.Errorf("unsupported joints component type: %d", acc.ComponentType)
	}

	return result, nil
}

// gltfComponentTypeSize returns the byte size of a component type.
func gltfComponentTypeSize(componentType int) int {
	switch componentType {
	case gltfComponentTypeByte, gltfComponentTypeUnsignedByte:
		return 1
	case gltfComponentTypeShort, gltfComponentTypeUnsignedShort:
		return 2
	case gltfComponentTypeUnsignedInt, gltfComponentTypeFloat:
		return 4
	default:
		return 0
	}
}

// gltfAccessorTypeComponentCount returns the number of components for an accessor type.
func gltfAccessorTypeComponentCount(accessorType string) int {
	switch accessorType {
	case gltfAccessorTypeScalar:
		return 1
	case gltfAccessorTypeVec2:
		return 2
	case gltfAccessorTypeVec3:
		return 3
	case gltfAccessorTypeVec4:
		return 4
	case gltfAccessorTypeMat2:
		return 4
	case gltfAccessorTypeMat3:
		return 9
	case gltfAccessorTypeMat4:
		return 16
	default:
		return 0
	}
}
