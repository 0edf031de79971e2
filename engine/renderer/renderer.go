package renderer

import (
	"fmt"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/silentbridge/signavatar/common"
	"github.com/silentbridge/signavatar/engine/model"
)

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	backendType RendererBackendType
	backend     RendererBackend

	meshes     map[MeshID]*meshBuffers
	nextMeshID MeshID

	// Pre-creation config collected from builder options
	forceFallbackAdapter bool
	pendingPresentMode   *PresentMode
	pendingMSAA          *MSAASampleCount
	pendingClearColor    *[4]float64
}

// Renderer draws uploaded meshes to a window surface.
//
// This is a high-level API for the viewer's fixed forward pipeline: one
// ambient plus one directional light, a static pipeline for rigid meshes,
// and a skinned pipeline driven by a bone matrix palette.
type Renderer interface {
	// Resize configures the underlying backend for a new surface size.
	// Calls with a zero width or height are ignored, which covers window
	// minimization.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	Resize(width, height int)

	// SetClearColor sets the background color cleared at the start of each
	// frame.
	//
	// Parameters:
	//   - r, g, b, a: the color components in [0, 1]
	SetClearColor(r, g, b, a float64)

	// UploadMesh creates GPU buffers for a mesh and returns a handle used in
	// DrawItems. The mesh data is not retained on the CPU side.
	//
	// Parameters:
	//   - mesh: the mesh to upload
	//
	// Returns:
	//   - MeshID: the handle identifying the uploaded mesh
	//   - error: an error if buffer creation fails
	UploadMesh(mesh *model.Mesh) (MeshID, error)

	// ReleaseMesh frees the GPU buffers backing a mesh. Unknown handles are
	// ignored.
	//
	// Parameters:
	//   - id: the mesh handle to release
	ReleaseMesh(id MeshID)

	// RenderFrame draws one frame and presents it to the surface.
	//
	// Parameters:
	//   - frame: the camera, lights, and draw items for this frame
	//
	// Returns:
	//   - error: an error if the swapchain texture could not be acquired
	RenderFrame(frame *Frame) error

	// Release frees all GPU resources, including any meshes still uploaded.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates a renderer for a window surface, initializes the GPU
// device, and compiles the render pipelines.
//
// Parameters:
//   - surfaceDescriptor: the window surface to render to
//   - width: the initial surface width in pixels
//   - height: the initial surface height in pixels
//   - options: optional builder options to customize the renderer
//
// Returns:
//   - Renderer: the newly created renderer
//   - error: an error if GPU initialization fails
func NewRenderer(surfaceDescriptor *wgpu.SurfaceDescriptor, width, height int, options ...RendererBuilderOption) (Renderer, error) {
	r := &renderer{
		mu:          &sync.Mutex{},
		backendType: BackendTypeWGPU,
		meshes:      make(map[MeshID]*meshBuffers),
		nextMeshID:  1,
	}
	for _, opt := range options {
		opt(r)
	}

	sampleCount := MSAA4x
	if r.pendingMSAA != nil {
		sampleCount = *r.pendingMSAA
	}

	backend, err := newWGPURendererBackend(surfaceDescriptor, r.forceFallbackAdapter, sampleCount)
	if err != nil {
		return nil, err
	}
	r.backend = backend

	if r.pendingPresentMode != nil {
		r.backend.SetPresentMode(*r.pendingPresentMode)
	}
	if r.pendingClearColor != nil {
		c := *r.pendingClearColor
		r.backend.SetClearColor(c[0], c[1], c[2], c[3])
	}

	r.backend.ConfigureSurface(width, height)
	if err := r.backend.InitPipelines(); err != nil {
		r.backend.Release()
		return nil, err
	}

	return r, nil
}

func (r *renderer) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	r.backend.ConfigureSurface(width, height)
}

func (r *renderer) SetClearColor(red, g, b, a float64) {
	r.backend.SetClearColor(red, g, b, a)
}

func (r *renderer) UploadMesh(mesh *model.Mesh) (MeshID, error) {
	vertexData := common.SliceToBytes(mesh.Vertices)
	indexData := common.SliceToBytes(mesh.Indices)

	buffers, err := r.backend.CreateMeshBuffers(mesh.Name, vertexData, indexData, len(mesh.Indices), mesh.BaseColor)
	if err != nil {
		return 0, fmt.Errorf("failed to upload mesh %s: %w", mesh.Name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextMeshID
	r.nextMeshID++
	r.meshes[id] = buffers
	return id, nil
}

func (r *renderer) ReleaseMesh(id MeshID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if buffers, ok := r.meshes[id]; ok {
		buffers.release()
		delete(r.meshes, id)
	}
}

func (r *renderer) RenderFrame(frame *Frame) error {
	scene := frame.sceneData()
	r.backend.WriteSceneUniform(&scene)

	r.mu.Lock()
	type draw struct {
		buffers *meshBuffers
		skinned bool
	}
	draws := make([]draw, 0, len(frame.Items))
	for i := range frame.Items {
		item := &frame.Items[i]
		buffers, ok := r.meshes[item.Mesh]
		if !ok {
			continue
		}

		uniform := modelUniform{
			Model:     item.ModelMatrix,
			BaseColor: buffers.baseColor,
		}
		r.backend.WriteModelUniform(buffers, &uniform)

		skinned := len(item.Palette) > 0
		if skinned {
			if len(item.Palette) > maxPaletteBones*16 {
				r.mu.Unlock()
				return fmt.Errorf("palette exceeds %d bones", maxPaletteBones)
			}
			r.backend.WritePalette(buffers, item.Palette)
		}

		draws = append(draws, draw{buffers: buffers, skinned: skinned})
	}
	r.mu.Unlock()

	if err := r.backend.BeginFrame(); err != nil {
		return err
	}

	for _, d := range draws {
		r.backend.DrawMesh(d.buffers, d.skinned)
	}

	r.backend.EndFrame()
	r.backend.Present()

	return nil
}

func (r *renderer) Release() {
	r.mu.Lock()
	for id, buffers := range r.meshes {
		buffers.release()
		delete(r.meshes, id)
	}
	r.mu.Unlock()

	r.backend.Release()
}
