package renderer

import (
	_ "embed"
	"fmt"
	"runtime"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/silentbridge/signavatar/common"
	"github.com/silentbridge/signavatar/engine/model"
)

//go:embed shaders/skinned.wgsl
var skinnedShaderSource string

//go:embed shaders/static.wgsl
var staticShaderSource string

// meshBuffers holds the GPU resources backing one uploaded mesh.
type meshBuffers struct {
	vertexBuffer *wgpu.Buffer
	indexBuffer  *wgpu.Buffer
	indexCount   int

	modelBuffer    *wgpu.Buffer
	modelBindGroup *wgpu.BindGroup

	paletteBuffer    *wgpu.Buffer
	paletteBindGroup *wgpu.BindGroup

	baseColor [4]float32
}

func (m *meshBuffers) release() {
	if m.vertexBuffer != nil {
		m.vertexBuffer.Release()
	}
	if m.indexBuffer != nil {
		m.indexBuffer.Release()
	}
	if m.modelBuffer != nil {
		m.modelBuffer.Release()
	}
	if m.modelBindGroup != nil {
		m.modelBindGroup.Release()
	}
	if m.paletteBuffer != nil {
		m.paletteBuffer.Release()
	}
	if m.paletteBindGroup != nil {
		m.paletteBindGroup.Release()
	}
}

type wgpuRendererBackendImpl struct {
	mu     *sync.Mutex
	device *wgpu.Device
	queue  *wgpu.Queue

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	surface  *wgpu.Surface

	surfaceFormat        *wgpu.TextureFormat
	msaaTextureView      *wgpu.TextureView
	depthTextureView     *wgpu.TextureView
	renderPassDescriptor *wgpu.RenderPassDescriptor

	presentMode wgpu.PresentMode
	sampleCount MSAASampleCount
	clearColor  wgpu.Color

	sceneLayout   *wgpu.BindGroupLayout
	modelLayout   *wgpu.BindGroupLayout
	paletteLayout *wgpu.BindGroupLayout

	sceneBuffer    *wgpu.Buffer
	sceneBindGroup *wgpu.BindGroup

	skinnedPipeline *wgpu.RenderPipeline
	staticPipeline  *wgpu.RenderPipeline

	// Frame state for batched rendering across multiple draw calls
	frameEncoder *wgpu.CommandEncoder
	framePass    *wgpu.RenderPassEncoder
	frameSurface *wgpu.Texture
	frameView    *wgpu.TextureView
}

type wgpuRendererBackend interface {
	// ConfigureSurface is a wrapper for boilerplate logic required when
	// (re)configuring the surface. Required on creation and whenever the
	// window size changes.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	ConfigureSurface(width, height int)

	// SetPresentMode sets the surface present mode which controls how frames
	// are delivered to the display. Takes effect at the next ConfigureSurface.
	//
	// Parameters:
	//   - mode: the PresentMode to use (VSync or Uncapped)
	SetPresentMode(mode PresentMode)

	// SetClearColor sets the color the render pass clears to at the start of
	// each frame.
	//
	// Parameters:
	//   - r, g, b, a: the clear color components in [0, 1]
	SetClearColor(r, g, b, a float64)

	// InitPipelines compiles the skinned and static shaders, creates the
	// shared bind group layouts, the scene uniform buffer, and both render
	// pipelines. Must be called once after the first ConfigureSurface.
	//
	// Returns:
	//   - error: an error if any GPU resource could not be created
	InitPipelines() error

	// CreateMeshBuffers creates the vertex, index, and uniform buffers plus
	// bind groups backing one mesh.
	//
	// Parameters:
	//   - label: debug label for the GPU resources
	//   - vertexData: the raw vertex bytes
	//   - indexData: the raw index bytes
	//   - indexCount: the number of indices
	//   - baseColor: the mesh base color factor
	//
	// Returns:
	//   - *meshBuffers: the created GPU resources
	//   - error: an error if buffer creation fails
	CreateMeshBuffers(label string, vertexData, indexData []byte, indexCount int, baseColor [4]float32) (*meshBuffers, error)

	// WriteSceneUniform uploads the per-frame scene uniform.
	//
	// Parameters:
	//   - scene: the packed scene uniform
	WriteSceneUniform(scene *sceneUniform)

	// WriteModelUniform uploads a mesh's per-draw uniform.
	//
	// Parameters:
	//   - m: the mesh buffers to write to
	//   - uniform: the packed model uniform
	WriteModelUniform(m *meshBuffers, uniform *modelUniform)

	// WritePalette uploads a mesh's bone matrix palette.
	//
	// Parameters:
	//   - m: the mesh buffers to write to
	//   - palette: 16 floats per bone
	WritePalette(m *meshBuffers, palette []float32)

	// BeginFrame acquires the next swapchain texture, creates a command
	// encoder, and begins the main render pass. Must be paired with EndFrame
	// after all DrawMesh invocations.
	//
	// Returns:
	//   - error: an error if the swapchain texture could not be acquired
	BeginFrame() error

	// DrawMesh encodes a single draw command within the current render pass.
	//
	// Parameters:
	//   - m: the mesh buffers to draw
	//   - skinned: true to draw with the skinned pipeline
	DrawMesh(m *meshBuffers, skinned bool)

	// EndFrame ends the render pass and submits the command buffer to the
	// GPU queue.
	EndFrame()

	// Present presents the surface to the display and releases the swapchain
	// texture. Must be called once per frame after EndFrame.
	Present()

	// Release frees all GPU resources held by the backend.
	Release()
}

var _ RendererBackend = &wgpuRendererBackendImpl{}

func newWGPURendererBackend(surfaceDescriptor *wgpu.SurfaceDescriptor, forceFallbackAdapter bool, sampleCount MSAASampleCount) (wgpuRendererBackend, error) {
	runtime.LockOSThread()
	b := &wgpuRendererBackendImpl{
		mu:          &sync.Mutex{},
		instance:    wgpu.CreateInstance(nil),
		presentMode: wgpu.PresentModeFifo,
		sampleCount: sampleCount,
		clearColor:  wgpu.Color{R: 0.1, G: 0.1, B: 0.1, A: 1.0},
	}
	b.surface = b.instance.CreateSurface(surfaceDescriptor)

	adapter, err := b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallbackAdapter,
		CompatibleSurface:    b.surface,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to request adapter: %w", err)
	}
	b.adapter = adapter

	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Viewer Device",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to request device: %w", err)
	}
	b.device = device
	b.queue = device.GetQueue()

	return b, nil
}

func (b *wgpuRendererBackendImpl) ConfigureSurface(width, height int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	capabilities := b.surface.GetCapabilities(b.adapter)
	b.surfaceFormat = &capabilities.Formats[0]

	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      *b.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: b.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})

	count := uint32(b.sampleCount)
	msaaEnabled := count > 1

	if msaaEnabled {
		// The render pass draws into the MSAA texture; the resolved result
		// is written to the swapchain view as the ResolveTarget.
		msaaTexture, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
			Label: "MSAA Texture",
			Size: wgpu.Extent3D{
				Width:              uint32(width),
				Height:             uint32(height),
				DepthOrArrayLayers: 1,
			},
			MipLevelCount: 1,
			SampleCount:   count,
			Dimension:     wgpu.TextureDimension2D,
			Format:        *b.surfaceFormat,
			Usage:         wgpu.TextureUsageRenderAttachment,
		})
		if err != nil {
			panic(err)
		}
		b.msaaTextureView, err = msaaTexture.CreateView(nil)
		if err != nil {
			panic(err)
		}
	} else {
		b.msaaTextureView = nil
	}

	// Depth texture sample count must match the color attachment.
	depthTexture, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "Depth Texture",
		Size: wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   count,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatDepth24Plus,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		panic(err)
	}
	b.depthTextureView, err = depthTexture.CreateView(nil)
	if err != nil {
		panic(err)
	}

	// When MSAA is enabled, View is the MSAA texture and ResolveTarget is
	// set per-frame to the swapchain view. When disabled, View is set
	// per-frame to the swapchain view and ResolveTarget stays nil.
	storeOp := wgpu.StoreOpStore
	if msaaEnabled {
		storeOp = wgpu.StoreOpDiscard
	}
	b.renderPassDescriptor = &wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:          b.msaaTextureView,
				ResolveTarget: nil,
				LoadOp:        wgpu.LoadOpClear,
				StoreOp:       storeOp,
				ClearValue:    b.clearColor,
			},
		},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            b.depthTextureView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpDiscard,
			DepthClearValue: 1.0,
		},
	}
}

func (b *wgpuRendererBackendImpl) SetPresentMode(mode PresentMode) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch mode {
	case PresentModeUncapped:
		b.presentMode = wgpu.PresentModeImmediate
	case PresentModeVSync:
		fallthrough
	default:
		b.presentMode = wgpu.PresentModeFifo
	}
}

func (b *wgpuRendererBackendImpl) SetClearColor(r, g, bl, a float64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.clearColor = wgpu.Color{R: r, G: g, B: bl, A: a}
	if b.renderPassDescriptor != nil {
		b.renderPassDescriptor.ColorAttachments[0].ClearValue = b.clearColor
	}
}

func (b *wgpuRendererBackendImpl) InitPipelines() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.surfaceFormat == nil {
		return fmt.Errorf("surface not configured")
	}

	var err error
	b.sceneLayout, err = b.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "Scene Bind Group Layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeUniform,
					MinBindingSize: sceneUniformSize,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create scene bind group layout: %w", err)
	}

	b.modelLayout, err = b.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "Model Bind Group Layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeUniform,
					MinBindingSize: modelUniformSize,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create model bind group layout: %w", err)
	}

	b.paletteLayout, err = b.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "Palette Bind Group Layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeReadOnlyStorage,
					MinBindingSize: 16 * 4,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create palette bind group layout: %w", err)
	}

	b.sceneBuffer, err = b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Scene Uniform Buffer",
		Size:  sceneUniformSize,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("failed to create scene uniform buffer: %w", err)
	}

	b.sceneBindGroup, err = b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "Scene Bind Group",
		Layout: b.sceneLayout,
		Entries: []wgpu.BindGroupEntry{
			{
				Binding: 0,
				Buffer:  b.sceneBuffer,
				Offset:  0,
				Size:    wgpu.WholeSize,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create scene bind group: %w", err)
	}

	b.skinnedPipeline, err = b.createPipeline("Skinned", skinnedShaderSource, []*wgpu.BindGroupLayout{b.sceneLayout, b.modelLayout, b.paletteLayout})
	if err != nil {
		return err
	}

	b.staticPipeline, err = b.createPipeline("Static", staticShaderSource, []*wgpu.BindGroupLayout{b.sceneLayout, b.modelLayout})
	if err != nil {
		return err
	}

	return nil
}

// createPipeline compiles a shader module and builds a render pipeline for
// the shared skinned vertex layout. Caller must hold the mutex.
func (b *wgpuRendererBackendImpl) createPipeline(label, source string, layouts []*wgpu.BindGroupLayout) (*wgpu.RenderPipeline, error) {
	module, err := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: label + " Shader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: source,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create %s shader module: %w", label, err)
	}

	pipelineLayout, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            label + " Pipeline Layout",
		BindGroupLayouts: layouts,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create %s pipeline layout: %w", label, err)
	}

	vertexLayout := wgpu.VertexBufferLayout{
		ArrayStride: model.VertexStride,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes: []wgpu.VertexAttribute{
			{Format: wgpu.VertexFormatFloat32x3, Offset: model.VertexPositionOffset, ShaderLocation: 0},
			{Format: wgpu.VertexFormatFloat32x3, Offset: model.VertexNormalOffset, ShaderLocation: 1},
			{Format: wgpu.VertexFormatFloat32x2, Offset: model.VertexTexCoordOffset, ShaderLocation: 2},
			{Format: wgpu.VertexFormatFloat32x4, Offset: model.VertexColorOffset, ShaderLocation: 3},
			{Format: wgpu.VertexFormatUint32x4, Offset: model.VertexJointsOffset, ShaderLocation: 4},
			{Format: wgpu.VertexFormatFloat32x4, Offset: model.VertexWeightsOffset, ShaderLocation: 5},
		},
	}

	created, err := b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  label + " Render Pipeline",
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
			Buffers:    []wgpu.VertexBufferLayout{vertexLayout},
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{
				{
					Format:    *b.surfaceFormat,
					WriteMask: wgpu.ColorWriteMaskAll,
				},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeBack,
		},
		Multisample: wgpu.MultisampleState{
			Count: uint32(b.sampleCount),
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            wgpu.TextureFormatDepth24Plus,
			DepthWriteEnabled: true,
			DepthCompare:      wgpu.CompareFunctionLess,
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create %s render pipeline: %w", label, err)
	}

	return created, nil
}

func (b *wgpuRendererBackendImpl) CreateMeshBuffers(label string, vertexData, indexData []byte, indexCount int, baseColor [4]float32) (*meshBuffers, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	m := &meshBuffers{indexCount: indexCount, baseColor: baseColor}

	var err error
	m.vertexBuffer, err = b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label + " Vertex Buffer",
		Size:  uint64(len(vertexData)),
		Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, err
	}
	b.queue.WriteBuffer(m.vertexBuffer, 0, vertexData)

	m.indexBuffer, err = b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label + " Index Buffer",
		Size:  uint64(len(indexData)),
		Usage: wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		m.release()
		return nil, err
	}
	b.queue.WriteBuffer(m.indexBuffer, 0, indexData)

	m.modelBuffer, err = b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label + " Model Uniform Buffer",
		Size:  modelUniformSize,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		m.release()
		return nil, err
	}

	m.modelBindGroup, err = b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  label + " Model Bind Group",
		Layout: b.modelLayout,
		Entries: []wgpu.BindGroupEntry{
			{
				Binding: 0,
				Buffer:  m.modelBuffer,
				Offset:  0,
				Size:    wgpu.WholeSize,
			},
		},
	})
	if err != nil {
		m.release()
		return nil, err
	}

	m.paletteBuffer, err = b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label + " Palette Buffer",
		Size:  paletteBufferSize,
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		m.release()
		return nil, err
	}

	m.paletteBindGroup, err = b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  label + " Palette Bind Group",
		Layout: b.paletteLayout,
		Entries: []wgpu.BindGroupEntry{
			{
				Binding: 0,
				Buffer:  m.paletteBuffer,
				Offset:  0,
				Size:    wgpu.WholeSize,
			},
		},
	})
	if err != nil {
		m.release()
		return nil, err
	}

	return m, nil
}

func (b *wgpuRendererBackendImpl) WriteSceneUniform(scene *sceneUniform) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.queue.WriteBuffer(b.sceneBuffer, 0, common.StructToBytes(scene))
}

func (b *wgpuRendererBackendImpl) WriteModelUniform(m *meshBuffers, uniform *modelUniform) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.queue.WriteBuffer(m.modelBuffer, 0, common.StructToBytes(uniform))
}

func (b *wgpuRendererBackendImpl) WritePalette(m *meshBuffers, palette []float32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.queue.WriteBuffer(m.paletteBuffer, 0, common.SliceToBytes(palette))
}

func (b *wgpuRendererBackendImpl) BeginFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	// If a previous frame's surface texture is still held, avoid acquiring
	// another one; wgpu-native rejects overlapping acquisitions.
	if b.frameSurface != nil {
		return fmt.Errorf("previous frame surface not yet presented")
	}

	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		return err
	}

	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return err
	}

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		view.Release()
		surfaceTexture.Release()
		return err
	}

	if b.sampleCount > 1 {
		b.renderPassDescriptor.ColorAttachments[0].ResolveTarget = view
	} else {
		b.renderPassDescriptor.ColorAttachments[0].View = view
	}
	pass := encoder.BeginRenderPass(b.renderPassDescriptor)

	b.frameEncoder = encoder
	b.framePass = pass
	b.frameSurface = surfaceTexture
	b.frameView = view

	return nil
}

func (b *wgpuRendererBackendImpl) DrawMesh(m *meshBuffers, skinned bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.framePass == nil {
		return
	}

	if skinned {
		b.framePass.SetPipeline(b.skinnedPipeline)
		b.framePass.SetBindGroup(2, m.paletteBindGroup, nil)
	} else {
		b.framePass.SetPipeline(b.staticPipeline)
	}

	b.framePass.SetBindGroup(0, b.sceneBindGroup, nil)
	b.framePass.SetBindGroup(1, m.modelBindGroup, nil)
	b.framePass.SetVertexBuffer(0, m.vertexBuffer, 0, wgpu.WholeSize)
	b.framePass.SetIndexBuffer(m.indexBuffer, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
	b.framePass.DrawIndexed(uint32(m.indexCount), 1, 0, 0, 0)
}

func (b *wgpuRendererBackendImpl) EndFrame() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.framePass == nil {
		return
	}

	b.framePass.End()

	commandBuffer, err := b.frameEncoder.Finish(nil)
	if err != nil {
		b.frameEncoder.Release()
		b.frameView.Release()
		b.frameSurface.Release()
		b.frameEncoder = nil
		b.framePass = nil
		b.frameSurface = nil
		b.frameView = nil
		return
	}

	b.queue.Submit(commandBuffer)

	commandBuffer.Release()
	b.frameEncoder.Release()
	b.frameEncoder = nil
	b.framePass = nil
}

func (b *wgpuRendererBackendImpl) Present() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameSurface == nil {
		return
	}

	b.surface.Present()

	if b.frameView != nil {
		b.frameView.Release()
		b.frameView = nil
	}
	b.frameSurface.Release()
	b.frameSurface = nil
}

func (b *wgpuRendererBackendImpl) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.sceneBindGroup != nil {
		b.sceneBindGroup.Release()
	}
	if b.sceneBuffer != nil {
		b.sceneBuffer.Release()
	}
	if b.skinnedPipeline != nil {
		b.skinnedPipeline.Release()
	}
	if b.staticPipeline != nil {
		b.staticPipeline.Release()
	}
	if b.device != nil {
		b.device.Release()
	}
	if b.adapter != nil {
		b.adapter.Release()
	}
	if b.surface != nil {
		b.surface.Release()
	}
	if b.instance != nil {
		b.instance.Release()
	}
}
