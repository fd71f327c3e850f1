package renderer

import (
	"errors"
	"fmt"
	"runtime"
	"sort"
	"sync"

	"github.com/Carmen-Shannon/oxy-trace/common"
	"github.com/Carmen-Shannon/oxy-trace/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-trace/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-trace/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// targetFormat is the color format of every offscreen target.
const targetFormat = wgpu.TextureFormatRGBA32Float

type wgpuRendererBackendImpl struct {
	mu     *sync.Mutex
	device *wgpu.Device
	queue  *wgpu.Queue

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	surface  *wgpu.Surface

	surfaceFormat *wgpu.TextureFormat
	surfaceWidth  int
	surfaceHeight int

	presentMode wgpu.PresentMode // defaults to PresentModeFifo (VSync)
	clearColor  wgpu.Color
}

type wgpuRendererBackend interface {
	Backend

	// ConfigureSurface (re)configures the swapchain for a new surface size.
	//
	// Parameters:
	//   - width: the surface width in pixels
	//   - height: the surface height in pixels
	ConfigureSurface(width, height int)

	// SetPresentMode changes how frames are presented. Takes effect at the next ConfigureSurface.
	//
	// Parameters:
	//   - mode: the PresentMode to use
	SetPresentMode(mode PresentMode)

	// SurfaceSize returns the configured surface size.
	//
	// Returns:
	//   - int: the width in pixels
	//   - int: the height in pixels
	SurfaceSize() (int, int)

	// Release frees the device, surface and instance.
	Release()
}

var _ wgpuRendererBackend = &wgpuRendererBackendImpl{}

// wgpuTarget is an RGBA32Float texture usable both as a render attachment and as a sampled texture.
type wgpuTarget struct {
	label   string
	width   int
	height  int
	texture *wgpu.Texture
	view    *wgpu.TextureView
}

func (t *wgpuTarget) Label() string {
	return t.label
}

func (t *wgpuTarget) Width() int {
	return t.width
}

func (t *wgpuTarget) Height() int {
	return t.height
}

func (t *wgpuTarget) Release() {
	if t.view != nil {
		t.view.Release()
		t.view = nil
	}
	if t.texture != nil {
		t.texture.Release()
		t.texture = nil
	}
}

func newWGPURendererBackend(surfaceDescriptor *wgpu.SurfaceDescriptor, forceFallbackAdapter bool) wgpuRendererBackend {
	runtime.LockOSThread()
	w := &wgpuRendererBackendImpl{
		mu:          &sync.Mutex{},
		instance:    wgpu.CreateInstance(nil),
		presentMode: wgpu.PresentModeFifo,
		clearColor:  wgpu.Color{R: 0, G: 0, B: 0, A: 1},
	}
	w.surface = w.instance.CreateSurface(surfaceDescriptor)

	a, err := w.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallbackAdapter,
		CompatibleSurface:    w.surface,
	})
	if err != nil {
		panic(err)
	}
	w.adapter = a

	// The tracer binds eight geometry storage arrays to the fragment stage.
	limits := wgpu.DefaultLimits()
	limits.MaxStorageBuffersPerShaderStage = 8

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: limits,
		},
	})
	if err != nil {
		panic(err)
	}
	w.device = d
	w.queue = d.GetQueue()

	return w
}

func (b *wgpuRendererBackendImpl) ConfigureSurface(width, height int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	capabilities := b.surface.GetCapabilities(b.adapter)
	b.surfaceFormat = &capabilities.Formats[0]
	b.surfaceWidth = width
	b.surfaceHeight = height

	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      *b.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: b.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})
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

func (b *wgpuRendererBackendImpl) SurfaceSize() (int, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.surfaceWidth, b.surfaceHeight
}

func (b *wgpuRendererBackendImpl) CreateTarget(label string, width, height int) (Target, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %s is %dx%d", ErrInvalidTargetSize, label, width, height)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: label,
		Size: wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        targetFormat,
		Usage:         wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopySrc | wgpu.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create target %s: %w", label, err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("create target %s view: %w", label, err)
	}

	return &wgpuTarget{label: label, width: width, height: height, texture: tex, view: view}, nil
}

func (b *wgpuRendererBackendImpl) Render(mesh Mesh, p Program, target Target) error {
	if mesh == nil || p == nil {
		return errors.New("renderer: render needs a mesh and a program")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	var (
		format wgpu.TextureFormat
		view   *wgpu.TextureView
		dest   *wgpuTarget
	)
	if target != nil {
		t, ok := target.(*wgpuTarget)
		if !ok || t.view == nil {
			return ErrForeignTarget
		}
		dest = t
		format = targetFormat
		view = t.view
	} else {
		if b.surfaceFormat == nil {
			return errors.New("renderer: surface is not configured")
		}
		format = *b.surfaceFormat
	}

	renderPipeline, err := b.realizePipeline(p.Pipeline(), format)
	if err != nil {
		return fmt.Errorf("program %s: %w", p.Key(), err)
	}
	vertexBuffer, vertexCount, err := b.realizeMesh(mesh)
	if err != nil {
		return fmt.Errorf("mesh %s: %w", mesh.Label(), err)
	}
	bindGroups, err := b.realizeBindGroups(p, dest)
	if err != nil {
		return err
	}

	var surfaceTexture *wgpu.Texture
	if dest == nil {
		surfaceTexture, err = b.surface.GetCurrentTexture()
		if err != nil {
			return fmt.Errorf("acquire surface: %w", err)
		}
		view, err = surfaceTexture.CreateView(nil)
		if err != nil {
			surfaceTexture.Release()
			return fmt.Errorf("surface view: %w", err)
		}
		defer func() {
			view.Release()
			surfaceTexture.Release()
		}()
	}

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		return err
	}
	defer encoder.Release()

	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       view,
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: b.clearColor,
			},
		},
	})
	pass.SetPipeline(renderPipeline)
	for g, bg := range bindGroups {
		pass.SetBindGroup(uint32(g), bg, nil)
	}
	pass.SetVertexBuffer(0, vertexBuffer, 0, wgpu.WholeSize)
	pass.Draw(uint32(vertexCount), 1, 0, 0)
	if err := pass.End(); err != nil {
		pass.Release()
		return fmt.Errorf("end render pass: %w", err)
	}
	pass.Release()

	commandBuffer, err := encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("finish commands: %w", err)
	}
	defer commandBuffer.Release()

	b.queue.Submit(commandBuffer)
	if dest == nil {
		b.surface.Present()
	}

	return nil
}

func (b *wgpuRendererBackendImpl) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.queue != nil {
		b.queue.Release()
		b.queue = nil
	}
	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
	if b.surface != nil {
		b.surface.Release()
		b.surface = nil
	}
	if b.adapter != nil {
		b.adapter.Release()
		b.adapter = nil
	}
	if b.instance != nil {
		b.instance.Release()
		b.instance = nil
	}
}

// realizePipeline returns the cached render pipeline of p for format, creating the shared layout and the pipeline
// itself on first use.
func (b *wgpuRendererBackendImpl) realizePipeline(p pipeline.Pipeline, format wgpu.TextureFormat) (*wgpu.RenderPipeline, error) {
	if rp := p.RenderPipeline(format); rp != nil {
		return rp, nil
	}

	vertexShader := p.Shader(shader.ShaderTypeVertex)
	fragmentShader := p.Shader(shader.ShaderTypeFragment)
	if vertexShader == nil || fragmentShader == nil {
		return nil, errors.New("both vertex and fragment shaders must be set to create a render pipeline")
	}

	layout := p.Layout()
	if layout == nil {
		merged := p.BindGroupLayoutDescriptors()
		maxGroup := -1
		for g := range merged {
			if g > maxGroup {
				maxGroup = g
			}
		}
		bindGroupLayouts := make([]*wgpu.BindGroupLayout, maxGroup+1)
		for g := range bindGroupLayouts {
			desc := merged[g]
			desc.Label = fmt.Sprintf("%s group %d", p.PipelineKey(), g)
			l, err := b.device.CreateBindGroupLayout(&desc)
			if err != nil {
				return nil, fmt.Errorf("failed to create bind group layout for group %d: %w", g, err)
			}
			bindGroupLayouts[g] = l
		}

		var err error
		layout, err = b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
			Label:            p.PipelineKey(),
			BindGroupLayouts: bindGroupLayouts,
		})
		if err != nil {
			return nil, err
		}
		p.SetLayout(layout, bindGroupLayouts)
	}

	vs, err := b.device.CreateShaderModule(vertexShader.Module())
	if err != nil {
		return nil, fmt.Errorf("vertex module %s: %w", vertexShader.Key(), err)
	}
	defer vs.Release()
	fs, err := b.device.CreateShaderModule(fragmentShader.Module())
	if err != nil {
		return nil, fmt.Errorf("fragment module %s: %w", fragmentShader.Key(), err)
	}
	defer fs.Release()

	slots := make([]int, 0, len(vertexShader.VertexLayouts()))
	for slot := range vertexShader.VertexLayouts() {
		slots = append(slots, slot)
	}
	sort.Ints(slots)
	vertexLayouts := make([]wgpu.VertexBufferLayout, 0, len(slots))
	for _, slot := range slots {
		vertexLayouts = append(vertexLayouts, vertexShader.VertexLayouts()[slot]...)
	}

	created, err := b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  p.PipelineKey() + " Render Pipeline",
		Layout: layout,
		Vertex: wgpu.VertexState{
			Module:     vs,
			EntryPoint: vertexShader.EntryPoint(),
			Buffers:    vertexLayouts,
		},
		Fragment: &wgpu.FragmentState{
			Module:     fs,
			EntryPoint: fragmentShader.EntryPoint(),
			Targets:    []wgpu.ColorTargetState{p.ColorTarget(format)},
		},
		Primitive: p.PrimitiveState(),
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, err
	}

	p.SetRenderPipeline(format, created)
	return created, nil
}

// realizeMesh uploads the mesh's vertex data once and returns the cached buffer afterwards.
func (b *wgpuRendererBackendImpl) realizeMesh(mesh Mesh) (*wgpu.Buffer, int, error) {
	provider := mesh.Provider()
	if buf, count := provider.VertexBuffer(); buf != nil {
		return buf, count, nil
	}

	vertexData := mesh.VertexData()
	if len(vertexData) == 0 {
		return nil, 0, errors.New("no vertex data")
	}
	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            provider.Label() + " Vertex Buffer",
		Size:             uint64(len(vertexData)),
		Usage:            wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
		MappedAtCreation: false,
	})
	if err != nil {
		return nil, 0, err
	}
	b.queue.WriteBuffer(buf, 0, vertexData)
	provider.SetVertexBuffer(buf, mesh.VertexCount())

	return buf, mesh.VertexCount(), nil
}

// realizeBindGroups uploads every uniform of p and returns one bind group per group index. A group's bind group
// is only recreated when one of the resource handles it references has changed.
func (b *wgpuRendererBackendImpl) realizeBindGroups(p Program, dest *wgpuTarget) ([]*wgpu.BindGroup, error) {
	layouts := p.Pipeline().BindGroupLayouts()
	byGroup := make(map[int][]shader.Binding)
	for _, binding := range p.Bindings() {
		byGroup[binding.Group] = append(byGroup[binding.Group], binding)
	}

	groups := make([]*wgpu.BindGroup, len(layouts))
	for g, layout := range layouts {
		provider := p.Provider(g)
		entries := make([]wgpu.BindGroupEntry, 0, len(byGroup[g]))

		for _, binding := range byGroup[g] {
			u, ok := p.Uniform(binding.Name)
			if !ok {
				return nil, &MissingUniformError{Program: p.Key(), Name: binding.Name}
			}
			entry, err := b.bindEntry(provider, binding, u, dest)
			if err != nil {
				return nil, fmt.Errorf("program %s uniform %s: %w", p.Key(), binding.Name, err)
			}
			entries = append(entries, entry)
		}

		if !provider.Matches(entries) {
			bg, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
				Label:   provider.Label() + " Bind Group",
				Layout:  layout,
				Entries: entries,
			})
			if err != nil {
				return nil, err
			}
			provider.SetBindGroup(bg, entries)
		}
		groups[g] = provider.BindGroup()
	}

	return groups, nil
}

func (b *wgpuRendererBackendImpl) bindEntry(provider bind_group_provider.BindGroupProvider, binding shader.Binding, u Uniform, dest *wgpuTarget) (wgpu.BindGroupEntry, error) {
	entry := wgpu.BindGroupEntry{Binding: uint32(binding.Binding)}

	switch v := u.(type) {
	case BufferUniform:
		buf, err := b.writeBuffer(provider, binding, v.Data)
		if err != nil {
			return entry, err
		}
		entry.Buffer = buf
		entry.Size = wgpu.WholeSize
	case TextureUniform:
		view, err := b.writeTexture(provider, binding.Binding, v.Texture)
		if err != nil {
			return entry, err
		}
		entry.TextureView = view
	case TargetUniform:
		t, ok := v.Target.(*wgpuTarget)
		if !ok || t.view == nil {
			return entry, ErrForeignTarget
		}
		if t == dest {
			return entry, ErrTargetAliasing
		}
		entry.TextureView = t.view
	default:
		return entry, fmt.Errorf("unsupported uniform %T", u)
	}

	return entry, nil
}

// writeBuffer uploads data into the provider-owned buffer for a binding, reallocating it when the size changes.
func (b *wgpuRendererBackendImpl) writeBuffer(provider bind_group_provider.BindGroupProvider, binding shader.Binding, data []byte) (*wgpu.Buffer, error) {
	size := max(uint64(len(data)), binding.MinBindingSize, 4)
	size = (size + 3) &^ 3

	var usage wgpu.BufferUsage
	switch binding.Kind {
	case shader.BindingKindUniformBuffer:
		usage = wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst
	default:
		usage = wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst
	}

	buf, current := provider.Buffer(binding.Binding)
	if buf == nil || current != size {
		var err error
		buf, err = b.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: provider.Label() + " " + binding.Name,
			Size:  size,
			Usage: usage,
		})
		if err != nil {
			return nil, err
		}
		provider.SetBuffer(binding.Binding, buf, size)
	}

	padded := data
	if uint64(len(padded)) != size {
		padded = make([]byte, size)
		copy(padded, data)
	}
	b.queue.WriteBuffer(buf, 0, padded)

	return buf, nil
}

// writeTexture uploads a data texture into the provider-owned texture for a binding, reallocating it when the
// extent changes.
func (b *wgpuRendererBackendImpl) writeTexture(provider bind_group_provider.BindGroupProvider, binding int, data common.FloatTexture) (*wgpu.TextureView, error) {
	extent := [2]uint32{data.Width, data.Height}
	tex, view, current := provider.Texture(binding)
	if tex == nil || current != extent {
		var err error
		tex, err = b.device.CreateTexture(&wgpu.TextureDescriptor{
			Label:     fmt.Sprintf("%s Texture %d", provider.Label(), binding),
			Usage:     wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
			Dimension: wgpu.TextureDimension2D,
			Size: wgpu.Extent3D{
				Width:              data.Width,
				Height:             data.Height,
				DepthOrArrayLayers: 1,
			},
			Format:        targetFormat,
			MipLevelCount: 1,
			SampleCount:   1,
		})
		if err != nil {
			return nil, err
		}
		view, err = tex.CreateView(nil)
		if err != nil {
			tex.Release()
			return nil, err
		}
		provider.SetTexture(binding, tex, view, extent)
	}

	b.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  tex,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		data.Bytes(),
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  data.BytesPerRow(),
			RowsPerImage: data.Height,
		},
		&wgpu.Extent3D{
			Width:              data.Width,
			Height:             data.Height,
			DepthOrArrayLayers: 1,
		},
	)

	return view, nil
}
