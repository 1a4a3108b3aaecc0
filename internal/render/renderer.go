// Package render содержит вычислительный конвейер трассировки и его
// эталонную CPU-реализацию
package render

import (
	_ "embed"
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/annel0/voxel-rt/internal/atlas"
	"github.com/annel0/voxel-rt/internal/camera"
	"github.com/annel0/voxel-rt/internal/engine"
)

//go:embed shader.wgsl
var shaderSource string

// Renderer владеет вычислительным конвейером трассировки.
// Каждый кадр камера пишется в uniform-буфер и запускается compute-
// шейдер, пишущий картинку в выходную текстуру.
type Renderer struct {
	device   *wgpu.Device
	pipeline *wgpu.ComputePipeline

	cameraBuffer  *wgpu.Buffer
	outputTexture *wgpu.Texture
	outputView    *wgpu.TextureView
	bindGroup     *wgpu.BindGroup

	width  int
	height int
	fov    float32
}

// NewRenderer создаёт конвейер поверх буферов атласа
func NewRenderer(device *wgpu.Device, backend *atlas.GPUBackend, width, height int, fov float32) (*Renderer, error) {
	shader, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "voxel_trace",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaderSource},
	})
	if err != nil {
		return nil, fmt.Errorf("компиляция шейдера: %w", err)
	}
	defer shader.Release()

	pipeline, err := device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     shader,
			EntryPoint: "cs_main",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("создание compute-конвейера: %w", err)
	}

	cameraBuffer, err := device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "cameraUniform",
		Size:  CameraUniformBytes,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("создание uniform-буфера камеры: %w", err)
	}

	outputTexture, err := device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "traceOutput",
		Size: wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatRGBA8Unorm,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageStorageBinding | wgpu.TextureUsageCopySrc,
	})
	if err != nil {
		return nil, fmt.Errorf("создание выходной текстуры: %w", err)
	}
	outputView, err := outputTexture.CreateView(nil)
	if err != nil {
		return nil, fmt.Errorf("создание вида выходной текстуры: %w", err)
	}

	layout := pipeline.GetBindGroupLayout(0)
	defer layout.Release()
	bindGroup, err := device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Layout: layout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: cameraBuffer, Size: wgpu.WholeSize},
			{Binding: 1, Buffer: backend.VoxelBuffer, Size: wgpu.WholeSize},
			{Binding: 2, Buffer: backend.OccupancyBuffer, Size: wgpu.WholeSize},
			{Binding: 3, Buffer: backend.IndexBuffer, Size: wgpu.WholeSize},
			{Binding: 4, Buffer: backend.PaletteBuffer, Size: wgpu.WholeSize},
			{Binding: 5, TextureView: outputView},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("создание bind-группы: %w", err)
	}

	return &Renderer{
		device:        device,
		pipeline:      pipeline,
		cameraBuffer:  cameraBuffer,
		outputTexture: outputTexture,
		outputView:    outputView,
		bindGroup:     bindGroup,
		width:         width,
		height:        height,
		fov:           fov,
	}, nil
}

// UpdateCamera пишет позу камеры и описание сетки в uniform-буфер
func (r *Renderer) UpdateCamera(pose camera.Pose, grid engine.GridInfo, time float32) error {
	u := NewCameraUniform(pose, grid, r.fov, r.width, r.height, time)
	return r.device.GetQueue().WriteBuffer(r.cameraBuffer, 0, u.Marshal())
}

// Render запускает трассировку кадра в выходную текстуру
func (r *Renderer) Render() error {
	encoder, err := r.device.CreateCommandEncoder(nil)
	if err != nil {
		return fmt.Errorf("создание командного энкодера: %w", err)
	}
	defer encoder.Release()

	pass := encoder.BeginComputePass(nil)
	pass.SetPipeline(r.pipeline)
	pass.SetBindGroup(0, r.bindGroup, nil)
	wgX := (uint32(r.width) + 7) / 8
	wgY := (uint32(r.height) + 7) / 8
	pass.DispatchWorkgroups(wgX, wgY, 1)
	if err := pass.End(); err != nil {
		return fmt.Errorf("завершение compute-прохода: %w", err)
	}

	cmd, err := encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("завершение командного буфера: %w", err)
	}
	defer cmd.Release()

	r.device.GetQueue().Submit(cmd)
	return nil
}

// OutputView возвращает вид выходной текстуры для показа на экране
func (r *Renderer) OutputView() *wgpu.TextureView {
	return r.outputView
}

// Release освобождает ресурсы конвейера
func (r *Renderer) Release() {
	r.bindGroup.Release()
	r.outputView.Release()
	r.outputTexture.Release()
	r.cameraBuffer.Release()
	r.pipeline.Release()
}
