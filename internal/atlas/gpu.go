package atlas

import (
	"encoding/binary"
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/annel0/voxel-rt/internal/vec"
	"github.com/annel0/voxel-rt/internal/world"
)

// Размеры записей GPU-буферов в байтах
const (
	occupancyEntryBytes = 8  // uint64 как 2 x u32
	indexEntryBytes     = 16 // координаты чанка 3 x i32 + флаг занятости u32
	paletteBytes        = 256 * 4
)

// GPUBackend пишет данные атласа в буферы видеопамяти.
// Воксели всех слотов лежат в одном storage-буфере подряд, шейдер
// адресует их по линейному индексу слота. Таблица слотов, маски
// занятости и палитра лежат в отдельных буферах той же bind-группы.
type GPUBackend struct {
	device *wgpu.Device
	size   vec.Vec3

	VoxelBuffer     *wgpu.Buffer
	OccupancyBuffer *wgpu.Buffer
	IndexBuffer     *wgpu.Buffer
	PaletteBuffer   *wgpu.Buffer
}

// NewGPUBackend создаёт буферы атласа в видеопамяти
func NewGPUBackend(device *wgpu.Device, size vec.Vec3) (*GPUBackend, error) {
	slots := uint64(size.X * size.Y * size.Z)

	voxelBuf, err := device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "atlasVoxels",
		Size:  slots * uint64(world.ChunkBytes),
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("создание буфера вокселей: %w", err)
	}

	occupancyBuf, err := device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "atlasOccupancy",
		Size:  slots * occupancyEntryBytes,
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("создание буфера масок занятости: %w", err)
	}

	indexBuf, err := device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "atlasIndex",
		Size:  slots * indexEntryBytes,
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("создание таблицы слотов: %w", err)
	}

	paletteBuf, err := device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "atlasPalette",
		Size:  paletteBytes,
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("создание буфера палитры: %w", err)
	}

	return &GPUBackend{
		device:          device,
		size:            size,
		VoxelBuffer:     voxelBuf,
		OccupancyBuffer: occupancyBuf,
		IndexBuffer:     indexBuf,
		PaletteBuffer:   paletteBuf,
	}, nil
}

func (g *GPUBackend) slotOffset(slot vec.Vec3) uint64 {
	idx := slot.Z*g.size.X*g.size.Y + slot.Y*g.size.X + slot.X
	return uint64(idx) * uint64(world.ChunkBytes)
}

func (g *GPUBackend) UploadChunk(slot vec.Vec3, data []byte) error {
	if len(data) != world.ChunkBytes {
		return fmt.Errorf("неверный размер данных чанка: %d байт", len(data))
	}
	return g.device.GetQueue().WriteBuffer(g.VoxelBuffer, g.slotOffset(slot), data)
}

// ClearSlot не трогает воксели слота. Шейдер проверяет таблицу слотов
// перед чтением вокселей, поэтому обнулять мегабайты видеопамяти на
// каждое вытеснение не нужно.
func (g *GPUBackend) ClearSlot(slot vec.Vec3) error {
	return nil
}

func (g *GPUBackend) WriteOccupancy(slotIndex int, mask uint64) error {
	var buf [occupancyEntryBytes]byte
	binary.LittleEndian.PutUint32(buf[0:4], uint32(mask))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(mask>>32))
	return g.device.GetQueue().WriteBuffer(g.OccupancyBuffer,
		uint64(slotIndex)*occupancyEntryBytes, buf[:])
}

func (g *GPUBackend) WriteIndex(slotIndex int, entry IndexEntry) error {
	var buf [indexEntryBytes]byte
	binary.LittleEndian.PutUint32(buf[0:4], uint32(int32(entry.Coords.X)))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(int32(entry.Coords.Y)))
	binary.LittleEndian.PutUint32(buf[8:12], uint32(int32(entry.Coords.Z)))
	if entry.Occupied {
		binary.LittleEndian.PutUint32(buf[12:16], 1)
	}
	return g.device.GetQueue().WriteBuffer(g.IndexBuffer,
		uint64(slotIndex)*indexEntryBytes, buf[:])
}

func (g *GPUBackend) WritePalette(palette [256]world.RGBA) error {
	buf := make([]byte, 0, paletteBytes)
	for _, c := range palette {
		buf = append(buf, c[0], c[1], c[2], c[3])
	}
	return g.device.GetQueue().WriteBuffer(g.PaletteBuffer, 0, buf)
}

// Release освобождает буферы видеопамяти
func (g *GPUBackend) Release() {
	g.VoxelBuffer.Release()
	g.OccupancyBuffer.Release()
	g.IndexBuffer.Release()
	g.PaletteBuffer.Release()
}
