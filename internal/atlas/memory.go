package atlas

import (
	"github.com/annel0/voxel-rt/internal/vec"
	"github.com/annel0/voxel-rt/internal/world"
)

// MemoryBackend хранит данные атласа в обычной памяти.
// Используется в тестах и в эталонном CPU-трассировщике, где стриминг
// должен работать без видеокарты.
type MemoryBackend struct {
	size      vec.Vec3
	chunks    map[vec.Vec3][]byte
	occupancy map[int]uint64
	index     map[int]IndexEntry
	palette   [256]world.RGBA
}

// NewMemoryBackend создаёт бэкенд в памяти для атласа указанного размера
func NewMemoryBackend(size vec.Vec3) *MemoryBackend {
	return &MemoryBackend{
		size:      size,
		chunks:    make(map[vec.Vec3][]byte),
		occupancy: make(map[int]uint64),
		index:     make(map[int]IndexEntry),
	}
}

func (m *MemoryBackend) UploadChunk(slot vec.Vec3, data []byte) error {
	buf := make([]byte, len(data))
	copy(buf, data)
	m.chunks[slot] = buf
	return nil
}

func (m *MemoryBackend) ClearSlot(slot vec.Vec3) error {
	delete(m.chunks, slot)
	return nil
}

func (m *MemoryBackend) WriteOccupancy(slotIndex int, mask uint64) error {
	m.occupancy[slotIndex] = mask
	return nil
}

func (m *MemoryBackend) WriteIndex(slotIndex int, entry IndexEntry) error {
	m.index[slotIndex] = entry
	return nil
}

func (m *MemoryBackend) WritePalette(palette [256]world.RGBA) error {
	m.palette = palette
	return nil
}

// ChunkData возвращает сериализованные воксели слота или nil
func (m *MemoryBackend) ChunkData(slot vec.Vec3) []byte {
	return m.chunks[slot]
}

// VoxelAt читает воксель из слота атласа по локальным координатам.
// Эталонный трассировщик ходит по атласу точно так же, как шейдер.
func (m *MemoryBackend) VoxelAt(slot vec.Vec3, x, y, z int) world.Voxel {
	data := m.chunks[slot]
	if data == nil {
		return 0
	}
	idx := world.VoxelIndex(x, y, z) * 4
	return world.Voxel(uint32(data[idx]) |
		uint32(data[idx+1])<<8 |
		uint32(data[idx+2])<<16 |
		uint32(data[idx+3])<<24)
}

// Occupancy возвращает маску занятости слота по линейному индексу
func (m *MemoryBackend) Occupancy(slotIndex int) uint64 {
	return m.occupancy[slotIndex]
}

// Palette возвращает текущую палитру материалов
func (m *MemoryBackend) Palette() [256]world.RGBA {
	return m.palette
}
