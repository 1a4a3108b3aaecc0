package world

import (
	"encoding/binary"

	"github.com/annel0/voxel-rt/internal/vec"
)

// Размеры чанка и его разбиения на подобласти
const (
	ChunkSize   = 32              // Ребро чанка в вокселях
	ChunkShift  = 5               // log2(ChunkSize), для битовых сдвигов
	ChunkVolume = 32 * 32 * 32    // Вокселей в чанке
	ChunkBytes  = ChunkVolume * 4 // Байтов на чанк в атласе

	SubRegionSize = 8 // Ребро подобласти маски занятости
	SubRegionsDim = 4 // Подобластей по каждой оси (4x4x4 = 64 бита маски)
)

// Chunk представляет плотный воксельный объём 32x32x32.
// Воксели хранятся плоским срезом с индексацией z*1024 + y*32 + x.
// После загрузки в атлас чанк неизменяем; правки идут через MutateVoxel
// менеджера, который перезаливает чанк целиком.
type Chunk struct {
	Coords vec.Vec3 // Координаты чанка в мире (в чанках, не в вокселях)
	Voxels []Voxel  // Ровно ChunkVolume элементов
}

// NewChunk создаёт пустой (полностью воздушный) чанк
func NewChunk(coords vec.Vec3) *Chunk {
	return &Chunk{
		Coords: coords,
		Voxels: make([]Voxel, ChunkVolume),
	}
}

// VoxelIndex возвращает плоский индекс вокселя по локальным координатам
func VoxelIndex(x, y, z int) int {
	return z*ChunkSize*ChunkSize + y*ChunkSize + x
}

// Get возвращает воксель по локальным координатам
func (c *Chunk) Get(x, y, z int) Voxel {
	return c.Voxels[VoxelIndex(x, y, z)]
}

// Set устанавливает воксель по локальным координатам
func (c *Chunk) Set(x, y, z int, v Voxel) {
	c.Voxels[VoxelIndex(x, y, z)] = v
}

// IsEmpty проверяет, состоит ли чанк целиком из воздуха.
// Линейный скан; пустые чанки не получают GPU-слот и карту коллизий,
// что при кубах видимости в сотни чанков экономит большую часть атласа.
func (c *Chunk) IsEmpty() bool {
	for _, v := range c.Voxels {
		if !v.IsAir() {
			return false
		}
	}
	return true
}

// OccupancyMask строит 64-битную маску занятости: объём делится на
// сетку 4x4x4 подобластей по 8x8x8 вокселей, бит подобласти установлен,
// если в ней есть хотя бы один твёрдый воксель. Трассировка пропускает
// подобласти с нулевым битом целиком, не спускаясь до вокселей.
func (c *Chunk) OccupancyMask() uint64 {
	var mask uint64

	for idx, v := range c.Voxels {
		if v.IsAir() {
			continue
		}

		x := idx & (ChunkSize - 1)
		y := (idx >> ChunkShift) & (ChunkSize - 1)
		z := idx >> (2 * ChunkShift)

		sx := x / SubRegionSize
		sy := y / SubRegionSize
		sz := z / SubRegionSize
		bit := sz*SubRegionsDim*SubRegionsDim + sy*SubRegionsDim + sx

		mask |= 1 << uint(bit)
	}

	return mask
}

// Bytes сериализует воксели в little-endian байты для загрузки в буфер атласа
func (c *Chunk) Bytes() []byte {
	buf := make([]byte, ChunkBytes)
	for i, v := range c.Voxels {
		binary.LittleEndian.PutUint32(buf[i*4:], uint32(v))
	}
	return buf
}

// WorldToChunk возвращает координату чанка, содержащего воксель
func WorldToChunk(voxelPos vec.Vec3) vec.Vec3 {
	return vec.Vec3{
		X: vec.DivEuclid(voxelPos.X, ChunkSize),
		Y: vec.DivEuclid(voxelPos.Y, ChunkSize),
		Z: vec.DivEuclid(voxelPos.Z, ChunkSize),
	}
}

// WorldToLocal возвращает локальные координаты вокселя внутри его чанка
func WorldToLocal(voxelPos vec.Vec3) vec.Vec3 {
	return vec.Vec3{
		X: vec.RemEuclid(voxelPos.X, ChunkSize),
		Y: vec.RemEuclid(voxelPos.Y, ChunkSize),
		Z: vec.RemEuclid(voxelPos.Z, ChunkSize),
	}
}
