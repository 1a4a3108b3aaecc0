package world

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// CollisionBytes — размер битовой карты коллизий чанка (32768 бит)
const CollisionBytes = ChunkVolume / 8

// CollisionMap — плотная битовая карта твёрдости вокселей чанка.
// Один бит на воксель, индексация совпадает с VoxelIndex, поэтому
// проверка твёрдости не требует чтения упакованного вокселя.
type CollisionMap [CollisionBytes]byte

// NewCollisionMap строит карту коллизий из вокселей чанка
func NewCollisionMap(chunk *Chunk) *CollisionMap {
	cm := &CollisionMap{}
	for idx, v := range chunk.Voxels {
		if !v.IsAir() {
			cm[idx>>3] |= 1 << (idx & 7)
		}
	}
	return cm
}

// IsSolid проверяет твёрдость вокселя по локальным координатам.
// Координаты вне чанка считаются воздухом и никогда не ошибкой:
// физика опрашивает карту на каждом шаге и не должна падать на границе.
func (cm *CollisionMap) IsSolid(x, y, z int) bool {
	if x < 0 || x >= ChunkSize || y < 0 || y >= ChunkSize || z < 0 || z >= ChunkSize {
		return false
	}
	idx := VoxelIndex(x, y, z)
	return cm[idx>>3]&(1<<(idx&7)) != 0
}

// Count возвращает число твёрдых вокселей в карте
func (cm *CollisionMap) Count() int {
	total := 0
	for _, b := range cm {
		total += popcount8(b)
	}
	return total
}

func popcount8(b byte) int {
	n := 0
	for b != 0 {
		b &= b - 1
		n++
	}
	return n
}

// CrossesVoxelBoundary проверяет, пересекло ли перемещение из old в new
// границу вокселя хотя бы по одной оси. Пока точка остаётся внутри
// того же вокселя, повторная проверка коллизий не нужна.
func CrossesVoxelBoundary(old, new mgl32.Vec3) bool {
	return floorf(old.X()) != floorf(new.X()) ||
		floorf(old.Y()) != floorf(new.Y()) ||
		floorf(old.Z()) != floorf(new.Z())
}

func floorf(v float32) int {
	return int(math.Floor(float64(v)))
}
