// Package atlas управляет размещением чанков в слотах GPU-буфера.
// Каждый чанк мира занимает детерминированный слот, вычисляемый
// помодульно по каждой оси, поэтому переиспользование слота происходит
// только при коллизии координат по модулю размера атласа.
package atlas

import (
	"fmt"

	"github.com/annel0/voxel-rt/internal/vec"
	"github.com/annel0/voxel-rt/internal/world"
)

// IndexEntry — запись таблицы слотов: какой чанк занимает слот
type IndexEntry struct {
	Coords   vec.Vec3 // Координаты чанка, занимающего слот
	Occupied bool
}

// TextureBackend — приёмник данных атласа. Боевая реализация пишет
// в видеопамять через wgpu, тестовая хранит всё в обычных срезах.
type TextureBackend interface {
	// UploadChunk загружает воксели чанка в слот атласа
	UploadChunk(slot vec.Vec3, data []byte) error
	// ClearSlot обнуляет слот атласа
	ClearSlot(slot vec.Vec3) error
	// WriteOccupancy записывает маску занятости подобластей слота
	WriteOccupancy(slotIndex int, mask uint64) error
	// WriteIndex записывает запись таблицы слотов
	WriteIndex(slotIndex int, entry IndexEntry) error
	// WritePalette записывает палитру материалов
	WritePalette(palette [256]world.RGBA) error
}

// ChunkAtlas — трёхмерный атлас чанков фиксированного размера.
// CPU-зеркала таблицы слотов и масок занятости позволяют принимать
// решения о вытеснении без чтения из видеопамяти.
type ChunkAtlas struct {
	size      vec.Vec3
	backend   TextureBackend
	index     []IndexEntry
	occupancy []uint64
}

// NewChunkAtlas создаёт атлас указанного размера.
// Каждая ось обязана вмещать видимый куб (2*viewDistance+1), иначе
// два одновременно видимых чанка разделили бы один слот и стриминг
// вытеснял бы чанки прямо из-под камеры. Ошибка конфигурации
// обнаруживается здесь, а не в середине кадра.
func NewChunkAtlas(size vec.Vec3, viewDistance int, backend TextureBackend) (*ChunkAtlas, error) {
	need := 2*viewDistance + 1
	if size.X < need || size.Y < need || size.Z < need {
		return nil, fmt.Errorf("атлас %v слишком мал для дистанции видимости %d: каждая ось должна быть >= %d",
			size, viewDistance, need)
	}

	slots := size.X * size.Y * size.Z
	a := &ChunkAtlas{
		size:      size,
		backend:   backend,
		index:     make([]IndexEntry, slots),
		occupancy: make([]uint64, slots),
	}

	if err := backend.WritePalette(world.DefaultPalette()); err != nil {
		return nil, fmt.Errorf("запись палитры: %w", err)
	}
	return a, nil
}

// Size возвращает размер атласа в слотах
func (a *ChunkAtlas) Size() vec.Vec3 {
	return a.size
}

// SlotCount возвращает общее число слотов
func (a *ChunkAtlas) SlotCount() int {
	return len(a.index)
}

// SlotCoords возвращает координаты слота для чанка.
// Евклидов модуль по каждой оси корректно обрабатывает отрицательные
// координаты чанков.
func (a *ChunkAtlas) SlotCoords(coords vec.Vec3) vec.Vec3 {
	return vec.Vec3{
		X: vec.RemEuclid(coords.X, a.size.X),
		Y: vec.RemEuclid(coords.Y, a.size.Y),
		Z: vec.RemEuclid(coords.Z, a.size.Z),
	}
}

// SlotIndex возвращает линейный индекс слота для чанка
func (a *ChunkAtlas) SlotIndex(coords vec.Vec3) int {
	s := a.SlotCoords(coords)
	return s.Z*a.size.X*a.size.Y + s.Y*a.size.X + s.X
}

// EntryAt возвращает запись слота, занимаемого указанным чанком
func (a *ChunkAtlas) EntryAt(coords vec.Vec3) IndexEntry {
	return a.index[a.SlotIndex(coords)]
}

// Holds проверяет, загружен ли именно этот чанк в свой слот
func (a *ChunkAtlas) Holds(coords vec.Vec3) bool {
	e := a.index[a.SlotIndex(coords)]
	return e.Occupied && e.Coords.Equals(coords)
}

// Upload загружает чанк в его слот. Если слот занят другим чанком,
// прежний жилец вытесняется, его координаты возвращаются вызывающему.
func (a *ChunkAtlas) Upload(chunk *world.Chunk) (evicted vec.Vec3, wasEvicted bool, err error) {
	slotIdx := a.SlotIndex(chunk.Coords)
	slot := a.SlotCoords(chunk.Coords)

	prev := a.index[slotIdx]
	if prev.Occupied && !prev.Coords.Equals(chunk.Coords) {
		evicted = prev.Coords
		wasEvicted = true
	}

	if err = a.backend.UploadChunk(slot, chunk.Bytes()); err != nil {
		return evicted, wasEvicted, fmt.Errorf("загрузка чанка %v в слот %v: %w", chunk.Coords, slot, err)
	}

	mask := chunk.OccupancyMask()
	if err = a.backend.WriteOccupancy(slotIdx, mask); err != nil {
		return evicted, wasEvicted, fmt.Errorf("запись маски занятости слота %d: %w", slotIdx, err)
	}

	entry := IndexEntry{Coords: chunk.Coords, Occupied: true}
	if err = a.backend.WriteIndex(slotIdx, entry); err != nil {
		return evicted, wasEvicted, fmt.Errorf("запись таблицы слотов %d: %w", slotIdx, err)
	}

	a.index[slotIdx] = entry
	a.occupancy[slotIdx] = mask
	return evicted, wasEvicted, nil
}

// Release освобождает слот, если его занимает указанный чанк.
// Слот, уже переиспользованный другим чанком, не трогается.
func (a *ChunkAtlas) Release(coords vec.Vec3) error {
	slotIdx := a.SlotIndex(coords)
	e := a.index[slotIdx]
	if !e.Occupied || !e.Coords.Equals(coords) {
		return nil
	}

	if err := a.backend.ClearSlot(a.SlotCoords(coords)); err != nil {
		return fmt.Errorf("очистка слота %d: %w", slotIdx, err)
	}
	empty := IndexEntry{}
	if err := a.backend.WriteIndex(slotIdx, empty); err != nil {
		return fmt.Errorf("запись таблицы слотов %d: %w", slotIdx, err)
	}
	if err := a.backend.WriteOccupancy(slotIdx, 0); err != nil {
		return fmt.Errorf("запись маски занятости слота %d: %w", slotIdx, err)
	}

	a.index[slotIdx] = empty
	a.occupancy[slotIdx] = 0
	return nil
}

// OccupancyAt возвращает маску занятости слота указанного чанка
func (a *ChunkAtlas) OccupancyAt(coords vec.Vec3) uint64 {
	return a.occupancy[a.SlotIndex(coords)]
}

// OccupiedSlots возвращает число занятых слотов
func (a *ChunkAtlas) OccupiedSlots() int {
	n := 0
	for _, e := range a.index {
		if e.Occupied {
			n++
		}
	}
	return n
}
