package atlas

import (
	"testing"

	"github.com/annel0/voxel-rt/internal/vec"
	"github.com/annel0/voxel-rt/internal/world"
	"github.com/stretchr/testify/require"
)

func newTestAtlas(t *testing.T, size vec.Vec3, vd int) (*ChunkAtlas, *MemoryBackend) {
	t.Helper()
	backend := NewMemoryBackend(size)
	a, err := NewChunkAtlas(size, vd, backend)
	require.NoError(t, err)
	return a, backend
}

func solidChunk(coords vec.Vec3) *world.Chunk {
	c := world.NewChunk(coords)
	c.Set(0, 0, 0, world.PackVoxel(world.MaterialStone, 0, 0, 0))
	return c
}

func TestAtlasSizeValidation(t *testing.T) {
	backend := NewMemoryBackend(vec.Vec3{X: 8, Y: 8, Z: 8})

	_, err := NewChunkAtlas(vec.Vec3{X: 8, Y: 8, Z: 8}, 3, backend)
	require.NoError(t, err, "Атлас 8x8x8 вмещает куб видимости при дистанции 3")

	// Куб видимости при дистанции 4 требует 9 слотов по оси
	_, err = NewChunkAtlas(vec.Vec3{X: 8, Y: 8, Z: 8}, 4, backend)
	require.Error(t, err, "Слишком маленький атлас должен отвергаться при создании")

	_, err = NewChunkAtlas(vec.Vec3{X: 9, Y: 9, Z: 7}, 4, backend)
	require.Error(t, err, "Каждая ось проверяется независимо")
}

func TestSlotMapping(t *testing.T) {
	a, _ := newTestAtlas(t, vec.Vec3{X: 8, Y: 8, Z: 8}, 3)

	tests := []struct {
		coords vec.Vec3
		slot   vec.Vec3
	}{
		{vec.Vec3{X: 0, Y: 0, Z: 0}, vec.Vec3{X: 0, Y: 0, Z: 0}},
		{vec.Vec3{X: 7, Y: 0, Z: 0}, vec.Vec3{X: 7, Y: 0, Z: 0}},
		{vec.Vec3{X: 8, Y: 0, Z: 0}, vec.Vec3{X: 0, Y: 0, Z: 0}},
		// Отрицательные координаты отображаются евклидовым модулем
		{vec.Vec3{X: -1, Y: -1, Z: -1}, vec.Vec3{X: 7, Y: 7, Z: 7}},
		{vec.Vec3{X: -8, Y: 2, Z: -9}, vec.Vec3{X: 0, Y: 2, Z: 7}},
	}

	for _, tt := range tests {
		require.Equal(t, tt.slot, a.SlotCoords(tt.coords),
			"Слот чанка %v", tt.coords)
	}

	// Линейный индекс: z старшая ось
	require.Equal(t, 0, a.SlotIndex(vec.Vec3{}))
	require.Equal(t, 1, a.SlotIndex(vec.Vec3{X: 1}))
	require.Equal(t, 8, a.SlotIndex(vec.Vec3{Y: 1}))
	require.Equal(t, 64, a.SlotIndex(vec.Vec3{Z: 1}))
}

func TestSlotPeriodicity(t *testing.T) {
	a, _ := newTestAtlas(t, vec.Vec3{X: 8, Y: 8, Z: 8}, 3)

	// Слот чанка периодичен по каждой оси с периодом размера атласа
	for _, base := range []vec.Vec3{{X: 0, Y: 0, Z: 0}, {X: 3, Y: -5, Z: 11}, {X: -20, Y: 7, Z: -1}} {
		shifted := base.Add(vec.Vec3{X: 8, Y: -8, Z: 16})
		require.Equal(t, a.SlotIndex(base), a.SlotIndex(shifted),
			"Чанки %v и %v должны делить слот", base, shifted)
	}
}

func TestUploadAndEvict(t *testing.T) {
	a, backend := newTestAtlas(t, vec.Vec3{X: 8, Y: 8, Z: 8}, 3)

	first := solidChunk(vec.Vec3{X: 0, Y: 0, Z: 0})
	_, wasEvicted, err := a.Upload(first)
	require.NoError(t, err)
	require.False(t, wasEvicted, "Пустой слот не должен никого вытеснять")
	require.True(t, a.Holds(first.Coords))
	require.Equal(t, uint64(1), a.OccupancyAt(first.Coords))
	require.NotNil(t, backend.ChunkData(vec.Vec3{}), "Воксели должны дойти до бэкенда")

	// Чанк (8,0,0) делит слот (0,0,0) и вытесняет жильца
	second := solidChunk(vec.Vec3{X: 8, Y: 0, Z: 0})
	evicted, wasEvicted, err := a.Upload(second)
	require.NoError(t, err)
	require.True(t, wasEvicted)
	require.Equal(t, first.Coords, evicted, "Вытеснен должен быть прежний жилец слота")
	require.True(t, a.Holds(second.Coords))
	require.False(t, a.Holds(first.Coords))
}

func TestUploadSameChunkNoEviction(t *testing.T) {
	a, _ := newTestAtlas(t, vec.Vec3{X: 8, Y: 8, Z: 8}, 3)

	c := solidChunk(vec.Vec3{X: 2, Y: 3, Z: 4})
	_, _, err := a.Upload(c)
	require.NoError(t, err)

	// Повторная загрузка того же чанка не считается вытеснением
	_, wasEvicted, err := a.Upload(c)
	require.NoError(t, err)
	require.False(t, wasEvicted)
}

func TestRelease(t *testing.T) {
	a, backend := newTestAtlas(t, vec.Vec3{X: 8, Y: 8, Z: 8}, 3)

	c := solidChunk(vec.Vec3{X: 1, Y: 1, Z: 1})
	_, _, err := a.Upload(c)
	require.NoError(t, err)

	require.NoError(t, a.Release(c.Coords))
	require.False(t, a.Holds(c.Coords))
	require.Equal(t, uint64(0), a.OccupancyAt(c.Coords))
	require.Nil(t, backend.ChunkData(vec.Vec3{X: 1, Y: 1, Z: 1}))

	// Release чужого слота не трогает нового жильца
	_, _, err = a.Upload(c)
	require.NoError(t, err)
	other := solidChunk(vec.Vec3{X: 9, Y: 1, Z: 1})
	_, _, err = a.Upload(other)
	require.NoError(t, err)

	require.NoError(t, a.Release(c.Coords))
	require.True(t, a.Holds(other.Coords), "Слот переиспользован, прежний жилец не должен его чистить")
}

func TestOccupiedSlots(t *testing.T) {
	a, _ := newTestAtlas(t, vec.Vec3{X: 8, Y: 8, Z: 8}, 3)
	require.Equal(t, 0, a.OccupiedSlots())
	require.Equal(t, 512, a.SlotCount())

	for i := 0; i < 5; i++ {
		_, _, err := a.Upload(solidChunk(vec.Vec3{X: i}))
		require.NoError(t, err)
	}
	require.Equal(t, 5, a.OccupiedSlots())
}
