package storage

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/annel0/voxel-rt/internal/vec"
	"github.com/annel0/voxel-rt/internal/world"
)

func openTestStorage(t *testing.T, threshold int) *WorldStorage {
	t.Helper()
	ws, err := NewWorldStorage(t.TempDir(), threshold)
	require.NoError(t, err)
	t.Cleanup(func() { ws.Close() })
	return ws
}

func TestWorldIDPersists(t *testing.T) {
	dir := t.TempDir()

	ws, err := NewWorldStorage(dir, 64)
	require.NoError(t, err)
	id := ws.WorldID()
	require.NoError(t, ws.Close())

	// Повторное открытие возвращает тот же идентификатор
	ws, err = NewWorldStorage(dir, 64)
	require.NoError(t, err)
	defer ws.Close()
	require.Equal(t, id, ws.WorldID())
}

func TestMutationReplay(t *testing.T) {
	ws := openTestStorage(t, 64)
	coords := vec.Vec3{X: 1, Y: 0, Z: -2}

	chunk := world.NewChunk(coords)
	v := world.PackVoxel(world.MaterialWood, 0, 0, 0)
	chunk.Set(5, 6, 7, v)
	require.NoError(t, ws.RecordMutation(chunk, VoxelMutation{X: 5, Y: 6, Z: 7, Value: uint32(v)}))

	// Свежий чанк после наложения правок совпадает с отредактированным
	fresh := world.NewChunk(coords)
	require.NoError(t, ws.ApplyTo(fresh))
	require.Equal(t, v, fresh.Get(5, 6, 7))
	require.True(t, fresh.Get(0, 0, 0).IsAir())
}

func TestApplyToUntouchedChunk(t *testing.T) {
	ws := openTestStorage(t, 64)

	chunk := world.NewChunk(vec.Vec3{X: 9, Y: 9, Z: 9})
	require.NoError(t, ws.ApplyTo(chunk), "Чанк без правок остаётся нетронутым")
	require.True(t, chunk.IsEmpty())
}

func TestSnapshotCollapse(t *testing.T) {
	ws := openTestStorage(t, 4)
	coords := vec.Vec3{X: 0, Y: 0, Z: 0}
	chunk := world.NewChunk(coords)

	// Четвёртая правка достигает порога и схлопывает журнал в снимок
	for i := 0; i < 4; i++ {
		v := world.PackVoxel(world.MaterialStone, uint8(i), 0, 0)
		chunk.Set(i, 0, 0, v)
		require.NoError(t, ws.RecordMutation(chunk, VoxelMutation{X: i, Y: 0, Z: 0, Value: uint32(v)}))
	}

	pending, err := ws.PendingMutations(coords)
	require.NoError(t, err)
	require.Equal(t, 0, pending, "После снимка журнал правок пуст")

	// Снимок восстанавливает все правки
	fresh := world.NewChunk(coords)
	require.NoError(t, ws.ApplyTo(fresh))
	for i := 0; i < 4; i++ {
		require.Equal(t, world.MaterialStone, fresh.Get(i, 0, 0).Material())
		require.Equal(t, uint8(i), fresh.Get(i, 0, 0).Param0())
	}
}

func TestMutationsAfterSnapshot(t *testing.T) {
	ws := openTestStorage(t, 2)
	coords := vec.Vec3{X: 3, Y: 1, Z: 3}
	chunk := world.NewChunk(coords)

	set := func(x int, mat uint8) {
		v := world.PackVoxel(mat, 0, 0, 0)
		chunk.Set(x, 0, 0, v)
		require.NoError(t, ws.RecordMutation(chunk, VoxelMutation{X: x, Y: 0, Z: 0, Value: uint32(v)}))
	}

	set(0, world.MaterialStone)
	set(1, world.MaterialDirt) // Порог 2: снимок
	set(2, world.MaterialWood) // Правка поверх снимка

	fresh := world.NewChunk(coords)
	require.NoError(t, ws.ApplyTo(fresh))
	require.Equal(t, world.MaterialStone, fresh.Get(0, 0, 0).Material())
	require.Equal(t, world.MaterialDirt, fresh.Get(1, 0, 0).Material())
	require.Equal(t, world.MaterialWood, fresh.Get(2, 0, 0).Material(),
		"Журнал после снимка накладывается поверх него")
}
