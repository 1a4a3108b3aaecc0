package render

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"

	"github.com/annel0/voxel-rt/internal/atlas"
	"github.com/annel0/voxel-rt/internal/camera"
	"github.com/annel0/voxel-rt/internal/config"
	"github.com/annel0/voxel-rt/internal/engine"
	"github.com/annel0/voxel-rt/internal/vec"
	"github.com/annel0/voxel-rt/internal/world"
)

// floorGenerator заполняет камнем все чанки с отрицательной высотой
type floorGenerator struct{}

func (floorGenerator) Generate(coords vec.Vec3) *world.Chunk {
	c := world.NewChunk(coords)
	if coords.Y < 0 {
		for i := range c.Voxels {
			c.Voxels[i] = world.PackVoxel(world.MaterialStone, 0, 0, 0)
		}
	}
	return c
}

// emptyGenerator генерирует только воздух
type emptyGenerator struct{}

func (emptyGenerator) Generate(coords vec.Vec3) *world.Chunk {
	return world.NewChunk(coords)
}

func newTracerScene(t *testing.T, gen world.ChunkGenerator) (*engine.ChunkManager, *Tracer) {
	t.Helper()
	cfg := config.Default()
	cfg.Streaming.ViewDistance = 1
	require.NoError(t, cfg.Validate())

	size := vec.Vec3{X: cfg.Streaming.AtlasX, Y: cfg.Streaming.AtlasY, Z: cfg.Streaming.AtlasZ}
	a, err := atlas.NewChunkAtlas(size, 1, atlas.NewMemoryBackend(size))
	require.NoError(t, err)

	cm := engine.NewChunkManager(cfg, gen, a, nil)
	cm.SetCamera(camera.Pose{Position: mgl32.Vec3{8, 5, 8}})
	require.NoError(t, cm.PreloadView())
	return cm, NewTracer(cm)
}

func TestTraceRayHitsFloor(t *testing.T) {
	_, tr := newTracerScene(t, floorGenerator{})

	hit := tr.TraceRay(mgl32.Vec3{8.5, 5, 8.5}, mgl32.Vec3{0, -1, 0}, 100)
	require.True(t, hit.Hit, "Луч вниз обязан упереться в пол")
	require.InDelta(t, 5.0, float64(hit.Distance), 0.01, "Верх пола на высоте 0")
	require.Equal(t, mgl32.Vec3{0, 1, 0}, hit.Normal, "Нормаль верхней грани")
	require.Equal(t, world.MaterialStone, hit.Voxel.Material())
}

func TestTraceRayMissesSky(t *testing.T) {
	_, tr := newTracerScene(t, floorGenerator{})

	hit := tr.TraceRay(mgl32.Vec3{8, 5, 8}, mgl32.Vec3{0, 1, 0}, 100)
	require.False(t, hit.Hit, "Луч вверх уходит в небо")
}

func TestTraceRayDiagonal(t *testing.T) {
	_, tr := newTracerScene(t, floorGenerator{})

	dir := mgl32.Vec3{1, -1, 0}.Normalize()
	hit := tr.TraceRay(mgl32.Vec3{8, 5, 8}, dir, 100)
	require.True(t, hit.Hit)
	// Диагональный спуск с высоты 5 проходит 5*sqrt(2) до пола
	require.InDelta(t, 7.07, float64(hit.Distance), 0.05)
}

func TestTraceRayEmptyWorld(t *testing.T) {
	_, tr := newTracerScene(t, emptyGenerator{})

	// В пустом мире любой луч промахивается и не зацикливается
	for _, dir := range []mgl32.Vec3{{0, -1, 0}, {1, 0, 0}, {-1, 2, 3}} {
		hit := tr.TraceRay(mgl32.Vec3{8, 5, 8}, dir.Normalize(), 200)
		require.False(t, hit.Hit)
	}
}

func TestTraceRaySingleVoxel(t *testing.T) {
	cm, tr := newTracerScene(t, emptyGenerator{})

	// Одинокий воксель проверяет пропуск пустых подобластей
	require.NoError(t, cm.MutateVoxel(20, 5, 8, world.PackVoxel(world.MaterialWood, 0, 0, 0)))

	hit := tr.TraceRay(mgl32.Vec3{8, 5.5, 8.5}, mgl32.Vec3{1, 0, 0}, 100)
	require.True(t, hit.Hit, "Луч обязан найти одинокий воксель")
	require.Equal(t, world.MaterialWood, hit.Voxel.Material())
	require.Equal(t, mgl32.Vec3{-1, 0, 0}, hit.Normal, "Попадание в ближнюю грань")
	require.InDelta(t, 12.0, float64(hit.Distance), 0.01)
}

func TestTraceRayRespectsMaxDistance(t *testing.T) {
	_, tr := newTracerScene(t, floorGenerator{})

	hit := tr.TraceRay(mgl32.Vec3{8, 50, 8}, mgl32.Vec3{0, -1, 0}, 10)
	require.False(t, hit.Hit, "Пол дальше лимита дистанции не виден")
}

func TestShadeSkyFallback(t *testing.T) {
	_, tr := newTracerScene(t, emptyGenerator{})

	up := tr.Shade(Hit{}, mgl32.Vec3{0, 1, 0}, 100)
	down := tr.Shade(Hit{}, mgl32.Vec3{0, -1, 0}, 100)
	require.Greater(t, down.X(), up.X(), "Горизонт светлее зенита в красном канале")
}

func TestShadowDarkens(t *testing.T) {
	cm, tr := newTracerScene(t, floorGenerator{})

	// Козырёк на пути теневого луча из точки (8, 0, 8) к солнцу
	for dx := -3; dx <= 3; dx++ {
		for dz := -3; dz <= 3; dz++ {
			require.NoError(t, cm.MutateVoxel(14+dx, 10, 12+dz, world.PackVoxel(world.MaterialStone, 0, 0, 0)))
		}
	}

	shadowed := tr.TraceRay(mgl32.Vec3{8.5, 5, 8.5}, mgl32.Vec3{0, -1, 0}, 100)
	openHit := tr.TraceRay(mgl32.Vec3{-20.5, 5, -20.5}, mgl32.Vec3{0, -1, 0}, 100)
	require.True(t, shadowed.Hit)
	require.True(t, openHit.Hit)

	cShadow := tr.Shade(shadowed, mgl32.Vec3{0, -1, 0}, 100)
	cOpen := tr.Shade(openHit, mgl32.Vec3{0, -1, 0}, 100)
	require.Less(t, cShadow.X(), cOpen.X(), "Точка под козырьком темнее открытой")
}

func TestRenderImageSize(t *testing.T) {
	_, tr := newTracerScene(t, floorGenerator{})

	pose := camera.Pose{Position: mgl32.Vec3{8, 5, 8}, Pitch: -0.5}
	img := tr.RenderImage(pose, 70, 64, 48)
	require.Equal(t, 64, img.Bounds().Dx())
	require.Equal(t, 48, img.Bounds().Dy())

	// Верхняя строка смотрит в небо, нижняя — в пол
	top := img.RGBAAt(32, 0)
	require.Greater(t, int(top.B), int(top.R), "Небо синее")
}

func TestCameraUniformLayout(t *testing.T) {
	pose := camera.Pose{Position: mgl32.Vec3{1, 2, 3}}
	grid := engine.GridInfo{
		Origin:         vec.Vec3{X: -1, Y: -1, Z: -1},
		Size:           vec.Vec3{X: 3, Y: 3, Z: 3},
		AtlasSlots:     vec.Vec3{X: 8, Y: 8, Z: 8},
		MaxRayDistance: 256,
	}
	u := NewCameraUniform(pose, grid, 70, 640, 480, 0)

	data := u.Marshal()
	require.Len(t, data, CameraUniformBytes)

	// Позиция камеры лежит по смещению 64: float32(1.0) = 00 00 80 3f
	require.Equal(t, byte(0x80), data[66], "Позиция X=1.0 в little-endian float32")
	require.Equal(t, byte(0x3f), data[67])
}
