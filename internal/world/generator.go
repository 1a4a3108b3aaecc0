package world

import (
	"math/rand"

	"github.com/annel0/voxel-rt/internal/util"
	"github.com/annel0/voxel-rt/internal/vec"
)

// Константы рельефа
const (
	BaseHeight      = 8.0  // Минимальная высота поверхности
	HeightAmplitude = 24.0 // Размах высот над минимумом
	SandMaxHeight   = 11   // Ниже — песчаная поверхность
	SnowMinHeight   = 27   // Выше — снежная поверхность
)

// ChunkGenerator — стратегия генерации чанков.
// Generate обязана быть чистой детерминированной функцией: одинаковые
// сид и координаты всегда дают побайтово идентичные воксели, иначе
// перегенерация вытесненного чанка изменит мир под ногами игрока.
type ChunkGenerator interface {
	Generate(coords vec.Vec3) *Chunk
}

// TerrainGenerator генерирует базовый ландшафт мира
type TerrainGenerator struct {
	seed       int64
	noise      *util.NoiseField
	noiseScale float64 // Масштаб шума высот
	dirtDepth  int     // Толщина слоя земли под поверхностью
}

// NewTerrainGenerator создаёт генератор ландшафта с указанным сидом
func NewTerrainGenerator(seed int64, dirtDepth int) *TerrainGenerator {
	return &TerrainGenerator{
		seed:       seed,
		noise:      util.NewNoiseField(seed),
		noiseScale: 0.01, // Настройка сглаженности ландшафта
		dirtDepth:  dirtDepth,
	}
}

// SurfaceHeight возвращает высоту поверхности для мирового столбца (x, z).
// Шум сэмплируется в мировых координатах, а не в локальных координатах
// чанка, поэтому рельеф бесшовен на границах чанков.
func (tg *TerrainGenerator) SurfaceHeight(wx, wz int) int {
	h := tg.noise.Noise2D(float64(wx)*tg.noiseScale, float64(wz)*tg.noiseScale)
	return int(BaseHeight + h*HeightAmplitude)
}

// Generate генерирует чанк по его координатам
func (tg *TerrainGenerator) Generate(coords vec.Vec3) *Chunk {
	chunk := NewChunk(coords)

	baseX := coords.X * ChunkSize
	baseY := coords.Y * ChunkSize
	baseZ := coords.Z * ChunkSize

	for z := 0; z < ChunkSize; z++ {
		for x := 0; x < ChunkSize; x++ {
			surface := tg.SurfaceHeight(baseX+x, baseZ+z)
			surfaceMat := surfaceMaterial(surface)

			for y := 0; y < ChunkSize; y++ {
				wy := baseY + y

				var mat uint8
				switch {
				case wy > surface:
					mat = MaterialAir
				case wy == surface:
					mat = surfaceMat
				case wy >= surface-tg.dirtDepth:
					mat = MaterialDirt
				default:
					mat = MaterialStone
				}

				if mat == MaterialAir {
					continue
				}

				// param0 — глубина под поверхностью, шейдер затемняет ей стены
				depth := surface - wy
				if depth > 255 {
					depth = 255
				}
				chunk.Set(x, y, z, PackVoxel(mat, uint8(depth), 0, 0))
			}
		}
	}

	return chunk
}

// surfaceMaterial возвращает материал поверхности для указанной высоты
func surfaceMaterial(height int) uint8 {
	switch {
	case height <= SandMaxHeight:
		return MaterialSand
	case height >= SnowMinHeight:
		return MaterialSnow
	default:
		return MaterialGrass
	}
}

// MapFeature — трансформация чанка, применяемая после базовой генерации.
// Каждая фича — чистая функция над (chunk, coords) и обязана сохранять
// детерминизм генерации.
type MapFeature interface {
	Apply(chunk *Chunk, coords vec.Vec3)
}

// FeatureGenerator комбинирует базовый генератор с цепочкой фич
type FeatureGenerator struct {
	base     ChunkGenerator
	features []MapFeature
}

// NewFeatureGenerator создаёт генератор с цепочкой фич поверх базового
func NewFeatureGenerator(base ChunkGenerator, features ...MapFeature) *FeatureGenerator {
	return &FeatureGenerator{
		base:     base,
		features: features,
	}
}

// Generate генерирует чанк и последовательно применяет фичи
func (fg *FeatureGenerator) Generate(coords vec.Vec3) *Chunk {
	chunk := fg.base.Generate(coords)
	for _, f := range fg.features {
		f.Apply(chunk, coords)
	}
	return chunk
}

// chunkSeed выводит уникальный сид чанка из глобального сида и координат
func chunkSeed(seed int64, coords vec.Vec3) int64 {
	return seed + int64(coords.X)*31 + int64(coords.Y)*17 + int64(coords.Z)*13
}

// TreeFeature расставляет деревья на травяной поверхности
type TreeFeature struct {
	terrain *TerrainGenerator
	seed    int64
	density float64 // Вероятность дерева в столбце (от 0 до 1)
}

// NewTreeFeature создаёт фичу деревьев
func NewTreeFeature(terrain *TerrainGenerator, density float64) *TreeFeature {
	return &TreeFeature{
		terrain: terrain,
		seed:    terrain.seed,
		density: density,
	}
}

// Apply расставляет деревья в чанке.
// Деревья не пересекают границы чанка: крона обрезается по объёму,
// чтобы фича оставалась чистой функцией одного чанка.
func (tf *TreeFeature) Apply(chunk *Chunk, coords vec.Vec3) {
	// Локальный генератор случайных чисел для детерминированности
	rng := rand.New(rand.NewSource(chunkSeed(tf.seed, coords)))

	baseX := coords.X * ChunkSize
	baseY := coords.Y * ChunkSize
	baseZ := coords.Z * ChunkSize

	// Отступ от границ, чтобы крона 3x3 помещалась в чанк
	for z := 1; z < ChunkSize-1; z++ {
		for x := 1; x < ChunkSize-1; x++ {
			// rng опрашивается для каждого столбца, чтобы раскладка
			// не зависела от положения поверхности
			roll := rng.Float64()

			surface := tf.terrain.SurfaceHeight(baseX+x, baseZ+z)
			if surfaceMaterial(surface) != MaterialGrass {
				continue
			}
			if roll >= tf.density {
				continue
			}

			trunkHeight := 3 + rng.Intn(3) // Высота ствола 3-5 блоков

			// Ствол
			for h := 1; h <= trunkHeight; h++ {
				ly := surface + h - baseY
				if ly < 0 || ly >= ChunkSize {
					continue
				}
				chunk.Set(x, ly, z, PackVoxel(MaterialWood, 0, 0, 0))
			}

			// Крона 3x3x2 над стволом
			for dy := 0; dy < 2; dy++ {
				ly := surface + trunkHeight + 1 + dy - baseY
				if ly < 0 || ly >= ChunkSize {
					continue
				}
				for dz := -1; dz <= 1; dz++ {
					for dx := -1; dx <= 1; dx++ {
						lx, lz := x+dx, z+dz
						if chunk.Get(lx, ly, lz).IsAir() {
							chunk.Set(lx, ly, lz, PackVoxel(MaterialLeaf, 0, 0, 0))
						}
					}
				}
			}
		}
	}
}
