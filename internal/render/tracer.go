package render

import (
	"image"
	"image/color"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/annel0/voxel-rt/internal/camera"
	"github.com/annel0/voxel-rt/internal/engine"
	"github.com/annel0/voxel-rt/internal/vec"
	"github.com/annel0/voxel-rt/internal/world"
)

// VoxelSource отдаёт воксели мира трассировщику
type VoxelSource interface {
	VoxelAt(x, y, z int) world.Voxel
	ChunkOccupancy(coords vec.Vec3) uint64
	VisibleGrid() engine.GridInfo
}

// Tracer — эталонная CPU-реализация трассировки.
// Обходит те же три уровня сетки, что и шейдер: чанк, подобласть,
// воксель. Используется в тестах и для снимков без видеокарты.
type Tracer struct {
	src     VoxelSource
	palette [256]world.RGBA
}

// NewTracer создаёт трассировщик над источником вокселей
func NewTracer(src VoxelSource) *Tracer {
	return &Tracer{
		src:     src,
		palette: world.DefaultPalette(),
	}
}

// Hit — результат трассировки луча
type Hit struct {
	Hit      bool
	Distance float32
	Voxel    world.Voxel
	Pos      mgl32.Vec3
	Normal   mgl32.Vec3
}

const stepEps = 1e-4

var sunDir = mgl32.Vec3{0.5, 0.8, 0.3}.Normalize()

// safeInv возвращает обратное направление, зажимая почти нулевые
// компоненты, чтобы деление не давало бесконечностей
func safeInv(d mgl32.Vec3) mgl32.Vec3 {
	var r mgl32.Vec3
	for i := 0; i < 3; i++ {
		c := d[i]
		if float32(math.Abs(float64(c))) < 1e-7 {
			if c >= 0 {
				c = 1e-7
			} else {
				c = -1e-7
			}
		}
		r[i] = 1 / c
	}
	return r
}

// distToBoundary возвращает путь вдоль луча до границы ячейки cell
func distToBoundary(p, invDir mgl32.Vec3, cell float32) float32 {
	tMin := float32(math.MaxFloat32)
	for i := 0; i < 3; i++ {
		coord := float64(p[i] / cell)
		var boundary float32
		if invDir[i] > 0 {
			boundary = float32(math.Floor(coord)+1) * cell
		} else {
			boundary = float32(math.Ceil(coord-1)) * cell
		}
		t := (boundary - p[i]) * invDir[i]
		if t < tMin {
			tMin = t
		}
	}
	if tMin < 0 {
		tMin = 0
	}
	return tMin + stepEps
}

func (tr *Tracer) insideGrid(chunk vec.Vec3, grid engine.GridInfo) bool {
	rel := chunk.Sub(grid.Origin)
	return rel.X >= 0 && rel.X < grid.Size.X &&
		rel.Y >= 0 && rel.Y < grid.Size.Y &&
		rel.Z >= 0 && rel.Z < grid.Size.Z
}

// TraceRay пускает луч и возвращает первое пересечение с твёрдым
// вокселем в пределах maxDist
func (tr *Tracer) TraceRay(origin, dir mgl32.Vec3, maxDist float32) Hit {
	grid := tr.src.VisibleGrid()
	invDir := safeInv(dir)

	t := float32(0)
	for t < maxDist {
		p := origin.Add(dir.Mul(t))
		v := vec.FloorVec3(p)
		chunk := world.WorldToChunk(v)

		if !tr.insideGrid(chunk, grid) {
			t += distToBoundary(p, invDir, world.ChunkSize)
			continue
		}

		mask := tr.src.ChunkOccupancy(chunk)
		if mask == 0 {
			t += distToBoundary(p, invDir, world.ChunkSize)
			continue
		}

		local := world.WorldToLocal(v)
		sub := local.X/world.SubRegionSize +
			local.Y/world.SubRegionSize*4 +
			local.Z/world.SubRegionSize*16
		if mask&(1<<uint(sub)) == 0 {
			t += distToBoundary(p, invDir, world.SubRegionSize)
			continue
		}

		voxel := tr.src.VoxelAt(v.X, v.Y, v.Z)
		if !voxel.IsAir() {
			// Нормаль — ось наибольшего отклонения от центра вокселя
			center := v.ToFloat().Add(mgl32.Vec3{0.5, 0.5, 0.5})
			d := p.Sub(center)
			normal := faceNormal(d)
			return Hit{
				Hit:      true,
				Distance: t,
				Voxel:    voxel,
				Pos:      p,
				Normal:   normal,
			}
		}

		t += distToBoundary(p, invDir, 1)
	}

	return Hit{}
}

func faceNormal(d mgl32.Vec3) mgl32.Vec3 {
	ax := float32(math.Abs(float64(d.X())))
	ay := float32(math.Abs(float64(d.Y())))
	az := float32(math.Abs(float64(d.Z())))
	switch {
	case ax >= ay && ax >= az:
		return mgl32.Vec3{sign(d.X()), 0, 0}
	case ay >= az:
		return mgl32.Vec3{0, sign(d.Y()), 0}
	default:
		return mgl32.Vec3{0, 0, sign(d.Z())}
	}
}

func sign(v float32) float32 {
	if v < 0 {
		return -1
	}
	return 1
}

var aoDirs = [6]mgl32.Vec3{
	{1, 0, 0}, {-1, 0, 0},
	{0, 1, 0}, {0, -1, 0},
	{0, 0, 1}, {0, 0, -1},
}

// Shade считает цвет точки пересечения: ламберт от солнца, жёсткая
// тень одним лучом и затенение шестью детерминированными лучами
func (tr *Tracer) Shade(hit Hit, dir mgl32.Vec3, maxDist float32) mgl32.Vec3 {
	if !hit.Hit {
		return skyColor(dir)
	}

	c := tr.palette[hit.Voxel.Material()]
	base := mgl32.Vec3{float32(c[0]) / 255, float32(c[1]) / 255, float32(c[2]) / 255}

	diffuse := hit.Normal.Dot(sunDir)
	if diffuse < 0 {
		diffuse = 0
	}

	// Точка попадания лежит на эпсилон внутри вокселя после шага,
	// поэтому отступаем назад по лучу и наружу по нормали
	shadowOrigin := hit.Pos.Sub(dir.Mul(2 * stepEps)).Add(hit.Normal.Mul(0.01))
	shadow := float32(1)
	if tr.TraceRay(shadowOrigin, sunDir, maxDist/2).Hit {
		shadow = 0.35
	}

	open, total := float32(0), float32(0)
	for _, d := range aoDirs {
		if d.Dot(hit.Normal) < -0.5 {
			continue
		}
		total++
		if !tr.TraceRay(shadowOrigin, d, 4).Hit {
			open++
		}
	}
	ao := float32(1)
	if total > 0 {
		ao = 0.4 + 0.6*open/total
	}

	col := base.Mul((0.25 + 0.75*diffuse*shadow) * ao)

	fog := hit.Distance / maxDist
	if fog > 1 {
		fog = 1
	}
	sky := skyColor(dir)
	k := fog * fog
	return col.Mul(1 - k).Add(sky.Mul(k))
}

func skyColor(dir mgl32.Vec3) mgl32.Vec3 {
	k := dir.Y()*0.5 + 0.5
	if k < 0 {
		k = 0
	}
	if k > 1 {
		k = 1
	}
	horizon := mgl32.Vec3{0.7, 0.8, 0.9}
	zenith := mgl32.Vec3{0.25, 0.45, 0.85}
	return horizon.Mul(1 - k).Add(zenith.Mul(k))
}

// RenderImage трассирует кадр на CPU в обычное изображение.
// Медленно, но побайтово воспроизводит логику шейдера.
func (tr *Tracer) RenderImage(pose camera.Pose, fovDeg float32, width, height int) *image.RGBA {
	grid := tr.src.VisibleGrid()
	maxDist := grid.MaxRayDistance

	aspect := float32(width) / float32(height)
	proj := mgl32.Perspective(mgl32.DegToRad(fovDeg), aspect, 0.1, maxDist)
	inv := proj.Mul4(pose.ViewMatrix()).Inv()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for py := 0; py < height; py++ {
		for px := 0; px < width; px++ {
			u := (float32(px)+0.5)/float32(width)*2 - 1
			v := 1 - (float32(py)+0.5)/float32(height)*2

			near := inv.Mul4x1(mgl32.Vec4{u, v, 0, 1})
			far := inv.Mul4x1(mgl32.Vec4{u, v, 1, 1})
			origin := near.Vec3().Mul(1 / near.W())
			dir := far.Vec3().Mul(1 / far.W()).Sub(origin).Normalize()

			hit := tr.TraceRay(origin, dir, maxDist)
			col := tr.Shade(hit, dir, maxDist)

			img.SetRGBA(px, py, color.RGBA{
				R: toByte(col.X()),
				G: toByte(col.Y()),
				B: toByte(col.Z()),
				A: 255,
			})
		}
	}
	return img
}

func toByte(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v * 255)
}
