package vec

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// FloorVec3 возвращает целочисленный вектор из покомпонентного floor.
// Применяется для перехода от мировой позиции к координате вокселя.
func FloorVec3(p mgl32.Vec3) Vec3 {
	return Vec3{
		X: int(math.Floor(float64(p.X()))),
		Y: int(math.Floor(float64(p.Y()))),
		Z: int(math.Floor(float64(p.Z()))),
	}
}

// ToFloat возвращает mgl32-представление вектора
func (v Vec3) ToFloat() mgl32.Vec3 {
	return mgl32.Vec3{float32(v.X), float32(v.Y), float32(v.Z)}
}
