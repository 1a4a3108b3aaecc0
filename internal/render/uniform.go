package render

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/annel0/voxel-rt/internal/camera"
	"github.com/annel0/voxel-rt/internal/engine"
)

// CameraUniform — данные камеры и сетки для шейдера.
// Раскладка полей повторяет uniform-структуру в shader.wgsl, порядок
// и выравнивание менять нельзя.
type CameraUniform struct {
	InvViewProj [16]float32 // Смещение 0: обратная матрица вида-проекции
	Position    [4]float32  // 64: позиция камеры в мировых координатах
	GridOrigin  [4]int32    // 80: минимальный угол видимого куба в чанках
	GridSize    [4]int32    // 96: размер видимого куба в чанках
	AtlasSize   [4]int32    // 112: размер атласа в слотах
	Params      [4]float32  // 128: макс. дистанция луча, ширина, высота, время
}

// CameraUniformBytes — размер uniform-буфера камеры
const CameraUniformBytes = 144

// NewCameraUniform собирает uniform из позы камеры и описания сетки
func NewCameraUniform(pose camera.Pose, grid engine.GridInfo, fovDeg float32, width, height int, time float32) CameraUniform {
	aspect := float32(width) / float32(height)
	proj := mgl32.Perspective(mgl32.DegToRad(fovDeg), aspect, 0.1, grid.MaxRayDistance)
	viewProj := proj.Mul4(pose.ViewMatrix())
	inv := viewProj.Inv()

	var u CameraUniform
	copy(u.InvViewProj[:], inv[:])
	u.Position = [4]float32{pose.Position.X(), pose.Position.Y(), pose.Position.Z(), 1}
	u.GridOrigin = [4]int32{int32(grid.Origin.X), int32(grid.Origin.Y), int32(grid.Origin.Z), 0}
	u.GridSize = [4]int32{int32(grid.Size.X), int32(grid.Size.Y), int32(grid.Size.Z), 0}
	u.AtlasSize = [4]int32{int32(grid.AtlasSlots.X), int32(grid.AtlasSlots.Y), int32(grid.AtlasSlots.Z), 0}
	u.Params = [4]float32{grid.MaxRayDistance, float32(width), float32(height), time}
	return u
}

// Marshal сериализует uniform в little-endian байты для WriteBuffer
func (u *CameraUniform) Marshal() []byte {
	buf := make([]byte, CameraUniformBytes)
	off := 0

	putF32 := func(v float32) {
		binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(v))
		off += 4
	}
	putI32 := func(v int32) {
		binary.LittleEndian.PutUint32(buf[off:], uint32(v))
		off += 4
	}

	for _, v := range u.InvViewProj {
		putF32(v)
	}
	for _, v := range u.Position {
		putF32(v)
	}
	for _, v := range u.GridOrigin {
		putI32(v)
	}
	for _, v := range u.GridSize {
		putI32(v)
	}
	for _, v := range u.AtlasSize {
		putI32(v)
	}
	for _, v := range u.Params {
		putF32(v)
	}
	return buf
}
