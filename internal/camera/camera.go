// Package camera содержит позу камеры и систему анимированных перелётов
package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Pose — положение и ориентация камеры
type Pose struct {
	Position mgl32.Vec3
	Yaw      float32 // Поворот вокруг вертикали в радианах
	Pitch    float32 // Наклон в радианах, положительный вверх
}

// Forward возвращает единичный вектор взгляда
func (p Pose) Forward() mgl32.Vec3 {
	cy := float32(math.Cos(float64(p.Yaw)))
	sy := float32(math.Sin(float64(p.Yaw)))
	cp := float32(math.Cos(float64(p.Pitch)))
	sp := float32(math.Sin(float64(p.Pitch)))
	return mgl32.Vec3{cy * cp, sp, sy * cp}
}

// ViewMatrix строит матрицу вида из позы
func (p Pose) ViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(p.Position, p.Position.Add(p.Forward()), mgl32.Vec3{0, 1, 0})
}

// lerpPose линейно интерполирует позы по сглаженному параметру
func lerpPose(from, to Pose, t float32) Pose {
	return Pose{
		Position: from.Position.Add(to.Position.Sub(from.Position).Mul(t)),
		Yaw:      from.Yaw + (to.Yaw-from.Yaw)*t,
		Pitch:    from.Pitch + (to.Pitch-from.Pitch)*t,
	}
}
