package camera

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"
)

func TestEasingEndpoints(t *testing.T) {
	// Любая функция сглаживания обязана точно проходить через 0 и 1
	for name, fn := range easings {
		require.Equal(t, 0.0, fn(0), "У %s начало должно быть ровно 0", name)
		require.Equal(t, 1.0, fn(1), "У %s конец должен быть ровно 1", name)
	}
}

func TestEasingMonotonic(t *testing.T) {
	for name, fn := range easings {
		prev := fn(0)
		for i := 1; i <= 100; i++ {
			cur := fn(float64(i) / 100)
			require.GreaterOrEqual(t, cur, prev, "%s должна быть неубывающей", name)
			prev = cur
		}
	}
}

func TestEasingByNameUnknown(t *testing.T) {
	fn := EasingByName("bounce_overshoot")
	require.Equal(t, 0.25, fn(0.25), "Неизвестное имя должно давать линейное сглаживание")
}

func TestAnimationExactEndpoint(t *testing.T) {
	from := Pose{Position: mgl32.Vec3{0, 0, 0}}
	to := Pose{Position: mgl32.Vec3{100, 50, -30}, Yaw: 1.5, Pitch: -0.3}

	for name := range easings {
		anim := NewAnimation(from, to, 2.0, name)
		anim.Advance(1.9999)
		require.False(t, anim.Done())

		// Даже крошечный перешаг за длительность даёт точную конечную позу
		anim.Advance(0.0002)
		require.True(t, anim.Done())
		require.Equal(t, to, anim.Current(),
			"Анимация %s должна завершаться точно в конечной позе", name)
	}
}

func TestAnimationMidpoint(t *testing.T) {
	from := Pose{Position: mgl32.Vec3{0, 0, 0}}
	to := Pose{Position: mgl32.Vec3{10, 0, 0}}

	anim := NewAnimation(from, to, 4.0, EaseLinear)
	anim.Advance(2.0)

	got := anim.Current().Position
	require.InDelta(t, 5.0, got.X(), 1e-5, "Линейная анимация в середине пути")
}

func TestAnimationZeroDuration(t *testing.T) {
	from := Pose{Position: mgl32.Vec3{1, 2, 3}}
	to := Pose{Position: mgl32.Vec3{4, 5, 6}}

	anim := NewAnimation(from, to, 0, EaseCubicInOut)
	require.True(t, anim.Done(), "Нулевая длительность должна завершаться сразу")
	require.Equal(t, to, anim.Current())
}

func TestAnimationAtFraction(t *testing.T) {
	from := Pose{Position: mgl32.Vec3{0, 0, 0}}
	to := Pose{Position: mgl32.Vec3{8, 0, 0}}

	anim := NewAnimation(from, to, 10.0, EaseLinear)

	// Траектория опрашивается в фиксированных долях пути
	require.InDelta(t, 2.0, anim.AtFraction(0.25).Position.X(), 1e-5)
	require.InDelta(t, 4.0, anim.AtFraction(0.5).Position.X(), 1e-5)
	require.InDelta(t, 6.0, anim.AtFraction(0.75).Position.X(), 1e-5)
	require.Equal(t, to, anim.AtFraction(1.0), "Доля 1.0 должна давать точную конечную позу")
}

func TestPoseForward(t *testing.T) {
	// Нулевые углы смотрят вдоль +X
	f := Pose{}.Forward()
	require.InDelta(t, 1.0, float64(f.X()), 1e-6)
	require.InDelta(t, 0.0, float64(f.Y()), 1e-6)

	// Наклон вверх на 90 градусов смотрит вдоль +Y
	up := Pose{Pitch: float32(math.Pi / 2)}.Forward()
	require.InDelta(t, 1.0, float64(up.Y()), 1e-6)
}
