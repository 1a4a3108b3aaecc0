package util

import (
	"github.com/aquilax/go-perlin"
)

// NoiseField владеет генератором шума Перлина для одного мира.
// Генератор привязан к сиду при создании; глобального состояния нет,
// поэтому несколько миров с разными сидами могут жить в одном процессе.
type NoiseField struct {
	seed int64
	p    *perlin.Perlin
}

// NewNoiseField создаёт поле шума с указанным сидом
func NewNoiseField(seed int64) *NoiseField {
	alpha := 2.0  // Сглаживание шума
	beta := 2.0   // Частота шума
	n := int32(3) // Количество октав

	return &NoiseField{
		seed: seed,
		p:    perlin.NewPerlin(alpha, beta, n, seed),
	}
}

// Seed возвращает сид, с которым создано поле
func (nf *NoiseField) Seed() int64 {
	return nf.seed
}

// Noise2D возвращает значение шума для мировых координат (от 0 до 1)
func (nf *NoiseField) Noise2D(x, y float64) float64 {
	// Perlin возвращает значение от -1 до 1, приводим к [0, 1]
	return (nf.p.Noise2D(x, y) + 1.0) / 2.0
}

// Noise3D возвращает значение трёхмерного шума (от 0 до 1)
func (nf *NoiseField) Noise3D(x, y, z float64) float64 {
	return (nf.p.Noise3D(x, y, z) + 1.0) / 2.0
}
