package camera

import "math"

// Easing — функция сглаживания анимации: отображает [0,1] в [0,1]
type Easing func(t float64) float64

// Идентификаторы функций сглаживания
const (
	EaseLinear     = "linear"
	EaseQuadInOut  = "quad_in_out"
	EaseCubicInOut = "cubic_in_out"
	EaseSineInOut  = "sine_in_out"
	EaseExpoInOut  = "expo_in_out"
)

var easings = map[string]Easing{
	EaseLinear:     easeLinear,
	EaseQuadInOut:  easeQuadInOut,
	EaseCubicInOut: easeCubicInOut,
	EaseSineInOut:  easeSineInOut,
	EaseExpoInOut:  easeExpoInOut,
}

// EasingByName возвращает функцию сглаживания по идентификатору.
// Неизвестный идентификатор даёт линейное сглаживание, а не ошибку:
// анимация с незнакомым именем функции лучше отсутствия анимации.
func EasingByName(name string) Easing {
	if e, ok := easings[name]; ok {
		return e
	}
	return easeLinear
}

func easeLinear(t float64) float64 {
	return t
}

func easeQuadInOut(t float64) float64 {
	if t < 0.5 {
		return 2 * t * t
	}
	return 1 - 2*(1-t)*(1-t)
}

func easeCubicInOut(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	u := 1 - t
	return 1 - 4*u*u*u
}

func easeSineInOut(t float64) float64 {
	return 0.5 * (1 - math.Cos(math.Pi*t))
}

func easeExpoInOut(t float64) float64 {
	// Граничные точки задаются явно: показательная кривая сама по себе
	// не проходит точно через 0 и 1
	switch {
	case t <= 0:
		return 0
	case t >= 1:
		return 1
	case t < 0.5:
		return 0.5 * math.Pow(2, 20*t-10)
	default:
		return 1 - 0.5*math.Pow(2, 10-20*t)
	}
}
