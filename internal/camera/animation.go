package camera

// Animation — перелёт камеры между двумя позами за фиксированное время
type Animation struct {
	from     Pose
	to       Pose
	duration float64 // Длительность в секундах
	elapsed  float64
	easing   Easing
}

// NewAnimation создаёт перелёт камеры.
// Неположительная длительность даёт мгновенный перелёт: первый же
// опрос вернёт конечную позу.
func NewAnimation(from, to Pose, duration float64, easingName string) *Animation {
	if duration < 0 {
		duration = 0
	}
	return &Animation{
		from:     from,
		to:       to,
		duration: duration,
		easing:   EasingByName(easingName),
	}
}

// Advance продвигает анимацию на dt секунд
func (a *Animation) Advance(dt float64) {
	a.elapsed += dt
	if a.elapsed > a.duration {
		a.elapsed = a.duration
	}
}

// Done сообщает, достигла ли анимация конечной позы
func (a *Animation) Done() bool {
	return a.elapsed >= a.duration
}

// Current возвращает позу камеры в текущий момент анимации
func (a *Animation) Current() Pose {
	return a.At(a.elapsed)
}

// At возвращает позу в момент t секунд от начала перелёта.
// При t за концом анимации возвращается точная конечная поза без
// накопленной ошибки интерполяции.
func (a *Animation) At(t float64) Pose {
	if a.duration <= 0 || t >= a.duration {
		return a.to
	}
	if t <= 0 {
		return a.from
	}
	k := a.easing(t / a.duration)
	return lerpPose(a.from, a.to, float32(k))
}

// AtFraction возвращает позу в доле перелёта t из [0,1].
// Стриминг опрашивает траекторию в фиксированных долях, чтобы заранее
// подгрузить чанки вдоль пути камеры.
func (a *Animation) AtFraction(t float64) Pose {
	return a.At(t * a.duration)
}

// Target возвращает конечную позу перелёта
func (a *Animation) Target() Pose {
	return a.to
}
