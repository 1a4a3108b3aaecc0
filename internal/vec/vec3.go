package vec

// Vec3 представляет трехмерный вектор с целочисленными координатами.
// Используется для координат чанков, слотов атласа и вокселей.
type Vec3 struct {
	X int
	Y int
	Z int
}

// Add складывает два вектора
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{
		X: v.X + other.X,
		Y: v.Y + other.Y,
		Z: v.Z + other.Z,
	}
}

// Sub вычитает другой вектор
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{
		X: v.X - other.X,
		Y: v.Y - other.Y,
		Z: v.Z - other.Z,
	}
}

// Mul умножает вектор на скаляр
func (v Vec3) Mul(k int) Vec3 {
	return Vec3{
		X: v.X * k,
		Y: v.Y * k,
		Z: v.Z * k,
	}
}

// Equals проверяет равенство векторов
func (v Vec3) Equals(other Vec3) bool {
	return v.X == other.X && v.Y == other.Y && v.Z == other.Z
}

// DistanceSq возвращает квадрат евклидова расстояния до другого вектора.
// Квадрат достаточен для сортировки по приоритету и не требует float-математики.
func (v Vec3) DistanceSq(other Vec3) int {
	dx := v.X - other.X
	dy := v.Y - other.Y
	dz := v.Z - other.Z
	return dx*dx + dy*dy + dz*dz
}

// Less задаёт лексикографический порядок (Z, Y, X).
// Используется как детерминированный tie-break при равных расстояниях.
func (v Vec3) Less(other Vec3) bool {
	if v.Z != other.Z {
		return v.Z < other.Z
	}
	if v.Y != other.Y {
		return v.Y < other.Y
	}
	return v.X < other.X
}

// DivEuclid возвращает евклидово частное: floor(a/b) для положительного b.
// В отличие от оператора / результат всегда округляется вниз,
// поэтому отрицательные координаты попадают в правильный чанк.
func DivEuclid(a, b int) int {
	q := a / b
	if a%b < 0 {
		q--
	}
	return q
}

// RemEuclid возвращает евклидов остаток: всегда в диапазоне [0, b).
func RemEuclid(a, b int) int {
	r := a % b
	if r < 0 {
		r += b
	}
	return r
}
