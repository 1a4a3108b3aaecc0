package world

// Voxel представляет упакованный 32-битный воксель:
// байт 0 — материал (0 = воздух), байты 1-2 — параметры шейдера, байт 3 — флаги.
type Voxel uint32

// Идентификаторы материалов
const (
	MaterialAir   uint8 = 0
	MaterialGrass uint8 = 1
	MaterialDirt  uint8 = 2
	MaterialStone uint8 = 3
	MaterialSand  uint8 = 4
	MaterialSnow  uint8 = 5
	MaterialWood  uint8 = 6
	MaterialLeaf  uint8 = 7
)

// Флаги вокселя
const (
	VoxelFlagEmissive uint8 = 1 << 0 // Материал светится (используется шейдером)
)

// PackVoxel упаковывает компоненты вокселя в 32-битное слово
func PackVoxel(material, param0, param1, flags uint8) Voxel {
	return Voxel(uint32(material) |
		uint32(param0)<<8 |
		uint32(param1)<<16 |
		uint32(flags)<<24)
}

// Material возвращает идентификатор материала
func (v Voxel) Material() uint8 {
	return uint8(v)
}

// Param0 возвращает первый параметр шейдера
func (v Voxel) Param0() uint8 {
	return uint8(v >> 8)
}

// Param1 возвращает второй параметр шейдера
func (v Voxel) Param1() uint8 {
	return uint8(v >> 16)
}

// Flags возвращает битовое поле флагов
func (v Voxel) Flags() uint8 {
	return uint8(v >> 24)
}

// IsAir сообщает, является ли воксель воздухом.
// Инвариант формата: материал 0 тождественен «не твёрдый».
func (v Voxel) IsAir() bool {
	return v.Material() == MaterialAir
}

// RGBA представляет цвет записи палитры
type RGBA [4]uint8

// DefaultPalette возвращает палитру материалов из 256 записей.
// Индекс записи совпадает с идентификатором материала; запись 0 (воздух)
// остаётся нулевой и шейдером не читается.
func DefaultPalette() [256]RGBA {
	var p [256]RGBA

	p[MaterialGrass] = RGBA{96, 160, 66, 255}
	p[MaterialDirt] = RGBA{121, 85, 58, 255}
	p[MaterialStone] = RGBA{128, 128, 132, 255}
	p[MaterialSand] = RGBA{219, 203, 158, 255}
	p[MaterialSnow] = RGBA{236, 240, 244, 255}
	p[MaterialWood] = RGBA{102, 74, 47, 255}
	p[MaterialLeaf] = RGBA{62, 120, 52, 255}

	return p
}
