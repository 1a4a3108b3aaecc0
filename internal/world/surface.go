package world

// Surface — проходимая поверхность в столбце чанка: твёрдый воксель
// с воздухом над ним
type Surface struct {
	Y        uint8 // Локальная высота твёрдого вокселя
	Material uint8 // Материал поверхности
	Headroom uint8 // Свободных вокселей над поверхностью до потолка столбца
}

// ColumnCount — число столбцов в чанке
const ColumnCount = ChunkSize * ChunkSize

// ExtractSurfaces находит все поверхности в столбце (x, z) чанка.
// Столбец сканируется сверху вниз, поверхности возвращаются в порядке
// убывания высоты.
func ExtractSurfaces(chunk *Chunk, x, z int) []Surface {
	var surfaces []Surface

	headroom := 0
	for y := ChunkSize - 1; y >= 0; y-- {
		v := chunk.Get(x, y, z)
		if v.IsAir() {
			headroom++
			continue
		}
		if headroom > 0 {
			surfaces = append(surfaces, Surface{
				Y:        uint8(y),
				Material: v.Material(),
				Headroom: uint8(headroom),
			})
		}
		headroom = 0
	}

	return surfaces
}

// EncodeSurfaces сериализует поверхности всех 1024 столбцов чанка.
// Формат на столбец: байт количества, затем по 3 байта на поверхность
// (высота, материал, высота свободного пространства). Столбцы идут в
// порядке z*32+x, как и воксельная индексация.
func EncodeSurfaces(chunk *Chunk) []byte {
	buf := make([]byte, 0, ColumnCount*4)
	for z := 0; z < ChunkSize; z++ {
		for x := 0; x < ChunkSize; x++ {
			surfaces := ExtractSurfaces(chunk, x, z)
			buf = append(buf, byte(len(surfaces)))
			for _, s := range surfaces {
				buf = append(buf, s.Y, s.Material, s.Headroom)
			}
		}
	}
	return buf
}

// DecodeSurfaces разбирает сериализованные поверхности обратно в
// таблицу по столбцам. Возвращает nil при повреждённых данных.
func DecodeSurfaces(data []byte) [][]Surface {
	columns := make([][]Surface, ColumnCount)
	pos := 0
	for col := 0; col < ColumnCount; col++ {
		if pos >= len(data) {
			return nil
		}
		count := int(data[pos])
		pos++
		if pos+count*3 > len(data) {
			return nil
		}
		if count > 0 {
			surfaces := make([]Surface, count)
			for i := 0; i < count; i++ {
				surfaces[i] = Surface{
					Y:        data[pos],
					Material: data[pos+1],
					Headroom: data[pos+2],
				}
				pos += 3
			}
			columns[col] = surfaces
		}
	}
	if pos != len(data) {
		return nil
	}
	return columns
}
