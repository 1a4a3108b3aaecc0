package world

import (
	"testing"

	"github.com/annel0/voxel-rt/internal/vec"
	"github.com/stretchr/testify/require"
)

func TestExtractSurfaces(t *testing.T) {
	chunk := NewChunk(vec.Vec3{})

	// Столбец: камень до y=4, воздух, платформа на y=10
	for y := 0; y <= 4; y++ {
		chunk.Set(3, y, 7, PackVoxel(MaterialStone, 0, 0, 0))
	}
	chunk.Set(3, 10, 7, PackVoxel(MaterialWood, 0, 0, 0))

	surfaces := ExtractSurfaces(chunk, 3, 7)
	require.Len(t, surfaces, 2, "В столбце две поверхности")

	// Сверху вниз: сначала платформа, затем камень
	require.Equal(t, uint8(10), surfaces[0].Y)
	require.Equal(t, MaterialWood, surfaces[0].Material)
	require.Equal(t, uint8(21), surfaces[0].Headroom, "Над платформой 21 воксель до потолка")

	require.Equal(t, uint8(4), surfaces[1].Y)
	require.Equal(t, MaterialStone, surfaces[1].Material)
	require.Equal(t, uint8(5), surfaces[1].Headroom, "Между камнем и платформой 5 вокселей")
}

func TestExtractSurfacesEmptyColumn(t *testing.T) {
	chunk := NewChunk(vec.Vec3{})
	require.Empty(t, ExtractSurfaces(chunk, 0, 0), "В пустом столбце нет поверхностей")
}

func TestExtractSurfacesFullColumn(t *testing.T) {
	chunk := NewChunk(vec.Vec3{})
	for y := 0; y < ChunkSize; y++ {
		chunk.Set(0, y, 0, PackVoxel(MaterialStone, 0, 0, 0))
	}
	// Столбец под потолок не имеет воздуха над верхним вокселем
	require.Empty(t, ExtractSurfaces(chunk, 0, 0),
		"Полный столбец не содержит проходимых поверхностей")
}

func TestEncodeDecodeSurfaces(t *testing.T) {
	gen := NewTerrainGenerator(42, 3)
	chunk := gen.Generate(vec.Vec3{X: 0, Y: 0, Z: 0})

	data := EncodeSurfaces(chunk)
	require.NotEmpty(t, data)

	columns := DecodeSurfaces(data)
	require.NotNil(t, columns, "Закодированные данные должны разбираться обратно")
	require.Len(t, columns, ColumnCount)

	for z := 0; z < ChunkSize; z++ {
		for x := 0; x < ChunkSize; x++ {
			want := ExtractSurfaces(chunk, x, z)
			got := columns[z*ChunkSize+x]
			require.Equal(t, len(want), len(got), "Число поверхностей столбца (%d,%d)", x, z)
			for i := range want {
				require.Equal(t, want[i], got[i])
			}
		}
	}
}

func TestDecodeSurfacesCorrupted(t *testing.T) {
	// Обрезанные данные не должны приводить к панике
	require.Nil(t, DecodeSurfaces([]byte{5, 1, 2}), "Обрезанный столбец должен отвергаться")
	require.Nil(t, DecodeSurfaces([]byte{}), "Пустые данные должны отвергаться")
}
