package compositing

import (
	"image"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeGeometry(t *testing.T) {
	tests := []struct {
		name                                 string
		personW, personH, garmentW, garmentH int
		want                                 Geometry
	}{
		{"portrait person, portrait garment", 1000, 1500, 800, 1000, Geometry{DressWidth: 600, DressHeight: 750, DressX: 200, DressY: 270}},
		{"square inputs", 200, 400, 100, 100, Geometry{DressWidth: 120, DressHeight: 120, DressX: 40, DressY: 72}},
		{"odd sizes are floored", 333, 777, 7, 3, Geometry{DressWidth: 199, DressHeight: 85, DressX: 67, DressY: 139}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeGeometry(tt.personW, tt.personH, tt.garmentW, tt.garmentH)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestComputeGeometry_Formulas(t *testing.T) {
	for personW := 10; personW <= 2000; personW += 37 {
		for _, garment := range [][2]int{{800, 1000}, {1000, 800}, {3, 7}, {640, 640}} {
			personH := personW * 3 / 2
			g, err := ComputeGeometry(personW, personH, garment[0], garment[1])
			require.NoError(t, err)

			assert.Equal(t, int(math.Floor(float64(personW)*0.6)), g.DressWidth)
			assert.Equal(t, int(math.Floor(float64(garment[1])/float64(garment[0])*float64(g.DressWidth))), g.DressHeight)
			assert.GreaterOrEqual(t, g.DressX, 0)
			assert.LessOrEqual(t, g.DressX+g.DressWidth, personW)
			assert.Equal(t, int(math.Floor(float64(personH)*0.18)), g.DressY)
		}
	}
}

func TestComputeGeometry_InvalidDimensions(t *testing.T) {
	_, err := ComputeGeometry(0, 100, 10, 10)
	assert.Error(t, err)

	_, err = ComputeGeometry(100, 100, 0, 10)
	assert.Error(t, err)

	_, err = ComputeGeometry(100, 100, 10, -1)
	assert.Error(t, err)
}

func TestGeometry_Rects(t *testing.T) {
	g := Geometry{DressWidth: 600, DressHeight: 750, DressX: 200, DressY: 270}

	assert.Equal(t, image.Rect(200, 270, 800, 1020), g.DressRect())
	// 540x600 patch inset by 30px and pushed down 20px
	assert.Equal(t, image.Rect(230, 290, 770, 890), DefaultOptions().patchRect(g))

	opts := DefaultOptions()
	opts.PatchWidthRatio = 0.5
	opts.PatchInsetRatio = 0.25
	opts.PatchOffsetY = 0
	assert.Equal(t, image.Rect(350, 270, 650, 870), opts.patchRect(g))
}
