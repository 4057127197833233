package compositing

import (
	"image"
	"math"

	"github.com/pkg/errors"
)

// Geometry is the rectangle the garment layer is drawn at on the person image.
type Geometry struct {
	DressWidth  int
	DressHeight int
	DressX      int
	DressY      int
}

// ComputeGeometry derives the garment placement from the person image size and
// the garment aspect ratio.
func ComputeGeometry(personW, personH, garmentW, garmentH int) (Geometry, error) {
	return DefaultOptions().geometry(personW, personH, garmentW, garmentH)
}

func (o Options) geometry(personW, personH, garmentW, garmentH int) (Geometry, error) {
	if personW <= 0 || personH <= 0 {
		return Geometry{}, errors.Errorf("invalid person dimensions %dx%d", personW, personH)
	}
	if garmentW <= 0 || garmentH <= 0 {
		return Geometry{}, errors.Errorf("invalid garment dimensions %dx%d", garmentW, garmentH)
	}

	dressWidth := int(math.Floor(float64(personW) * o.WidthRatio))
	dressHeight := int(math.Floor(float64(garmentH) / float64(garmentW) * float64(dressWidth)))

	return Geometry{
		DressWidth:  dressWidth,
		DressHeight: dressHeight,
		DressX:      (personW - dressWidth) / 2,
		DressY:      int(math.Floor(float64(personH) * o.TopRatio)),
	}, nil
}

// DressRect is the garment layer rectangle in person image coordinates.
func (g Geometry) DressRect() image.Rectangle {
	return image.Rect(g.DressX, g.DressY, g.DressX+g.DressWidth, g.DressY+g.DressHeight)
}

// patchRect is the covering patch rectangle in person image coordinates.
func (o Options) patchRect(g Geometry) image.Rectangle {
	w := int(math.Floor(float64(g.DressWidth) * o.PatchWidthRatio))
	h := int(math.Floor(float64(g.DressHeight) * o.PatchHeightRatio))
	x := g.DressX + int(math.Floor(float64(g.DressWidth)*o.PatchInsetRatio))
	y := g.DressY + o.PatchOffsetY

	return image.Rect(x, y, x+w, y+h)
}
