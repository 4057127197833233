package compositing

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"io"
	"math"
	"time"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	_ "golang.org/x/image/webp"

	"github.com/Tutortoise/tryon-compositor-service/models"
)

type ProcessingError struct {
	Message string
	Cause   error
}

func (e *ProcessingError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ProcessingError) Unwrap() error {
	return e.Cause
}

// Options controls layer placement and output encoding.
type Options struct {
	WidthRatio       float64
	TopRatio         float64
	PatchWidthRatio  float64
	PatchHeightRatio float64
	PatchInsetRatio  float64
	PatchOffsetY     int
	PatchOpacity     float64
	Quality          int
	Filter           imaging.ResampleFilter
	MaxInputPixels   int64
}

func DefaultOptions() Options {
	return Options{
		WidthRatio:       DressWidthRatio,
		TopRatio:         DressTopRatio,
		PatchWidthRatio:  PatchWidthRatio,
		PatchHeightRatio: PatchHeightRatio,
		PatchInsetRatio:  PatchInsetRatio,
		PatchOffsetY:     PatchOffsetY,
		PatchOpacity:     PatchOpacity,
		Quality:          JPEGQuality,
		Filter:           imaging.Lanczos,
		MaxInputPixels:   MaxInputPixels,
	}
}

// Compositor draws a garment photo over a person photo. It holds no mutable
// state and may be shared between goroutines.
type Compositor struct {
	opts Options
}

func NewCompositor(opts Options) *Compositor {
	return &Compositor{opts: opts}
}

// Composite returns the JPEG encoded try-on image for the two encoded inputs.
func Composite(person, garment []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := NewCompositor(DefaultOptions()).CompositeTo(&buf, person, garment, nil); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// CompositeTo writes the encoded result to w as a baseline (not progressive)
// JPEG. Stage durations are recorded in timings when it is non-nil. Every
// failure is returned as *ProcessingError.
func (c *Compositor) CompositeTo(w io.Writer, person, garment []byte, timings *models.ProcessingTimings) error {
	if timings == nil {
		timings = &models.ProcessingTimings{}
	}
	start := time.Now()
	defer func() { timings.Total = time.Since(start) }()

	decodeStart := time.Now()
	personImg, err := decode(person, c.opts.MaxInputPixels)
	if err != nil {
		return &ProcessingError{Message: "decode person image", Cause: err}
	}
	garmentImg, err := decode(garment, c.opts.MaxInputPixels)
	if err != nil {
		return &ProcessingError{Message: "decode garment image", Cause: err}
	}
	timings.Decode = time.Since(decodeStart)

	pb, gb := personImg.Bounds(), garmentImg.Bounds()
	geom, err := c.opts.geometry(pb.Dx(), pb.Dy(), gb.Dx(), gb.Dy())
	if err != nil {
		return &ProcessingError{Message: "compute geometry", Cause: err}
	}

	resizeStart := time.Now()
	dress, err := containFit(garmentImg, geom.DressWidth, geom.DressHeight, c.opts.Filter)
	if err != nil {
		return &ProcessingError{Message: "resize garment", Cause: err}
	}
	timings.Resize = time.Since(resizeStart)

	patchStart := time.Now()
	patchRect := c.opts.patchRect(geom)
	patch, err := whitePatch(patchRect.Dx(), patchRect.Dy(), c.opts.PatchOpacity)
	if err != nil {
		return &ProcessingError{Message: "create patch", Cause: err}
	}
	timings.Patch = time.Since(patchStart)

	compositeStart := time.Now()
	base := imaging.Clone(personImg)
	if err := fitsWithin(patch, base); err != nil {
		return &ProcessingError{Message: "composite patch", Cause: err}
	}
	if err := fitsWithin(dress, base); err != nil {
		return &ProcessingError{Message: "composite garment", Cause: err}
	}
	out := imaging.Overlay(base, patch, patchRect.Min, 1.0)
	out = imaging.Overlay(out, dress, geom.DressRect().Min, 1.0)
	timings.Composite = time.Since(compositeStart)

	encodeStart := time.Now()
	if err := imaging.Encode(w, out, imaging.JPEG, imaging.JPEGQuality(c.opts.Quality)); err != nil {
		return &ProcessingError{Message: "encode result", Cause: errors.Wrap(err, "jpeg")}
	}
	timings.Encode = time.Since(encodeStart)

	return nil
}

// decode reads the header first so that oversized images are refused before
// any pixel memory is allocated.
func decode(data []byte, maxPixels int64) (image.Image, error) {
	if len(data) == 0 {
		return nil, errors.New("empty image buffer")
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "unsupported or corrupt image")
	}
	if pixels := int64(cfg.Width) * int64(cfg.Height); maxPixels > 0 && pixels > maxPixels {
		return nil, errors.Errorf("image %dx%d exceeds pixel limit %d", cfg.Width, cfg.Height, maxPixels)
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "unsupported or corrupt image")
	}
	return img, nil
}

// containFit scales img to fit inside width x height keeping its aspect ratio
// and centres it on a transparent canvas of exactly that size.
func containFit(img image.Image, width, height int, filter imaging.ResampleFilter) (*image.NRGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Errorf("invalid target size %dx%d", width, height)
	}

	srcW, srcH := img.Bounds().Dx(), img.Bounds().Dy()
	scale := math.Min(float64(width)/float64(srcW), float64(height)/float64(srcH))
	fitW := clamp(int(math.Round(float64(srcW)*scale)), 1, width)
	fitH := clamp(int(math.Round(float64(srcH)*scale)), 1, height)

	resized := imaging.Resize(img, fitW, fitH, filter)
	if fitW == width && fitH == height {
		return resized, nil
	}

	canvas := imaging.New(width, height, color.NRGBA{})
	return imaging.PasteCenter(canvas, resized), nil
}

func whitePatch(width, height int, opacity float64) (*image.NRGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Errorf("invalid patch size %dx%d", width, height)
	}
	alpha := uint8(math.Round(clampF(opacity, 0, 1) * 255))
	return imaging.New(width, height, color.NRGBA{R: 255, G: 255, B: 255, A: alpha}), nil
}

func fitsWithin(layer, base image.Image) error {
	lb, bb := layer.Bounds(), base.Bounds()
	if lb.Dx() > bb.Dx() || lb.Dy() > bb.Dy() {
		return errors.Errorf("layer %dx%d larger than base %dx%d", lb.Dx(), lb.Dy(), bb.Dx(), bb.Dy())
	}
	return nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
