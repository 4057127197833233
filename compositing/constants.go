package compositing

const (
	DressWidthRatio  = 0.6
	DressTopRatio    = 0.18
	PatchWidthRatio  = 0.9
	PatchHeightRatio = 0.8
	PatchInsetRatio  = 0.05
	PatchOffsetY     = 20
	PatchOpacity     = 0.7
	JPEGQuality      = 95

	// 0x3FFF * 0x3FFF, larger inputs are rejected before decoding
	MaxInputPixels = 268402689
)
