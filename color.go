package termgrid

// RGB is a 24-bit color with 8-bit components. It is the unit of color
// exchanged across the frame boundary; alpha never travels with it (the
// caches key on the packed 24-bit value by design).
type RGB struct {
	R, G, B uint8
}

// Packed returns the color packed as 0x00RRGGBB.
func (c RGB) Packed() uint32 {
	return uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
}

// unpackRGB expands a packed 0x00RRGGBB value.
func unpackRGB(p uint32) RGB {
	return RGB{
		R: uint8(p >> 16),
		G: uint8(p >> 8),
		B: uint8(p),
	}
}

// ColorPair is a foreground/background color combination referenced from
// cells by a small integer id. The table is rebuilt from caller input every
// frame; ids carry no identity across frames.
type ColorPair struct {
	FG RGB
	BG RGB
}
