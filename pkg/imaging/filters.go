package imaging

import "image"

// Luma returns the ITU-R 601-2 grayscale value of an RGB triple,
// using the same fixed-point weights as a standard "L" conversion.
func Luma(r, g, b uint8) uint8 {
	return uint8((uint32(r)*19595 + uint32(g)*38470 + uint32(b)*7471 + 0x8000) >> 16)
}

// MeanLuma returns the rounded mean grayscale value of img
func MeanLuma(img *image.RGBA) int {
	b := img.Bounds()
	n := b.Dx() * b.Dy()
	if n == 0 {
		return 0
	}

	var sum uint64
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.PixOffset(b.Min.X, y)
		for x := 0; x < b.Dx(); x++ {
			p := img.Pix[row+4*x : row+4*x+3]
			sum += uint64(Luma(p[0], p[1], p[2]))
		}
	}

	return int(float64(sum)/float64(n) + 0.5)
}

// Contrast blends img away from a flat gray image at its mean luminance.
// factor 1 is the identity, 0 yields the flat gray image.
func Contrast(img *image.RGBA, factor float64) *image.RGBA {
	mean := float64(MeanLuma(img))

	var lut [256]uint8
	for v := range lut {
		lut[v] = clamp8(mean + factor*(float64(v)-mean))
	}

	b := img.Bounds()
	dst := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		si := img.PixOffset(b.Min.X, y)
		di := dst.PixOffset(b.Min.X, y)
		for x := 0; x < b.Dx(); x++ {
			o := 4 * x
			dst.Pix[di+o+0] = lut[img.Pix[si+o+0]]
			dst.Pix[di+o+1] = lut[img.Pix[si+o+1]]
			dst.Pix[di+o+2] = lut[img.Pix[si+o+2]]
			dst.Pix[di+o+3] = 0xff
		}
	}

	return dst
}

// MedianFilter replaces every channel sample with the median of its
// size×size neighbourhood. Borders are extended by replicating edge pixels.
// size must be odd; even sizes are rounded up.
func MedianFilter(img *image.RGBA, size int) *image.RGBA {
	if size < 1 {
		size = 1
	}
	if size%2 == 0 {
		size++
	}
	radius := size / 2

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewRGBA(b)
	window := make([]uint8, size*size)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			di := dst.PixOffset(b.Min.X+x, b.Min.Y+y)
			for ch := 0; ch < 3; ch++ {
				k := 0
				for dy := -radius; dy <= radius; dy++ {
					sy := clampInt(y+dy, 0, h-1)
					for dx := -radius; dx <= radius; dx++ {
						sx := clampInt(x+dx, 0, w-1)
						window[k] = img.Pix[img.PixOffset(b.Min.X+sx, b.Min.Y+sy)+ch]
						k++
					}
				}
				dst.Pix[di+ch] = median(window)
			}
			dst.Pix[di+3] = 0xff
		}
	}

	return dst
}

// median sorts window in place and returns its middle element
func median(window []uint8) uint8 {
	for i := 1; i < len(window); i++ {
		v := window[i]
		j := i - 1
		for j >= 0 && window[j] > v {
			window[j+1] = window[j]
			j--
		}
		window[j+1] = v
	}
	return window[len(window)/2]
}

// clamp8 truncates v into the 0..255 range
func clamp8(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(v)
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
