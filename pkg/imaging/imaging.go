// Package imaging decodes photos and applies the fixed pre-OCR enhancement.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"io"

	// Registered decoders
	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	// ContrastFactor is the fixed contrast boost applied before OCR
	ContrastFactor = 1.8

	// MedianSize is the side of the square median-filter window
	MedianSize = 3

	// JPEGQuality is used when saving enhanced images
	JPEGQuality = 75
)

// ErrEmptyImage is returned for payloads that decode to zero pixels
var ErrEmptyImage = errors.New("image has no pixels")

// Decode decodes an image payload and normalizes it to opaque 8-bit RGB.
// The returned format is the registered codec name ("jpeg", "webp", ...).
func Decode(data []byte) (*image.RGBA, string, error) {
	if len(data) == 0 {
		return nil, "", fmt.Errorf("decode image: %w", ErrEmptyImage)
	}

	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}
	if src.Bounds().Empty() {
		return nil, format, fmt.Errorf("decode image: %w", ErrEmptyImage)
	}

	return ToRGB(src), format, nil
}

// ToRGB copies img into an opaque RGBA raster anchored at the origin.
// Alpha is discarded without compositing, matching a plain RGB conversion.
func ToRGB(img image.Image) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			i := dst.PixOffset(x-b.Min.X, y-b.Min.Y)
			dst.Pix[i+0] = c.R
			dst.Pix[i+1] = c.G
			dst.Pix[i+2] = c.B
			dst.Pix[i+3] = 0xff
		}
	}

	return dst
}

// Enhance applies the fixed pre-OCR transform: contrast then median filter.
// The input is not modified.
func Enhance(img *image.RGBA) *image.RGBA {
	return MedianFilter(Contrast(img, ContrastFactor), MedianSize)
}

// EncodeJPEG writes img to w as a baseline JPEG
func EncodeJPEG(w io.Writer, img image.Image) error {
	if err := jpeg.Encode(w, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return fmt.Errorf("encode jpeg: %w", err)
	}
	return nil
}
