package tesseract

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"os/exec"
	"strings"
	"testing"

	"albumocr/pkg/ocr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

func requireTesseract(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("tesseract"); err != nil {
		t.Skip("tesseract not installed in PATH")
	}
}

// textImage renders s in black on white, scaled up so the engine can read it
func textImage(s string, scale int) *image.RGBA {
	small := image.NewRGBA(image.Rect(0, 0, 10+7*len(s), 24))
	draw.Draw(small, small.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	d := &font.Drawer{
		Dst:  small,
		Src:  image.Black,
		Face: basicfont.Face7x13,
		Dot:  fixed.P(5, 17),
	}
	d.DrawString(s)

	b := small.Bounds()
	big := image.NewRGBA(image.Rect(0, 0, b.Dx()*scale, b.Dy()*scale))
	for y := 0; y < big.Bounds().Dy(); y++ {
		for x := 0; x < big.Bounds().Dx(); x++ {
			big.Set(x, y, small.At(x/scale, y/scale))
		}
	}
	return big
}

func TestEngineRecognize(t *testing.T) {
	requireTesseract(t)

	e, err := New()
	require.NoError(t, err)
	defer e.Close()

	fragments, err := e.Recognize(context.Background(), textImage("HELLO WORLD", 4))
	require.NoError(t, err)

	got := strings.ToLower(ocr.JoinFragments(fragments))
	assert.Contains(t, got, "hello")
	for _, f := range fragments {
		assert.Equal(t, strings.TrimSpace(f), f)
		assert.NotEmpty(t, f)
	}
}

func TestNewFailsOnMissingLanguageModel(t *testing.T) {
	requireTesseract(t)

	e, err := New("nosuchlang")
	assert.Error(t, err)
	assert.Nil(t, e)
}

func TestEngineBlankImage(t *testing.T) {
	requireTesseract(t)

	e, err := New("eng")
	require.NoError(t, err)
	defer e.Close()

	blank := image.NewRGBA(image.Rect(0, 0, 64, 64))
	draw.Draw(blank, blank.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)

	fragments, err := e.Recognize(context.Background(), blank)
	require.NoError(t, err)
	assert.Empty(t, ocr.JoinFragments(fragments))
}

func TestEngineClosed(t *testing.T) {
	requireTesseract(t)

	e, err := New()
	require.NoError(t, err)
	assert.Equal(t, []string{DefaultLanguage}, e.Languages())

	require.NoError(t, e.Close())
	require.NoError(t, e.Close())

	_, err = e.Recognize(context.Background(), textImage("X", 2))
	assert.ErrorIs(t, err, ocr.ErrClosed)
}

func TestEngineCanceledContext(t *testing.T) {
	requireTesseract(t)

	e, err := New()
	require.NoError(t, err)
	defer e.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = e.Recognize(ctx, textImage("X", 2))
	assert.ErrorIs(t, err, context.Canceled)
}
