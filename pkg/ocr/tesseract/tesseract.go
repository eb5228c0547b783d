// Package tesseract provides an ocr.Recognizer backed by the Tesseract
// engine through gosseract. It links against libtesseract.
package tesseract

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"sync"

	"albumocr/pkg/ocr"
	"github.com/otiai10/gosseract/v2"
)

// DefaultLanguage is used when no languages are configured
const DefaultLanguage = "eng"

// Engine is a Recognizer holding one gosseract client for its whole life.
// The client is not safe for concurrent use, so calls are serialized.
type Engine struct {
	mu        sync.Mutex
	client    *gosseract.Client
	languages []string
}

// New creates the engine and loads the language models once. A missing
// model fails here rather than on the first photo.
func New(languages ...string) (*Engine, error) {
	if len(languages) == 0 {
		languages = []string{DefaultLanguage}
	}

	client := gosseract.NewClient()
	if err := client.SetLanguage(languages...); err != nil {
		client.Close()
		return nil, fmt.Errorf("set languages: %w", err)
	}
	if err := warmUp(client); err != nil {
		client.Close()
		return nil, fmt.Errorf("load language models %v: %w", languages, err)
	}

	return &Engine{client: client, languages: languages}, nil
}

// warmUp runs one recognition on a blank page. gosseract initializes the
// engine lazily on the first recognition, and only then reads the models.
func warmUp(client *gosseract.Client) error {
	blank := image.NewGray(image.Rect(0, 0, 32, 32))
	for i := range blank.Pix {
		blank.Pix[i] = 0xff
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, blank); err != nil {
		return err
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return err
	}
	_, err := client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	return err
}

// Languages returns the configured language models
func (e *Engine) Languages() []string {
	return append([]string(nil), e.languages...)
}

// Recognize returns the text lines Tesseract finds in img, trimmed and in
// engine order. An image without text yields an empty slice.
func (e *Engine) Recognize(ctx context.Context, img image.Image) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.client == nil {
		return nil, ocr.ErrClosed
	}
	if err := e.client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}

	boxes, err := e.client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, fmt.Errorf("recognize text: %w", err)
	}

	raw := make([]string, 0, len(boxes))
	for _, b := range boxes {
		raw = append(raw, b.Word)
	}
	return ocr.CleanFragments(raw), nil
}

// Close releases the engine. Later calls to Recognize fail with ocr.ErrClosed.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.client == nil {
		return nil
	}
	err := e.client.Close()
	e.client = nil
	return err
}

var _ ocr.Recognizer = (*Engine)(nil)
