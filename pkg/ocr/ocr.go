// Package ocr defines the text recognition contract used by the pipeline.
package ocr

import (
	"context"
	"errors"
	"image"
	"strings"
	"sync"
)

// ErrClosed is returned by recognizers used after Close
var ErrClosed = errors.New("recognizer is closed")

// Recognizer extracts text fragments from a raster image.
// Fragments are returned in the engine's reading order.
type Recognizer interface {
	Recognize(ctx context.Context, img image.Image) ([]string, error)
	Close() error
}

// JoinFragments concatenates fragments with single spaces and trims the result
func JoinFragments(fragments []string) string {
	return strings.TrimSpace(strings.Join(fragments, " "))
}

// CleanFragments trims every fragment and drops the empty ones
func CleanFragments(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, f := range raw {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// Func adapts a plain function into a Recognizer
type Func func(ctx context.Context, img image.Image) ([]string, error)

func (f Func) Recognize(ctx context.Context, img image.Image) ([]string, error) {
	return f(ctx, img)
}

func (f Func) Close() error { return nil }

// Static is a Recognizer that returns the same fragments for every image.
// It counts calls so tests can assert how often recognition ran.
type Static struct {
	Fragments []string
	Err       error

	mu     sync.Mutex
	calls  int
	closed bool
}

// NewStatic returns a Static recognizer yielding fragments
func NewStatic(fragments ...string) *Static {
	return &Static{Fragments: fragments}
}

func (s *Static) Recognize(ctx context.Context, img image.Image) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	s.calls++
	if s.Err != nil {
		return nil, s.Err
	}
	return append([]string(nil), s.Fragments...), nil
}

func (s *Static) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Calls reports how many times Recognize ran
func (s *Static) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}
