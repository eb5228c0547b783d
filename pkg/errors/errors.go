package errors

import (
	"errors"
	"fmt"
)

// Kind identifies the pipeline stage an error came from
type Kind string

const (
	// Fatal kinds abort the whole run
	KindFetch Kind = "fetch"
	KindParse Kind = "parse"

	// Per-item kinds are reported and skipped
	KindNetwork    Kind = "network"
	KindDecode     Kind = "decode"
	KindRecognize  Kind = "recognize"
	KindFilesystem Kind = "filesystem"

	KindUnknown Kind = "unknown"
)

// Failure is a stage-tagged error carrying the URL it happened on
type Failure struct {
	Kind Kind
	URL  string
	Code int
	Err  error
}

func (f *Failure) Error() string {
	if f.Code != 0 {
		return fmt.Sprintf("%s error for %s (status %d): %v", f.Kind, f.URL, f.Code, f.Err)
	}
	return fmt.Sprintf("%s error for %s: %v", f.Kind, f.URL, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// New wraps err as a Failure of the given kind
func New(kind Kind, url string, err error) *Failure {
	if err == nil {
		err = errors.New("unspecified failure")
	}
	return &Failure{Kind: kind, URL: url, Err: err}
}

// WithStatus wraps an unexpected HTTP status as a Failure
func WithStatus(kind Kind, url string, code int) *Failure {
	return &Failure{
		Kind: kind,
		URL:  url,
		Code: code,
		Err:  fmt.Errorf("unexpected status code: %d", code),
	}
}

// KindOf returns the kind of the first Failure in err's chain
func KindOf(err error) Kind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return KindUnknown
}

// IsFatal reports whether a kind aborts the run
func IsFatal(kind Kind) bool {
	switch kind {
	case KindFetch, KindParse:
		return true
	default:
		return false
	}
}
