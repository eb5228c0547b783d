// Package pipeline processes album items: download, enhance, recognize, save.
package pipeline

import (
	"context"
	"errors"
	"image"
	"time"

	"albumocr/pkg/douban"
	errs "albumocr/pkg/errors"
	"albumocr/pkg/imaging"
	"albumocr/pkg/logger"
	"albumocr/pkg/naming"
	"albumocr/pkg/ocr"
	"albumocr/pkg/ratelimit"
)

// ImageDownloader fetches the raw bytes of one photo
type ImageDownloader interface {
	DownloadImage(ctx context.Context, url string) ([]byte, error)
}

// PhotoStorage persists an enhanced photo under a label
type PhotoStorage interface {
	SaveJPEG(label string, img image.Image) (string, error)
}

// Result is the outcome of processing one album item.
// Exactly one of Path and Err is set.
type Result struct {
	Link     douban.ImageLink
	Label    string
	Path     string
	Err      *errs.Failure
	Duration time.Duration
}

// OK reports whether the item was saved
func (r Result) OK() bool {
	return r.Err == nil
}

// Processor runs download, enhancement, recognition and saving for a link
type Processor struct {
	downloader  ImageDownloader
	recognizer  ocr.Recognizer
	storage     PhotoStorage
	rateLimiter ratelimit.Limiter
	logger      logger.Logger
}

// NewProcessor wires the per-item stages together. A nil limiter means no
// limiting and a nil logger falls back to the global one.
func NewProcessor(
	downloader ImageDownloader,
	recognizer ocr.Recognizer,
	storage PhotoStorage,
	rateLimiter ratelimit.Limiter,
	log logger.Logger,
) *Processor {
	if rateLimiter == nil {
		rateLimiter = ratelimit.Unlimited{}
	}
	if log == nil {
		log = logger.GetLogger()
	}

	return &Processor{
		downloader:  downloader,
		recognizer:  recognizer,
		storage:     storage,
		rateLimiter: rateLimiter,
		logger:      log,
	}
}

// Process handles one link. Failures are captured in the Result and never
// returned as errors, so one bad item cannot stop the run.
func (p *Processor) Process(ctx context.Context, link douban.ImageLink) Result {
	start := time.Now()
	result := Result{Link: link}

	fail := func(kind errs.Kind, err error) Result {
		result.Err = asFailure(kind, link.URL, err)
		result.Duration = time.Since(start)
		logger.LogItem(p.logger, link.Index, link.URL, "", result.Err)
		return result
	}

	if err := p.rateLimiter.Wait(ctx); err != nil {
		return fail(errs.KindNetwork, err)
	}

	stageStart := time.Now()
	data, err := p.downloader.DownloadImage(ctx, link.URL)
	if err != nil {
		return fail(errs.KindNetwork, err)
	}
	logger.LogStage(p.logger, "download", link.Index, time.Since(stageStart))

	stageStart = time.Now()
	img, _, err := imaging.Decode(data)
	if err != nil {
		return fail(errs.KindDecode, err)
	}
	enhanced := imaging.Enhance(img)
	logger.LogStage(p.logger, "enhance", link.Index, time.Since(stageStart))

	stageStart = time.Now()
	fragments, err := p.recognizer.Recognize(ctx, enhanced)
	if err != nil {
		return fail(errs.KindRecognize, err)
	}
	logger.LogStage(p.logger, "ocr", link.Index, time.Since(stageStart))

	result.Label = naming.Label(ocr.JoinFragments(fragments), link.Index)

	stageStart = time.Now()
	path, err := p.storage.SaveJPEG(result.Label, enhanced)
	if err != nil {
		return fail(errs.KindFilesystem, err)
	}
	logger.LogStage(p.logger, "save", link.Index, time.Since(stageStart))

	result.Path = path
	result.Duration = time.Since(start)
	logger.LogItem(p.logger, link.Index, link.URL, path, nil)

	return result
}

// asFailure keeps a Failure already present in err's chain and wraps
// anything else under kind
func asFailure(kind errs.Kind, url string, err error) *errs.Failure {
	var f *errs.Failure
	if errors.As(err, &f) {
		return f
	}
	return errs.New(kind, url, err)
}
