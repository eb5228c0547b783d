package scraper

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"albumocr/internal/pipeline"
	"albumocr/pkg/config"
	"albumocr/pkg/douban"
	errs "albumocr/pkg/errors"
	"albumocr/pkg/logger"
	"albumocr/pkg/ocr"
	"albumocr/pkg/ratelimit"
	"albumocr/pkg/storage"
	"albumocr/pkg/ui"
)

// Summary describes a finished run
type Summary struct {
	AlbumURL  string
	OutputDir string
	Found     int
	Saved     int
	Failed    int
	// Results holds one entry per link, ordered by link index
	Results  []pipeline.Result
	Duration time.Duration
}

// Failures returns the results that did not produce a file
func (s *Summary) Failures() []pipeline.Result {
	var out []pipeline.Result
	for _, r := range s.Results {
		if !r.OK() {
			out = append(out, r)
		}
	}
	return out
}

// Scraper orchestrates one album run
type Scraper struct {
	client      AlbumClient
	recognizer  ocr.Recognizer
	rateLimiter ratelimit.Limiter
	console     *ui.Console
	config      *config.Config
	logger      logger.Logger
}

// New creates a Scraper for cfg. The recognizer is owned by the caller and
// is not closed by Run.
func New(cfg *config.Config, recognizer ocr.Recognizer) *Scraper {
	log := logger.GetLogger()

	return &Scraper{
		client:      douban.NewClient(cfg.Album.UserAgent, cfg.Download.Timeout, log),
		recognizer:  recognizer,
		rateLimiter: ratelimit.New(cfg.RateLimit.RequestsPerMinute),
		console:     ui.Default(),
		config:      cfg,
		logger:      log,
	}
}

// SetClient replaces the album client
func (s *Scraper) SetClient(client AlbumClient) {
	s.client = client
}

// SetConsole replaces the console report lines are written to
func (s *Scraper) SetConsole(console *ui.Console) {
	s.console = console
}

// SetLogger replaces the logger
func (s *Scraper) SetLogger(log logger.Logger) {
	s.logger = log
}

// SetRateLimiter replaces the limiter spacing image downloads
func (s *Scraper) SetRateLimiter(l ratelimit.Limiter) {
	s.rateLimiter = l
}

// Run processes the configured album. The returned error is non-nil only
// when the run could not start (output directory, page fetch, page parse)
// or ctx was cancelled; per-photo failures are recorded in the Summary.
func (s *Scraper) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()
	albumURL := s.config.Album.URL

	summary := &Summary{
		AlbumURL:  albumURL,
		OutputDir: s.config.Output.Directory,
	}

	s.logger.InfoWithFields("Starting album run", map[string]interface{}{
		"album_url":  albumURL,
		"output_dir": s.config.Output.Directory,
		"workers":    s.config.Download.ConcurrentWorkers,
	})

	storageManager, err := storage.NewManager(s.config.Output.Directory, s.config.Output.OnDuplicate)
	if err != nil {
		s.logger.WithError(err).Error("Failed to prepare output directory")
		return nil, fmt.Errorf("failed to create storage manager: %w", err)
	}

	page, err := s.client.FetchPage(ctx, albumURL)
	if err != nil {
		s.logger.WithError(err).WithField("kind", string(errs.KindOf(err))).Error("Failed to fetch album page")
		return nil, err
	}

	links, err := douban.ExtractImageLinks(page, albumURL)
	if err != nil {
		s.logger.WithError(err).Error("Failed to parse album page")
		return nil, err
	}

	summary.Found = len(links)
	s.console.PrintFound(len(links))
	s.logger.InfoWithFields("Extracted image links", map[string]interface{}{
		"count": len(links),
	})

	if len(links) == 0 {
		summary.Duration = time.Since(start)
		return summary, nil
	}

	tracker := ui.NewTracker(len(links))
	processor := pipeline.NewProcessor(s.client, s.recognizer, storageManager, s.rateLimiter, s.logger)
	pool := pipeline.NewWorkerPool(ctx, s.config.Download.ConcurrentWorkers, processor, s.logger)
	pool.Start()

	var (
		rejected []pipeline.Result
		mu       sync.Mutex
	)
	go func() {
		defer pool.Stop()
		for _, link := range links {
			if err := pool.Submit(pipeline.Job{Link: link}); err != nil {
				mu.Lock()
				rejected = append(rejected, pipeline.Result{
					Link: link,
					Err:  errs.New(errs.KindNetwork, link.URL, err),
				})
				mu.Unlock()
			}
		}
	}()

	for result := range pool.Results() {
		s.record(summary, tracker, result)
	}

	// Results is closed only after the submitter returned
	mu.Lock()
	for _, result := range rejected {
		s.record(summary, tracker, result)
	}
	mu.Unlock()

	sort.SliceStable(summary.Results, func(i, j int) bool {
		return summary.Results[i].Link.Index < summary.Results[j].Link.Index
	})
	summary.Duration = time.Since(start)

	s.console.PrintSummary(tracker)
	s.logger.InfoWithFields("Album run finished", map[string]interface{}{
		"found":      summary.Found,
		"saved":      summary.Saved,
		"failed":     summary.Failed,
		"complete":   tracker.Done(),
		"per_minute": tracker.Rate(),
		"duration":   summary.Duration,
	})

	if err := ctx.Err(); err != nil {
		return summary, fmt.Errorf("run interrupted: %w", err)
	}
	return summary, nil
}

func (s *Scraper) record(summary *Summary, tracker *ui.Tracker, result pipeline.Result) {
	summary.Results = append(summary.Results, result)

	if result.OK() {
		summary.Saved++
		tracker.RecordSaved()
		s.console.PrintSaved(result.Path)
		return
	}

	summary.Failed++
	tracker.RecordFailed()
	s.console.PrintFailed(result.Link.URL, result.Err)
}
