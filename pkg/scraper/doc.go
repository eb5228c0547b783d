// Package scraper runs a whole album through the OCR pipeline.
//
// A run fetches the album page once, extracts the Douban-hosted photo links,
// and hands each link to the worker pool in internal/pipeline, which
// downloads, enhances, recognizes and saves it. Only a failed page fetch or
// an unparseable page aborts the run; every other problem is reported
// against the photo it happened on and the run moves on.
//
// Usage:
//
//	cfg := config.DefaultConfig()
//	engine, err := tesseract.New(cfg.OCR.Languages...)
//	if err != nil {
//	    return err
//	}
//	defer engine.Close()
//
//	s := scraper.New(cfg, engine)
//	summary, err := s.Run(ctx)
//	if err != nil {
//	    return err // fetch or parse failure
//	}
//	fmt.Println(summary.Saved, summary.Failed)
//
// Output:
//
// Photos are written to cfg.Output.Directory as <label>.jpg, where label is
// the sanitized recognized text, or photo_<index> when nothing was read.
package scraper
