package main

import (
	"fmt"
	"time"

	"albumocr/pkg/config"
	"albumocr/pkg/logger"
	"albumocr/pkg/ocr/tesseract"
	"albumocr/pkg/scraper"
	"albumocr/pkg/ui"
	"github.com/spf13/cobra"
)

var (
	// Run flags, shared by the root and run commands
	outputDir   string
	userAgent   string
	concurrent  int
	rateLimit   int
	timeout     time.Duration
	languages   []string
	onDuplicate string
)

// runCmd is an explicit alias of the root command's default action
var runCmd = &cobra.Command{
	Use:   "run [album-url]",
	Short: "Download, enhance, OCR and save every photo of an album page",
	Long: `Fetch the album page, collect every photo hosted on img<N>.doubanio.com,
switch each one to its large rendition and process it.

The album URL may be given as an argument, in the config file (album.url) or
through ALBUMOCR_ALBUM_URL. Pagination is controlled by the m_start query
parameter of the URL.`,
	Example: `  albumocr run "https://www.douban.com/photos/album/145972492/?m_start=72"
  albumocr run --on-duplicate overwrite --lang eng,deu`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAlbum,
}

func init() {
	rootCmd.AddCommand(runCmd)
	addRunFlags(runCmd)
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory (default \""+config.DefaultOutputDir+"\")")
	cmd.Flags().StringVar(&userAgent, "user-agent", "", "User-Agent header sent with every request")
	cmd.Flags().IntVar(&concurrent, "concurrent", 1, fmt.Sprintf("number of photos processed in parallel (1-%d)", config.MaxWorkers))
	cmd.Flags().IntVar(&rateLimit, "rate-limit", 0, "maximum image requests per minute (0 = unlimited)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "HTTP timeout per request (0 = none)")
	cmd.Flags().StringSliceVar(&languages, "lang", nil, "OCR language models (default eng)")
	cmd.Flags().StringVar(&onDuplicate, "on-duplicate", "", "what to do when two photos read the same text: suffix or overwrite")
}

// flagOverrides collects the flags the user actually set
func flagOverrides(cmd *cobra.Command, args []string) map[string]interface{} {
	flags := make(map[string]interface{})
	changed := func(name string) bool {
		f := cmd.Flags().Lookup(name)
		return f != nil && f.Changed
	}

	if len(args) == 1 {
		flags["album-url"] = args[0]
	}
	if changed("output") {
		flags["output"] = outputDir
	}
	if changed("user-agent") {
		flags["user-agent"] = userAgent
	}
	if changed("concurrent") {
		flags["concurrent"] = concurrent
	}
	if changed("rate-limit") {
		flags["rate-limit"] = rateLimit
	}
	if changed("timeout") {
		flags["timeout"] = timeout
	}
	if changed("lang") {
		flags["lang"] = languages
	}
	if changed("on-duplicate") {
		flags["on-duplicate"] = onDuplicate
	}
	if changed("log-level") {
		flags["log-level"] = logLevel
	}
	return flags
}

func runAlbum(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, flagOverrides(cmd, args))
	if err != nil {
		return err
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.GetLogger()
	log.InfoWithFields("albumocr starting", map[string]interface{}{
		"version":   version,
		"album_url": cfg.Album.URL,
	})

	engine, err := tesseract.New(cfg.OCR.Languages...)
	if err != nil {
		log.WithError(err).Error("Failed to start OCR engine")
		return fmt.Errorf("failed to start OCR engine: %w", err)
	}
	defer engine.Close()

	s := scraper.New(cfg, engine)
	summary, err := s.Run(cmd.Context())
	if err != nil {
		return err
	}

	if summary.Failed > 0 {
		log.WarnWithFields("Some photos failed", map[string]interface{}{
			"failed": summary.Failed,
			"found":  summary.Found,
		})
	}
	if summary.Found > 0 {
		ui.PrintInfo("Output", summary.OutputDir)
	}
	return nil
}
