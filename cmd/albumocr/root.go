package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"albumocr/pkg/ui"
	"github.com/spf13/cobra"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	noColor    bool
	quiet      bool
)

// rootCmd runs the album pipeline when called without a subcommand
var rootCmd = &cobra.Command{
	Use:   "albumocr [album-url]",
	Short: "Download a Douban album and name every photo after its text",
	Long: `albumocr downloads every photo of a public Douban album page, boosts its
contrast, removes speckle noise and runs English OCR over the result. Each
enhanced photo is saved as a JPEG named after the text found in it, or
photo_<n> when no text was recognized.

Only a failed page fetch aborts the run. A photo that cannot be downloaded,
decoded, read or saved is reported and skipped.`,
	Example: `  # Process the default album into ./douban_english_ocr
  albumocr

  # Process another album page
  albumocr "https://www.douban.com/photos/album/145972492/?m_start=18"

  # Four workers, at most 30 image requests per minute
  albumocr --concurrent 4 --rate-limit 30 -o ./photos`,
	Args:          cobra.MaximumNArgs(1),
	SilenceErrors: true,
	SilenceUsage:  true,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		console := ui.Default()
		console.SetQuiet(quiet)
		console.SetColor(!noColor)
	},
	RunE: runAlbum,
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		ui.PrintError("Error", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ./.albumocr.yaml or $HOME/.config/albumocr/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")

	addRunFlags(rootCmd)

	rootCmd.SetVersionTemplate(`albumocr {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
