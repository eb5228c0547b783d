package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"albumocr/pkg/config"
	"albumocr/pkg/ui"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// defaultConfigPath is where config init writes when --config is not given
const defaultConfigPath = ".albumocr.yaml"

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage albumocr configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (ALBUMOCR_*, also read from .env)
  - Configuration file
  - Default values (lowest priority)`,
}

// initCmd represents the config init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file is created in the current directory as '.albumocr.yaml'
unless a different path is specified with the --config flag.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

// showCmd represents the config show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Show the effective configuration after merging flags, environment
variables, the configuration file and defaults.`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

// validateCmd represents the config validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate a configuration file for syntax errors and invalid values.

This command checks:
  - YAML syntax
  - Required fields
  - Value ranges and allowed values
  - Output and log directory accessibility`,
	Args: cobra.NoArgs,
	RunE: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

const exampleConfig = `# albumocr configuration file
#
# Every option can also be set through environment variables prefixed with
# ALBUMOCR_, for example ALBUMOCR_OUTPUT_DIR or ALBUMOCR_CONCURRENT_WORKERS.

album:
  # Album page to process. m_start selects the page offset.
  url: "` + config.DefaultAlbumURL + `"

  # Browser identity sent with every request
  user_agent: "` + config.DefaultUserAgent + `"

output:
  # Directory the enhanced photos are written to
  directory: "` + config.DefaultOutputDir + `"

  # What to do when two photos read the same text:
  #   suffix     keep both, the later one becomes <text>_2.jpg
  #   overwrite  the later photo replaces the earlier one
  on_duplicate: "suffix"

download:
  # Per-request HTTP timeout, for example 30s. 0 disables the timeout.
  timeout: 0s

  # Photos processed in parallel. Range: 1-8
  concurrent_workers: 1

rate_limit:
  # Maximum image requests per minute. 0 disables limiting.
  requests_per_minute: 0

ocr:
  # Tesseract language models
  languages:
    - eng

logging:
  # Log level: debug, info, warn, error
  level: "warn"

  # Log file path (optional). Logs always go to stderr as well.
  file: ""
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := configFile
	if configPath == "" {
		configPath = defaultConfigPath
	}

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists: %s (remove it first to recreate)", configPath)
	}

	if dir := filepath.Dir(configPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(configPath, []byte(exampleConfig), 0644); err != nil {
		return fmt.Errorf("failed to create configuration file: %w", err)
	}

	out := cmd.OutOrStdout()
	ui.PrintSuccess("Configuration file created: " + configPath)
	fmt.Fprintln(out, "\nNext steps:")
	fmt.Fprintln(out, "1. Edit the album URL and output directory")
	fmt.Fprintln(out, "2. Run 'albumocr config validate' to check the configuration")
	fmt.Fprintln(out, "3. Start with 'albumocr run'")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, flagOverrides(cmd, nil))
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprint(out, string(data))

	fmt.Fprintln(out, "\nConfiguration sources (in order of priority):")
	fmt.Fprintln(out, "1. Command line flags")
	fmt.Fprintln(out, "2. Environment variables ("+config.EnvPrefix+"*)")
	if configFile != "" {
		fmt.Fprintf(out, "3. Configuration file: %s\n", configFile)
	} else {
		fmt.Fprintln(out, "3. Configuration file: (searched in default locations)")
	}
	fmt.Fprintln(out, "4. Default values")
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	path := configFile
	if path == "" {
		path = config.FindConfigFile()
		if path == "" {
			return errors.New("no configuration file found, specify one with --config")
		}
	}

	ui.PrintInfo("Validating configuration", path)

	cfg, err := config.Load(path, nil)
	if err != nil {
		return err
	}

	var problems []error
	if err := checkWritableDir(cfg.Output.Directory); err != nil {
		problems = append(problems, fmt.Errorf("cannot create output directory: %w", err))
	}
	if cfg.Logging.File != "" {
		if err := checkWritableDir(filepath.Dir(cfg.Logging.File)); err != nil {
			problems = append(problems, fmt.Errorf("cannot create log directory: %w", err))
		}
	}
	if len(problems) > 0 {
		return errors.Join(problems...)
	}

	ui.PrintSuccess("Configuration is valid")

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "\nConfiguration summary:")
	fmt.Fprintf(out, "  Album URL: %s\n", cfg.Album.URL)
	fmt.Fprintf(out, "  Output directory: %s\n", cfg.Output.Directory)
	fmt.Fprintf(out, "  Duplicate labels: %s\n", cfg.Output.OnDuplicate)
	fmt.Fprintf(out, "  Concurrent workers: %d\n", cfg.Download.ConcurrentWorkers)
	fmt.Fprintf(out, "  Rate limit: %d requests/minute\n", cfg.RateLimit.RequestsPerMinute)
	fmt.Fprintf(out, "  OCR languages: %v\n", cfg.OCR.Languages)
	fmt.Fprintf(out, "  Log level: %s\n", cfg.Logging.Level)
	return nil
}

// checkWritableDir reports whether dir exists or could be created, without
// creating it
func checkWritableDir(dir string) error {
	for d := filepath.Clean(dir); ; d = filepath.Dir(d) {
		info, err := os.Stat(d)
		if err == nil {
			if !info.IsDir() {
				return fmt.Errorf("%s is not a directory", d)
			}
			return nil
		}
		if !os.IsNotExist(err) {
			return err
		}
		if parent := filepath.Dir(d); parent == d {
			return nil
		}
	}
}
