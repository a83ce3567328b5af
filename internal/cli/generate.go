package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/mgpai22/ocrsub/internal/config"
	"github.com/mgpai22/ocrsub/internal/frames"
	"github.com/mgpai22/ocrsub/internal/ocr"
	"github.com/mgpai22/ocrsub/internal/pipeline"
	"github.com/mgpai22/ocrsub/internal/subtitle"
)

const defaultImagesDir = "RGBImages"

var errNothingRecognized = errors.New("no frame was recognized, no subtitles written")

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate [images_dir]",
		Short: "Generate a subtitle file from cropped subtitle frames",
		Long: `Generate a subtitle file from a directory of cropped subtitle frames.

Every image is uploaded to the OCR provider, converted to plain text and
removed from the service again. The raw text export of each frame is kept in
the text directory. The display interval of every entry comes from the image
filename, e.g. 0_00_01_234__0_00_03_456_0070000007200000000000000000000.jpeg.

Frames that fail are reported at the end; the subtitles recognized so far are
still written unless --fail-fast is given.

Examples:
  ocrsub generate
  ocrsub generate RGBImages -o movie.srt
  ocrsub generate frames/ --provider gemini --concurrency 4 --rate 2
  ocrsub generate frames/ --provider drive --credentials sa.json -l ja -f vtt`,
		Args: cobra.MaximumNArgs(1),
		RunE: runGenerate,
	}

	cmd.Flags().
		StringP("output", "o", "", "Output file path (default subtitle_output.srt)")
	cmd.Flags().
		StringP("format", "f", "", "Output subtitle format (srt, vtt)")
	cmd.Flags().
		String("text-dir", "", "Directory for the intermediate text exports (default TXTResults)")
	cmd.Flags().
		String("provider", "", "OCR provider (drive, gemini, openai, anthropic)")
	cmd.Flags().
		StringP("api-key", "k", "", "API key for gemini, openai or anthropic (or set the provider's *_API_KEY env var)")
	cmd.Flags().
		String("credentials", "", "Google Drive credentials JSON (or set OCRSUB_DRIVE_CREDENTIALS)")
	cmd.Flags().
		String("model", "", "Model used by LLM providers")
	cmd.Flags().
		StringP("language", "l", "", "Language hint for OCR (e.g., en, ja)")
	cmd.Flags().
		String("prompt", "", "Additional instructions for LLM providers")
	cmd.Flags().
		Int("concurrency", 0, "Number of frames recognized in parallel (default 1)")
	cmd.Flags().
		Float64("rate", 0, "Maximum OCR requests per second, 0 for unlimited")
	cmd.Flags().
		Bool("fail-fast", false, "Stop at the first failed frame and write nothing")
	cmd.Flags().
		Bool("reuse-cache", false, "Reuse existing text exports instead of calling the provider")
	cmd.Flags().
		StringSlice("ext", nil, "Image extensions to include (default .jpeg,.jpg,.png,.bmp)")

	return cmd
}

func init() {
	rootCmd.AddCommand(newGenerateCmd())
}

// applyGenerateFlags layers explicitly set flags over the loaded config.
func applyGenerateFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()

	if flags.Changed("provider") {
		cfg.OCR.Provider, _ = flags.GetString("provider")
		cfg.OCR.Provider = strings.ToLower(strings.TrimSpace(cfg.OCR.Provider))
		cfg.ApplyEnv()
	}
	if flags.Changed("api-key") {
		cfg.OCR.APIKey, _ = flags.GetString("api-key")
	}
	if flags.Changed("credentials") {
		value, _ := flags.GetString("credentials")
		expanded, err := config.ExpandPath(value)
		if err != nil {
			return fmt.Errorf("--credentials: %w", err)
		}
		cfg.OCR.CredentialsFile = expanded
	}
	if flags.Changed("model") {
		cfg.OCR.Model, _ = flags.GetString("model")
	}
	if flags.Changed("language") {
		cfg.OCR.Language, _ = flags.GetString("language")
	}
	if flags.Changed("prompt") {
		cfg.OCR.Prompt, _ = flags.GetString("prompt")
	}
	if flags.Changed("text-dir") {
		cfg.Paths.TextDir, _ = flags.GetString("text-dir")
	}
	if flags.Changed("concurrency") {
		cfg.Run.Concurrency, _ = flags.GetInt("concurrency")
	}
	if flags.Changed("rate") {
		cfg.Run.Rate, _ = flags.GetFloat64("rate")
	}
	if flags.Changed("fail-fast") {
		cfg.Run.FailFast, _ = flags.GetBool("fail-fast")
	}
	if flags.Changed("reuse-cache") {
		cfg.Run.ReuseCache, _ = flags.GetBool("reuse-cache")
	}
	if flags.Changed("ext") {
		exts, _ := flags.GetStringSlice("ext")
		cfg.Run.Extensions = normalizeExtensions(exts)
	}

	formatChanged := flags.Changed("format")
	if formatChanged {
		cfg.Run.Format, _ = flags.GetString("format")
	}
	if flags.Changed("output") {
		cfg.Paths.Output, _ = flags.GetString("output")
		// an explicit .vtt output implies the format unless one was given
		if !formatChanged && subtitle.GetFormatFromExtension(cfg.Paths.Output) == subtitle.FormatVTT {
			cfg.Run.Format = string(subtitle.FormatVTT)
		}
	} else if format, err := subtitle.ParseFormat(cfg.Run.Format); err == nil {
		ext := subtitle.GetExtensionForFormat(format)
		if filepath.Ext(cfg.Paths.Output) != ext {
			cfg.Paths.Output = strings.TrimSuffix(cfg.Paths.Output, filepath.Ext(cfg.Paths.Output)) + ext
		}
	}

	return nil
}

func normalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		out = append(out, ext)
	}
	return out
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, resolvedConfig, fromFile, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := applyGenerateFlags(cmd, cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if encoding, rebuild := configuredLogFormat(cfg.Logging, verbose, logFormat); rebuild {
		verbose = verbose || cfg.Logging.Verbose
		rebuildLogger(encoding)
	}

	imagesDir := defaultImagesDir
	if len(args) > 0 {
		imagesDir = args[0]
	}

	format, err := subtitle.ParseFormat(cfg.Run.Format)
	if err != nil {
		return err
	}

	images, err := frames.Discover(imagesDir, cfg.Run.Extensions)
	if err != nil {
		return err
	}

	logger.Infow("Starting subtitle generation",
		"input", imagesDir,
		"images", len(images),
		"output", cfg.Paths.Output,
		"format", format,
		"provider", cfg.OCR.Provider,
		"concurrency", cfg.Run.Concurrency,
		"config", configSource(resolvedConfig, fromFile),
	)

	if err := os.MkdirAll(cfg.Paths.TextDir, 0755); err != nil {
		return fmt.Errorf("failed to create text directory: %w", err)
	}
	lock := flock.New(filepath.Join(cfg.Paths.TextDir, ".ocrsub.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire text directory lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another ocrsub run is using %s", cfg.Paths.TextDir)
	}
	defer func() {
		_ = lock.Unlock()
	}()

	backend, err := ocr.Factory(ctx, ocr.Provider(cfg.OCR.Provider), ocr.Options{
		APIKey:          cfg.OCR.APIKey,
		CredentialsFile: cfg.OCR.CredentialsFile,
		Model:           cfg.OCR.Model,
		Language:        cfg.OCR.Language,
		ChunkSize:       cfg.OCR.ChunkSize,
		Prompt:          cfg.OCR.Prompt,
	})
	if err != nil {
		return fmt.Errorf("failed to create OCR backend: %w", err)
	}

	recognizer := ocr.NewRecognizer(backend, ocr.RecognizerOptions{
		TextDir:        cfg.Paths.TextDir,
		ReuseCache:     cfg.Run.ReuseCache,
		CleanupTimeout: time.Duration(cfg.OCR.CleanupTimeout) * time.Second,
		Logger:         logger,
	})

	var limiter *rate.Limiter
	if cfg.Run.Rate > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.Run.Rate), cfg.Run.Burst)
	}

	progress := newProgress(len(images), "Recognizing frames")
	p := pipeline.New(recognizer, pipeline.Options{
		Concurrency: cfg.Run.Concurrency,
		Limiter:     limiter,
		FailFast:    cfg.Run.FailFast,
		OnProgress:  func(pipeline.Result) { progress.Increment() },
		Logger:      logger,
	})

	started := time.Now()
	report, runErr := p.Run(ctx, images)
	progress.Finish()

	if report != nil && len(report.Failures) > 0 {
		fmt.Fprintln(os.Stderr, renderFailures(report.Failures))
	}
	subs, err := writeReport(report, runErr, format, cfg.Paths.Output, cfg.OCR.Language)
	if err != nil {
		return err
	}

	logger.Infow("Subtitle generation complete",
		"entries", len(subs.Entries),
		"failed", len(report.Failures),
		"elapsed", time.Since(started).Round(time.Millisecond).String(),
	)

	absOutput, _ := filepath.Abs(cfg.Paths.Output)
	fmt.Printf("Subtitles generated: %s\n", absOutput)
	fmt.Printf("  Entries: %d of %d frames\n", len(subs.Entries), report.Total)

	if len(report.Failures) > 0 {
		return fmt.Errorf("%d of %d frames failed", len(report.Failures), report.Total)
	}
	return nil
}

// configuredLogFormat reports whether the loaded config calls for a different
// logger than the one built from the persistent flags, and its encoding. An
// explicit --log-format always wins.
func configuredLogFormat(cfg config.Logging, flagVerbose bool, flagFormat string) (string, bool) {
	if cfg.Verbose && !flagVerbose {
		if flagFormat != "" {
			return flagFormat, true
		}
		return cfg.Format, true
	}
	if flagFormat == "" && cfg.Format != "auto" {
		return cfg.Format, true
	}
	return "", false
}

// writeReport writes the recognized entries of a finished run to output. An
// aborted run, or one where no frame was recognized, leaves output untouched.
func writeReport(
	report *pipeline.Report,
	runErr error,
	format subtitle.Format,
	output, language string,
) (*subtitle.Subtitle, error) {
	if runErr != nil {
		if errors.Is(runErr, context.Canceled) {
			return nil, fmt.Errorf("interrupted, no subtitles written: %w", runErr)
		}
		return nil, fmt.Errorf("aborted, no subtitles written: %w", runErr)
	}
	if report == nil || len(report.Entries) == 0 {
		return nil, errNothingRecognized
	}

	subs := report.Subtitle()
	subs.Language = language
	subs.Format = string(format)

	writer, err := subtitle.NewWriter(format)
	if err != nil {
		return nil, fmt.Errorf("failed to create subtitle writer: %w", err)
	}
	if err := writer.Write(subs, output); err != nil {
		return nil, fmt.Errorf("failed to write subtitles: %w", err)
	}
	return subs, nil
}

func configSource(path string, exists bool) string {
	if !exists {
		return "defaults"
	}
	return path
}
