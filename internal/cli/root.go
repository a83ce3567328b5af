package cli

import (
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mgpai22/ocrsub/internal/logging"
)

var (
	verbose    bool
	logFormat  string
	configPath string
	runID      string
	logger     *logging.Logger
)

var rootCmd = &cobra.Command{
	Use:   "ocrsub",
	Short: "Subtitle track generator for hard-coded video subtitles",
	Long: `ocrsub turns a directory of cropped subtitle frames into a subtitle file.

Each image is sent to an OCR service and the display interval is read from
its filename, as written by subtitle extractors such as VideoSubFinder.
The recognized lines are sorted by start time and written as SRT or WebVTT.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		runID = uuid.NewString()
		rebuildLogger(logFormat)
	},
}

// rebuildLogger replaces the command logger, keeping the run id
func rebuildLogger(format string) {
	logger = logging.New(logging.Options{
		Verbose: verbose,
		Format:  format,
	}).With("run_id", runID)
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().
		BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		StringVar(&logFormat, "log-format", "", "Log encoding: console or json (default: console on a terminal)")
	rootCmd.PersistentFlags().
		StringVar(&configPath, "config", "", "Config file (default ~/.config/ocrsub/config.toml or ./ocrsub.toml)")
}
