package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mgpai22/ocrsub/internal/frames"
	"github.com/mgpai22/ocrsub/internal/subtitle"
)

var parseNameCmd = &cobra.Command{
	Use:   "parse-name [filename...]",
	Short: "Show the display interval encoded in frame filenames",
	Long: `Parse one or more frame filenames and print the start and end time
each one encodes, without contacting any OCR service.

Examples:
  ocrsub parse-name 0_00_01_234__0_00_03_456_0070000007200000000000000000000.jpeg
  ocrsub parse-name RGBImages/*.jpeg`,
	Args: cobra.MinimumNArgs(1),
	RunE: runParseName,
}

func init() {
	rootCmd.AddCommand(parseNameCmd)
}

func runParseName(cmd *cobra.Command, args []string) error {
	rows, failed := parseNameRows(args)

	fmt.Fprintln(cmd.OutOrStdout(), renderTable(
		[]string{"Name", "Start", "End", "Duration / Error"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft},
	))

	if failed > 0 {
		return fmt.Errorf("%d of %d names could not be parsed", failed, len(args))
	}
	return nil
}

func parseNameRows(names []string) ([][]string, int) {
	rows := make([][]string, 0, len(names))
	failed := 0
	for _, arg := range names {
		name := filepath.Base(arg)
		interval, err := frames.ParseInterval(name)
		if err != nil {
			failed++
			rows = append(rows, []string{name, "", "", err.Error()})
			continue
		}
		last := interval.Duration().String()
		if !interval.Ordered() {
			failed++
			last = "start is after end"
		}
		rows = append(rows, []string{
			name,
			subtitle.FormatTimestamp(interval.Start),
			subtitle.FormatTimestamp(interval.End),
			last,
		})
	}
	return rows, failed
}
