package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mgpai22/ocrsub/internal/subtitle"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [subtitle_file]",
	Short: "Print the entries of an SRT or WebVTT file",
	Long: `Parse an existing subtitle file and print its entries as a table.

Useful to check a generated track: entries are listed in file order with
their index, timing and text.

Examples:
  ocrsub inspect subtitle_output.srt
  ocrsub inspect movie.vtt`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	subs, err := subtitle.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to read subtitles: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, renderTable(
		[]string{"#", "Start", "End", "Text"},
		inspectRows(subs),
		[]columnAlignment{alignRight, alignRight, alignRight, alignLeft},
	))
	fmt.Fprintf(out, "%d entries\n", len(subs.Entries))
	return nil
}

func inspectRows(subs *subtitle.Subtitle) [][]string {
	rows := make([][]string, 0, len(subs.Entries))
	for _, e := range subs.Entries {
		rows = append(rows, []string{
			strconv.Itoa(e.Index),
			subtitle.FormatTimestamp(e.StartTime),
			subtitle.FormatTimestamp(e.EndTime),
			strings.ReplaceAll(e.Text, "\n", " / "),
		})
	}
	return rows
}
