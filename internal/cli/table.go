package cli

import (
	"context"
	"errors"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/mgpai22/ocrsub/internal/frames"
	"github.com/mgpai22/ocrsub/internal/ocr"
	"github.com/mgpai22/ocrsub/internal/pipeline"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
			WidthMax:    80,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

// renderFailures lists every failed frame with the stage it failed in.
func renderFailures(failures []pipeline.Result) string {
	rows := make([][]string, 0, len(failures))
	for _, f := range failures {
		rows = append(rows, []string{
			strconv.Itoa(f.Index + 1),
			f.Image.Name,
			failureStage(f.Err),
			f.Err.Error(),
		})
	}
	return renderTable(
		[]string{"#", "Image", "Stage", "Error"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
	)
}

func failureStage(err error) string {
	var parseErr *frames.ParseError
	var remoteErr *ocr.RemoteServiceError
	switch {
	case errors.As(err, &parseErr), errors.Is(err, pipeline.ErrInvertedInterval):
		return "filename"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	case errors.As(err, &remoteErr):
		return "ocr " + remoteErr.Op
	default:
		return "io"
	}
}
