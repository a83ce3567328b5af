package cli

import (
	"os"

	"github.com/schollz/progressbar/v3"

	"github.com/mgpai22/ocrsub/internal/logging"
)

// progress draws a bar on an interactive stderr and does nothing otherwise,
// so piped runs only carry log lines.
type progress struct {
	bar *progressbar.ProgressBar
}

func newProgress(total int, description string) *progress {
	if total == 0 || !logging.IsTerminal(os.Stderr) {
		return &progress{}
	}
	return &progress{
		bar: progressbar.NewOptions(total,
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription(description),
			progressbar.OptionShowCount(),
			progressbar.OptionSetPredictTime(true),
			progressbar.OptionClearOnFinish(),
		),
	}
}

func (p *progress) Increment() {
	if p.bar == nil {
		return
	}
	_ = p.bar.Add(1)
}

func (p *progress) Finish() {
	if p.bar == nil {
		return
	}
	_ = p.bar.Finish()
}
