package cli

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/schollz/progressbar/v3"
)

// TreeProgress renders forest fitting progress. Its Update method matches the
// callback signature the forest expects and is safe for concurrent use.
type TreeProgress struct {
	bar *progressbar.ProgressBar
	mu  sync.Mutex
}

// NewTreeProgress returns a progress bar for growing total trees.
func NewTreeProgress(w io.Writer, total int) *TreeProgress {
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Growing trees...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(w); err != nil {
				slog.Warn("Failed to write newline after progress bar", "error", err)
			}
		}),
	)
	return &TreeProgress{bar: bar}
}

// Update moves the bar to done trees.
func (p *TreeProgress) Update(done, _ int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.bar.Set(done); err != nil {
		slog.Warn("Failed to update progress bar", "error", err)
	}
}
