package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/schollz/progressbar/v3"
)

// BatchProgress renders classification batches as a progress bar.
type BatchProgress struct {
	writer    io.Writer
	bar       *progressbar.ProgressBar
	failed    int
	committed int
}

// NewBatchProgress creates a progress reporter writing to w (stderr when nil).
func NewBatchProgress(w io.Writer) *BatchProgress {
	if w == nil {
		w = os.Stderr
	}
	return &BatchProgress{writer: w}
}

// BatchStarted creates the bar on the first batch and labels the current one.
func (p *BatchProgress) BatchStarted(index, total, size int) {
	if p.bar == nil {
		p.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(p.writer),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionShowCount(),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionSetWidth(40),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "[green]=[reset]",
				SaucerHead:    "[green]>[reset]",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
			progressbar.OptionOnCompletion(func() {
				if _, err := fmt.Fprintln(p.writer); err != nil {
					slog.Warn("Failed to write newline after progress bar", "error", err)
				}
			}),
		)
	}
	p.bar.Describe(fmt.Sprintf("[cyan][bold]Classifying batch %d/%d (%d rows)[reset]", index+1, total, size))
}

// BatchFinished advances the bar.
func (p *BatchProgress) BatchFinished(_ int, committed int, err error) {
	if err != nil {
		p.failed++
	}
	p.committed += committed
	if p.bar == nil {
		return
	}
	if addErr := p.bar.Add(1); addErr != nil {
		slog.Warn("Failed to update progress bar", "error", addErr)
	}
}

// Committed returns the number of rows committed so far.
func (p *BatchProgress) Committed() int {
	return p.committed
}

// Failed returns the number of failed batches so far.
func (p *BatchProgress) Failed() int {
	return p.failed
}
