package utils

import (
	"io"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// Progress is a single-bar progress display. A nil *Progress is valid and
// does nothing, so callers never need to check whether progress is enabled.
type Progress struct {
	container *mpb.Progress
	bar       *mpb.Bar
}

// NewProgress starts a bar with the given label and total. When out is nil
// no bar is drawn and nil is returned.
func NewProgress(out io.Writer, label string, total int) *Progress {
	if out == nil {
		return nil
	}

	p := mpb.New(mpb.WithWidth(80), mpb.WithOutput(out))
	bar := p.AddBar(int64(total),
		mpb.PrependDecorators(
			decor.Name(label+": "),
			decor.CountersNoUnit("%d/%d", decor.WCSyncWidth),
		),
		mpb.AppendDecorators(
			decor.OnComplete(decor.Percentage(decor.WCSyncSpace), "done"),
		),
	)

	return &Progress{container: p, bar: bar}
}

// Increment advances the bar by one
func (p *Progress) Increment() {
	if p == nil {
		return
	}
	p.bar.Increment()
}

// Finish completes the bar, or abandons it when the work stopped early,
// and waits for the final render
func (p *Progress) Finish() {
	if p == nil {
		return
	}
	if !p.bar.Completed() {
		p.bar.Abort(false)
	}
	p.container.Wait()
}
