package formatting

import (
	"io"
	"time"

	"github.com/briandowns/spinner"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Progress is a spinner shown while a long step runs. A quiet Progress
// prints nothing.
type Progress struct {
	s *spinner.Spinner
}

// StartProgress starts a spinner on w with message as suffix.
func StartProgress(w io.Writer, message string, quiet bool) *Progress {
	if quiet {
		return &Progress{}
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w))
	s.Suffix = " " + message
	s.Start()
	return &Progress{s: s}
}

// Done stops the spinner with a success line.
func (p *Progress) Done(message string) {
	p.finish(text.FgGreen.Sprint("✓ ") + message)
}

// Fail stops the spinner with a failure line.
func (p *Progress) Fail(message string) {
	p.finish(text.FgRed.Sprint("✗ ") + message)
}

func (p *Progress) finish(line string) {
	if p == nil || p.s == nil {
		return
	}
	p.s.FinalMSG = line + "\n"
	p.s.Stop()
}
