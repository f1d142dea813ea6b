package cli

import (
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Progress shows a spinner on stderr while a long running step is in
// progress. A nil *Progress, as returned in quiet mode, does nothing.
type Progress struct {
	s *spinner.Spinner
}

// StartProgress starts a spinner with msg as suffix. It returns nil when
// quiet is set.
func StartProgress(msg string, quiet bool) *Progress {
	return startProgress(os.Stderr, msg, quiet)
}

func startProgress(w io.Writer, msg string, quiet bool) *Progress {
	if quiet {
		return nil
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w))
	s.Suffix = " " + msg
	s.Start()
	return &Progress{s: s}
}

// Done stops the spinner and prints msg in green, or nothing when msg is
// empty.
func (p *Progress) Done(msg string) {
	p.stop(text.FgGreen, "✓ ", msg)
}

// Fail stops the spinner and prints msg in red.
func (p *Progress) Fail(msg string) {
	p.stop(text.FgRed, "❌ ", msg)
}

func (p *Progress) stop(color text.Color, icon, msg string) {
	if p == nil {
		return
	}
	if msg != "" {
		p.s.FinalMSG = color.Sprint(icon+msg) + "\n"
	}
	p.s.Stop()
}
