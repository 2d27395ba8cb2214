package main

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/term"
)

const (
	progressUpdateInterval = 100 * time.Millisecond
	clearLineSequence      = "\r\033[K"
)

// ProgressPrinter shows a single self-updating status line with elapsed or
// remaining seconds. It only draws when the writer is a terminal.
//
//	p := NewCountdownProgressPrinter(w, "Scanning for glasses", window)
//	p.Start()
//	defer p.Stop()
//
// A ProgressPrinter is single-use.
type ProgressPrinter struct {
	out      io.Writer
	prefix   string
	enabled  bool
	countUp  bool
	duration time.Duration

	startOnce sync.Once
	stopOnce  sync.Once
	stopChan  chan struct{}
	done      chan struct{}
}

// NewProgressPrinter creates a progress printer that counts up (shows elapsed time).
func NewProgressPrinter(out io.Writer, prefix string) *ProgressPrinter {
	return &ProgressPrinter{
		out:     out,
		prefix:  prefix,
		enabled: isTerminal(out),
		countUp: true,
	}
}

// NewCountdownProgressPrinter creates a progress printer that counts down from the duration.
func NewCountdownProgressPrinter(out io.Writer, prefix string, duration time.Duration) *ProgressPrinter {
	p := NewProgressPrinter(out, prefix)
	p.countUp = false
	p.duration = duration
	return p
}

func (p *ProgressPrinter) Start() {
	p.startOnce.Do(func() {
		if !p.enabled {
			return
		}
		p.stopChan = make(chan struct{})
		p.done = make(chan struct{})
		start := time.Now()
		fmt.Fprintf(p.out, "\r%s...", p.prefix)

		go func() {
			defer close(p.done)
			ticker := time.NewTicker(progressUpdateInterval)
			defer ticker.Stop()

			for {
				select {
				case <-p.stopChan:
					return
				case <-ticker.C:
					fmt.Fprintf(p.out, "\r%s (%ds)   ", p.prefix, p.seconds(time.Since(start)))
				}
			}
		}()
	})
}

func (p *ProgressPrinter) seconds(elapsed time.Duration) int {
	if p.countUp {
		return int(elapsed.Seconds())
	}
	remaining := p.duration - elapsed
	if remaining <= 0 {
		return 0
	}
	// Round to the nearest second, e.g. 3.7s -> 4s
	return int(remaining.Seconds() + 0.5)
}

// Stop clears the line. Safe to call more than once.
func (p *ProgressPrinter) Stop() {
	p.stopOnce.Do(func() {
		if p.stopChan == nil {
			return
		}
		close(p.stopChan)
		<-p.done
		fmt.Fprint(p.out, clearLineSequence)
	})
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
