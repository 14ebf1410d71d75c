package main

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// progressLine renders pipeline progress on a writer. On a terminal the line
// is redrawn in place; otherwise one line is printed per new description.
type progressLine struct {
	mu          sync.Mutex
	out         io.Writer
	interactive bool
	last        string
	drawn       bool
}

func newProgressLine(out io.Writer, interactive bool) *progressLine {
	return &progressLine{out: out, interactive: interactive}
}

func (p *progressLine) Report(fraction float64, description string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	description = strings.TrimSpace(description)
	percent := int(fraction*100 + 0.5)
	if p.interactive {
		fmt.Fprintf(p.out, "\r\x1b[K[%3d%%] %s", percent, description)
		p.drawn = true
		return
	}
	if description == p.last {
		return
	}
	p.last = description
	fmt.Fprintf(p.out, "[%3d%%] %s\n", percent, description)
}

// Finish terminates an in-place line.
func (p *progressLine) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.interactive && p.drawn {
		fmt.Fprintln(p.out)
		p.drawn = false
	}
}
