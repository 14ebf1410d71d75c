package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

type level int

const (
	levelInfo level = iota
	levelOK
	levelWarn
	levelError
)

var levelNames = map[level]string{
	levelInfo:  "INFO",
	levelOK:    "OK",
	levelWarn:  "WARN",
	levelError: "ERROR",
}

var levelColors = map[level]string{
	levelInfo:  "\x1b[34m",
	levelOK:    "\x1b[32m",
	levelWarn:  "\x1b[33m",
	levelError: "\x1b[31m",
}

const colorReset = "\x1b[0m"

// statusReport collects labelled check lines grouped under section headings.
type statusReport struct {
	color bool
	lines []string
}

func newStatusReport(out io.Writer) *statusReport {
	return &statusReport{color: isTerminal(out)}
}

func (r *statusReport) section(title string) {
	if len(r.lines) > 0 {
		r.lines = append(r.lines, "")
	}
	heading := "== " + strings.TrimSpace(title) + " =="
	r.lines = append(r.lines, r.paint(levelInfo, heading), r.paint(levelInfo, strings.Repeat("-", len(heading))))
}

func (r *statusReport) add(label string, lvl level, detail string) {
	r.lines = append(r.lines, formatCheck(label, lvl, detail, r.color))
}

func (r *statusReport) paint(lvl level, s string) string {
	if !r.color {
		return s
	}
	return levelColors[lvl] + s + colorReset
}

func (r *statusReport) writeTo(out io.Writer) {
	for _, line := range r.lines {
		fmt.Fprintln(out, line)
	}
}

// formatCheck renders "  Label:   [LEVEL] detail" with an optional colour wrap.
func formatCheck(label string, lvl level, detail string, color bool) string {
	tag := "[" + levelNames[lvl] + "]"
	if detail != "" {
		tag += " " + detail
	}
	line := fmt.Sprintf("  %-20s %s", label+":", tag)
	if color {
		return levelColors[lvl] + line + colorReset
	}
	return line
}

// isTerminal reports whether writer is an interactive terminal.
func isTerminal(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
