package commands

import (
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/pterm/pterm"
)

var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// captureStdout runs f with os.Stdout and pterm's table writer redirected
// into a pipe and returns what was written, with colors off and any ANSI
// codes removed.
func captureStdout(f func()) string {
	r, w, err := os.Pipe()
	if err != nil {
		panic(err)
	}

	stdout, color, output, table := os.Stdout, pterm.PrintColor, pterm.Output, pterm.DefaultTable.Writer
	os.Stdout, pterm.PrintColor, pterm.Output, pterm.DefaultTable.Writer = w, false, true, w
	defer func() {
		os.Stdout, pterm.PrintColor, pterm.Output, pterm.DefaultTable.Writer = stdout, color, output, table
	}()

	done := make(chan string)
	go func() {
		var sb strings.Builder
		_, _ = io.Copy(&sb, r)
		done <- sb.String()
	}()

	f()
	w.Close()
	return ansiRegex.ReplaceAllString(<-done, "")
}
