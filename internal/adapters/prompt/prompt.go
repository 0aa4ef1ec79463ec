// Package prompt implements the terminal consent prompt.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Prompter implements ports.Prompter over an arbitrary reader/writer pair,
// defaulting to the process terminal.
type Prompter struct {
	in  io.Reader
	out io.Writer
}

// New creates a Prompter reading from stdin and writing to stdout.
func New() *Prompter {
	return &Prompter{in: os.Stdin, out: os.Stdout}
}

// NewWithStreams creates a Prompter with explicit streams. Used for testing.
func NewWithStreams(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: in, out: out}
}

// Confirm presents prompt and blocks until the user answers.
// Only "y" or "yes" (any case) count as consent.
func (p *Prompter) Confirm(prompt string) (bool, error) {
	if _, err := fmt.Fprintf(p.out, "%s [y/n]: ", prompt); err != nil {
		return false, err
	}

	reader := bufio.NewReader(p.in)
	line, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}

	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}
