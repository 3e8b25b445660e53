package scanner

import (
	"fmt"
	"io"
	"strings"
)

// LinePrompter answers prompts from the same line source that feeds scans, so
// the next line typed or scanned while a prompt is pending becomes the
// answer. This mirrors how the interactive loop blocks on input.
type LinePrompter struct {
	lines <-chan string
	out   io.Writer
}

// NewLinePrompter builds a prompter over a shared line channel.
func NewLinePrompter(lines <-chan string, out io.Writer) *LinePrompter {
	if out == nil {
		out = io.Discard
	}
	return &LinePrompter{lines: lines, out: out}
}

// Quantity asks the operator for a quantity and returns the raw answer.
func (p *LinePrompter) Quantity(productName string) (string, error) {
	fmt.Fprintf(p.out, "quantity for %s: ", productName)
	return p.next()
}

// Confirm asks a yes/no question and returns the raw answer.
func (p *LinePrompter) Confirm(question string) (string, error) {
	fmt.Fprintf(p.out, "%s (y/n): ", question)
	return p.next()
}

func (p *LinePrompter) next() (string, error) {
	line, ok := <-p.lines
	if !ok {
		return "", io.EOF
	}
	return strings.TrimSpace(line), nil
}
