package report

import (
	"bufio"
	"errors"
	"fmt"
	"io"
)

// Pager blocks between report tables until the reader delivers a line.
type Pager struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPager returns a pager prompting on out and reading acknowledgements
// from in.
func NewPager(in io.Reader, out io.Writer) *Pager {
	return &Pager{in: bufio.NewReader(in), out: out}
}

// Wait prompts and blocks until a newline arrives. End of input counts as
// an acknowledgement, so exhausted or redirected stdin never wedges a run.
func (p *Pager) Wait() error {
	if _, err := fmt.Fprint(p.out, "Press Enter to continue..."); err != nil {
		return fmt.Errorf("report: pager prompt: %w", err)
	}
	if _, err := p.in.ReadString('\n'); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("report: pager read: %w", err)
	}
	return nil
}
