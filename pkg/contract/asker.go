package contract

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// StreamAsker asks questions on out and reads one-line answers from in.
type StreamAsker struct {
	in  *bufio.Reader
	out io.Writer
}

// NewStreamAsker creates an asker over the given streams.
func NewStreamAsker(in io.Reader, out io.Writer) *StreamAsker {
	return &StreamAsker{in: bufio.NewReader(in), out: out}
}

// Ask implements Asker. An empty line is a valid answer; end of input is not.
func (a *StreamAsker) Ask(ctx context.Context, role Role, question string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if _, err := fmt.Fprintf(a.out, "\n%s >> %s\nUser Response >> ", role, question); err != nil {
		return "", fmt.Errorf("write question: %w", err)
	}

	line, err := a.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read answer: %w", err)
	}
	return strings.TrimSpace(line), nil
}
