package console

import (
	"context"
	"io"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/wippyai/wasm-console/errors"
)

// pendingLine is the input line in flight for the current read.
type pendingLine struct {
	err  error
	text string
	done bool
}

// Console is a line-oriented text console with blocking reads.
type Console struct {
	out     io.Writer
	loop    *Loop
	lines   *LineSource
	outMu   sync.Mutex
	reading atomic.Bool
}

// New creates a console reading lines from in and writing to out.
func New(in io.Reader, out io.Writer) *Console {
	loop := NewLoop(4)
	return &Console{
		out:   out,
		loop:  loop,
		lines: NewLineSource(in, loop),
	}
}

// WriteLine writes s followed by a newline.
func (c *Console) WriteLine(s string) error {
	c.outMu.Lock()
	defer c.outMu.Unlock()

	if _, err := io.WriteString(c.out, s+"\n"); err != nil {
		return errors.Wrap(errors.PhaseOutput, errors.KindIO, err, "write console line")
	}
	return nil
}

// ReadLine blocks until the next full input line is available and returns it
// without its line terminator.
func (c *Console) ReadLine(ctx context.Context) (string, error) {
	if !c.reading.CompareAndSwap(false, true) {
		return "", errors.Busy()
	}
	defer c.reading.Store(false)

	p := &pendingLine{}
	c.lines.Request(func(line string, err error) {
		p.text, p.err, p.done = line, err, true
	})

	if err := c.loop.RunWhile(ctx, func() bool { return !p.done }); err != nil {
		return "", errors.Wrap(errors.PhaseInput, errors.KindIO, err, "wait for console line")
	}

	if p.err == io.EOF {
		return "", errors.EndOfInput()
	}
	if p.err != nil {
		return "", errors.Wrap(errors.PhaseInput, errors.KindIO, p.err, "read console line")
	}
	return p.text, nil
}

// Close stops the background line reader and discards deliveries no read is
// waiting for. It does not close the underlying streams.
func (c *Console) Close() error {
	c.lines.Close()
	if n := c.loop.Drain(); n > 0 {
		Logger().Debug("discarded undelivered console lines", zap.Int("count", n))
	}
	return nil
}
