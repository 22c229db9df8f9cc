package console

import (
	"bufio"
	"io"
	"sync"

	"go.uber.org/zap"
)

// maxLineSize bounds a single console line.
const maxLineSize = 1 << 20

// LineSource reads lines from an io.Reader on a background goroutine and
// delivers them through a Loop. The reader is paused between lines: a line is
// only scanned after Request registers interest in it.
type LineSource struct {
	scanner  *bufio.Scanner
	loop     *Loop
	requests chan func(line string, err error)
	done     chan struct{}
	start    sync.Once
	stop     sync.Once
}

// NewLineSource creates a source over r that posts deliveries to loop.
func NewLineSource(r io.Reader, loop *Loop) *LineSource {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxLineSize)
	return &LineSource{
		scanner:  scanner,
		loop:     loop,
		requests: make(chan func(string, error), 1),
		done:     make(chan struct{}),
	}
}

// Request asks for the next line. deliver runs on the loop with the line, or
// with io.EOF once the input is exhausted, or with the read error.
func (s *LineSource) Request(deliver func(line string, err error)) {
	s.start.Do(func() { go s.run() })
	select {
	case <-s.done:
		s.loop.Post(func() { deliver("", io.EOF) })
		return
	default:
	}
	select {
	case s.requests <- deliver:
	case <-s.done:
		s.loop.Post(func() { deliver("", io.EOF) })
	}
}

// Close stops the background reader once its current scan returns.
func (s *LineSource) Close() {
	s.stop.Do(func() { close(s.done) })
}

func (s *LineSource) run() {
	eof := false
	for {
		select {
		case deliver := <-s.requests:
			if eof {
				s.loop.Post(func() { deliver("", io.EOF) })
				continue
			}
			line, err := s.next()
			if err != nil {
				eof = true
			}
			Logger().Debug("console line received", zap.Int("length", len(line)), zap.Error(err))
			s.loop.Post(func() { deliver(line, err) })
		case <-s.done:
			return
		}
	}
}

func (s *LineSource) next() (string, error) {
	if s.scanner.Scan() {
		return s.scanner.Text(), nil
	}
	if err := s.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
