package runner

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sync"
)

// lineSource pumps lines from a reader on a dedicated goroutine so that waiting for input
// can be abandoned when the conversation ends.
type lineSource struct {
	reader    *bufio.Reader
	lines     chan inputResult
	startOnce sync.Once

	done     chan struct{}
	doneOnce sync.Once
	mu       sync.Mutex
	err      error
}

type inputResult struct {
	text string
	err  error
}

func newLineSource(r io.Reader) *lineSource {
	return &lineSource{
		reader: bufio.NewReader(r),
		lines:  make(chan inputResult),
		done:   make(chan struct{}),
	}
}

func (s *lineSource) pump() {
	for {
		text, err := s.reader.ReadString('\n')
		if text != "" {
			select {
			case s.lines <- inputResult{text: text}:
			case <-s.done:
				return
			}
		}
		if err != nil {
			select {
			case s.lines <- inputResult{err: err}:
			case <-s.done:
			}
			return
		}
	}
}

// Next blocks for the next line. It returns false once the source is finished; a read error
// finishes the source.
func (s *lineSource) Next() (string, bool) {
	s.startOnce.Do(func() { go s.pump() })
	select {
	case in := <-s.lines:
		if in.err != nil {
			if errors.Is(in.err, io.EOF) {
				s.Finish(io.EOF)
			} else {
				s.Finish(fmt.Errorf("failed to read input: %w", in.err))
			}
			return "", false
		}
		return in.text, true
	case <-s.done:
		return "", false
	}
}

// Finish closes Done, recording err. Only the first call has an effect.
func (s *lineSource) Finish(err error) {
	s.doneOnce.Do(func() {
		s.mu.Lock()
		s.err = err
		s.mu.Unlock()
		close(s.done)
	})
}

func (s *lineSource) Done() <-chan struct{} {
	return s.done
}

func (s *lineSource) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
