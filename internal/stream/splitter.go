package stream

import (
	"bytes"
	"fmt"
)

// LineHandler receives one complete line, without its trailing newline.
type LineHandler func(line string) error

// SplitterOption configures a LineSplitter.
type SplitterOption func(*LineSplitter)

// WithErrorHandler registers a callback for handler failures. Both returned
// errors and recovered panics are reported; the splitter keeps going either way.
func WithErrorHandler(fn func(error)) SplitterOption {
	return func(s *LineSplitter) {
		s.onError = fn
	}
}

// LineSplitter buffers raw chunks and yields complete lines as they become
// available. The trailing partial line stays buffered until more data or Flush.
// A LineSplitter is not safe for concurrent use.
type LineSplitter struct {
	buf     []byte
	handle  LineHandler
	onError func(error)
}

// NewLineSplitter creates a splitter that calls handle for every line.
func NewLineSplitter(handle LineHandler, opts ...SplitterOption) *LineSplitter {
	s := &LineSplitter{handle: handle}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Feed appends chunk and dispatches every complete line it finishes.
func (s *LineSplitter) Feed(chunk []byte) {
	if len(chunk) == 0 {
		return
	}
	s.buf = append(s.buf, chunk...)

	start := 0
	for {
		i := bytes.IndexByte(s.buf[start:], '\n')
		if i < 0 {
			break
		}
		line := string(s.buf[start : start+i])
		start += i + 1
		s.dispatch(line)
	}

	// Keep only the partial tail so the buffer does not grow with the stream.
	n := copy(s.buf, s.buf[start:])
	s.buf = s.buf[:n]
}

// FeedString is Feed for text chunks.
func (s *LineSplitter) FeedString(chunk string) {
	s.Feed([]byte(chunk))
}

// Write implements io.Writer so a splitter can sit behind io.Copy or a
// TeeReader. It never returns an error.
func (s *LineSplitter) Write(p []byte) (int, error) {
	s.Feed(p)
	return len(p), nil
}

// Flush dispatches whatever is buffered as a final line, even without a
// trailing newline, and clears the buffer. Flushing an empty buffer is a no-op.
func (s *LineSplitter) Flush() {
	if len(s.buf) == 0 {
		return
	}
	line := string(s.buf)
	s.buf = s.buf[:0]
	s.dispatch(line)
}

// Buffered returns the number of bytes waiting for a newline.
func (s *LineSplitter) Buffered() int {
	return len(s.buf)
}

func (s *LineSplitter) dispatch(line string) {
	if s.handle == nil {
		return
	}
	if err := s.call(line); err != nil && s.onError != nil {
		s.onError(err)
	}
}

// call invokes the handler, converting a panic into an error.
func (s *LineSplitter) call(line string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("line handler panic: %v", r)
		}
	}()
	if herr := s.handle(line); herr != nil {
		return fmt.Errorf("line handler: %w", herr)
	}
	return nil
}
