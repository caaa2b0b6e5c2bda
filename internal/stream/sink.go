package stream

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/sync/errgroup"
)

// OutputSink consumes a byte stream produced by a child process (stdout or
// stderr) until end-of-stream or cancellation. Implementations must observe
// ctx and terminate promptly when it fires, and must leave their target in a
// flushed state on normal completion.
type OutputSink interface {
	Consume(ctx context.Context, r io.Reader) error
}

// Discard returns a sink that throws away everything it receives.
func Discard() OutputSink { return discardSink{} }

type discardSink struct{}

func (discardSink) Consume(ctx context.Context, r io.Reader) error {
	return copyContext(ctx, io.Discard, r)
}

// BufferSink accumulates output in memory. It is safe for concurrent writes,
// so the same instance can receive both stdout and stderr of a process.
type BufferSink struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

// NewBufferSink returns an empty in-memory sink.
func NewBufferSink() *BufferSink { return &BufferSink{} }

// Write implements io.Writer with serialized access.
func (s *BufferSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

// Consume drains r into the buffer.
func (s *BufferSink) Consume(ctx context.Context, r io.Reader) error {
	return copyContext(ctx, s, r)
}

// String returns the accumulated output as a string.
func (s *BufferSink) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

// Bytes returns a copy of the accumulated output.
func (s *BufferSink) Bytes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.buf.Bytes()...)
}

// Len returns the number of accumulated bytes.
func (s *BufferSink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Len()
}

// Reset discards the accumulated output.
func (s *BufferSink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buf.Reset()
}

// NewLineSink returns a sink that invokes fn once per output line, in the
// order the process wrote them. The trailing newline is stripped.
func NewLineSink(fn func(line string)) OutputSink {
	return lineSink{fn: fn}
}

type lineSink struct {
	fn func(string)
}

// maxLineSize bounds a single line fed to the callback (1 MiB).
const maxLineSize = 1024 * 1024

func (s lineSink) Consume(ctx context.Context, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, copyBufferSize), maxLineSize)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.fn(scanner.Text())
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("could not scan output lines: %w", err)
	}
	return nil
}

// NewWriterSink returns a sink that copies output into w. The writer is not
// closed on completion, it is owned by the caller.
func NewWriterSink(w io.Writer) OutputSink {
	return writerSink{w: w}
}

type writerSink struct {
	w io.Writer
}

func (s writerSink) Consume(ctx context.Context, r io.Reader) error {
	return copyContext(ctx, s.w, r)
}

// NewFileSink returns a sink that writes output to a newly created file at
// path, truncating any previous content. The file is created when the sink
// starts consuming and closed (flushed) when the stream ends.
func NewFileSink(path string) OutputSink {
	return fileSink{path: path}
}

type fileSink struct {
	path string
}

func (s fileSink) Consume(ctx context.Context, r io.Reader) (err error) {
	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("could not create output file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("could not close output file: %w", cerr)
		}
	}()

	return copyContext(ctx, f, r)
}

// MultiSink returns a sink that fans out the stream to every given sink
// concurrently. Used to tee process output (e.g. capture to a buffer while
// also logging lines).
func MultiSink(sinks ...OutputSink) OutputSink {
	if len(sinks) == 1 {
		return sinks[0]
	}
	return multiSink{sinks: sinks}
}

type multiSink struct {
	sinks []OutputSink
}

func (s multiSink) Consume(ctx context.Context, r io.Reader) error {
	if len(s.sinks) == 0 {
		return Discard().Consume(ctx, r)
	}

	var g errgroup.Group

	writers := make([]io.Writer, 0, len(s.sinks))
	readers := make([]*io.PipeReader, 0, len(s.sinks))
	for _, sink := range s.sinks {
		pr, pw := io.Pipe()
		readers = append(readers, pr)
		writers = append(writers, pw)

		sink := sink
		g.Go(func() error {
			err := sink.Consume(ctx, pr)
			pr.CloseWithError(err)
			return err
		})
	}

	g.Go(func() error {
		err := copyContext(ctx, io.MultiWriter(writers...), r)
		for _, w := range writers {
			w.(*io.PipeWriter).CloseWithError(err)
		}
		return err
	})

	return g.Wait()
}
