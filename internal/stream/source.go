package stream

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// InputSource produces the byte stream fed to a child process stdin until
// exhausted. Implementations must observe ctx and terminate promptly when it
// fires. The writer (the process stdin pipe) is closed by the runner, not by
// the source.
type InputSource interface {
	Provide(ctx context.Context, w io.Writer) error
}

// NoInput returns a source that provides no bytes at all, the process sees
// an immediately closed stdin.
func NoInput() InputSource { return emptySource{} }

type emptySource struct{}

func (emptySource) Provide(ctx context.Context, w io.Writer) error { return nil }

// NewStringSource returns a source that feeds the given text to stdin.
func NewStringSource(s string) InputSource {
	return readerFactorySource{factory: func() (io.Reader, func() error, error) {
		return strings.NewReader(s), nil, nil
	}}
}

// NewBytesSource returns a source that feeds the given raw bytes to stdin.
// The slice is copied so later mutations by the caller don't race the pump.
func NewBytesSource(b []byte) InputSource {
	buf := append([]byte(nil), b...)
	return readerFactorySource{factory: func() (io.Reader, func() error, error) {
		return bytes.NewReader(buf), nil, nil
	}}
}

// NewReaderSource returns a source that streams r to stdin. The reader is
// owned by the caller and not closed by the source.
func NewReaderSource(r io.Reader) InputSource {
	return readerFactorySource{factory: func() (io.Reader, func() error, error) {
		return r, nil, nil
	}}
}

// NewFileSource returns a source that streams the file at path to stdin.
// The file is opened read-only when the pump starts and closed when it ends.
func NewFileSource(path string) InputSource {
	return readerFactorySource{factory: func() (io.Reader, func() error, error) {
		f, err := os.Open(path)
		if err != nil {
			return nil, nil, fmt.Errorf("could not open input file: %w", err)
		}
		return f, f.Close, nil
	}}
}

type readerFactorySource struct {
	factory func() (r io.Reader, close func() error, err error)
}

func (s readerFactorySource) Provide(ctx context.Context, w io.Writer) (err error) {
	r, closeFn, err := s.factory()
	if err != nil {
		return err
	}
	if closeFn != nil {
		defer func() {
			if cerr := closeFn(); cerr != nil && err == nil {
				err = fmt.Errorf("could not close input: %w", cerr)
			}
		}()
	}

	return copyContext(ctx, w, r)
}
