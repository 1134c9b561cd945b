package console

import (
	"bytes"
	"context"
	"errors"
	"io"

	appErr "autograder/pkg/errors"

	"golang.org/x/sync/errgroup"
)

const defaultChunkSize = 32 * 1024

type source int

const (
	sourceStdout source = iota
	sourceStderr
)

type chunk struct {
	from source
	data []byte
}

// Multiplexer drains the stdout and stderr of one child onto a Console.
// Both readers push chunks onto a single queue consumed by one writer, so
// chunks never interleave mid-write and each stream keeps its own order.
type Multiplexer struct {
	console   *Console
	chunkSize int
}

// Option configures a Multiplexer.
type Option func(*Multiplexer)

// WithChunkSize sets the read size of both readers.
func WithChunkSize(size int) Option {
	return func(m *Multiplexer) {
		if size > 0 {
			m.chunkSize = size
		}
	}
}

// NewMultiplexer creates a multiplexer writing to console.
func NewMultiplexer(console *Console, opts ...Option) *Multiplexer {
	m := &Multiplexer{console: console, chunkSize: defaultChunkSize}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Drain reads stdout and stderr concurrently until both reach EOF, mirrors
// every chunk to the console and returns the exact bytes read from stdout.
// It returns only after the write queue is flushed.
func (m *Multiplexer) Drain(ctx context.Context, stdout, stderr io.Reader) (string, error) {
	queue := make(chan chunk, 16)
	flushed := make(chan struct{})
	var captured bytes.Buffer

	go func() {
		defer close(flushed)
		for c := range queue {
			if c.from == sourceStdout {
				captured.Write(c.data)
			}
			m.console.Output(c.data)
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return m.pump(gctx, stdout, sourceStdout, queue) })
	g.Go(func() error { return m.pump(gctx, stderr, sourceStderr, queue) })
	err := g.Wait()

	close(queue)
	<-flushed

	if err != nil {
		return captured.String(), appErr.Wrapf(err, appErr.OutputDrainFailed, "drain test command output failed")
	}
	return captured.String(), nil
}

func (m *Multiplexer) pump(ctx context.Context, r io.Reader, from source, queue chan<- chunk) error {
	if r == nil {
		return nil
	}
	buf := make([]byte, m.chunkSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			select {
			case queue <- chunk{from: from, data: data}:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
