package console

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	appErr "autograder/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// emit writes parts alternately to two pipes, the way a child interleaves
// its streams.
func emit(stdout, stderr []string) (io.Reader, io.Reader) {
	outR, outW := io.Pipe()
	errR, errW := io.Pipe()
	go func() {
		defer outW.Close()
		for _, p := range stdout {
			_, _ = io.WriteString(outW, p)
		}
	}()
	go func() {
		defer errW.Close()
		for _, p := range stderr {
			_, _ = io.WriteString(errW, p)
		}
	}()
	return outR, errR
}

func TestDrainCapturesStdoutOnly(t *testing.T) {
	stdout := []string{"line 1\n", "  indented", " tail\n", "no newline"}
	stderr := []string{"warn A\n", "warn B\n", "warn C"}

	var runs []string
	for i := 0; i < 3; i++ {
		var buf bytes.Buffer
		c := New(&buf)
		m := NewMultiplexer(c, WithChunkSize(3))
		outR, errR := emit(stdout, stderr)

		captured, err := m.Drain(context.Background(), outR, errR)
		require.NoError(t, err)
		assert.Equal(t, strings.Join(stdout, ""), captured)

		rendered := buf.String()
		assert.Equal(t, len(strings.Join(stdout, ""))+len(strings.Join(stderr, "")), len(rendered))
		runs = append(runs, captured)
	}
	assert.Equal(t, runs[0], runs[1])
	assert.Equal(t, runs[1], runs[2])
}

func TestDrainPadsEveryNewline(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf)
	c.Banner(2, 9, 1, 3)
	prefix := buf.Len()

	m := NewMultiplexer(c)
	captured, err := m.Drain(context.Background(), strings.NewReader("a\nb\n"), strings.NewReader(""))
	require.NoError(t, err)

	assert.Equal(t, "a\nb\n", captured)
	assert.Equal(t, "a\n         b\n         ", buf.String()[prefix:])
	assert.True(t, c.Clean())
}

func TestDrainKeepsPerStreamOrder(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf)
	m := NewMultiplexer(c, WithChunkSize(1))

	outR, errR := emit([]string{"abc", "def"}, []string{"XYZ"})
	_, err := m.Drain(context.Background(), outR, errR)
	require.NoError(t, err)

	var out, errs strings.Builder
	for _, r := range buf.String() {
		if r >= 'A' && r <= 'Z' {
			errs.WriteRune(r)
		} else {
			out.WriteRune(r)
		}
	}
	assert.Equal(t, "abcdef", out.String())
	assert.Equal(t, "XYZ", errs.String())
}

func TestDrainReadError(t *testing.T) {
	c := New(io.Discard)
	m := NewMultiplexer(c)
	boom := errors.New("boom")

	_, err := m.Drain(context.Background(), iotest.ErrReader(boom), strings.NewReader("ok"))
	require.Error(t, err)
	assert.True(t, appErr.Is(err, appErr.OutputDrainFailed))
	assert.ErrorIs(t, err, boom)
}

func TestDrainNilStderr(t *testing.T) {
	m := NewMultiplexer(New(io.Discard))
	captured, err := m.Drain(context.Background(), strings.NewReader("only"), nil)
	require.NoError(t, err)
	assert.Equal(t, "only", captured)
}
