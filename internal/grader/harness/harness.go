// Package harness spawns one test command per criterion and exposes its
// standard streams and exit status.
package harness

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"sort"

	appErr "autograder/pkg/errors"
)

// Spec describes one child process invocation.
type Spec struct {
	Command Command
	// Dir is the working directory of the child.
	Dir string
	// Input is written to the child's stdin, which is then closed.
	Input string
	// Env is added on top of the parent environment.
	Env map[string]string
}

// ExitStatus is the outcome of a finished child.
type ExitStatus struct {
	Code      int
	Succeeded bool
}

// Process is a running child. Stdout and Stderr must be read to EOF
// before Wait is called.
type Process struct {
	Stdin  io.WriteCloser
	Stdout io.Reader
	Stderr io.Reader

	cmd   *exec.Cmd
	input string
}

// Start launches the child described by spec with all three streams piped.
func Start(ctx context.Context, spec Spec) (*Process, error) {
	if spec.Command.Program == "" {
		return nil, appErr.New(appErr.InvalidCommand).WithMessage("test command is empty")
	}

	cmd := exec.CommandContext(ctx, spec.Command.Program, spec.Command.Args...)
	cmd.Dir = spec.Dir
	cmd.Env = mergeEnv(os.Environ(), spec.Env)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, appErr.Wrapf(err, appErr.HarnessStartFailed, "create stdin pipe failed")
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, appErr.Wrapf(err, appErr.HarnessStartFailed, "create stdout pipe failed")
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, appErr.Wrapf(err, appErr.HarnessStartFailed, "create stderr pipe failed")
	}
	if err := cmd.Start(); err != nil {
		return nil, appErr.Wrapf(err, appErr.HarnessStartFailed, "start %s failed", spec.Command.Program).
			WithDetail("command", spec.Command.String())
	}

	return &Process{
		Stdin:  stdin,
		Stdout: stdout,
		Stderr: stderr,
		cmd:    cmd,
		input:  spec.Input,
	}, nil
}

// WriteInput writes the whole input and closes stdin. A child that exits
// without reading yields an InputDeliveryFailed error with broken_pipe set;
// callers treat it as a warning, the exit status still decides the verdict.
func (p *Process) WriteInput() error {
	_, err := io.WriteString(p.Stdin, p.input)
	closeErr := p.Stdin.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil {
		return nil
	}
	return appErr.Wrapf(err, appErr.InputDeliveryFailed, "write criterion text to stdin failed").
		WithDetail("broken_pipe", isBrokenPipe(err))
}

// Wait blocks until the child exits. A non-zero exit is reported through
// ExitStatus, not as an error.
func (p *Process) Wait() (ExitStatus, error) {
	err := p.cmd.Wait()
	if err == nil {
		return ExitStatus{Code: 0, Succeeded: true}, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return ExitStatus{Code: exitErr.ExitCode()}, nil
	}
	return ExitStatus{Code: -1}, appErr.Wrapf(err, appErr.HarnessWaitFailed, "wait for test command failed")
}

// IsBrokenPipe reports whether err comes from writing to a child that
// already closed its stdin.
func IsBrokenPipe(err error) bool {
	var e *appErr.Error
	if errors.As(err, &e) {
		if broken, ok := e.Details["broken_pipe"].(bool); ok {
			return broken
		}
	}
	return isBrokenPipe(err)
}

func mergeEnv(base []string, extra map[string]string) []string {
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	env := make([]string, 0, len(base)+len(keys))
	env = append(env, base...)
	for _, k := range keys {
		env = append(env, k+"="+extra[k])
	}
	return env
}
