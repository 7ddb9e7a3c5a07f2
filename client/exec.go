package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
)

type Command struct {
	Name string
	Args []string
	// Env is appended to the current process environment.
	Env []string
	// Stream sends output to the terminal instead of capturing it.
	Stream bool
}

// Executor runs local processes. Tests swap in a fake.
type Executor interface {
	LookPath(file string) (string, error)
	Run(ctx context.Context, cmd Command) (Result, error)
}

type ProcessExecutor struct{}

func (ProcessExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

// Run blocks until the process exits. A non-zero status is returned as
// *ExitError with the captured output attached.
func (ProcessExecutor) Run(ctx context.Context, c Command) (Result, error) {
	if c.Name == "" {
		return Result{}, fmt.Errorf("no command provided")
	}

	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}

	var stdout, stderr bytes.Buffer
	if c.Stream {
		cmd.Stdin = os.Stdin
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	} else {
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
	}

	err := cmd.Run()
	res := Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: cmd.ProcessState.ExitCode(),
	}
	if err == nil {
		return res, nil
	}

	var ee *exec.ExitError
	if errors.As(err, &ee) {
		res.ExitCode = ee.ExitCode()
	} else {
		res.ExitCode = -1
	}
	return res, &ExitError{Name: c.Name, Code: res.ExitCode, Result: res, Err: err}
}
