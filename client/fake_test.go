package client

import (
	"context"
	"fmt"
)

type fakeExecutor struct {
	paths   map[string]bool
	results map[string]Result
	errs    map[string]error
	calls   []Command
	onRun   func(Command)
}

func newFakeExecutor(paths ...string) *fakeExecutor {
	f := &fakeExecutor{
		paths:   map[string]bool{},
		results: map[string]Result{},
		errs:    map[string]error{},
	}
	for _, p := range paths {
		f.paths[p] = true
	}
	return f
}

func (f *fakeExecutor) LookPath(file string) (string, error) {
	if f.paths[file] {
		return "/usr/bin/" + file, nil
	}
	return "", fmt.Errorf("exec: %q: executable file not found in $PATH", file)
}

func (f *fakeExecutor) Run(_ context.Context, cmd Command) (Result, error) {
	f.calls = append(f.calls, cmd)
	if f.onRun != nil {
		f.onRun(cmd)
	}
	return f.results[cmd.Name], f.errs[cmd.Name]
}
