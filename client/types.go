package client

import "fmt"

const DefaultPort = 22

type Target struct {
	User string
	Host string
	Port int
}

// String renders the target as user@host, the form ssh takes on its command line.
func (t Target) String() string {
	if t.User == "" {
		return t.Host
	}
	return t.User + "@" + t.Host
}

type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// ExitError reports a process or remote session that finished with a
// non-zero status. The captured output is kept so callers can print it.
type ExitError struct {
	Name   string
	Code   int
	Result Result
	Err    error
}

func (e *ExitError) Error() string {
	if e.Code < 0 {
		return fmt.Sprintf("%s failed: %v", e.Name, e.Err)
	}
	return fmt.Sprintf("%s returned non-zero exit status %d", e.Name, e.Code)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}
