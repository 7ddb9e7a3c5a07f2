package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"golang.org/x/crypto/ssh"
)

// NativeClient talks SSH directly instead of shelling out to sshpass.
type NativeClient struct {
	FS             afero.Fs
	Home           string
	StrictHostKey  bool
	KnownHostsPath string
	IdentityFile   string
	Log            logrus.FieldLogger
}

func NewNativeClient(fs afero.Fs, log logrus.FieldLogger) (*NativeClient, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("get home directory: %w", err)
	}
	return &NativeClient{
		FS:             fs,
		Home:           home,
		KnownHostsPath: filepath.Join(home, ".ssh", "known_hosts"),
		Log:            log,
	}, nil
}

// ResolveTarget applies ~/.ssh/config to target and remembers the identity
// file it names.
func (n *NativeClient) ResolveTarget(target Target) (Target, error) {
	hc, err := LookupHostConfig(n.FS, filepath.Join(n.Home, ".ssh", "config"), target.Host, n.Home)
	if err != nil {
		return target, fmt.Errorf("read ssh config: %w", err)
	}
	if hc.IdentityFile != "" && n.IdentityFile == "" {
		n.IdentityFile = hc.IdentityFile
	}
	return hc.Apply(target), nil
}

// authMethods returns the methods to offer and, when the agent is used, the
// agent connection to close after the handshake.
func (n *NativeClient) authMethods(password string) ([]ssh.AuthMethod, io.Closer, error) {
	var (
		methods []ssh.AuthMethod
		closer  io.Closer
	)
	if password != "" {
		methods = append(methods, ssh.Password(password))
	}
	if m, c, ok := agentAuth(); ok {
		methods = append(methods, m)
		closer = c
	}

	keys := []string{n.IdentityFile}
	for _, filename := range []string{"id_rsa", "id_ed25519"} {
		keys = append(keys, filepath.Join(n.Home, ".ssh", filename))
	}
	for _, keyPath := range keys {
		if keyPath == "" {
			continue
		}
		key, err := privateKeyFile(n.FS, keyPath)
		if err == nil {
			methods = append(methods, ssh.PublicKeys(key))
			break
		}
	}

	if len(methods) == 0 {
		return nil, nil, fmt.Errorf("no authentication methods available")
	}
	return methods, closer, nil
}

func (n *NativeClient) dial(ctx context.Context, target Target, password string) (*ssh.Client, error) {
	auth, agentConn, err := n.authMethods(password)
	if err != nil {
		return nil, err
	}
	if agentConn != nil {
		defer agentConn.Close()
	}

	port := target.Port
	if port == 0 {
		port = DefaultPort
	}
	addr := net.JoinHostPort(target.Host, strconv.Itoa(port))

	callback, algos, err := hostKeyConfig(n.StrictHostKey, n.KnownHostsPath, addr)
	if err != nil {
		return nil, err
	}

	config := &ssh.ClientConfig{
		User:              target.User,
		Auth:              auth,
		HostKeyCallback:   callback,
		HostKeyAlgorithms: algos,
	}

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("net dial: %w", err)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, config)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("ssh client conn: %w", err)
	}
	n.logger().WithField("addr", addr).Debug("ssh connection established")

	return ssh.NewClient(sshConn, chans, reqs), nil
}

// RunScript executes script in one remote session and captures its output.
// A non-zero remote status comes back as *ExitError.
func (n *NativeClient) RunScript(ctx context.Context, target Target, password, script string) (Result, error) {
	conn, err := n.dial(ctx, target, password)
	if err != nil {
		return Result{ExitCode: -1}, &ExitError{Name: "ssh", Code: -1, Result: Result{ExitCode: -1}, Err: err}
	}
	defer conn.Close()

	session, err := conn.NewSession()
	if err != nil {
		return Result{ExitCode: -1}, &ExitError{Name: "ssh", Code: -1, Result: Result{ExitCode: -1}, Err: fmt.Errorf("new SSH session: %w", err)}
	}
	defer session.Close()

	var outputBuf, stderrBuf bytes.Buffer
	session.Stdout = &outputBuf
	session.Stderr = &stderrBuf

	done := make(chan error, 1)
	go func() { done <- session.Run(script) }()

	select {
	case err = <-done:
	case <-ctx.Done():
		conn.Close()
		<-done
		err = ctx.Err()
	}

	res := Result{
		Stdout:   outputBuf.String(),
		Stderr:   stderrBuf.String(),
		ExitCode: exitCode(err),
	}
	if err != nil {
		return res, &ExitError{Name: "ssh", Code: res.ExitCode, Result: res, Err: err}
	}
	return res, nil
}

func (n *NativeClient) logger() logrus.FieldLogger {
	if n.Log == nil {
		return logrus.StandardLogger()
	}
	return n.Log
}
