package client

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"

	skeemakh "github.com/skeema/knownhosts"
	"github.com/spf13/afero"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
)

// hostKeyConfig returns the callback and preferred algorithms for addr. With
// strict off, host keys are accepted without checking, like
// StrictHostKeyChecking=no with UserKnownHostsFile=/dev/null.
func hostKeyConfig(strict bool, knownHostsPath, addr string) (ssh.HostKeyCallback, []string, error) {
	if !strict {
		return ssh.InsecureIgnoreHostKey(), nil, nil
	}
	kh, err := skeemakh.NewDB(knownHostsPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load known_hosts DB: %w", err)
	}
	return kh.HostKeyCallback(), kh.HostKeyAlgorithms(addr), nil
}

func privateKeyFile(fs afero.Fs, file string) (ssh.Signer, error) {
	buf, err := afero.ReadFile(fs, file)
	if err != nil {
		return nil, err
	}
	key, err := ssh.ParsePrivateKey(buf)
	if err != nil {
		return nil, err
	}
	return key, nil
}

// agentAuth connects to SSH_AUTH_SOCK. The returned conn must be closed by
// the caller once authentication is over.
func agentAuth() (ssh.AuthMethod, io.Closer, bool) {
	sock := os.Getenv("SSH_AUTH_SOCK")
	if sock == "" {
		return nil, nil, false
	}
	c, err := net.Dial("unix", sock)
	if err != nil {
		return nil, nil, false
	}
	return ssh.PublicKeysCallback(agent.NewClient(c).Signers), c, true
}

// exitCode maps a session error to the remote exit status, or -1 when the
// remote side never reported one.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var ee *ssh.ExitError
	if errors.As(err, &ee) {
		return ee.ExitStatus()
	}
	return -1
}
