package client

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
)

// HelperName is the local tool that feeds a password to ssh non-interactively.
const HelperName = "sshpass"

var ErrNoInstaller = errors.New("no supported package manager found")

// HelperAvailable reports whether sshpass is on PATH.
func HelperAvailable(e Executor) bool {
	_, err := e.LookPath(HelperName)
	return err == nil
}

type installer struct {
	manager string
	args    []string
	sudo    bool
}

func installersFor(goos string) []installer {
	switch goos {
	case "darwin":
		return []installer{
			{manager: "brew", args: []string{"install", HelperName}},
		}
	case "linux":
		return []installer{
			{manager: "apt-get", args: []string{"install", "-y", HelperName}, sudo: true},
			{manager: "dnf", args: []string{"install", "-y", HelperName}, sudo: true},
			{manager: "yum", args: []string{"install", "-y", HelperName}, sudo: true},
			{manager: "apk", args: []string{"add", HelperName}, sudo: true},
			{manager: "brew", args: []string{"install", HelperName}},
		}
	default:
		return nil
	}
}

// InstallCommand picks the first package manager present for goos and returns
// the command that installs sshpass with it.
func InstallCommand(e Executor, goos string, root bool) (Command, error) {
	for _, in := range installersFor(goos) {
		if _, err := e.LookPath(in.manager); err != nil {
			continue
		}
		if in.sudo && !root {
			args := append([]string{"-n", in.manager}, in.args...)
			return Command{Name: "sudo", Args: args, Stream: true}, nil
		}
		return Command{Name: in.manager, Args: append([]string(nil), in.args...), Stream: true}, nil
	}
	return Command{}, fmt.Errorf("%w for %s", ErrNoInstaller, goos)
}

// InstallHelper makes a single attempt to install sshpass and confirms it
// landed on PATH afterwards.
func InstallHelper(ctx context.Context, e Executor) error {
	cmd, err := InstallCommand(e, runtime.GOOS, os.Geteuid() == 0)
	if err != nil {
		return err
	}
	if _, err := e.Run(ctx, cmd); err != nil {
		return fmt.Errorf("install %s: %w", HelperName, err)
	}
	if !HelperAvailable(e) {
		return fmt.Errorf("%s still not found after install", HelperName)
	}
	return nil
}

// SSHPassCommand builds the sshpass invocation that runs script on target.
// The password travels in SSHPASS so it never shows up in the process list.
func SSHPassCommand(target Target, password, script string) Command {
	args := []string{
		"-e",
		"ssh",
		"-o", "StrictHostKeyChecking=no",
		"-o", "UserKnownHostsFile=/dev/null",
	}
	if target.Port != 0 && target.Port != DefaultPort {
		args = append(args, "-p", strconv.Itoa(target.Port))
	}
	args = append(args, target.String(), script)

	return Command{
		Name: HelperName,
		Args: args,
		Env:  []string{"SSHPASS=" + password},
	}
}

// ManualSSHCommand is the line an operator types when no helper is available.
func ManualSSHCommand(target Target) string {
	if target.Port != 0 && target.Port != DefaultPort {
		return fmt.Sprintf("ssh -p %d %s", target.Port, target)
	}
	return "ssh " + target.String()
}
