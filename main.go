package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"vpsfix/client"
	"vpsfix/fix"
)

// newExecutor is swapped in tests to keep run from spawning processes.
var newExecutor = func() client.Executor { return client.ProcessExecutor{} }

func promptSecret(label string) (string, error) {
	fmt.Print(label)
	p, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(p), nil
}

func newLogger(verbose bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetLevel(logrus.WarnLevel)
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	return log
}

func run(args []string, out io.Writer) int {
	flags := newFlagSet()
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}

	afs := afero.NewOsFs()
	v, err := loadConfig(flags, afs)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}

	cfg, err := buildConfig(v)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}

	bundle := fix.NewBundle(cfg.Bundle)
	if cfg.PrintScript {
		fmt.Fprint(out, bundle.Script())
		return 0
	}

	log := newLogger(cfg.Verbose)

	password, err := resolvePassword(v, afs, promptSecret)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}

	runner := &fix.Runner{
		Exec: newExecutor(),
		Out:  out,
		Log:  log,
	}

	var resolve func(client.Target) (client.Target, error)
	if cfg.Transport == fix.TransportNative {
		nc, err := client.NewNativeClient(afs, log)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return 1
		}
		nc.StrictHostKey = cfg.StrictHostKey
		resolve = nc.ResolveTarget
		runner.Native = nc
	}
	target, err := resolveTarget(cfg.Target, resolve)
	if err != nil {
		log.WithError(err).Warn("ignoring ssh config")
	}

	err = runner.Run(context.Background(), fix.Options{
		Target:    target,
		Password:  password,
		Bundle:    bundle,
		Transport: cfg.Transport,
		Install:   cfg.Install,
		Timeout:   cfg.Timeout,
		Uploads:   cfg.Uploads,
	})
	if err != nil {
		return 1
	}
	return 0
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}
