package fix

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/sirupsen/logrus"

	"vpsfix/client"
)

type Transport string

const (
	TransportSSHPass Transport = "sshpass"
	TransportNative  Transport = "native"
)

func ParseTransport(s string) (Transport, error) {
	switch Transport(s) {
	case "", TransportSSHPass:
		return TransportSSHPass, nil
	case TransportNative:
		return TransportNative, nil
	default:
		return "", fmt.Errorf("unknown transport %q (want %s or %s)", s, TransportSSHPass, TransportNative)
	}
}

var ErrNoPassword = errors.New("no SSH password configured")

// RemoteRunner runs the bundle without a local helper tool.
type RemoteRunner interface {
	RunScript(ctx context.Context, target client.Target, password, script string) (client.Result, error)
	Upload(ctx context.Context, target client.Target, password, localPath, remotePath string) error
}

type Upload struct {
	Local  string
	Remote string
}

type Options struct {
	Target    client.Target
	Password  string
	Bundle    Bundle
	Transport Transport
	// Install allows one attempt to install sshpass when it is missing.
	Install bool
	// Timeout bounds the install attempt and the remote session. Zero waits forever.
	Timeout time.Duration
	// Uploads are pushed over SFTP before the bundle runs. Native transport only.
	Uploads []Upload
}

type Runner struct {
	Exec   client.Executor
	Native RemoteRunner
	// InstallHelper defaults to client.InstallHelper.
	InstallHelper func(ctx context.Context, e client.Executor) error
	Out           io.Writer
	Log           logrus.FieldLogger
}

// Run performs one pass of the repair. It returns nil when the bundle
// succeeded or when manual instructions were printed instead; any returned
// error has already been reported to Out.
func (r *Runner) Run(ctx context.Context, opts Options) error {
	rep := newReporter(r.Out)
	log := r.logger().WithFields(logrus.Fields{
		"target":    opts.Target.String(),
		"transport": string(opts.Transport),
	})

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	rep.banner()
	script := opts.Bundle.Script()

	var (
		res client.Result
		err error
	)
	switch opts.Transport {
	case TransportNative:
		res, err = r.runNative(ctx, rep, opts, script)
	default:
		if !client.HelperAvailable(r.Exec) {
			log.Debug("helper not found on PATH")
			rep.helperMissing()
			if !opts.Install {
				rep.manual(opts.Target, opts.Password, script, nil)
				return nil
			}
			rep.installing()
			if installErr := r.install(ctx); installErr != nil {
				log.WithError(installErr).Warn("helper install failed, falling back to manual mode")
				rep.manual(opts.Target, opts.Password, script, installErr)
				return nil
			}
			rep.installed()
		}
		res, err = r.runSSHPass(ctx, rep, opts, script)
	}

	if err != nil {
		log.WithError(err).Debug("remote execution failed")
		rep.failure(err)
		return err
	}
	rep.success(res)
	return nil
}

func (r *Runner) runSSHPass(ctx context.Context, rep reporter, opts Options, script string) (client.Result, error) {
	if opts.Password == "" {
		return client.Result{}, ErrNoPassword
	}
	rep.connecting(opts.Target)
	return r.Exec.Run(ctx, client.SSHPassCommand(opts.Target, opts.Password, script))
}

func (r *Runner) runNative(ctx context.Context, rep reporter, opts Options, script string) (client.Result, error) {
	if r.Native == nil {
		return client.Result{}, fmt.Errorf("native transport is not configured")
	}
	rep.connecting(opts.Target)
	for _, u := range opts.Uploads {
		remote := u.Remote
		if !path.IsAbs(remote) {
			remote = path.Join(opts.Bundle.Dir, remote)
		}
		rep.uploading(u.Local, remote)
		if err := r.Native.Upload(ctx, opts.Target, opts.Password, u.Local, remote); err != nil {
			return client.Result{}, fmt.Errorf("upload %s: %w", u.Local, err)
		}
	}
	return r.Native.RunScript(ctx, opts.Target, opts.Password, script)
}

func (r *Runner) install(ctx context.Context) error {
	if r.InstallHelper != nil {
		return r.InstallHelper(ctx, r.Exec)
	}
	return client.InstallHelper(ctx, r.Exec)
}

func (r *Runner) logger() logrus.FieldLogger {
	if r.Log == nil {
		return logrus.StandardLogger()
	}
	return r.Log
}
