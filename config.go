package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"vpsfix/client"
	"vpsfix/fix"
	"vpsfix/secret"
)

const (
	defaultTarget = "ubuntu@51.178.44.114"
	defaultUser   = "ubuntu"
	envPrefix     = "vpsfix"
)

type config struct {
	Target        client.Target
	Bundle        fix.BundleOptions
	Transport     fix.Transport
	Install       bool
	StrictHostKey bool
	Uploads       []fix.Upload
	Timeout       time.Duration
	Verbose       bool
	PrintScript   bool
}

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("vpsfix", pflag.ContinueOnError)
	fs.StringP("host", "h", defaultTarget, "Target as user@host[:port]")
	fs.IntP("port", "p", client.DefaultPort, "SSH port")
	fs.StringP("dir", "d", fix.DefaultDir, "Application directory on the host")
	fs.StringP("app", "a", fix.DefaultApp, "pm2 process name to restart")
	fs.String("check-script", fix.DefaultCheckScript, "Database check script, relative to --dir")
	fs.StringP("transport", "T", string(fix.TransportSSHPass), "How to reach the host: sshpass or native")
	fs.Bool("no-install", false, "Do not try to install sshpass when it is missing")
	fs.BoolP("ask-password", "w", false, "Prompt for the SSH password")
	fs.String("secret-file", "", "Read the SSH password from a goenc-encrypted file")
	fs.Bool("strict-host-key", false, "Verify the host key against ~/.ssh/known_hosts (native transport)")
	fs.StringSlice("upload", nil, "Upload local=remote over SFTP before running (native transport)")
	fs.IntP("timeout", "t", 0, "Timeout in seconds for the whole run, 0 waits forever")
	fs.StringP("config", "c", "", "Config file (yaml, toml or json)")
	fs.BoolP("verbose", "v", false, "Log diagnostics to stderr")
	fs.Bool("print-script", false, "Print the remote command bundle and exit")
	return fs
}

// loadConfig layers flags over VPSFIX_* environment variables over the
// optional config file.
func loadConfig(flags *pflag.FlagSet, afs afero.Fs) (*viper.Viper, error) {
	v := viper.New()
	v.SetFs(afs)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(flags); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	return v, nil
}

func buildConfig(v *viper.Viper) (config, error) {
	// The login name stays empty unless given so ssh_config can supply it.
	target, err := client.ParseTarget(v.GetString("host"), "", v.GetInt("port"))
	if err != nil {
		return config{}, err
	}

	transport, err := fix.ParseTransport(v.GetString("transport"))
	if err != nil {
		return config{}, err
	}

	timeoutSeconds := v.GetInt("timeout")
	if timeoutSeconds < 0 {
		return config{}, fmt.Errorf("timeout must not be negative (got %d)", timeoutSeconds)
	}

	uploads, err := parseUploads(v.GetStringSlice("upload"))
	if err != nil {
		return config{}, err
	}
	if len(uploads) > 0 && transport != fix.TransportNative {
		return config{}, fmt.Errorf("--upload requires --transport %s", fix.TransportNative)
	}

	return config{
		Target: target,
		Bundle: fix.BundleOptions{
			Dir:         v.GetString("dir"),
			App:         v.GetString("app"),
			CheckScript: v.GetString("check-script"),
		},
		Transport:     transport,
		Install:       !v.GetBool("no-install"),
		StrictHostKey: v.GetBool("strict-host-key"),
		Uploads:       uploads,
		Timeout:       time.Duration(timeoutSeconds) * time.Second,
		Verbose:       v.GetBool("verbose"),
		PrintScript:   v.GetBool("print-script"),
	}, nil
}

// resolveTarget applies resolve (the native client's ssh_config lookup) when
// set, then falls back to the default login name. On a lookup error the
// unresolved target is returned together with the error.
func resolveTarget(t client.Target, resolve func(client.Target) (client.Target, error)) (client.Target, error) {
	var err error
	if resolve != nil {
		var resolved client.Target
		resolved, err = resolve(t)
		if err == nil {
			t = resolved
		}
	}
	if t.User == "" {
		t.User = defaultUser
	}
	return t, err
}

func parseUploads(specs []string) ([]fix.Upload, error) {
	var uploads []fix.Upload
	for _, s := range specs {
		parts := strings.SplitN(s, "=", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return nil, fmt.Errorf("invalid upload %q, want local=remote", s)
		}
		uploads = append(uploads, fix.Upload{Local: parts[0], Remote: parts[1]})
	}
	return uploads, nil
}

// resolvePassword looks for the SSH password in this order: interactive
// prompt, encrypted secret file, VPSFIX_PASSWORD or the config file.
func resolvePassword(v *viper.Viper, afs afero.Fs, prompt func(label string) (string, error)) (string, error) {
	if v.GetBool("ask-password") {
		return prompt("Password: ")
	}

	if path := v.GetString("secret-file"); path != "" {
		passphrase := v.GetString("secret-passphrase")
		if passphrase == "" {
			p, err := prompt("Secret passphrase: ")
			if err != nil {
				return "", err
			}
			passphrase = p
		}
		pw, err := secret.ReadFile(afs, path, passphrase)
		if err != nil {
			return "", fmt.Errorf("read secret file %s: %w", path, err)
		}
		return pw, nil
	}

	return v.GetString("password"), nil
}
