package client

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kevinburke/ssh_config"
	"github.com/spf13/afero"
)

// HostConfig holds the ssh_config settings that matter for a single host.
type HostConfig struct {
	HostName     string
	User         string
	Port         int
	IdentityFile string
}

// LookupHostConfig reads the ssh_config at path and returns the settings that
// apply to alias. A missing file is not an error.
func LookupHostConfig(fs afero.Fs, path, alias, home string) (HostConfig, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return HostConfig{}, nil
		}
		return HostConfig{}, err
	}

	cfg, err := ssh_config.Decode(bytes.NewReader(data))
	if err != nil {
		return HostConfig{}, err
	}

	var hc HostConfig
	if v, _ := cfg.Get(alias, "HostName"); v != "" {
		hc.HostName = v
	}
	if v, _ := cfg.Get(alias, "User"); v != "" {
		hc.User = v
	}
	if v, _ := cfg.Get(alias, "Port"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			hc.Port = p
		}
	}
	if v, _ := cfg.Get(alias, "IdentityFile"); v != "" {
		hc.IdentityFile = expandPath(v, home)
	}
	return hc, nil
}

// Apply fills fields of t that were left at their defaults.
func (hc HostConfig) Apply(t Target) Target {
	if hc.HostName != "" {
		t.Host = hc.HostName
	}
	if t.User == "" && hc.User != "" {
		t.User = hc.User
	}
	if (t.Port == 0 || t.Port == DefaultPort) && hc.Port != 0 {
		t.Port = hc.Port
	}
	return t
}

func expandPath(path, home string) string {
	if strings.HasPrefix(path, "~") {
		trimmed := strings.TrimPrefix(path, "~")
		return filepath.Join(home, strings.TrimPrefix(trimmed, string(filepath.Separator)))
	}
	return path
}
