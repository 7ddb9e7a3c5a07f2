package fix

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"vpsfix/client"
)

// Stand-ins for the tools the bundle calls. Each exits with the status held
// in its environment variable, 0 by default.
var stubTools = map[string]string{
	"npx": `#!/bin/sh
case "$*" in
  "prisma migrate status") exit ${NPX_STATUS:-0} ;;
  "prisma migrate deploy") exit ${NPX_DEPLOY:-0} ;;
  "prisma generate") exit ${NPX_GENERATE:-0} ;;
esac
exit 127
`,
	"node": "#!/bin/sh\nexit ${NODE_STATUS:-0}\n",
	"pm2":  "#!/bin/sh\nexit ${PM2_STATUS:-0}\n",
}

func installStubTools(t *testing.T) string {
	t.Helper()
	bin := t.TempDir()
	for name, body := range stubTools {
		require.NoError(t, os.WriteFile(filepath.Join(bin, name), []byte(body), 0o755))
	}
	return bin
}

func TestScriptStepFailurePolicy(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}

	bin := installStubTools(t)
	script := NewBundle(BundleOptions{Dir: t.TempDir()}).Script()

	tests := []struct {
		name      string
		env       string
		wantCode  int
		lastStep  int
		completes bool
	}{
		{name: "all pass", wantCode: 0, lastStep: 5, completes: true},
		{name: "status fails", env: "NPX_STATUS=3", wantCode: 0, lastStep: 5, completes: true},
		{name: "deploy fails", env: "NPX_DEPLOY=1", wantCode: 1, lastStep: 2},
		{name: "generate fails", env: "NPX_GENERATE=2", wantCode: 2, lastStep: 3},
		{name: "database check fails", env: "NODE_STATUS=4", wantCode: 0, lastStep: 5, completes: true},
		{name: "pm2 fails", env: "PM2_STATUS=5", wantCode: 0, lastStep: 5, completes: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := []string{"PATH=" + bin + string(os.PathListSeparator) + os.Getenv("PATH")}
			if tt.env != "" {
				env = append(env, tt.env)
			}

			res, err := client.ProcessExecutor{}.Run(context.Background(), client.Command{
				Name: "sh",
				Args: []string{"-c", script},
				Env:  env,
			})
			require.Equal(t, tt.wantCode, res.ExitCode, res.Stdout+res.Stderr)
			if tt.wantCode == 0 {
				require.NoError(t, err)
			} else {
				var ee *client.ExitError
				require.True(t, errors.As(err, &ee))
				require.Equal(t, tt.wantCode, ee.Code)
			}

			require.Equal(t, tt.lastStep, strings.Count(res.Stdout, "📋 Step "), res.Stdout)
			require.Contains(t, res.Stdout, "📋 Step "+string(rune('0'+tt.lastStep))+":")
			if tt.completes {
				require.Contains(t, res.Stdout, "✅ Repair finished!")
			} else {
				require.NotContains(t, res.Stdout, "✅ Repair finished!")
			}
		})
	}
}

func TestScriptBestEffortWarnings(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}

	bin := installStubTools(t)
	script := NewBundle(BundleOptions{Dir: t.TempDir()}).Script()

	res, err := client.ProcessExecutor{}.Run(context.Background(), client.Command{
		Name: "sh",
		Args: []string{"-c", script},
		Env: []string{
			"PATH=" + bin + string(os.PathListSeparator) + os.Getenv("PATH"),
			"NPX_STATUS=1", "NODE_STATUS=1", "PM2_STATUS=1",
		},
	})
	require.NoError(t, err)
	require.Contains(t, res.Stdout, "⚠️  Continuing anyway...")
	require.Contains(t, res.Stdout, "⚠️  Database check failed")
	require.Contains(t, res.Stdout, "⚠️  PM2 not available")
	require.Contains(t, res.Stdout, "✅ Repair finished!")
}
