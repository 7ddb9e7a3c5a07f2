package fix

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"vpsfix/client"
)

type reporter struct {
	out io.Writer

	green  func(format string, a ...interface{}) string
	yellow func(format string, a ...interface{}) string
	red    func(format string, a ...interface{}) string
	blue   func(format string, a ...interface{}) string
}

func newReporter(out io.Writer) reporter {
	return reporter{
		out:    out,
		green:  color.New(color.FgGreen).SprintfFunc(),
		yellow: color.New(color.FgYellow).SprintfFunc(),
		red:    color.New(color.FgRed).SprintfFunc(),
		blue:   color.New(color.FgBlue).SprintfFunc(),
	}
}

func (r reporter) println(a ...interface{}) {
	fmt.Fprintln(r.out, a...)
}

func (r reporter) banner() {
	r.println(r.blue("🔧 Connecting to the VPS and running automatic repair..."))
	r.println(strings.Repeat("=", 60))
	r.println()
}

func (r reporter) helperMissing() {
	r.println(r.yellow("⚠️  %s is not installed", client.HelperName))
}

func (r reporter) installing() {
	r.println(fmt.Sprintf("   Installing %s...", client.HelperName))
}

func (r reporter) installed() {
	r.println(r.green("✅ %s installed", client.HelperName))
}

// manual prints everything an operator needs to do the repair by hand.
func (r reporter) manual(target client.Target, password, script string, installErr error) {
	if installErr != nil {
		r.println(r.red("❌ Could not install %s automatically: %v", client.HelperName, installErr))
	} else {
		r.println(r.red("❌ %s is unavailable and automatic install is disabled", client.HelperName))
	}
	r.println()
	r.println("📝 Alternative: run these commands manually:")
	r.println()
	r.println(client.ManualSSHCommand(target))
	r.println("# Password: " + maskSecret(password))
	r.println()
	r.println("Then run:")
	r.println(script)
}

func (r reporter) connecting(target client.Target) {
	r.println(r.blue("🔌 Connecting to %s...", target))
	r.println()
}

func (r reporter) uploading(local, remote string) {
	r.println(fmt.Sprintf("📤 Uploading %s to %s", local, remote))
}

// success prints the remote stdout and, when present, stderr. Best-effort
// steps may write to stderr even when the session succeeds.
func (r reporter) success(res client.Result) {
	r.println(res.Stdout)
	if res.Stderr != "" {
		r.println(r.yellow("Errors:"), res.Stderr)
	}
}

func (r reporter) failure(err error) {
	r.println(r.red("❌ Error during execution: %v", err))
	var ee *client.ExitError
	if errors.As(err, &ee) {
		r.println("Stdout: " + ee.Result.Stdout)
		r.println("Stderr: " + ee.Result.Stderr)
	}
}

func maskSecret(secret string) string {
	if secret == "" {
		return "(not configured)"
	}
	return strings.Repeat("*", 8)
}
