// Package fix runs the repair sequence on the application host and reports
// what happened.
package fix

import (
	"fmt"
	"strings"

	"github.com/alessio/shellescape"
)

const (
	DefaultDir         = "/var/www/canopee"
	DefaultApp         = "canopee"
	DefaultCheckScript = "scripts/check-database.js"
)

type Policy int

const (
	// BestEffort steps print a warning on failure and let the chain go on.
	BestEffort Policy = iota
	// MustSucceed steps abort the chain and fail the whole session.
	MustSucceed
)

func (p Policy) String() string {
	switch p {
	case BestEffort:
		return "best-effort"
	case MustSucceed:
		return "must-succeed"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

type Step struct {
	Title   string
	Command string
	Policy  Policy
	Warning string
}

// Bundle is the ordered chain of steps run inside Dir as one remote session.
type Bundle struct {
	Dir   string
	Steps []Step
	Done  string
}

type BundleOptions struct {
	Dir         string
	App         string
	CheckScript string
}

// NewBundle returns the five-step repair chain: migration status, migration
// deploy, client generation, database check, process restart.
func NewBundle(opts BundleOptions) Bundle {
	if opts.Dir == "" {
		opts.Dir = DefaultDir
	}
	if opts.App == "" {
		opts.App = DefaultApp
	}
	if opts.CheckScript == "" {
		opts.CheckScript = DefaultCheckScript
	}

	return Bundle{
		Dir: opts.Dir,
		Steps: []Step{
			{
				Title:   "Checking migration status",
				Command: "npx prisma migrate status",
				Policy:  BestEffort,
				Warning: "⚠️  Continuing anyway...",
			},
			{
				Title:   "Applying migrations",
				Command: "npx prisma migrate deploy",
				Policy:  MustSucceed,
			},
			{
				Title:   "Generating Prisma client",
				Command: "npx prisma generate",
				Policy:  MustSucceed,
			},
			{
				Title:   "Checking database",
				Command: "node " + shellescape.Quote(opts.CheckScript),
				Policy:  BestEffort,
				Warning: "⚠️  Database check failed",
			},
			{
				Title:   "Restarting application",
				Command: "pm2 restart " + shellescape.Quote(opts.App),
				Policy:  BestEffort,
				Warning: "⚠️  PM2 not available",
			},
		},
		Done: "✅ Repair finished!",
	}
}

// render turns step n (1-based) into a brace group. Best-effort groups always
// exit 0; must-succeed groups exit with the command's status.
func (s Step) render(n int) string {
	header := shellescape.Quote(fmt.Sprintf("📋 Step %d: %s", n, s.Title))
	body := fmt.Sprintf(`echo ""; echo %s && %s`, header, s.Command)
	if s.Policy == BestEffort {
		warning := s.Warning
		if warning == "" {
			warning = "⚠️  " + s.Title + " failed"
		}
		body += " || echo " + shellescape.Quote(warning)
	}
	return "{ " + body + "; }"
}

// Script renders the bundle as one multi-line shell command.
func (b Bundle) Script() string {
	lines := make([]string, 0, len(b.Steps)+3)
	lines = append(lines, "cd "+shellescape.Quote(b.Dir))
	for i, s := range b.Steps {
		lines = append(lines, s.render(i+1))
	}
	lines = append(lines, `echo ""`)
	lines = append(lines, "echo "+shellescape.Quote(b.Done))
	return strings.Join(lines, " && \\\n") + "\n"
}
