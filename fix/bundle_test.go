package fix

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// topLevel splits a rendered script into the commands chained with && \.
func topLevel(script string) []string {
	return strings.Split(strings.TrimSuffix(script, "\n"), " && \\\n")
}

func TestNewBundleSteps(t *testing.T) {
	b := NewBundle(BundleOptions{})

	require.Equal(t, DefaultDir, b.Dir)
	require.Len(t, b.Steps, 5)

	want := []struct {
		command string
		policy  Policy
	}{
		{"npx prisma migrate status", BestEffort},
		{"npx prisma migrate deploy", MustSucceed},
		{"npx prisma generate", MustSucceed},
		{"node scripts/check-database.js", BestEffort},
		{"pm2 restart canopee", BestEffort},
	}
	for i, w := range want {
		require.Equal(t, w.command, b.Steps[i].Command, "step %d", i+1)
		require.Equal(t, w.policy, b.Steps[i].Policy, "step %d", i+1)
	}
}

func TestScriptHasFiveStepsInOrder(t *testing.T) {
	b := NewBundle(BundleOptions{})
	parts := topLevel(b.Script())

	require.Len(t, parts, 8)
	require.Equal(t, "cd /var/www/canopee", parts[0])
	require.Equal(t, `echo ""`, parts[6])
	require.Equal(t, "echo '✅ Repair finished!'", parts[7])

	steps := parts[1:6]
	var groups int
	for i, p := range steps {
		require.True(t, strings.HasPrefix(p, "{ "), p)
		require.True(t, strings.HasSuffix(p, "; }"), p)
		require.Contains(t, p, b.Steps[i].Command)
		groups++
	}
	require.Equal(t, 5, groups)
}

func TestScriptStepPolicies(t *testing.T) {
	b := NewBundle(BundleOptions{})
	parts := topLevel(b.Script())

	require.Equal(t,
		`{ echo ""; echo '📋 Step 1: Checking migration status' && npx prisma migrate status || echo '⚠️  Continuing anyway...'; }`,
		parts[1])
	require.Equal(t,
		`{ echo ""; echo '📋 Step 2: Applying migrations' && npx prisma migrate deploy; }`,
		parts[2])
	require.Equal(t,
		`{ echo ""; echo '📋 Step 3: Generating Prisma client' && npx prisma generate; }`,
		parts[3])
	require.Contains(t, parts[4], "|| echo '⚠️  Database check failed'")
	require.Contains(t, parts[5], "|| echo '⚠️  PM2 not available'")
}

func TestScriptQuotesOptions(t *testing.T) {
	b := NewBundle(BundleOptions{
		Dir:         "/srv/my app",
		App:         "shop;reboot",
		CheckScript: "bin/check db.js",
	})
	script := b.Script()

	require.True(t, strings.HasPrefix(script, "cd '/srv/my app' && \\\n"))
	require.Contains(t, script, "pm2 restart 'shop;reboot'")
	require.Contains(t, script, "node 'bin/check db.js'")
}

func TestStepRenderDefaultWarning(t *testing.T) {
	s := Step{Title: "Warm cache", Command: "curl -fsS localhost", Policy: BestEffort}
	require.Equal(t,
		`{ echo ""; echo '📋 Step 7: Warm cache' && curl -fsS localhost || echo '⚠️  Warm cache failed'; }`,
		s.render(7))
}

func TestPolicyString(t *testing.T) {
	require.Equal(t, "best-effort", BestEffort.String())
	require.Equal(t, "must-succeed", MustSucceed.String())
	require.Equal(t, "Policy(9)", Policy(9).String())
}
