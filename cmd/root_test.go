package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	t.Setenv("CONTAINER_PARAMETERS", "")
	t.Setenv("CONTAINER_LOG_LEVEL", "error")

	var out bytes.Buffer
	root := NewRootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append(args, "--env", "testdata/none.env"))
	require.NoError(t, root.Execute())
	return out.String()
}

func TestServices_ListsEverything(t *testing.T) {
	out := run(t, "services")

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.NotEmpty(t, lines)
	assert.Regexp(t, `^NAME\s+TARGET\s+LIFETIME\s+TAGS$`, lines[0])
	assert.Contains(t, out, "router")
	assert.Regexp(t, `mailer\s+Mailer\s+private`, out)
	assert.Regexp(t, `reports\.handler\s+ReportsHandler\s+shared\s+http\.handler`, out)
}

func TestServices_TagFilter(t *testing.T) {
	out := run(t, "services", "--tag", "reports")

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[1], "report.uptime"))
	assert.True(t, strings.HasPrefix(lines[2], "report.services"))
}

func TestServices_Resolve(t *testing.T) {
	out := run(t, "services", "--tag", "reports", "--resolve")

	assert.Contains(t, out, "TYPE")
	assert.Contains(t, out, "*app.UptimeReport")
	assert.Contains(t, out, "*app.ServicesReport")
}

func TestServices_MissingParametersFile(t *testing.T) {
	t.Setenv("CONTAINER_LOG_LEVEL", "error")
	var out bytes.Buffer
	root := NewRootCommand()
	root.SetOut(&out)
	root.SetArgs([]string{"services", "--params", "testdata/missing.yaml", "--env", "testdata/none.env"})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.yaml")
}

func TestVersion(t *testing.T) {
	SetVersion("1.2.3")
	t.Cleanup(func() { SetVersion("dev") })

	var out bytes.Buffer
	root := NewRootCommand()
	root.SetOut(&out)
	root.SetArgs([]string{"--version"})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "1.2.3")
}
