package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateOutputFormat(t *testing.T) {
	assert.NoError(t, validateOutputFormat(""))
	assert.NoError(t, validateOutputFormat("table"))
	assert.NoError(t, validateOutputFormat("json"))
	assert.Error(t, validateOutputFormat("yaml"))
	assert.Error(t, validateOutputFormat("csv"))
}

func TestPrintTable(t *testing.T) {
	var buf bytes.Buffer
	printTable(&buf, []string{"NAME", "STATUS"}, [][]string{
		{"adf-prod", "ready"},
		{"adf-dev", "in progress"},
	})

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "NAME")
	assert.Contains(t, lines[0], "STATUS")
	assert.Contains(t, lines[1], "adf-prod")
	assert.Contains(t, lines[2], "in progress")
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printJSON(&buf, map[string]int{"count": 3}))
	assert.JSONEq(t, `{"count":3}`, buf.String())
	// Indented output for human consumption.
	assert.Contains(t, buf.String(), "\n")
}

func TestUserConfigActiveProfile(t *testing.T) {
	cfg := &UserConfig{
		CurrentProfile: "dev",
		Profiles: map[string]Profile{
			"dev":  {SessionDB: "dev.sqlite", Output: "table"},
			"prod": {SessionDB: "prod.sqlite", FabricURL: "https://api.fabric.microsoft.com/v1"},
		},
	}

	assert.Equal(t, "dev.sqlite", cfg.ActiveProfile("").SessionDB)
	assert.Equal(t, "prod.sqlite", cfg.ActiveProfile("prod").SessionDB)
	assert.Equal(t, Profile{}, cfg.ActiveProfile("missing"))
}

func TestUserConfigRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg := &UserConfig{
		CurrentProfile: "prod",
		Profiles: map[string]Profile{
			"prod": {
				SessionDB:   "/var/lib/fabric-bridge/sessions.sqlite",
				FabricURL:   "https://api.fabric.microsoft.com/v1",
				FabricToken: "tok",
				Output:      "json",
			},
		},
	}
	require.NoError(t, SaveUserConfig(cfg))

	loaded, err := LoadUserConfig()
	require.NoError(t, err)
	assert.Equal(t, cfg.CurrentProfile, loaded.CurrentProfile)
	assert.Equal(t, cfg.Profiles["prod"], loaded.Profiles["prod"])
}

func TestLoadUserConfigMissingFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	_, err := LoadUserConfig()
	require.Error(t, err)
}

func TestRootCommandHasSubcommands(t *testing.T) {
	root := newRootCmd()
	want := []string{"version", "auth", "scan", "plan", "status", "export", "completion"}
	for _, name := range want {
		found := false
		for _, cmd := range root.Commands() {
			if cmd.Name() == name {
				found = true
				break
			}
		}
		assert.True(t, found, "missing subcommand %q", name)
	}
}

func TestVersionCommand(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("FABRIC_BRIDGE_OUTPUT", "")

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "fabric-bridge")
}
