package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/sentibot/config"
)

func TestNewRootCmdSubcommands(t *testing.T) {
	cmd := NewRootCmd()

	names := map[string]bool{}
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"run", "optimize", "serve", "journal", "version"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}

	assert.NotNil(t, cmd.PersistentFlags().Lookup("config"))
	assert.NotNil(t, cmd.PersistentFlags().Lookup("db"))
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("SEC_USER_AGENT", "sentibot-test you@example.com")
	t.Setenv("DATA_DIR", "/tmp/sentibot-data")
	t.Setenv("PORT", "9001")

	cfg := config.Default()
	applyEnv(cfg)

	assert.Equal(t, "sentibot-test you@example.com", cfg.SEC.UserAgent)
	assert.Equal(t, "/tmp/sentibot-data", cfg.Data.Dir)
	assert.Equal(t, ":9001", cfg.Server.Addr)
}

func TestPersistentPreRunLoadsConfig(t *testing.T) {
	cmd := NewRootCmd()
	cmd.SetArgs([]string{"version"})
	require.NoError(t, cmd.Execute())
}
