package cliflags

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeclare_FlagOverridesDefault(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	v := viper.New()

	require.NoError(t, Declare(cmd, v, []Def[string]{
		{Name: "rpc-url", ViperKey: "network.rpc-url", DefaultValue: "http://localhost:8545", Description: "RPC URL"},
	}))
	require.NoError(t, Declare(cmd, v, []Def[bool]{
		{Name: "skip-wiring", ViperKey: "phases.skip-wiring", Description: "Skip wiring"},
	}))

	require.NoError(t, cmd.Flags().Parse([]string{"--skip-wiring"}))

	assert.Equal(t, "http://localhost:8545", v.GetString("network.rpc-url"))
	assert.True(t, v.GetBool("phases.skip-wiring"))
}

func TestDeclare_EnvBinding(t *testing.T) {
	t.Setenv("MIN_GAS_WEI", "123")
	t.Setenv("SKIP_AGENTS", "1")

	cmd := &cobra.Command{Use: "test"}
	v := viper.New()

	require.NoError(t, Declare(cmd, v, []Def[string]{
		{Name: "min-gas-wei", ViperKey: "agents.min-gas-wei", Env: "MIN_GAS_WEI", DefaultValue: "0"},
	}))
	require.NoError(t, Declare(cmd, v, []Def[bool]{
		{Name: "skip-agents", ViperKey: "phases.skip-agents", Env: "SKIP_AGENTS"},
	}))

	assert.Equal(t, "123", v.GetString("agents.min-gas-wei"))
	assert.True(t, v.GetBool("phases.skip-agents"))
}
