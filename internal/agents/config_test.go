package agents

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mantle-armada/bootstrap/configs"
)

const testKey = "0x59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d"

func TestRosterFromConfig(t *testing.T) {
	cfg, err := configs.DefaultConfig()
	require.NoError(t, err)
	cfg.Agents.Roster[0].PrivateKey = testKey

	roster, err := RosterFromConfig(cfg.Agents)
	require.NoError(t, err)
	require.Len(t, roster, RosterSize)

	assert.NotNil(t, roster[0].Account)
	assert.Nil(t, roster[1].Account)
	assert.Equal(t, 3, roster[2].Slot)
	assert.Equal(t, RoleRaider, roster[2].Role)
	assert.Equal(t, "200000000000000000000", roster[2].Bankroll.String())
	assert.Len(t, roster.Accounts(), 1)
}

func TestRosterFromConfig_BadKey(t *testing.T) {
	cfg, err := configs.DefaultConfig()
	require.NoError(t, err)
	cfg.Agents.Roster[3].PrivateKey = "0xnothex"

	_, err = RosterFromConfig(cfg.Agents)
	assert.ErrorContains(t, err, "agent 4 (Mary Read) key")
}

func TestConfigFromValues(t *testing.T) {
	got, err := ConfigFromValues(configs.Agents{
		MinGasWei:      "10",
		MinBankrollWei: "20",
		Funding:        configs.FundingMint,
	})
	require.NoError(t, err)

	assert.Equal(t, big.NewInt(10), got.MinGas)
	assert.Equal(t, big.NewInt(20), got.MinBankroll)
	assert.Equal(t, FundingMint, got.Funding)
}

func TestConfigValuesShareOneDefinition(t *testing.T) {
	assert.Equal(t, configs.RosterSize, RosterSize)

	var mode configs.FundingMode = FundingFaucet
	assert.Equal(t, configs.FundingFaucet, mode)

	_, err := NewProvisioner(nil, nil, Config{Funding: configs.FundingMint})
	assert.ErrorIs(t, err, ErrNoFunder)
}
