package deployment

import (
	"github.com/spf13/viper"

	"github.com/mantle-armada/bootstrap/internal/cliflags"
)

var (
	stringFlags = []cliflags.Def[string]{
		// Network and keys
		{Name: "rpc-url", ViperKey: "network.rpc-url", Env: "RPC_URL", Description: "RPC URL of the target chain"},
		{Name: "tx-timeout", ViperKey: "network.tx-timeout", Env: "TX_TIMEOUT", Description: "How long to wait for a transaction to be mined (e.g. 2m)"},
		{Name: "private-key", ViperKey: "private-key", Env: "PRIVATE_KEY", Description: "Primary deployer private key"},

		// Contracts
		{Name: "artifacts", ViperKey: "contracts.artifacts", Env: "ARTIFACTS_FILE", Description: "Compiled contracts JSON file"},

		// Agents
		{Name: "min-gas-wei", ViperKey: "agents.min-gas-wei", Env: "MIN_GAS_WEI", Description: "Minimum native balance an agent needs to be provisioned"},
		{Name: "min-bankroll-wei", ViperKey: "agents.min-bankroll-wei", Env: "MIN_BANKROLL_WEI", Description: "Minimum token balance an agent registers with"},
		{Name: "funding", ViperKey: "agents.funding", Env: "FUNDING_MODE", Description: "Token funding path for agents (faucet or mint)"},

		// Output
		{Name: "addresses-file", ViperKey: "output.addresses-file", Env: "ADDRESSES_FILE", Description: "Address registry JSON file, overwritten on success"},
		{Name: "env-file", ViperKey: "output.env-file", Env: "ENV_FILE", Description: "Env file patched with contract addresses"},
		{Name: "summary-file", ViperKey: "output.summary-file", Env: "SUMMARY_FILE", Description: "Run summary YAML file"},
	}

	boolFlags = []cliflags.Def[bool]{
		{Name: "wait-for-rpc", ViperKey: "network.wait-for-rpc", Env: "WAIT_FOR_RPC", Description: "Wait for the RPC endpoint before starting"},
		{Name: "skip-deploy", ViperKey: "phases.skip-deploy", Env: "SKIP_DEPLOY", Description: "Only attach to baseline contracts"},
		{Name: "skip-wiring", ViperKey: "phases.skip-wiring", Env: "SKIP_WIRING", Description: "Skip cross-contract wiring"},
		{Name: "skip-upgrades", ViperKey: "phases.skip-upgrades", Env: "SKIP_UPGRADES", Description: "Skip upgrade catalog seeding"},
		{Name: "skip-accounts", ViperKey: "phases.skip-accounts", Env: "SKIP_ACCOUNTS", Description: "Skip game account creation"},
		{Name: "skip-agents", ViperKey: "phases.skip-agents", Env: "SKIP_AGENTS", Description: "Skip agent provisioning"},
		{Name: "append-missing-env-keys", ViperKey: "output.append-missing-env-keys", Env: "APPEND_MISSING_ENV_KEYS", Description: "Append env keys absent from the env file"},
	}
)

func init() {
	v := viper.GetViper()
	if err := cliflags.Declare(CMD, v, stringFlags); err != nil {
		panic(err)
	}
	if err := cliflags.Declare(CMD, v, boolFlags); err != nil {
		panic(err)
	}
}
