package configs

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

var Values Config

type (
	FundingMode string

	Config struct {
		Network    Network   `mapstructure:"network"`
		PrivateKey string    `mapstructure:"private-key"`
		Contracts  Contracts `mapstructure:"contracts"`
		Agents     Agents    `mapstructure:"agents"`
		Upgrades   []Upgrade `mapstructure:"upgrades"`
		Phases     Phases    `mapstructure:"phases"`
		Output     Output    `mapstructure:"output"`
	}

	Network struct {
		RPCURL     string        `mapstructure:"rpc-url"`
		WaitForRPC bool          `mapstructure:"wait-for-rpc"`
		TxTimeout  time.Duration `mapstructure:"tx-timeout"`
	}

	Contracts struct {
		// Baseline lists previously deployed contracts that are attached, never redeployed.
		Baseline  []BaselineContract `mapstructure:"baseline"`
		Artifacts string             `mapstructure:"artifacts"`
	}

	BaselineContract struct {
		Name    string `mapstructure:"name"`
		Address string `mapstructure:"address"`
	}

	Agents struct {
		Roster         []Agent     `mapstructure:"roster"`
		MinGasWei      string      `mapstructure:"min-gas-wei"`
		MinBankrollWei string      `mapstructure:"min-bankroll-wei"`
		Funding        FundingMode `mapstructure:"funding"`
	}

	Agent struct {
		Alias       string `mapstructure:"alias"`
		PrivateKey  string `mapstructure:"private-key"`
		Role        uint8  `mapstructure:"role"`
		BankrollWei string `mapstructure:"bankroll-wei"`
		Location    int64  `mapstructure:"location"`
		Faction     bool   `mapstructure:"faction"`
	}

	Upgrade struct {
		ID      uint64 `mapstructure:"id"`
		Name    string `mapstructure:"name"`
		CostWei string `mapstructure:"cost-wei"`
		Power   uint64 `mapstructure:"power"`
	}

	Phases struct {
		SkipDeploy   bool `mapstructure:"skip-deploy"`
		SkipWiring   bool `mapstructure:"skip-wiring"`
		SkipUpgrades bool `mapstructure:"skip-upgrades"`
		SkipAccounts bool `mapstructure:"skip-accounts"`
		SkipAgents   bool `mapstructure:"skip-agents"`
	}

	Output struct {
		AddressesFile        string   `mapstructure:"addresses-file"`
		EnvFile              string   `mapstructure:"env-file"`
		EnvKeys              []EnvKey `mapstructure:"env-keys"`
		AppendMissingEnvKeys bool     `mapstructure:"append-missing-env-keys"`
		SummaryFile          string   `mapstructure:"summary-file"`
	}

	// EnvKey maps an env file key to the contract whose address it receives.
	EnvKey struct {
		Key      string `mapstructure:"key"`
		Contract string `mapstructure:"contract"`
	}
)

const (
	FundingFaucet FundingMode = "faucet"
	FundingMint   FundingMode = "mint"

	// RosterSize is the fixed number of agent slots.
	RosterSize = 5
)

// AgentKeyEnv is the environment variable holding the key of agent slot n (1-based).
func AgentKeyEnv(slot int) string {
	return fmt.Sprintf("AGENT_%d_PRIVATE_KEY", slot)
}

// ApplyAgentKeyEnv fills empty roster keys from AGENT_<n>_PRIVATE_KEY.
func (c *Agents) ApplyAgentKeyEnv(lookup func(string) (string, bool)) {
	for i := range c.Roster {
		if c.Roster[i].PrivateKey != "" {
			continue
		}
		if value, ok := lookup(AgentKeyEnv(i + 1)); ok {
			c.Roster[i].PrivateKey = strings.TrimSpace(value)
		}
	}
}

// ParseWei parses a non-negative decimal wei amount. Underscores are allowed
// as digit separators.
func ParseWei(s string) (*big.Int, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(s), "_", "")
	value, ok := new(big.Int).SetString(cleaned, 10)
	if !ok {
		return nil, fmt.Errorf("invalid wei amount '%s'", s)
	}
	if value.Sign() < 0 {
		return nil, fmt.Errorf("negative wei amount '%s'", s)
	}
	return value, nil
}

// Validate checks the configuration and reports every problem found.
func (c *Config) Validate() error {
	var errs []error

	if c.Network.RPCURL == "" {
		errs = append(errs, errors.New("network.rpc-url is required"))
	}
	if c.Network.TxTimeout < 0 {
		errs = append(errs, fmt.Errorf("network.tx-timeout must not be negative, got %s", c.Network.TxTimeout))
	}
	if c.PrivateKey == "" {
		errs = append(errs, errors.New("private-key is required"))
	}

	errs = append(errs, c.Contracts.validate()...)
	errs = append(errs, c.Agents.validate()...)

	for i, upgrade := range c.Upgrades {
		if upgrade.Name == "" {
			errs = append(errs, fmt.Errorf("upgrades[%d].name is required", i))
		}
		if _, err := ParseWei(upgrade.CostWei); err != nil {
			errs = append(errs, fmt.Errorf("upgrades[%d].cost-wei: %w", i, err))
		}
	}

	if c.Output.AddressesFile == "" {
		errs = append(errs, errors.New("output.addresses-file is required"))
	}
	if c.Output.EnvFile == "" {
		errs = append(errs, errors.New("output.env-file is required"))
	}
	for i, key := range c.Output.EnvKeys {
		if key.Key == "" || key.Contract == "" {
			errs = append(errs, fmt.Errorf("output.env-keys[%d] needs both key and contract", i))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %w", errors.Join(errs...))
	}

	return nil
}

func (c *Contracts) validate() []error {
	var errs []error

	seen := make(map[string]struct{}, len(c.Baseline))
	for i, entry := range c.Baseline {
		if entry.Name == "" {
			errs = append(errs, fmt.Errorf("contracts.baseline[%d].name is required", i))
			continue
		}
		if _, dup := seen[entry.Name]; dup {
			errs = append(errs, fmt.Errorf("contracts.baseline lists %s twice", entry.Name))
		}
		seen[entry.Name] = struct{}{}

		if !strings.HasPrefix(entry.Address, "0x") || !common.IsHexAddress(entry.Address) {
			errs = append(errs, fmt.Errorf("contracts.baseline[%d].address '%s' is not a 0x-prefixed address", i, entry.Address))
		}
	}

	return errs
}

func (c *Agents) validate() []error {
	var errs []error

	if len(c.Roster) != RosterSize {
		errs = append(errs, fmt.Errorf("agents.roster must have %d entries, got %d", RosterSize, len(c.Roster)))
	}
	for i, agent := range c.Roster {
		if agent.Alias == "" {
			errs = append(errs, fmt.Errorf("agents.roster[%d].alias is required", i))
		}
		if agent.Role > 4 {
			errs = append(errs, fmt.Errorf("agents.roster[%d].role must be between 0 and 4", i))
		}
		if _, err := ParseWei(agent.BankrollWei); err != nil {
			errs = append(errs, fmt.Errorf("agents.roster[%d].bankroll-wei: %w", i, err))
		}
	}

	if _, err := ParseWei(c.MinGasWei); err != nil {
		errs = append(errs, fmt.Errorf("agents.min-gas-wei: %w", err))
	}
	if _, err := ParseWei(c.MinBankrollWei); err != nil {
		errs = append(errs, fmt.Errorf("agents.min-bankroll-wei: %w", err))
	}

	if c.Funding != FundingFaucet && c.Funding != FundingMint {
		errs = append(errs, errors.New("agents.funding must be either 'faucet' or 'mint'"))
	}

	return errs
}
