package agents

import (
	"fmt"

	"github.com/mantle-armada/bootstrap/configs"
	"github.com/mantle-armada/bootstrap/internal/chain"
)

// RosterFromConfig builds the roster. A slot without key material gets a nil
// Account; a malformed key is an error.
func RosterFromConfig(cfg configs.Agents) (Roster, error) {
	roster := make(Roster, 0, len(cfg.Roster))

	for i, entry := range cfg.Roster {
		bankroll, err := configs.ParseWei(entry.BankrollWei)
		if err != nil {
			return nil, fmt.Errorf("agent %d bankroll: %w", i+1, err)
		}

		agent := Agent{
			Slot:     i + 1,
			Alias:    entry.Alias,
			Role:     RoleType(entry.Role),
			Bankroll: bankroll,
			Location: entry.Location,
			Faction:  entry.Faction,
		}

		if entry.PrivateKey != "" {
			account, err := chain.NewAccount(entry.PrivateKey)
			if err != nil {
				return nil, fmt.Errorf("agent %d (%s) key: %w", i+1, entry.Alias, err)
			}
			agent.Account = account
		}

		roster = append(roster, agent)
	}

	if err := roster.Validate(); err != nil {
		return nil, err
	}

	return roster, nil
}

// ConfigFromValues parses the provisioning thresholds. The funder is set by
// the caller once the deployer is known.
func ConfigFromValues(cfg configs.Agents) (Config, error) {
	minGas, err := configs.ParseWei(cfg.MinGasWei)
	if err != nil {
		return Config{}, fmt.Errorf("min gas: %w", err)
	}

	minBankroll, err := configs.ParseWei(cfg.MinBankrollWei)
	if err != nil {
		return Config{}, fmt.Errorf("min bankroll: %w", err)
	}

	return Config{
		MinGas:      minGas,
		MinBankroll: minBankroll,
		Funding:     cfg.Funding,
	}, nil
}
