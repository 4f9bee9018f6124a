package agents

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/mantle-armada/bootstrap/configs"
	"github.com/mantle-armada/bootstrap/internal/chain"
)

// RosterSize is the number of automated identities managed by the tool.
const RosterSize = configs.RosterSize

type (
	// RoleType is the agent strategy registered with the controller.
	RoleType uint8

	// Agent is the provisioning plan for one roster slot. Account is nil when
	// no key material was supplied for the slot.
	Agent struct {
		Slot     int
		Alias    string
		Account  *chain.Account
		Role     RoleType
		Bankroll *big.Int
		Location int64
		Faction  bool
	}

	Roster []Agent
)

const (
	RoleScout RoleType = iota
	RoleTrader
	RoleRaider
	RoleGuardian
	RoleStrategist
)

var roleNames = map[RoleType]string{
	RoleScout:      "scout",
	RoleTrader:     "trader",
	RoleRaider:     "raider",
	RoleGuardian:   "guardian",
	RoleStrategist: "strategist",
}

// Valid reports whether r is one of the known roles.
func (r RoleType) Valid() bool {
	_, ok := roleNames[r]
	return ok
}

func (r RoleType) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return fmt.Sprintf("role(%d)", uint8(r))
}

// Address returns the zero address when the agent has no key.
func (a Agent) Address() common.Address {
	if a.Account == nil {
		return common.Address{}
	}
	return a.Account.Address
}

// Validate checks the roster shape: fixed size, unique aliases, known roles
// and a positive bankroll per slot.
func (r Roster) Validate() error {
	if len(r) != RosterSize {
		return fmt.Errorf("roster must have %d agents, got %d", RosterSize, len(r))
	}

	aliases := make(map[string]int, len(r))
	for i, agent := range r {
		if agent.Alias == "" {
			return fmt.Errorf("agent %d has no alias", agent.Slot)
		}
		if prev, dup := aliases[agent.Alias]; dup {
			return fmt.Errorf("agents %d and %d share alias '%s'", prev, agent.Slot, agent.Alias)
		}
		aliases[agent.Alias] = agent.Slot

		if !agent.Role.Valid() {
			return fmt.Errorf("agent %s has unknown %s", agent.Alias, agent.Role)
		}
		if agent.Bankroll == nil || agent.Bankroll.Sign() <= 0 {
			return fmt.Errorf("agent %s needs a positive bankroll", agent.Alias)
		}
		if agent.Slot != i+1 {
			return fmt.Errorf("agent %s is in slot %d, expected %d", agent.Alias, agent.Slot, i+1)
		}
	}

	return nil
}

// Accounts returns the accounts of agents that have key material.
func (r Roster) Accounts() []*chain.Account {
	accounts := make([]*chain.Account, 0, len(r))
	for _, agent := range r {
		if agent.Account != nil {
			accounts = append(accounts, agent.Account)
		}
	}
	return accounts
}
