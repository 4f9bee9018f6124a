package agents

import (
	"context"
	"fmt"
	"math/big"

	"github.com/mantle-armada/bootstrap/internal/contracts"
)

// EnsureAccounts creates a game account for every agent that does not have
// one yet. An account counts as existing when any of its core attributes is
// set.
func (p *Provisioner) EnsureAccounts(ctx context.Context, roster Roster) []AccountResult {
	results := make([]AccountResult, 0, len(roster))

	for _, agent := range roster {
		result := AccountResult{Slot: agent.Slot, Alias: agent.Alias, Address: agent.Address()}

		switch {
		case agent.Account == nil:
			result.Outcome = AccountMissingKey
		default:
			result.Outcome, result.Err = p.ensureAccount(ctx, agent)
		}

		log := p.logger.
			With("slot", result.Slot).
			With("alias", result.Alias).
			With("outcome", result.Outcome)
		if result.Err != nil {
			log.With("err", result.Err.Error()).Warn("game account not created")
		} else {
			log.Info("game account checked")
		}

		results = append(results, result)
	}

	return results
}

func (p *Provisioner) ensureAccount(ctx context.Context, agent Agent) (AccountOutcome, error) {
	out, err := p.client.Call(ctx, contracts.ContractNameMantleArmada, contracts.MethodGetPlayer, agent.Account.Address)
	if err != nil {
		return AccountQueryFailed, err
	}

	exists, err := playerExists(out)
	if err != nil {
		return AccountQueryFailed, err
	}
	if exists {
		return AccountExists, nil
	}

	if _, err := p.client.Submit(ctx, agent.Account, contracts.ContractNameMantleArmada, contracts.MethodCreatePlayer,
		agent.Alias, agent.Faction, big.NewInt(agent.Location)); err != nil {
		return AccountCreateFailed, err
	}

	return AccountCreated, nil
}

// playerExists decodes getPlayer outputs (gold, level, location, faction, name).
func playerExists(out []any) (bool, error) {
	if len(out) != 5 {
		return false, fmt.Errorf("unexpected %s output length %d", contracts.MethodGetPlayer, len(out))
	}

	for i := range 3 {
		value, err := bigOutput(contracts.MethodGetPlayer, out, i)
		if err != nil {
			return false, err
		}
		if value.Sign() != 0 {
			return true, nil
		}
	}

	name, ok := out[4].(string)
	if !ok {
		return false, fmt.Errorf("unexpected %s name type %T", contracts.MethodGetPlayer, out[4])
	}

	return name != "", nil
}
