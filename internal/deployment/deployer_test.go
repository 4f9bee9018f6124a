package deployment

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mantle-armada/bootstrap/internal/chain"
	"github.com/mantle-armada/bootstrap/internal/chain/chaintest"
	"github.com/mantle-armada/bootstrap/internal/contracts"
	"github.com/mantle-armada/bootstrap/internal/registry"
)

func accounts(t *testing.T, n int) []*chain.Account {
	t.Helper()
	out := make([]*chain.Account, 0, n)
	for range n {
		account, err := chain.GenerateAccount()
		require.NoError(t, err)
		out = append(out, account)
	}
	return out
}

func TestSelectDeployer(t *testing.T) {
	candidates := accounts(t, 4)

	tests := []struct {
		name     string
		balances []int64
		want     int
	}{
		{"primary richest", []int64{100, 10, 20, 30}, 0},
		{"agent richest", []int64{100, 10, 300, 30}, 2},
		{"tie keeps earliest", []int64{50, 70, 70, 10}, 1},
		{"all zero keeps primary", []int64{0, 0, 0, 0}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := chaintest.NewLedger(nil)
			for i, balance := range tt.balances {
				ledger.SetNative(candidates[i].Address, balance)
			}

			deployer, balance, err := SelectDeployer(context.Background(), ledger, candidates)
			require.NoError(t, err)
			assert.Equal(t, candidates[tt.want], deployer)
			assert.Equal(t, tt.balances[tt.want], balance.Int64())
		})
	}
}

func TestSelectDeployer_Errors(t *testing.T) {
	_, _, err := SelectDeployer(context.Background(), chaintest.NewLedger(nil), nil)
	assert.ErrorIs(t, err, ErrNoCandidates)

	candidates := accounts(t, 2)
	ledger := chaintest.NewLedger(nil)
	ledger.Fail = func(call chaintest.Call) error {
		if call.From == candidates[1].Address {
			return errors.New("rpc unavailable")
		}
		return nil
	}

	_, _, err = SelectDeployer(context.Background(), ledger, candidates)
	assert.ErrorContains(t, err, "rpc unavailable")
}

func TestDeployPlan_Validate(t *testing.T) {
	available, err := DefaultDeployPlan().Validate(nil)
	require.NoError(t, err)
	assert.Len(t, available, len(contracts.Contracts))

	available, err = DefaultDeployPlan().Validate([]contracts.ContractName{"Guild"})
	require.NoError(t, err)
	assert.Contains(t, available, contracts.ContractName("Guild"))

	outOfOrder := DeployPlan{
		{Contract: contracts.ContractNameWagerArena, Args: []registry.Arg{registry.Ref(contracts.ContractNameAgentController)}},
		{Contract: contracts.ContractNameAgentController},
	}
	_, err = outOfOrder.Validate(nil)
	assert.ErrorContains(t, err, "WagerArena needs AgentController which is neither in the baseline nor deployed before it")

	_, err = outOfOrder.Validate([]contracts.ContractName{contracts.ContractNameAgentController})
	assert.NoError(t, err)

	duplicate := DeployPlan{{Contract: contracts.ContractNameSEASToken}, {Contract: contracts.ContractNameSEASToken}}
	_, err = duplicate.Validate(nil)
	assert.ErrorContains(t, err, "SEASToken is deployed twice")
}
