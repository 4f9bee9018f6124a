package agents

import (
	"context"
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mantle-armada/bootstrap/internal/chain"
	"github.com/mantle-armada/bootstrap/internal/chain/chaintest"
	"github.com/mantle-armada/bootstrap/internal/contracts"
	"github.com/mantle-armada/bootstrap/internal/registry"
)

const (
	minGas   = 1_000
	bankroll = 500
)

type fixture struct {
	registry *registry.Registry
	ledger   *chaintest.Ledger
	roster   Roster
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	reg, err := registry.Load(map[contracts.ContractName]common.Address{
		contracts.ContractNameSEASToken:       common.HexToAddress("0x01"),
		contracts.ContractNameMantleArmada:    common.HexToAddress("0x02"),
		contracts.ContractNameAgentController: common.HexToAddress("0x03"),
		contracts.ContractNameWagerArena:      common.HexToAddress("0x04"),
	})
	require.NoError(t, err)

	ledger := chaintest.NewLedger(reg)
	roster := make(Roster, 0, RosterSize)
	for i := range RosterSize {
		account, err := chain.GenerateAccount()
		require.NoError(t, err)

		ledger.SetNative(account.Address, 10*minGas)
		ledger.SetTokens(account.Address, 2*bankroll)

		roster = append(roster, Agent{
			Slot:     i + 1,
			Alias:    fmt.Sprintf("agent-%d", i+1),
			Account:  account,
			Role:     RoleType(i),
			Bankroll: big.NewInt(bankroll),
			Location: int64(i),
			Faction:  i%2 == 0,
		})
	}

	return &fixture{registry: reg, ledger: ledger, roster: roster}
}

func (f *fixture) provisioner(t *testing.T, cfg Config) *Provisioner {
	t.Helper()

	if cfg.MinGas == nil {
		cfg.MinGas = big.NewInt(minGas)
	}
	if cfg.MinBankroll == nil {
		cfg.MinBankroll = big.NewInt(bankroll)
	}

	p, err := NewProvisioner(f.ledger, f.registry, cfg)
	require.NoError(t, err)
	return p
}

func outcomes(report Report) []Outcome {
	out := make([]Outcome, 0, len(report.Results))
	for _, result := range report.Results {
		out = append(out, result.Outcome)
	}
	return out
}

func TestProvision_ThreeAlreadyRegistered(t *testing.T) {
	f := newFixture(t)
	for _, agent := range f.roster[:3] {
		f.ledger.SetRegistered(agent.Address())
	}

	report, err := f.provisioner(t, Config{}).Provision(context.Background(), f.roster)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Skipped())
	assert.Equal(t, 2, report.Registered())
	assert.Equal(t, 2, f.ledger.Count(contracts.MethodApprove))
	assert.Equal(t, 2, f.ledger.Count(contracts.MethodRegisterAgent))
	assert.Len(t, f.ledger.Mutations(), 4)

	mutations := f.ledger.Mutations()
	for i := 0; i < len(mutations); i += 2 {
		assert.Equal(t, contracts.MethodApprove, mutations[i].Method)
		assert.Equal(t, contracts.MethodRegisterAgent, mutations[i+1].Method)
		assert.Equal(t, mutations[i].From, mutations[i+1].From)
	}
}

func TestProvision_InsufficientGas(t *testing.T) {
	f := newFixture(t)
	poor := f.roster[1]
	f.ledger.SetNative(poor.Address(), minGas-1)

	report, err := f.provisioner(t, Config{}).Provision(context.Background(), f.roster)
	require.NoError(t, err)

	assert.Equal(t, OutcomeInsufficientGas, report.Results[1].Outcome)
	assert.Error(t, report.Results[1].Err)
	for _, call := range f.ledger.Mutations() {
		assert.NotEqual(t, poor.Address(), call.From, "unexpected %s from starved identity", call.Method)
	}

	for i, result := range report.Results {
		if i == 1 {
			continue
		}
		assert.Equal(t, OutcomeRegistered, result.Outcome, "slot %d", result.Slot)
	}
}

func TestProvision_IdempotentRerun(t *testing.T) {
	f := newFixture(t)
	p := f.provisioner(t, Config{})

	first, err := p.Provision(context.Background(), f.roster)
	require.NoError(t, err)
	assert.Equal(t, RosterSize, first.Registered())
	mutationsAfterFirst := len(f.ledger.Mutations())

	second, err := p.Provision(context.Background(), f.roster)
	require.NoError(t, err)

	assert.Equal(t, RosterSize, second.Skipped())
	assert.Len(t, f.ledger.Mutations(), mutationsAfterFirst)
	for _, agent := range f.roster {
		assert.True(t, f.ledger.Registered(agent.Address()))
	}
}

func TestProvision_FailureIsolation(t *testing.T) {
	f := newFixture(t)
	failing := f.roster[0].Address()
	f.ledger.Fail = func(call chaintest.Call) error {
		if call.From == failing && call.Method == contracts.MethodApprove {
			return fmt.Errorf("%w: execution reverted", chain.ErrCallReverted)
		}
		return nil
	}

	report, err := f.provisioner(t, Config{}).Provision(context.Background(), f.roster)
	require.NoError(t, err)

	assert.Equal(t, []Outcome{
		OutcomeApproveFailed,
		OutcomeRegistered,
		OutcomeRegistered,
		OutcomeRegistered,
		OutcomeRegistered,
	}, outcomes(report))
	assert.ErrorIs(t, report.Results[0].Err, chain.ErrCallReverted)
	assert.Equal(t, 1, report.Failed())
}

func TestProvision_FaucetFunding(t *testing.T) {
	f := newFixture(t)
	broke := f.roster[2]
	f.ledger.SetTokens(broke.Address(), 0)

	report, err := f.provisioner(t, Config{}).Provision(context.Background(), f.roster)
	require.NoError(t, err)

	assert.Equal(t, OutcomeRegistered, report.Results[2].Outcome)
	assert.True(t, report.Results[2].Funded)
	assert.Equal(t, 1, f.ledger.Count(contracts.MethodFaucet))
	assert.Equal(t, big.NewInt(1_000-bankroll), f.ledger.Tokens(broke.Address()))
}

func TestProvision_FaucetTooSmall(t *testing.T) {
	f := newFixture(t)
	f.ledger.FaucetAmount = big.NewInt(bankroll - 1)
	f.ledger.SetTokens(f.roster[0].Address(), 0)

	report, err := f.provisioner(t, Config{}).Provision(context.Background(), f.roster)
	require.NoError(t, err)

	assert.Equal(t, OutcomeFundingFailed, report.Results[0].Outcome)
	assert.ErrorContains(t, report.Results[0].Err, "still below")
	assert.Equal(t, RosterSize-1, f.ledger.Count(contracts.MethodRegisterAgent))
}

func TestProvision_MintFunding(t *testing.T) {
	f := newFixture(t)
	funder, err := chain.GenerateAccount()
	require.NoError(t, err)

	target := f.roster[4]
	f.ledger.SetTokens(target.Address(), 100)

	report, err := f.provisioner(t, Config{
		Funding: FundingMint,
		Funder:  funder,
	}).Provision(context.Background(), f.roster)
	require.NoError(t, err)

	assert.Equal(t, OutcomeRegistered, report.Results[4].Outcome)
	require.Equal(t, 1, f.ledger.Count(contracts.MethodMint))

	for _, call := range f.ledger.Mutations() {
		if call.Method == contracts.MethodMint {
			assert.Equal(t, funder.Address, call.From)
			assert.Equal(t, []any{target.Address(), big.NewInt(bankroll - 100)}, call.Args)
		}
	}
}

func TestProvision_MinBankrollAboveAgentBankroll(t *testing.T) {
	f := newFixture(t)
	f.ledger.FaucetAmount = big.NewInt(10 * bankroll)

	report, err := f.provisioner(t, Config{MinBankroll: big.NewInt(5 * bankroll)}).Provision(context.Background(), f.roster)
	require.NoError(t, err)

	assert.Equal(t, RosterSize, report.Registered())
	assert.Equal(t, RosterSize, f.ledger.Count(contracts.MethodFaucet))
}

func TestProvision_MissingKeyAndQueryFailure(t *testing.T) {
	f := newFixture(t)
	f.roster[0].Account = nil
	unreachable := f.roster[3].Address()
	f.ledger.Fail = func(call chaintest.Call) error {
		if call.ReadOnly && call.Method == "balance" && call.From == unreachable {
			return fmt.Errorf("connection reset")
		}
		return nil
	}

	report, err := f.provisioner(t, Config{}).Provision(context.Background(), f.roster)
	require.NoError(t, err)

	assert.Equal(t, []Outcome{
		OutcomeMissingKey,
		OutcomeRegistered,
		OutcomeRegistered,
		OutcomeQueryFailed,
		OutcomeRegistered,
	}, outcomes(report))
	assert.Equal(t, common.Address{}, report.Results[0].Address)
}

func TestProvision_RegisterRevert(t *testing.T) {
	f := newFixture(t)
	f.ledger.Fail = chaintest.RevertOn(contracts.ContractNameAgentController, contracts.MethodRegisterAgent)

	report, err := f.provisioner(t, Config{}).Provision(context.Background(), f.roster)
	require.NoError(t, err)

	assert.Equal(t, RosterSize, report.Count(OutcomeRegisterFailed))
}

func TestProvision_RequiresController(t *testing.T) {
	f := newFixture(t)
	reg, err := registry.Load(nil)
	require.NoError(t, err)

	p, err := NewProvisioner(f.ledger, reg, Config{})
	require.NoError(t, err)

	_, err = p.Provision(context.Background(), f.roster)
	assert.ErrorIs(t, err, registry.ErrNotFound)
}

func TestNewProvisioner_MintNeedsFunder(t *testing.T) {
	f := newFixture(t)

	_, err := NewProvisioner(f.ledger, f.registry, Config{Funding: FundingMint})
	assert.ErrorIs(t, err, ErrNoFunder)

	_, err = NewProvisioner(f.ledger, f.registry, Config{Funding: "airdrop"})
	assert.ErrorContains(t, err, "unknown funding mode 'airdrop'")
}

func TestEnsureAccounts(t *testing.T) {
	f := newFixture(t)
	f.roster[2].Account = nil
	f.ledger.SetPlayer(f.roster[0].Address(), chaintest.Player{Level: big.NewInt(3)})
	f.ledger.SetPlayer(f.roster[1].Address(), chaintest.Player{Name: "already-named"})

	p := f.provisioner(t, Config{})
	results := p.EnsureAccounts(context.Background(), f.roster)

	got := make([]AccountOutcome, 0, len(results))
	for _, result := range results {
		got = append(got, result.Outcome)
	}
	assert.Equal(t, []AccountOutcome{
		AccountExists,
		AccountExists,
		AccountMissingKey,
		AccountCreated,
		AccountCreated,
	}, got)
	assert.Equal(t, 2, f.ledger.Count(contracts.MethodCreatePlayer))

	player, ok := f.ledger.Player(f.roster[3].Address())
	require.True(t, ok)
	assert.Equal(t, "agent-4", player.Name)
	assert.Equal(t, big.NewInt(3), player.Location)
	assert.False(t, player.Faction)

	again := p.EnsureAccounts(context.Background(), f.roster)
	assert.Equal(t, AccountExists, again[3].Outcome)
	assert.Equal(t, 2, f.ledger.Count(contracts.MethodCreatePlayer))
}

func TestRosterValidate(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.roster.Validate())

	short := f.roster[:4]
	assert.ErrorContains(t, short.Validate(), "roster must have 5 agents, got 4")

	dup := append(Roster(nil), f.roster...)
	dup[1].Alias = dup[0].Alias
	assert.ErrorContains(t, dup.Validate(), "share alias")

	badRole := append(Roster(nil), f.roster...)
	badRole[2].Role = 9
	assert.ErrorContains(t, badRole.Validate(), "unknown role(9)")

	assert.Len(t, f.roster.Accounts(), RosterSize)
}
