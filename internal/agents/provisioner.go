package agents

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"golang.org/x/sync/errgroup"

	"github.com/mantle-armada/bootstrap/configs"
	"github.com/mantle-armada/bootstrap/internal/chain"
	"github.com/mantle-armada/bootstrap/internal/contracts"
	"github.com/mantle-armada/bootstrap/internal/logger"
	"github.com/mantle-armada/bootstrap/internal/registry"
)

const snapshotConcurrency = 4

// FundingMode selects how agents with too few tokens are topped up.
type FundingMode = configs.FundingMode

const (
	FundingFaucet = configs.FundingFaucet
	FundingMint   = configs.FundingMint
)

var ErrNoFunder = errors.New("mint funding requires a funder account")

type (
	ledgerClient interface {
		Submit(ctx context.Context, from *chain.Account, contract contracts.ContractName, method string, args ...any) (*types.Receipt, error)
		Call(ctx context.Context, contract contracts.ContractName, method string, args ...any) ([]any, error)
		NativeBalance(ctx context.Context, address common.Address) (*big.Int, error)
	}

	// Config holds the provisioning thresholds. Funder signs mint calls and is
	// only needed with FundingMint.
	Config struct {
		MinGas      *big.Int
		MinBankroll *big.Int
		Funding     FundingMode
		Funder      *chain.Account
	}

	// Provisioner brings roster identities to the registered state.
	Provisioner struct {
		client   ledgerClient
		registry *registry.Registry
		cfg      Config
		logger   *slog.Logger
	}

	snapshot struct {
		registered bool
		native     *big.Int
		tokens     *big.Int
		err        error
	}
)

// NewProvisioner creates a provisioner. Unset thresholds default to zero and
// an unset funding mode to FundingFaucet.
func NewProvisioner(client ledgerClient, reg *registry.Registry, cfg Config) (*Provisioner, error) {
	if cfg.MinGas == nil {
		cfg.MinGas = new(big.Int)
	}
	if cfg.MinBankroll == nil {
		cfg.MinBankroll = new(big.Int)
	}
	if cfg.Funding == "" {
		cfg.Funding = FundingFaucet
	}

	switch cfg.Funding {
	case FundingFaucet:
	case FundingMint:
		if cfg.Funder == nil {
			return nil, ErrNoFunder
		}
	default:
		return nil, fmt.Errorf("unknown funding mode '%s'", cfg.Funding)
	}

	return &Provisioner{
		client:   client,
		registry: reg,
		cfg:      cfg,
		logger:   logger.Named("agent_provisioner"),
	}, nil
}

// Provision takes a read-only snapshot of every identity, then walks each
// one through funding, approval and registration. A failure only affects the
// identity it happened on.
func (p *Provisioner) Provision(ctx context.Context, roster Roster) (Report, error) {
	spender, err := p.registry.Get(contracts.ContractNameAgentController)
	if err != nil {
		return Report{}, err
	}

	snapshots, err := p.snapshot(ctx, roster)
	if err != nil {
		return Report{}, err
	}

	report := Report{Results: make([]Result, 0, len(roster))}
	for i, agent := range roster {
		result := p.provisionOne(ctx, agent, snapshots[i], spender)
		p.logResult(result)
		report.Results = append(report.Results, result)
	}

	p.logger.
		With("registered", report.Registered()).
		With("skipped", report.Skipped()).
		With("failed", report.Failed()).
		Info("agent provisioning finished")

	return report, nil
}

func (p *Provisioner) snapshot(ctx context.Context, roster Roster) ([]snapshot, error) {
	snapshots := make([]snapshot, len(roster))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(snapshotConcurrency)
	for i, agent := range roster {
		if agent.Account == nil {
			continue
		}

		g.Go(func() error {
			snapshots[i] = p.read(gctx, agent.Account.Address)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return snapshots, ctx.Err()
}

func (p *Provisioner) read(ctx context.Context, address common.Address) snapshot {
	registered, err := p.isRegistered(ctx, address)
	if err != nil {
		return snapshot{err: err}
	}
	if registered {
		return snapshot{registered: true}
	}

	native, err := p.client.NativeBalance(ctx, address)
	if err != nil {
		return snapshot{err: err}
	}

	tokens, err := p.tokenBalance(ctx, address)
	if err != nil {
		return snapshot{err: err}
	}

	return snapshot{native: native, tokens: tokens}
}

func (p *Provisioner) provisionOne(ctx context.Context, agent Agent, snap snapshot, spender common.Address) Result {
	result := Result{Slot: agent.Slot, Alias: agent.Alias, Address: agent.Address()}

	if agent.Account == nil {
		result.Outcome = OutcomeMissingKey
		return result
	}

	if snap.err != nil {
		result.Outcome, result.Err = OutcomeQueryFailed, snap.err
		return result
	}

	if snap.registered {
		result.Outcome = OutcomeAlreadyRegistered
		return result
	}

	if snap.native.Cmp(p.cfg.MinGas) < 0 {
		result.Outcome = OutcomeInsufficientGas
		result.Err = fmt.Errorf("native balance %s is below minimum %s", snap.native, p.cfg.MinGas)
		return result
	}

	needed := agent.Bankroll
	if p.cfg.MinBankroll.Cmp(needed) > 0 {
		needed = p.cfg.MinBankroll
	}

	if snap.tokens.Cmp(needed) < 0 {
		if err := p.fund(ctx, agent, snap.tokens, needed); err != nil {
			result.Outcome, result.Err = OutcomeFundingFailed, err
			return result
		}
		result.Funded = true
	}

	if _, err := p.client.Submit(ctx, agent.Account, contracts.ContractNameSEASToken, contracts.MethodApprove, spender, agent.Bankroll); err != nil {
		result.Outcome, result.Err = OutcomeApproveFailed, err
		return result
	}

	if _, err := p.client.Submit(ctx, agent.Account, contracts.ContractNameAgentController, contracts.MethodRegisterAgent,
		uint8(agent.Role), agent.Bankroll, agent.Alias); err != nil {
		result.Outcome, result.Err = OutcomeRegisterFailed, err
		return result
	}

	registered, err := p.isRegistered(ctx, agent.Account.Address)
	if err != nil {
		result.Outcome, result.Err = OutcomeVerifyFailed, err
		return result
	}
	if !registered {
		result.Outcome, result.Err = OutcomeVerifyFailed, errors.New("registration call confirmed but identity is not registered")
		return result
	}

	result.Outcome = OutcomeRegistered
	return result
}

// fund tops the agent's token balance up to needed, then re-reads it.
func (p *Provisioner) fund(ctx context.Context, agent Agent, balance, needed *big.Int) error {
	var err error
	switch p.cfg.Funding {
	case FundingMint:
		shortfall := new(big.Int).Sub(needed, balance)
		_, err = p.client.Submit(ctx, p.cfg.Funder, contracts.ContractNameSEASToken, contracts.MethodMint, agent.Account.Address, shortfall)
	default:
		_, err = p.client.Submit(ctx, agent.Account, contracts.ContractNameSEASToken, contracts.MethodFaucet)
	}
	if err != nil {
		return fmt.Errorf("%s funding failed: %w", p.cfg.Funding, err)
	}

	funded, err := p.tokenBalance(ctx, agent.Account.Address)
	if err != nil {
		return err
	}
	if funded.Cmp(needed) < 0 {
		return fmt.Errorf("token balance %s still below %s after %s funding", funded, needed, p.cfg.Funding)
	}

	return nil
}

func (p *Provisioner) isRegistered(ctx context.Context, address common.Address) (bool, error) {
	out, err := p.client.Call(ctx, contracts.ContractNameAgentController, contracts.MethodIsRegistered, address)
	if err != nil {
		return false, err
	}
	if len(out) != 1 {
		return false, fmt.Errorf("unexpected %s output length %d", contracts.MethodIsRegistered, len(out))
	}

	registered, ok := out[0].(bool)
	if !ok {
		return false, fmt.Errorf("unexpected %s output type %T", contracts.MethodIsRegistered, out[0])
	}
	return registered, nil
}

func (p *Provisioner) tokenBalance(ctx context.Context, address common.Address) (*big.Int, error) {
	out, err := p.client.Call(ctx, contracts.ContractNameSEASToken, contracts.MethodBalanceOf, address)
	if err != nil {
		return nil, err
	}
	return bigOutput(contracts.MethodBalanceOf, out, 0)
}

func (p *Provisioner) logResult(result Result) {
	log := p.logger.
		With("slot", result.Slot).
		With("alias", result.Alias).
		With("address", result.Address.Hex()).
		With("outcome", result.Outcome)

	switch {
	case result.Outcome.Succeeded():
		log.With("funded", result.Funded).Info("agent provisioned")
	case result.Err != nil:
		log.With("err", result.Err.Error()).Warn("agent provisioning failed")
	default:
		log.Warn("agent provisioning failed")
	}
}

func bigOutput(method string, out []any, index int) (*big.Int, error) {
	if len(out) <= index {
		return nil, fmt.Errorf("unexpected %s output length %d", method, len(out))
	}

	value, ok := out[index].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected %s output type %T", method, out[index])
	}
	return value, nil
}
