package status

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"github.com/mantle-armada/bootstrap/internal/agents"
	"github.com/mantle-armada/bootstrap/internal/contracts"
	"github.com/mantle-armada/bootstrap/internal/logger"
)

const queryConcurrency = 4

type (
	reader interface {
		Call(ctx context.Context, contract contracts.ContractName, method string, args ...any) ([]any, error)
		NativeBalance(ctx context.Context, address common.Address) (*big.Int, error)
	}

	// AgentStatus is a read-only view of one roster slot. Query failures are
	// kept per field so that one failing call does not hide the others.
	AgentStatus struct {
		Slot          int
		Alias         string
		Address       common.Address
		HasKey        bool
		Native        *big.Int
		NativeErr     error
		Tokens        *big.Int
		TokensErr     error
		Registered    bool
		RegisteredErr error
	}

	// Checker reads native balances, token balances and registration state.
	Checker struct {
		client reader
		logger *slog.Logger
	}
)

// NewChecker creates a new read-only status checker.
func NewChecker(client reader) *Checker {
	return &Checker{
		client: client,
		logger: logger.Named("status_checker"),
	}
}

// Check queries every agent that has a key. It never returns an error.
func (c *Checker) Check(ctx context.Context, roster agents.Roster) []AgentStatus {
	statuses := make([]AgentStatus, len(roster))

	var g errgroup.Group
	g.SetLimit(queryConcurrency)
	for i, agent := range roster {
		statuses[i] = AgentStatus{
			Slot:    agent.Slot,
			Alias:   agent.Alias,
			Address: agent.Address(),
			HasKey:  agent.Account != nil,
		}
		if agent.Account == nil {
			continue
		}

		g.Go(func() error {
			c.check(ctx, &statuses[i])
			return nil
		})
	}
	_ = g.Wait()

	return statuses
}

func (c *Checker) check(ctx context.Context, status *AgentStatus) {
	status.Native, status.NativeErr = c.client.NativeBalance(ctx, status.Address)

	out, err := c.client.Call(ctx, contracts.ContractNameSEASToken, contracts.MethodBalanceOf, status.Address)
	switch {
	case err != nil:
		status.TokensErr = err
	case len(out) != 1:
		status.TokensErr = fmt.Errorf("unexpected %s output length %d", contracts.MethodBalanceOf, len(out))
	default:
		if balance, ok := out[0].(*big.Int); ok {
			status.Tokens = balance
		} else {
			status.TokensErr = fmt.Errorf("unexpected %s output type %T", contracts.MethodBalanceOf, out[0])
		}
	}

	out, err = c.client.Call(ctx, contracts.ContractNameAgentController, contracts.MethodIsRegistered, status.Address)
	switch {
	case err != nil:
		status.RegisteredErr = err
	case len(out) != 1:
		status.RegisteredErr = fmt.Errorf("unexpected %s output length %d", contracts.MethodIsRegistered, len(out))
	default:
		registered, ok := out[0].(bool)
		if !ok {
			status.RegisteredErr = fmt.Errorf("unexpected %s output type %T", contracts.MethodIsRegistered, out[0])
			break
		}
		status.Registered = registered
	}

	for _, err := range []error{status.NativeErr, status.TokensErr, status.RegisteredErr} {
		if err != nil {
			c.logger.
				With("slot", status.Slot).
				With("alias", status.Alias).
				With("err", err.Error()).
				Warn("status query failed")
		}
	}
}

// FormatUnits renders a wei amount with 18 decimals, four after the point.
func FormatUnits(amount *big.Int, err error) string {
	if err != nil {
		return fmt.Sprintf("query failed (%v)", err)
	}
	if amount == nil {
		return "-"
	}

	units := new(big.Float).Quo(
		new(big.Float).SetInt(amount),
		new(big.Float).SetInt(big.NewInt(1e18)),
	)
	return fmt.Sprintf("%.4f", units)
}
