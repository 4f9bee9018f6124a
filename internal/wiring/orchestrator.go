package wiring

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/mantle-armada/bootstrap/internal/chain"
	"github.com/mantle-armada/bootstrap/internal/contracts"
	"github.com/mantle-armada/bootstrap/internal/logger"
	"github.com/mantle-armada/bootstrap/internal/registry"
)

var ErrStepFailed = errors.New("wiring step failed")

type (
	submitter interface {
		Submit(ctx context.Context, from *chain.Account, contract contracts.ContractName, method string, args ...any) (*types.Receipt, error)
	}

	// Result records a confirmed step.
	Result struct {
		StepID string
		TxHash common.Hash
	}

	// Orchestrator executes a plan one confirmed step at a time.
	Orchestrator struct {
		client   submitter
		registry *registry.Registry
		logger   *slog.Logger
	}
)

// NewOrchestrator creates a new wiring orchestrator that resolves step arguments through reg.
func NewOrchestrator(client submitter, reg *registry.Registry) *Orchestrator {
	return &Orchestrator{
		client:   client,
		registry: reg,
		logger:   logger.Named("wiring"),
	}
}

// Execute runs the steps in order. The first failing step aborts the run;
// results of steps confirmed before it are returned alongside the error.
func (o *Orchestrator) Execute(ctx context.Context, from *chain.Account, plan Plan) ([]Result, error) {
	o.logger.With("steps", len(plan)).Info("wiring contracts")

	results := make([]Result, 0, len(plan))
	for _, step := range plan {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		result, err := o.executeStep(ctx, from, step)
		if err != nil {
			o.logger.
				With("step", step.ID).
				With("err", err.Error()).
				Error("wiring step failed")
			return results, fmt.Errorf("%w: %s: %w", ErrStepFailed, step.ID, err)
		}

		results = append(results, result)
	}

	o.logger.Info("contracts wired")

	return results, nil
}

func (o *Orchestrator) executeStep(ctx context.Context, from *chain.Account, step Step) (Result, error) {
	args, err := o.registry.Resolve(step.Args)
	if err != nil {
		return Result{}, err
	}

	receipt, err := o.client.Submit(ctx, from, step.Contract, step.Method, args...)
	if err != nil {
		return Result{}, err
	}

	result := Result{StepID: step.ID}
	if receipt != nil {
		result.TxHash = receipt.TxHash
	}

	o.logger.
		With("step", step.ID).
		With("call", fmt.Sprintf("%s.%s", step.Contract, step.Method)).
		Info("wiring step confirmed")

	return result, nil
}
