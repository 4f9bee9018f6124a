package seeding

import (
	"context"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/core/types"

	"github.com/mantle-armada/bootstrap/internal/chain"
	"github.com/mantle-armada/bootstrap/internal/contracts"
	"github.com/mantle-armada/bootstrap/internal/logger"
)

type (
	submitter interface {
		Submit(ctx context.Context, from *chain.Account, contract contracts.ContractName, method string, args ...any) (*types.Receipt, error)
	}

	// Upgrade is one catalog entry created on the game contract.
	Upgrade struct {
		ID    uint64
		Name  string
		Cost  *big.Int
		Power uint64
	}

	// Outcome pairs an upgrade with the error its creation returned, if any.
	Outcome struct {
		Upgrade Upgrade
		Err     error
	}

	Seeder struct {
		client submitter
		logger *slog.Logger
	}
)

// NewSeeder creates a new upgrade seeder.
func NewSeeder(client submitter) *Seeder {
	return &Seeder{
		client: client,
		logger: logger.Named("upgrade_seeder"),
	}
}

// Seed creates every upgrade in order. A failing entry is recorded and the
// loop moves on.
func (s *Seeder) Seed(ctx context.Context, from *chain.Account, upgrades []Upgrade) []Outcome {
	outcomes := make([]Outcome, 0, len(upgrades))

	for _, upgrade := range upgrades {
		_, err := s.client.Submit(ctx, from, contracts.ContractNameMantleArmada, contracts.MethodCreateUpgrade,
			new(big.Int).SetUint64(upgrade.ID), upgrade.Name, upgrade.Cost, new(big.Int).SetUint64(upgrade.Power))

		log := s.logger.With("id", upgrade.ID).With("upgrade", upgrade.Name)
		if err != nil {
			log.With("err", err.Error()).Warn("failed to create upgrade")
		} else {
			log.Info("upgrade created")
		}

		outcomes = append(outcomes, Outcome{Upgrade: upgrade, Err: err})
	}

	return outcomes
}

// Counts returns how many outcomes succeeded and failed.
func Counts(outcomes []Outcome) (succeeded, failed int) {
	for _, outcome := range outcomes {
		if outcome.Err != nil {
			failed++
		} else {
			succeeded++
		}
	}
	return succeeded, failed
}
