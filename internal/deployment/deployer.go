package deployment

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"github.com/mantle-armada/bootstrap/internal/chain"
)

const balanceConcurrency = 4

var ErrNoCandidates = errors.New("no deployer candidates")

type balanceReader interface {
	NativeBalance(ctx context.Context, address common.Address) (*big.Int, error)
}

// SelectDeployer returns the candidate holding the highest native balance.
// Balances are read concurrently; on a tie the earlier candidate wins.
func SelectDeployer(ctx context.Context, balances balanceReader, candidates []*chain.Account) (*chain.Account, *big.Int, error) {
	if len(candidates) == 0 {
		return nil, nil, ErrNoCandidates
	}

	results := make([]*big.Int, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(balanceConcurrency)
	for i, candidate := range candidates {
		g.Go(func() error {
			balance, err := balances.NativeBalance(gctx, candidate.Address)
			if err != nil {
				return fmt.Errorf("failed to read balance of deployer candidate %s: %w", candidate.Address.Hex(), err)
			}
			results[i] = balance
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	best := 0
	for i := 1; i < len(results); i++ {
		if results[i].Cmp(results[best]) > 0 {
			best = i
		}
	}

	return candidates[best], results[best], nil
}
