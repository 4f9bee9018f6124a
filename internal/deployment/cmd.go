package deployment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"os"

	"github.com/spf13/cobra"

	"github.com/mantle-armada/bootstrap/configs"
	"github.com/mantle-armada/bootstrap/internal/chain"
	"github.com/mantle-armada/bootstrap/internal/contracts"
	"github.com/mantle-armada/bootstrap/internal/infra/filesystem"
	fsjson "github.com/mantle-armada/bootstrap/internal/infra/filesystem/json"
	"github.com/mantle-armada/bootstrap/internal/output"
	"github.com/mantle-armada/bootstrap/internal/registry"
)

var CMD = &cobra.Command{
	Use:   "deploy",
	Short: "Deploy or attach the contracts, wire them and provision the agent roster",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := configs.Values
		cfg.Agents.ApplyAgentKeyEnv(os.LookupEnv)

		slog.Info("starting deploy command. Validating config")

		if err := cfg.Validate(); err != nil {
			return err
		}

		slog.Info("config validation successful")

		summary, err := run(cmd.Context(), cfg)
		if err != nil {
			return err
		}

		output.RenderSummary(cmd.OutOrStdout(), summary)

		return nil
	},
}

func run(ctx context.Context, cfg configs.Config) (output.Summary, error) {
	if cfg.Network.WaitForRPC {
		slog.With("url", cfg.Network.RPCURL).Info("waiting for RPC")
		if err := chain.WaitForRPC(ctx, cfg.Network.RPCURL); err != nil {
			return output.Summary{}, err
		}
	}

	artifacts, err := loadArtifacts(cfg)
	if err != nil {
		return output.Summary{}, err
	}

	baseline, err := BaselineFromConfig(cfg.Contracts)
	if err != nil {
		return output.Summary{}, err
	}

	reg, err := registry.Load(baseline)
	if err != nil {
		return output.Summary{}, err
	}

	client, err := chain.Dial(ctx, cfg.Network.RPCURL, reg, artifacts, chain.WithTxTimeout(cfg.Network.TxTimeout))
	if err != nil {
		return output.Summary{}, err
	}
	defer client.Close()

	if err := RestorePersisted(ctx, client, fsjson.NewReader(), reg, cfg.Output.AddressesFile); err != nil {
		return output.Summary{}, err
	}

	return NewService(client, reg, fsjson.NewWriter(), artifacts).Run(ctx, cfg)
}

type chainIDReader interface {
	ChainID(ctx context.Context) (*big.Int, error)
}

// RestorePersisted merges the addresses an earlier run persisted for the
// connected chain into reg. Baseline entries already in reg win; a missing
// addresses file is not an error.
func RestorePersisted(ctx context.Context, client chainIDReader, reader filesystem.Reader, reg *registry.Registry, path string) error {
	if path == "" {
		return nil
	}

	chainID, err := client.ChainID(ctx)
	if err != nil {
		return err
	}

	persisted, err := registry.ReadPersisted(reader, path, chainID.Uint64())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			slog.With("path", path).Debug("no persisted addresses found")
			return nil
		}
		return err
	}

	restored, err := reg.Merge(persisted)
	if err != nil {
		return fmt.Errorf("invalid persisted addresses in '%s': %w", path, err)
	}
	if len(restored) > 0 {
		slog.
			With("path", path).
			With("chain_id", chainID.Uint64()).
			With("contracts", restored).
			Info("restored addresses from a previous run")
	}

	return nil
}

// loadArtifacts tolerates a missing artifacts file when nothing is deployed.
func loadArtifacts(cfg configs.Config) (map[contracts.ContractName]contracts.Artifact, error) {
	if cfg.Contracts.Artifacts == "" {
		return nil, nil
	}

	artifacts, err := contracts.LoadArtifacts(fsjson.NewReader(), cfg.Contracts.Artifacts)
	if err != nil {
		if cfg.Phases.SkipDeploy && errors.Is(err, os.ErrNotExist) {
			slog.With("path", cfg.Contracts.Artifacts).Warn("artifacts file not found, attaching with fallback ABIs")
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load contract artifacts: %w", err)
	}

	return artifacts, nil
}
