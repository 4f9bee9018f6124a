package status

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/mantle-armada/bootstrap/configs"
	"github.com/mantle-armada/bootstrap/internal/agents"
	"github.com/mantle-armada/bootstrap/internal/chain"
	"github.com/mantle-armada/bootstrap/internal/contracts"
	"github.com/mantle-armada/bootstrap/internal/envfile"
	fsjson "github.com/mantle-armada/bootstrap/internal/infra/filesystem/json"
	"github.com/mantle-armada/bootstrap/internal/registry"
)

var CMD = &cobra.Command{
	Use:   "status",
	Short: "Show roster balances, registration state and env file sync",
	Long: `Status is read-only. Query failures are printed next to the affected
value and never change the exit code.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := configs.Values
		cfg.Agents.ApplyAgentKeyEnv(os.LookupEnv)

		if cfg.Network.RPCURL == "" {
			return fmt.Errorf("network.rpc-url is required")
		}

		roster, err := agents.RosterFromConfig(cfg.Agents)
		if err != nil {
			return err
		}

		run(cmd.Context(), cfg, roster, cmd.OutOrStdout())

		return nil
	},
}

func run(ctx context.Context, cfg configs.Config, roster agents.Roster, out io.Writer) {
	addresses := make(map[contracts.ContractName]common.Address)
	for _, entry := range cfg.Contracts.Baseline {
		if address, err := registry.ParseAddress(entry.Address); err == nil {
			addresses[contracts.ContractName(entry.Name)] = address
		}
	}

	reg, err := registry.Load(addresses)
	if err != nil {
		fmt.Fprintf(out, "baseline: %v\n", err)
		return
	}

	client, err := chain.Dial(ctx, cfg.Network.RPCURL, reg, nil)
	if err != nil {
		fmt.Fprintf(out, "rpc: %v\n", err)
		return
	}
	defer client.Close()

	chainID, err := client.ChainID(ctx)
	if err != nil {
		fmt.Fprintf(out, "rpc: %v\n", err)
		return
	}

	persisted, err := registry.ReadPersisted(fsjson.NewReader(), cfg.Output.AddressesFile, chainID.Uint64())
	if err != nil {
		slog.With("err", err.Error()).Warn("persisted addresses unavailable, using baseline only")
	}
	if _, err := reg.Merge(persisted); err != nil {
		fmt.Fprintf(out, "persisted addresses: %v\n", err)
	}

	fmt.Fprintf(out, "Chain %s\n", chainID)
	RenderContracts(out, reg.Snapshot())
	RenderAgents(out, NewChecker(client).Check(ctx, roster))

	env, err := envfile.Parse(cfg.Output.EnvFile)
	if err != nil {
		fmt.Fprintf(out, "env file: %v\n", err)
		return
	}
	RenderEnv(out, EnvStates(cfg.Output.EnvKeys, reg, env))
}

// EnvStates pairs every configured env key with the registered address.
func EnvStates(keys []configs.EnvKey, reg *registry.Registry, env map[string]string) []EnvState {
	states := make([]EnvState, 0, len(keys))
	for _, key := range keys {
		state := EnvState{Key: key.Key, Contract: key.Contract, Actual: env[key.Key]}
		if address, err := reg.Get(contracts.ContractName(key.Contract)); err == nil {
			state.Expected = address.Hex()
		}
		states = append(states, state)
	}
	return states
}
