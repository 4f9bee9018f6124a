package deployment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/google/uuid"

	"github.com/mantle-armada/bootstrap/configs"
	"github.com/mantle-armada/bootstrap/internal/agents"
	"github.com/mantle-armada/bootstrap/internal/chain"
	"github.com/mantle-armada/bootstrap/internal/contracts"
	"github.com/mantle-armada/bootstrap/internal/envfile"
	"github.com/mantle-armada/bootstrap/internal/infra/filesystem"
	"github.com/mantle-armada/bootstrap/internal/logger"
	"github.com/mantle-armada/bootstrap/internal/output"
	"github.com/mantle-armada/bootstrap/internal/registry"
	"github.com/mantle-armada/bootstrap/internal/seeding"
	"github.com/mantle-armada/bootstrap/internal/wiring"
)

var ErrDeployment = errors.New("deployment failed")

const (
	PhaseDeploy   = "deploy"
	PhaseWiring   = "wiring"
	PhaseUpgrades = "upgrades"
	PhaseAccounts = "accounts"
	PhaseAgents   = "agents"
)

type (
	ledgerClient interface {
		Submit(ctx context.Context, from *chain.Account, contract contracts.ContractName, method string, args ...any) (*types.Receipt, error)
		Call(ctx context.Context, contract contracts.ContractName, method string, args ...any) ([]any, error)
		NativeBalance(ctx context.Context, address common.Address) (*big.Int, error)
		Deploy(ctx context.Context, from *chain.Account, contract contracts.ContractName, args ...any) (common.Address, error)
		ChainID(ctx context.Context) (*big.Int, error)
	}
	wiringExecutor interface {
		Execute(ctx context.Context, from *chain.Account, plan wiring.Plan) ([]wiring.Result, error)
	}
	upgradeSeeder interface {
		Seed(ctx context.Context, from *chain.Account, upgrades []seeding.Upgrade) []seeding.Outcome
	}
	summaryGenerator interface {
		Generate(path string, summary output.Summary) error
	}

	// Service runs the bootstrap sequence against one chain.
	Service struct {
		client     ledgerClient
		registry   *registry.Registry
		writer     filesystem.Writer
		artifacts  map[contracts.ContractName]contracts.Artifact
		wiring     wiringExecutor
		seeder     upgradeSeeder
		summary    summaryGenerator
		deployPlan DeployPlan
		wiringPlan wiring.Plan
		logger     *slog.Logger
	}

	runInputs struct {
		primary      *chain.Account
		roster       agents.Roster
		provisioning agents.Config
		upgrades     []seeding.Upgrade
	}
)

// NewService wires the default plans. reg must already hold the baseline.
func NewService(
	client ledgerClient,
	reg *registry.Registry,
	writer filesystem.Writer,
	artifacts map[contracts.ContractName]contracts.Artifact) *Service {
	return &Service{
		client:     client,
		registry:   reg,
		writer:     writer,
		artifacts:  artifacts,
		wiring:     wiring.NewOrchestrator(client, reg),
		seeder:     seeding.NewSeeder(client),
		summary:    output.NewGenerator(writer),
		deployPlan: DefaultDeployPlan(),
		wiringPlan: wiring.DefaultPlan(),
		logger:     logger.Named("deployment_service"),
	}
}

// Run executes every enabled phase. Any fatal failure returns ErrDeployment
// before the registry, env file or summary are written.
func (s *Service) Run(ctx context.Context, cfg configs.Config) (output.Summary, error) {
	summary := output.Summary{RunID: uuid.NewString()}
	log := s.logger.With("run_id", summary.RunID)
	log.Info("starting bootstrap run")

	in, err := prepare(cfg)
	if err != nil {
		return summary, fail("invalid run inputs", err)
	}

	log.Info("running phase 0 - plan validation")
	baseline := s.registry.Names()
	if err := s.validate(cfg, baseline); err != nil {
		return summary, fail("phase 0", err)
	}

	chainID, err := s.client.ChainID(ctx)
	if err != nil {
		return summary, fail("phase 0", err)
	}
	summary.ChainID = chainID.Uint64()

	log.Info("running phase 1 - deployer selection")
	deployer, balance, err := SelectDeployer(ctx, s.client, append([]*chain.Account{in.primary}, in.roster.Accounts()...))
	if err != nil {
		return summary, fail("phase 1", err)
	}
	summary.Deployer = deployer.Address.Hex()
	log.With("deployer", deployer).With("balance", balance.String()).Info("deployer selected")

	log.Info("running phase 2 - deploy or attach")
	deployed, err := s.deployOrAttach(ctx, deployer)
	if err != nil {
		return summary, fail("phase 2", err)
	}
	summary.Phases = append(summary.Phases, phase(PhaseDeploy, len(s.deployPlan), 0))

	if cfg.Phases.SkipWiring {
		log.Info("skipping phase 3 - wiring")
		summary.Phases = append(summary.Phases, skipped(PhaseWiring))
	} else {
		log.Info("running phase 3 - wiring")
		results, err := s.wiring.Execute(ctx, deployer, s.wiringPlan)
		if err != nil {
			return summary, fail("phase 3", err)
		}
		summary.Phases = append(summary.Phases, phase(PhaseWiring, len(results), 0))
	}

	if cfg.Phases.SkipUpgrades {
		log.Info("skipping phase 4 - upgrade seeding")
		summary.Phases = append(summary.Phases, skipped(PhaseUpgrades))
	} else {
		log.Info("running phase 4 - upgrade seeding")
		outcomes := s.seeder.Seed(ctx, deployer, in.upgrades)
		succeeded, failed := seeding.Counts(outcomes)
		summary.Phases = append(summary.Phases, phase(PhaseUpgrades, succeeded, failed))
		summary.Upgrades = upgradeEntries(outcomes)
	}

	log.Info("running phase 5 - accounts and agents")
	if err := s.provisionAgents(ctx, cfg.Phases, in, deployer, &summary); err != nil {
		return summary, fail("phase 5", err)
	}

	if err := ctx.Err(); err != nil {
		return summary, fail("phase 5", err)
	}

	log.Info("running phase 6 - persistence")
	summary.Contracts = s.contractEntries(deployed)
	if err := s.persist(cfg.Output, summary.ChainID, &summary); err != nil {
		return summary, fail("phase 6", err)
	}

	log.Info("bootstrap run completed successfully")

	return summary, nil
}

// validate runs before any state-changing call.
func (s *Service) validate(cfg configs.Config, baseline []contracts.ContractName) error {
	available, err := s.deployPlan.Validate(baseline)
	if err != nil {
		return err
	}

	if cfg.Phases.SkipDeploy {
		for _, step := range s.deployPlan {
			if !s.registry.Has(step.Contract) {
				return fmt.Errorf("%s is not in the baseline and deployment is skipped", step.Contract)
			}
		}
	}

	if !cfg.Phases.SkipWiring {
		if err := s.wiringPlan.Validate(available); err != nil {
			return err
		}
	}

	for _, key := range cfg.Output.EnvKeys {
		if _, ok := available[contracts.ContractName(key.Contract)]; !ok {
			return fmt.Errorf("env key %s refers to unavailable contract %s", key.Key, key.Contract)
		}
	}

	if _, err := os.Stat(cfg.Output.EnvFile); err != nil {
		return fmt.Errorf("env file: %w", err)
	}

	return nil
}

// deployOrAttach returns the names deployed by this run.
func (s *Service) deployOrAttach(ctx context.Context, deployer *chain.Account) (map[contracts.ContractName]struct{}, error) {
	deployed := make(map[contracts.ContractName]struct{})

	for _, step := range s.deployPlan {
		if address, err := s.registry.Get(step.Contract); err == nil {
			s.logger.
				With("contract", step.Contract).
				With("address", address.Hex()).
				Info("attaching to existing contract")
			continue
		}

		args, err := s.registry.Resolve(step.Args)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve constructor arguments of %s: %w", step.Contract, err)
		}

		address, err := s.client.Deploy(ctx, deployer, step.Contract, args...)
		if err != nil {
			return nil, err
		}

		if err := s.registry.Set(step.Contract, address); err != nil {
			return nil, err
		}
		deployed[step.Contract] = struct{}{}

		s.logger.
			With("contract", step.Contract).
			With("address", address.Hex()).
			Info("contract deployed")
	}

	return deployed, nil
}

func (s *Service) provisionAgents(ctx context.Context, phases configs.Phases, in runInputs, deployer *chain.Account, summary *output.Summary) error {
	entries := make([]output.Agent, 0, len(in.roster))
	for _, agent := range in.roster {
		entry := output.Agent{Slot: agent.Slot, Alias: agent.Alias, Outcome: output.AgentNotProvisioned}
		if agent.Account != nil {
			entry.Address = agent.Account.Address.Hex()
		}
		entries = append(entries, entry)
	}
	summary.Agents = entries

	if phases.SkipAccounts && phases.SkipAgents {
		summary.Phases = append(summary.Phases, skipped(PhaseAccounts), skipped(PhaseAgents))
		return nil
	}

	provisioning := in.provisioning
	provisioning.Funder = deployer
	provisioner, err := agents.NewProvisioner(s.client, s.registry, provisioning)
	if err != nil {
		return err
	}

	if phases.SkipAccounts {
		summary.Phases = append(summary.Phases, skipped(PhaseAccounts))
	} else {
		results := provisioner.EnsureAccounts(ctx, in.roster)
		failed := 0
		for i, result := range results {
			entries[i].Account = string(result.Outcome)
			if result.Outcome != agents.AccountCreated && result.Outcome != agents.AccountExists {
				failed++
			}
		}
		summary.Phases = append(summary.Phases, phase(PhaseAccounts, len(results)-failed, failed))
	}

	if phases.SkipAgents {
		summary.Phases = append(summary.Phases, skipped(PhaseAgents))
		return nil
	}

	report, err := provisioner.Provision(ctx, in.roster)
	if err != nil {
		return err
	}
	for i, result := range report.Results {
		entries[i].Outcome = string(result.Outcome)
		if result.Err != nil {
			entries[i].Error = result.Err.Error()
		}
	}
	summary.Phases = append(summary.Phases, phase(PhaseAgents, len(report.Results)-report.Failed(), report.Failed()))

	return nil
}

// persist patches the env file in memory before any output is written.
func (s *Service) persist(cfg configs.Output, chainID uint64, summary *output.Summary) error {
	updates := make(map[string]string, len(cfg.EnvKeys))
	for _, key := range cfg.EnvKeys {
		address, err := s.registry.Get(contracts.ContractName(key.Contract))
		if err != nil {
			return err
		}
		updates[key.Key] = address.Hex()
	}

	var opts []envfile.Option
	if cfg.AppendMissingEnvKeys {
		opts = append(opts, envfile.WithAppendMissing())
	}

	patched, err := envfile.Prepare(cfg.EnvFile, updates, opts...)
	if err != nil {
		return err
	}
	summary.EnvMissingKeys = patched.Result.Missing

	if err := patched.Commit(s.writer); err != nil {
		return err
	}
	if len(patched.Result.Missing) > 0 {
		s.logger.With("keys", patched.Result.Missing).Warn("env keys not present in env file were left unset")
	}

	if err := s.registry.Persist(s.writer, cfg.AddressesFile, chainID); err != nil {
		return err
	}

	if cfg.SummaryFile != "" {
		if err := s.summary.Generate(cfg.SummaryFile, *summary); err != nil {
			return err
		}
	}

	return nil
}

func (s *Service) contractEntries(deployed map[contracts.ContractName]struct{}) []output.Contract {
	names := s.registry.Names()
	entries := make([]output.Contract, 0, len(names))

	for _, name := range names {
		address, err := s.registry.Get(name)
		if err != nil {
			continue
		}

		source := output.ContractSourceAttached
		if _, ok := deployed[name]; ok {
			source = output.ContractSourceDeployed
		}

		entries = append(entries, output.Contract{
			Name:    string(name),
			Address: address.Hex(),
			Source:  source,
			ABI:     output.CompactABI(s.artifacts[name].RawABI),
		})
	}

	return entries
}

func prepare(cfg configs.Config) (runInputs, error) {
	primary, err := chain.NewAccount(cfg.PrivateKey)
	if err != nil {
		return runInputs{}, fmt.Errorf("primary deployer key: %w", err)
	}

	roster, err := agents.RosterFromConfig(cfg.Agents)
	if err != nil {
		return runInputs{}, err
	}

	provisioning, err := agents.ConfigFromValues(cfg.Agents)
	if err != nil {
		return runInputs{}, err
	}

	upgrades, err := seeding.FromConfig(cfg.Upgrades)
	if err != nil {
		return runInputs{}, err
	}

	return runInputs{
		primary:      primary,
		roster:       roster,
		provisioning: provisioning,
		upgrades:     upgrades,
	}, nil
}

// BaselineFromConfig parses the configured baseline addresses.
func BaselineFromConfig(cfg configs.Contracts) (map[contracts.ContractName]common.Address, error) {
	baseline := make(map[contracts.ContractName]common.Address, len(cfg.Baseline))
	for _, entry := range cfg.Baseline {
		address, err := registry.ParseAddress(entry.Address)
		if err != nil {
			return nil, fmt.Errorf("baseline %s: %w", entry.Name, err)
		}
		baseline[contracts.ContractName(entry.Name)] = address
	}
	return baseline, nil
}

func upgradeEntries(outcomes []seeding.Outcome) []output.Upgrade {
	entries := make([]output.Upgrade, 0, len(outcomes))
	for _, outcome := range outcomes {
		entry := output.Upgrade{ID: outcome.Upgrade.ID, Name: outcome.Upgrade.Name}
		if outcome.Err != nil {
			entry.Error = outcome.Err.Error()
		}
		entries = append(entries, entry)
	}
	return entries
}

func phase(name string, succeeded, failed int) output.Phase {
	status := output.PhaseStatusPassed
	if failed > 0 {
		status = output.PhaseStatusPartial
	}
	return output.Phase{Name: name, Status: status, Succeeded: succeeded, Failed: failed}
}

func skipped(name string) output.Phase {
	return output.Phase{Name: name, Status: output.PhaseStatusSkipped}
}

func fail(stage string, err error) error {
	return fmt.Errorf("%w: %s failed: %w", ErrDeployment, stage, err)
}
