package deployment

import (
	"errors"
	"fmt"

	"github.com/mantle-armada/bootstrap/internal/contracts"
	"github.com/mantle-armada/bootstrap/internal/registry"
)

type (
	// DeployStep deploys Contract with constructor arguments resolved from
	// the registry, unless the contract is already registered.
	DeployStep struct {
		Contract contracts.ContractName
		Args     []registry.Arg
	}

	DeployPlan []DeployStep
)

// DefaultDeployPlan lists the contracts in constructor dependency order.
func DefaultDeployPlan() DeployPlan {
	return DeployPlan{
		{Contract: contracts.ContractNameSEASToken},
		{
			Contract: contracts.ContractNameMantleArmada,
			Args:     []registry.Arg{registry.Ref(contracts.ContractNameSEASToken)},
		},
		{
			Contract: contracts.ContractNameAgentController,
			Args: []registry.Arg{
				registry.Ref(contracts.ContractNameSEASToken),
				registry.Ref(contracts.ContractNameMantleArmada),
			},
		},
		{
			Contract: contracts.ContractNameWagerArena,
			Args: []registry.Arg{
				registry.Ref(contracts.ContractNameSEASToken),
				registry.Ref(contracts.ContractNameAgentController),
			},
		},
	}
}

// Validate checks that every constructor reference is either in the baseline
// or deployed by an earlier step. It returns the set of contracts available
// once the plan has run.
func (p DeployPlan) Validate(baseline []contracts.ContractName) (map[contracts.ContractName]struct{}, error) {
	available := make(map[contracts.ContractName]struct{}, len(baseline)+len(p))
	for _, name := range baseline {
		available[name] = struct{}{}
	}

	var errs []error
	seen := make(map[contracts.ContractName]struct{}, len(p))
	for _, step := range p {
		if _, dup := seen[step.Contract]; dup {
			errs = append(errs, fmt.Errorf("%s is deployed twice", step.Contract))
		}
		seen[step.Contract] = struct{}{}

		for _, ref := range registry.References(step.Args) {
			if _, ok := available[ref]; !ok {
				errs = append(errs, fmt.Errorf("%s needs %s which is neither in the baseline nor deployed before it", step.Contract, ref))
			}
		}

		available[step.Contract] = struct{}{}
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid deploy plan: %w", errors.Join(errs...))
	}

	return available, nil
}
