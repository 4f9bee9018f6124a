package wiring

import (
	"errors"
	"fmt"

	"github.com/mantle-armada/bootstrap/internal/contracts"
	"github.com/mantle-armada/bootstrap/internal/registry"
)

var ErrInvalidPlan = errors.New("invalid wiring plan")

type (
	// Step is a single linking call on one contract.
	Step struct {
		ID        string
		Contract  contracts.ContractName
		Method    string
		Args      []registry.Arg
		DependsOn []string
	}

	Plan []Step
)

// DefaultPlan links the game, token, controller and arena contracts. The
// token only trusts a contract as minter after that contract knows the token.
func DefaultPlan() Plan {
	return Plan{
		{
			ID:       "game-token",
			Contract: contracts.ContractNameMantleArmada,
			Method:   contracts.MethodSetToken,
			Args:     []registry.Arg{registry.Ref(contracts.ContractNameSEASToken)},
		},
		{
			ID:        "token-minter-game",
			Contract:  contracts.ContractNameSEASToken,
			Method:    contracts.MethodSetMinter,
			Args:      []registry.Arg{registry.Ref(contracts.ContractNameMantleArmada), registry.Literal(true)},
			DependsOn: []string{"game-token"},
		},
		{
			ID:       "controller-arena",
			Contract: contracts.ContractNameAgentController,
			Method:   contracts.MethodSetArena,
			Args:     []registry.Arg{registry.Ref(contracts.ContractNameWagerArena)},
		},
		{
			ID:        "arena-controller",
			Contract:  contracts.ContractNameWagerArena,
			Method:    contracts.MethodSetAgentController,
			Args:      []registry.Arg{registry.Ref(contracts.ContractNameAgentController)},
			DependsOn: []string{"controller-arena"},
		},
		{
			ID:        "game-controller",
			Contract:  contracts.ContractNameMantleArmada,
			Method:    contracts.MethodSetAgentController,
			Args:      []registry.Arg{registry.Ref(contracts.ContractNameAgentController)},
			DependsOn: []string{"controller-arena"},
		},
		{
			ID:        "token-minter-controller",
			Contract:  contracts.ContractNameSEASToken,
			Method:    contracts.MethodSetMinter,
			Args:      []registry.Arg{registry.Ref(contracts.ContractNameAgentController), registry.Literal(true)},
			DependsOn: []string{"arena-controller"},
		},
	}
}

// Validate checks that step IDs are unique, that every dependency names an
// earlier step and that every contract a step touches is available.
func (p Plan) Validate(available map[contracts.ContractName]struct{}) error {
	var errs []error
	seen := make(map[string]struct{}, len(p))

	for i, step := range p {
		if step.ID == "" {
			errs = append(errs, fmt.Errorf("step %d has no ID", i))
		} else if _, dup := seen[step.ID]; dup {
			errs = append(errs, fmt.Errorf("duplicate step ID '%s'", step.ID))
		}

		if step.Method == "" {
			errs = append(errs, fmt.Errorf("step '%s' has no method", step.ID))
		}

		for _, dep := range step.DependsOn {
			if _, ok := seen[dep]; !ok {
				errs = append(errs, fmt.Errorf("step '%s' depends on '%s' which does not run before it", step.ID, dep))
			}
		}

		for _, name := range append([]contracts.ContractName{step.Contract}, registry.References(step.Args)...) {
			if _, ok := available[name]; !ok {
				errs = append(errs, fmt.Errorf("step '%s' references unavailable contract %s", step.ID, name))
			}
		}

		seen[step.ID] = struct{}{}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidPlan, errors.Join(errs...))
	}

	return nil
}
