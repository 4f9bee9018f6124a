package output

import (
	"gopkg.in/yaml.v3"
)

type (
	// Summary describes one bootstrap run. It never carries key material.
	Summary struct {
		RunID          string     `yaml:"run-id"`
		ChainID        uint64     `yaml:"chain-id"`
		Deployer       string     `yaml:"deployer"`
		Contracts      []Contract `yaml:"contracts"`
		Phases         []Phase    `yaml:"phases"`
		Agents         []Agent    `yaml:"agents,omitempty"`
		Upgrades       []Upgrade  `yaml:"upgrades,omitempty"`
		EnvMissingKeys []string   `yaml:"env-missing-keys,omitempty"`
	}

	Contract struct {
		Name    string             `yaml:"name"`
		Address string             `yaml:"address"`
		Source  ContractSource     `yaml:"source"`
		ABI     SingleQuotedString `yaml:"abi,omitempty"`
	}

	Phase struct {
		Name      string      `yaml:"name"`
		Status    PhaseStatus `yaml:"status"`
		Succeeded int         `yaml:"succeeded"`
		Failed    int         `yaml:"failed"`
	}

	Agent struct {
		Slot    int    `yaml:"slot"`
		Alias   string `yaml:"alias"`
		Address string `yaml:"address,omitempty"`
		Account string `yaml:"account,omitempty"`
		Outcome string `yaml:"outcome"`
		Error   string `yaml:"error,omitempty"`
	}

	Upgrade struct {
		ID    uint64 `yaml:"id"`
		Name  string `yaml:"name"`
		Error string `yaml:"error,omitempty"`
	}

	ContractSource string
	PhaseStatus    string

	SingleQuotedString string
)

const (
	ContractSourceAttached ContractSource = "attached"
	ContractSourceDeployed ContractSource = "deployed"

	PhaseStatusPassed  PhaseStatus = "passed"
	PhaseStatusPartial PhaseStatus = "partial"
	PhaseStatusSkipped PhaseStatus = "skipped"

	// AgentNotProvisioned marks agents when the provisioning phase was skipped.
	AgentNotProvisioned = "not_provisioned"
)

func (s SingleQuotedString) MarshalYAML() (any, error) {
	node := &yaml.Node{
		Kind:  yaml.ScalarNode,
		Style: yaml.SingleQuotedStyle,
		Value: string(s),
	}
	return node, nil
}

// Phase returns the named phase, if recorded.
func (s Summary) Phase(name string) (Phase, bool) {
	for _, phase := range s.Phases {
		if phase.Name == name {
			return phase, true
		}
	}
	return Phase{}, false
}
