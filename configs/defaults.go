package configs

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

var (
	//go:embed config.example.yaml
	defaultConfigYAML string

	defaultConfigOnce sync.Once
	defaultConfig     Config
	defaultConfigErr  error
)

// LoadDefaults reads the embedded config.example.yaml into v so that a user
// config file merged afterwards only needs to override what it changes.
func LoadDefaults(v *viper.Viper) error {
	v.SetConfigType("yaml")
	if err := v.ReadConfig(strings.NewReader(defaultConfigYAML)); err != nil {
		return fmt.Errorf("failed to read embedded config.example.yaml: %w", err)
	}
	return nil
}

// DefaultConfig returns the parsed configuration from the embedded config.example.yaml.
func DefaultConfig() (Config, error) {
	defaultConfigOnce.Do(func() {
		v := viper.New()
		if err := LoadDefaults(v); err != nil {
			defaultConfigErr = err
			return
		}

		if err := v.Unmarshal(&defaultConfig); err != nil {
			defaultConfigErr = fmt.Errorf("failed to decode embedded config.example.yaml: %w", err)
			return
		}
	})

	if defaultConfigErr != nil {
		return Config{}, defaultConfigErr
	}

	return cloneConfig(defaultConfig), nil
}

// cloneConfig copies the slices so callers can mutate the result freely.
func cloneConfig(c Config) Config {
	c.Contracts.Baseline = append([]BaselineContract(nil), c.Contracts.Baseline...)
	c.Agents.Roster = append([]Agent(nil), c.Agents.Roster...)
	c.Upgrades = append([]Upgrade(nil), c.Upgrades...)
	c.Output.EnvKeys = append([]EnvKey(nil), c.Output.EnvKeys...)
	return c
}
