package seeding

import (
	"fmt"

	"github.com/mantle-armada/bootstrap/configs"
)

// FromConfig parses the configured upgrade catalog.
func FromConfig(entries []configs.Upgrade) ([]Upgrade, error) {
	upgrades := make([]Upgrade, 0, len(entries))
	for _, entry := range entries {
		cost, err := configs.ParseWei(entry.CostWei)
		if err != nil {
			return nil, fmt.Errorf("upgrade %d cost: %w", entry.ID, err)
		}

		upgrades = append(upgrades, Upgrade{
			ID:    entry.ID,
			Name:  entry.Name,
			Cost:  cost,
			Power: entry.Power,
		})
	}
	return upgrades, nil
}
