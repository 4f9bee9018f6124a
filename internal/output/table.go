package output

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
)

// RenderSummary prints the contract, phase and agent tables of a summary.
func RenderSummary(w io.Writer, summary Summary) {
	fmt.Fprintf(w, "Run %s on chain %d, deployer %s\n", summary.RunID, summary.ChainID, summary.Deployer)

	tContracts := newTable(w, table.Row{"Contract", "Address", "Source"})
	for _, contract := range summary.Contracts {
		tContracts.AppendRow(table.Row{contract.Name, contract.Address, contract.Source})
	}
	tContracts.Render()

	tPhases := newTable(w, table.Row{"Phase", "Status", "Succeeded", "Failed"})
	for _, phase := range summary.Phases {
		tPhases.AppendRow(table.Row{phase.Name, phase.Status, phase.Succeeded, phase.Failed})
	}
	tPhases.Render()

	if len(summary.Agents) > 0 {
		tAgents := newTable(w, table.Row{"Slot", "Alias", "Address", "Account", "Outcome"})
		for _, agent := range summary.Agents {
			tAgents.AppendRow(table.Row{agent.Slot, agent.Alias, agent.Address, agent.Account, agent.Outcome})
		}
		tAgents.Render()
	}

	if len(summary.EnvMissingKeys) > 0 {
		fmt.Fprintf(w, "Env keys not present in the env file: %v\n", summary.EnvMissingKeys)
	}
}

func newTable(w io.Writer, header table.Row) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(header)
	return t
}
