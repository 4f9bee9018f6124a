package status

import (
	"fmt"
	"io"
	"slices"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/mantle-armada/bootstrap/internal/contracts"
)

// EnvState compares an env file key with the address it should hold.
type EnvState struct {
	Key      string
	Contract string
	Expected string
	Actual   string
}

func (s EnvState) Status() string {
	switch {
	case s.Expected == "":
		return "unknown contract"
	case s.Actual == "":
		return "missing"
	case common.HexToAddress(s.Actual) == common.HexToAddress(s.Expected):
		return "in sync"
	default:
		return "stale"
	}
}

// RenderAgents prints one row per roster slot.
func RenderAgents(w io.Writer, statuses []AgentStatus) {
	t := newTable(w, table.Row{"Slot", "Alias", "Address", "Native", "SEAS", "Registered"})
	for _, s := range statuses {
		if !s.HasKey {
			t.AppendRow(table.Row{s.Slot, s.Alias, "no key", "-", "-", "-"})
			continue
		}

		registered := fmt.Sprint(s.Registered)
		if s.RegisteredErr != nil {
			registered = fmt.Sprintf("query failed (%v)", s.RegisteredErr)
		}

		t.AppendRow(table.Row{
			s.Slot,
			s.Alias,
			s.Address.Hex(),
			FormatUnits(s.Native, s.NativeErr),
			FormatUnits(s.Tokens, s.TokensErr),
			registered,
		})
	}
	t.Render()
}

// RenderContracts prints the registered contracts sorted by name.
func RenderContracts(w io.Writer, addresses map[contracts.ContractName]common.Address) {
	names := make([]contracts.ContractName, 0, len(addresses))
	for name := range addresses {
		names = append(names, name)
	}
	slices.Sort(names)

	t := newTable(w, table.Row{"Contract", "Address"})
	for _, name := range names {
		t.AppendRow(table.Row{name, addresses[name].Hex()})
	}
	t.Render()
}

// RenderEnv prints every configured env key with its sync state.
func RenderEnv(w io.Writer, states []EnvState) {
	t := newTable(w, table.Row{"Key", "Contract", "Status"})
	for _, s := range states {
		t.AppendRow(table.Row{s.Key, s.Contract, s.Status()})
	}
	t.Render()
}

func newTable(w io.Writer, header table.Row) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(header)
	return t
}
