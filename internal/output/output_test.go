package output

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	fsjson "github.com/mantle-armada/bootstrap/internal/infra/filesystem/json"
)

func sampleSummary() Summary {
	return Summary{
		RunID:    "3f1c",
		ChainID:  5003,
		Deployer: "0x1000000000000000000000000000000000000001",
		Contracts: []Contract{
			{Name: "SEASToken", Address: "0x01", Source: ContractSourceAttached},
			{Name: "WagerArena", Address: "0x04", Source: ContractSourceDeployed, ABI: CompactABI(`[ {"type": "function"} ]`)},
		},
		Phases: []Phase{
			{Name: "deploy", Status: PhaseStatusPassed, Succeeded: 1},
			{Name: "wiring", Status: PhaseStatusSkipped},
		},
		Agents: []Agent{
			{Slot: 1, Alias: "Blackbeard", Address: "0x05", Outcome: "registered"},
		},
		EnvMissingKeys: []string{"NEXT_PUBLIC_MARKET"},
	}
}

func TestGenerate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "summary.yaml")

	require.NoError(t, NewGenerator(fsjson.NewWriter()).Generate(path, sampleSummary()))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `abi: '[{"type":"function"}]'`)

	var decoded Summary
	require.NoError(t, yaml.Unmarshal(raw, &decoded))
	assert.Equal(t, uint64(5003), decoded.ChainID)
	assert.Equal(t, ContractSourceDeployed, decoded.Contracts[1].Source)

	phase, ok := decoded.Phase("wiring")
	require.True(t, ok)
	assert.Equal(t, PhaseStatusSkipped, phase.Status)
}

func TestCompactABI(t *testing.T) {
	assert.Equal(t, SingleQuotedString(""), CompactABI(""))
	assert.Equal(t, SingleQuotedString("not json"), CompactABI("not json"))
}

func TestRenderSummary(t *testing.T) {
	var buf bytes.Buffer
	RenderSummary(&buf, sampleSummary())

	out := buf.String()
	assert.Contains(t, out, "Run 3f1c on chain 5003")
	assert.Contains(t, out, "WagerArena")
	assert.Contains(t, out, "Blackbeard")
	assert.Contains(t, out, "NEXT_PUBLIC_MARKET")
}
