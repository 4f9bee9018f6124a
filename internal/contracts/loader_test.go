package contracts

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tokenABI = `[
	{"type":"function","name":"balanceOf","stateMutability":"view",
	 "inputs":[{"name":"account","type":"address"}],
	 "outputs":[{"name":"","type":"uint256"}]}
]`

type stubReader struct {
	data string
	err  error
}

func (s stubReader) ReadJSON(_ string, target any) error {
	if s.err != nil {
		return s.err
	}
	return json.Unmarshal([]byte(s.data), target)
}

func TestLoadArtifacts(t *testing.T) {
	data := `{
		"SEASToken": {"abi": ` + tokenABI + `, "bytecode": "0x6080"},
		"Unrelated": {"abi": [], "bytecode": "0x00"}
	}`

	artifacts, err := LoadArtifacts(stubReader{data: data}, "contracts.json")
	require.NoError(t, err)

	require.Len(t, artifacts, 1)
	token := artifacts[ContractNameSEASToken]
	assert.Equal(t, []byte{0x60, 0x80}, token.Bytecode)
	assert.Contains(t, token.ABI.Methods, MethodBalanceOf)
}

func TestLoadArtifacts_EmptyBytecode(t *testing.T) {
	data := `{"WagerArena": {"abi": [], "bytecode": ""}}`

	_, err := LoadArtifacts(stubReader{data: data}, "contracts.json")
	assert.ErrorContains(t, err, "empty bytecode for WagerArena")
}

func TestFallbackABI(t *testing.T) {
	parsed := FallbackABI()

	for _, method := range []string{
		MethodBalanceOf, MethodApprove, MethodFaucet, MethodMint, MethodSetMinter,
		MethodSetToken, MethodSetArena, MethodSetAgentController, MethodIsRegistered,
		MethodRegisterAgent, MethodGetPlayer, MethodCreatePlayer, MethodCreateUpgrade,
	} {
		assert.Contains(t, parsed.Methods, method)
	}

	assert.Equal(t, "registerAgent(uint8,uint256,string)", parsed.Methods[MethodRegisterAgent].Sig)
	assert.Len(t, parsed.Methods[MethodGetPlayer].Outputs, 5)

	packed, err := parsed.Pack(MethodFaucet)
	require.NoError(t, err)
	assert.Len(t, packed, 4)
}
