package contracts

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

type jsonReader interface {
	ReadJSON(path string, target any) error
}

type compiledContract struct {
	ABI      json.RawMessage `json:"abi"`
	Bytecode string          `json:"bytecode"`
}

// LoadArtifacts loads compiled contracts from a JSON file shaped as
// {"<name>": {"abi": [...], "bytecode": "0x..."}}.
func LoadArtifacts(reader jsonReader, path string) (map[ContractName]Artifact, error) {
	var result map[string]compiledContract
	if err := reader.ReadJSON(path, &result); err != nil {
		return nil, fmt.Errorf("failed to read compiled contracts from '%s': %w", path, err)
	}

	return parseArtifacts(result)
}

// parseArtifacts keeps only the contract kinds listed in Contracts.
func parseArtifacts(result map[string]compiledContract) (map[ContractName]Artifact, error) {
	loaded := make(map[ContractName]Artifact)

	for name, contract := range result {
		if !Known(ContractName(name)) {
			continue
		}

		parsedABI, err := abi.JSON(strings.NewReader(string(contract.ABI)))
		if err != nil {
			return nil, fmt.Errorf("failed to parse ABI for %s: %w", name, err)
		}

		bytecodeHex := strings.TrimPrefix(strings.TrimSpace(contract.Bytecode), "0x")
		if bytecodeHex == "" {
			return nil, fmt.Errorf("empty bytecode for %s", name)
		}

		loaded[ContractName(name)] = Artifact{
			ABI:      parsedABI,
			RawABI:   string(contract.ABI),
			Bytecode: common.Hex2Bytes(bytecodeHex),
		}
	}

	return loaded, nil
}
