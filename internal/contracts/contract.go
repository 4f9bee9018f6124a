package contracts

import "github.com/ethereum/go-ethereum/accounts/abi"

type (
	// ContractName is the logical name a contract instance is registered under.
	ContractName string

	// Artifact is a compiled contract: parsed ABI plus creation bytecode.
	Artifact struct {
		ABI      abi.ABI
		RawABI   string
		Bytecode []byte
	}
)

const (
	ContractNameSEASToken       ContractName = "SEASToken"
	ContractNameMantleArmada    ContractName = "MantleArmada"
	ContractNameAgentController ContractName = "AgentController"
	ContractNameWagerArena      ContractName = "WagerArena"
)

// Contracts is the set of contract kinds this tool knows how to deploy or attach to.
var Contracts = map[ContractName]struct{}{
	ContractNameSEASToken:       {},
	ContractNameMantleArmada:    {},
	ContractNameAgentController: {},
	ContractNameWagerArena:      {},
}

// Method names invoked on the collaborators.
const (
	MethodBalanceOf          = "balanceOf"
	MethodAllowance          = "allowance"
	MethodApprove            = "approve"
	MethodFaucet             = "faucet"
	MethodMint               = "mint"
	MethodSetMinter          = "setMinter"
	MethodSetToken           = "setToken"
	MethodSetArena           = "setArena"
	MethodSetAgentController = "setAgentController"
	MethodIsRegistered       = "isRegistered"
	MethodRegisterAgent      = "registerAgent"
	MethodGetPlayer          = "getPlayer"
	MethodCreatePlayer       = "createPlayer"
	MethodCreateUpgrade      = "createUpgrade"
)

func (n ContractName) String() string {
	return string(n)
}

// Known reports whether name is one of the contract kinds in Contracts.
func Known(name ContractName) bool {
	_, ok := Contracts[name]
	return ok
}
