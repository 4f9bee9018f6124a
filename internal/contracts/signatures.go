package contracts

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/lmittmann/w3"
)

// Signatures used when a contract is attached from the baseline and no
// compiled artifact is available for it.
var fallbackFuncs = []*w3.Func{
	w3.MustNewFunc("balanceOf(address)", "uint256"),
	w3.MustNewFunc("allowance(address,address)", "uint256"),
	w3.MustNewFunc("approve(address,uint256)", "bool"),
	w3.MustNewFunc("faucet()", ""),
	w3.MustNewFunc("mint(address,uint256)", ""),
	w3.MustNewFunc("setMinter(address,bool)", ""),
	w3.MustNewFunc("setToken(address)", ""),
	w3.MustNewFunc("setArena(address)", ""),
	w3.MustNewFunc("setAgentController(address)", ""),
	w3.MustNewFunc("isRegistered(address)", "bool"),
	w3.MustNewFunc("registerAgent(uint8,uint256,string)", ""),
	w3.MustNewFunc("getPlayer(address)", "uint256,uint256,uint256,bool,string"),
	w3.MustNewFunc("createPlayer(string,bool,uint256)", ""),
	w3.MustNewFunc("createUpgrade(uint256,string,uint256,uint256)", ""),
}

// FallbackABI builds an ABI holding every fallback signature.
func FallbackABI() abi.ABI {
	methods := make(map[string]abi.Method, len(fallbackFuncs))
	for _, fn := range fallbackFuncs {
		name := fn.Signature[:strings.IndexByte(fn.Signature, '(')]
		methods[name] = abi.NewMethod(name, name, abi.Function, "nonpayable", false, false, fn.Args, fn.Returns)
	}

	return abi.ABI{Methods: methods}
}
