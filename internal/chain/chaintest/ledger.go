// Package chaintest provides an in-memory ledger that stands in for the node
// in orchestration tests.
package chaintest

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/mantle-armada/bootstrap/internal/chain"
	"github.com/mantle-armada/bootstrap/internal/contracts"
	"github.com/mantle-armada/bootstrap/internal/registry"
)

type (
	// Call is one recorded interaction with the ledger.
	Call struct {
		From     common.Address
		Contract contracts.ContractName
		Method   string
		Args     []any
		ReadOnly bool
	}

	Player struct {
		Gold     *big.Int
		Level    *big.Int
		Location *big.Int
		Faction  bool
		Name     string
	}

	Upgrade struct {
		ID    *big.Int
		Name  string
		Cost  *big.Int
		Power *big.Int
	}

	// Ledger models the slice of contract state the bootstrapper touches.
	Ledger struct {
		mu sync.Mutex

		registry *registry.Registry
		chainID  *big.Int
		nonces   map[common.Address]uint64

		native     map[common.Address]*big.Int
		tokens     map[common.Address]*big.Int
		allowances map[common.Address]*big.Int
		registered map[common.Address]bool
		players    map[common.Address]Player
		upgrades   []Upgrade

		calls   []Call
		deploys []contracts.ContractName

		// FaucetAmount is credited to the caller of faucet().
		FaucetAmount *big.Int
		// Fail, when set, is consulted before every call and deploy; a non-nil
		// error is returned in place of the call.
		Fail func(Call) error
	}
)

// NewLedger creates an empty ledger on chain 5003. When reg is non-nil every
// call checks that the target contract is registered.
func NewLedger(reg *registry.Registry) *Ledger {
	return &Ledger{
		registry:     reg,
		chainID:      big.NewInt(5003),
		nonces:       make(map[common.Address]uint64),
		native:       make(map[common.Address]*big.Int),
		tokens:       make(map[common.Address]*big.Int),
		allowances:   make(map[common.Address]*big.Int),
		registered:   make(map[common.Address]bool),
		players:      make(map[common.Address]Player),
		FaucetAmount: big.NewInt(1_000),
	}
}

// RevertOn returns a Fail hook reverting every mutating call of method on contract.
func RevertOn(contract contracts.ContractName, method string) func(Call) error {
	return func(call Call) error {
		if !call.ReadOnly && call.Contract == contract && call.Method == method {
			return fmt.Errorf("%w: execution reverted", chain.ErrCallReverted)
		}
		return nil
	}
}

func (l *Ledger) SetNative(address common.Address, amount int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.native[address] = big.NewInt(amount)
}

func (l *Ledger) SetTokens(address common.Address, amount int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.tokens[address] = big.NewInt(amount)
}

func (l *Ledger) SetRegistered(address common.Address) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.registered[address] = true
}

func (l *Ledger) SetPlayer(address common.Address, player Player) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.players[address] = player
}

func (l *Ledger) Registered(address common.Address) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.registered[address]
}

func (l *Ledger) Tokens(address common.Address) *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return new(big.Int).Set(balanceOf(l.tokens, address))
}

func (l *Ledger) Player(address common.Address) (Player, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	player, ok := l.players[address]
	return player, ok
}

func (l *Ledger) Upgrades() []Upgrade {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Upgrade(nil), l.upgrades...)
}

// Calls returns every recorded call, read-only ones included, in order.
func (l *Ledger) Calls() []Call {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Call(nil), l.calls...)
}

// Mutations returns the recorded state-changing calls in order.
func (l *Ledger) Mutations() []Call {
	var out []Call
	for _, call := range l.Calls() {
		if !call.ReadOnly {
			out = append(out, call)
		}
	}
	return out
}

// Count returns how many state-changing calls of method were recorded.
func (l *Ledger) Count(method string) int {
	n := 0
	for _, call := range l.Mutations() {
		if call.Method == method {
			n++
		}
	}
	return n
}

func (l *Ledger) Deploys() []contracts.ContractName {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]contracts.ContractName(nil), l.deploys...)
}

func (l *Ledger) ChainID(context.Context) (*big.Int, error) {
	return new(big.Int).Set(l.chainID), nil
}

func (l *Ledger) NativeBalance(_ context.Context, address common.Address) (*big.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.fail(Call{From: address, Method: "balance", ReadOnly: true}); err != nil {
		return nil, err
	}
	return new(big.Int).Set(balanceOf(l.native, address)), nil
}

func (l *Ledger) Deploy(_ context.Context, from *chain.Account, contract contracts.ContractName, args ...any) (common.Address, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	call := Call{From: from.Address, Contract: contract, Method: "deploy", Args: args}
	if err := l.fail(call); err != nil {
		return common.Address{}, err
	}

	address := crypto.CreateAddress(from.Address, l.nonces[from.Address])
	l.nonces[from.Address]++
	l.deploys = append(l.deploys, contract)

	return address, nil
}

func (l *Ledger) Call(_ context.Context, contract contracts.ContractName, method string, args ...any) ([]any, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	call := Call{Contract: contract, Method: method, Args: args, ReadOnly: true}
	l.calls = append(l.calls, call)
	if err := l.check(call); err != nil {
		return nil, err
	}

	switch method {
	case contracts.MethodBalanceOf:
		return []any{new(big.Int).Set(balanceOf(l.tokens, args[0].(common.Address)))}, nil
	case contracts.MethodAllowance:
		return []any{new(big.Int).Set(balanceOf(l.allowances, args[0].(common.Address)))}, nil
	case contracts.MethodIsRegistered:
		return []any{l.registered[args[0].(common.Address)]}, nil
	case contracts.MethodGetPlayer:
		player := l.players[args[0].(common.Address)]
		return []any{orZero(player.Gold), orZero(player.Level), orZero(player.Location), player.Faction, player.Name}, nil
	}

	return nil, fmt.Errorf("unknown read-only method %s.%s", contract, method)
}

func (l *Ledger) Submit(_ context.Context, from *chain.Account, contract contracts.ContractName, method string, args ...any) (*types.Receipt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	call := Call{From: from.Address, Contract: contract, Method: method, Args: args}
	l.calls = append(l.calls, call)
	if err := l.check(call); err != nil {
		return nil, err
	}

	if err := l.apply(call); err != nil {
		return nil, err
	}

	return &types.Receipt{Status: types.ReceiptStatusSuccessful}, nil
}

func (l *Ledger) apply(call Call) error {
	switch call.Method {
	case contracts.MethodApprove:
		l.allowances[call.From] = new(big.Int).Set(call.Args[1].(*big.Int))
	case contracts.MethodFaucet:
		l.tokens[call.From] = new(big.Int).Add(balanceOf(l.tokens, call.From), l.FaucetAmount)
	case contracts.MethodMint:
		to := call.Args[0].(common.Address)
		l.tokens[to] = new(big.Int).Add(balanceOf(l.tokens, to), call.Args[1].(*big.Int))
	case contracts.MethodRegisterAgent:
		bankroll := call.Args[1].(*big.Int)
		if l.registered[call.From] {
			return fmt.Errorf("%w: already registered", chain.ErrCallReverted)
		}
		if balanceOf(l.allowances, call.From).Cmp(bankroll) < 0 || balanceOf(l.tokens, call.From).Cmp(bankroll) < 0 {
			return fmt.Errorf("%w: insufficient allowance or balance", chain.ErrCallReverted)
		}
		l.tokens[call.From] = new(big.Int).Sub(l.tokens[call.From], bankroll)
		l.allowances[call.From] = new(big.Int).Sub(l.allowances[call.From], bankroll)
		l.registered[call.From] = true
	case contracts.MethodCreatePlayer:
		l.players[call.From] = Player{
			Gold:     big.NewInt(100),
			Level:    big.NewInt(1),
			Location: call.Args[2].(*big.Int),
			Faction:  call.Args[1].(bool),
			Name:     call.Args[0].(string),
		}
	case contracts.MethodCreateUpgrade:
		l.upgrades = append(l.upgrades, Upgrade{
			ID:    call.Args[0].(*big.Int),
			Name:  call.Args[1].(string),
			Cost:  call.Args[2].(*big.Int),
			Power: call.Args[3].(*big.Int),
		})
	case contracts.MethodSetMinter, contracts.MethodSetToken, contracts.MethodSetArena, contracts.MethodSetAgentController:
	default:
		return fmt.Errorf("unknown method %s.%s", call.Contract, call.Method)
	}

	return nil
}

func (l *Ledger) check(call Call) error {
	if l.registry != nil {
		if _, err := l.registry.Get(call.Contract); err != nil {
			return err
		}
	}
	return l.fail(call)
}

func (l *Ledger) fail(call Call) error {
	if l.Fail == nil {
		return nil
	}
	return l.Fail(call)
}

func balanceOf(m map[common.Address]*big.Int, address common.Address) *big.Int {
	if balance, ok := m[address]; ok {
		return balance
	}
	return new(big.Int)
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v)
}
