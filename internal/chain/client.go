package chain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/mantle-armada/bootstrap/internal/contracts"
	"github.com/mantle-armada/bootstrap/internal/logger"
	"github.com/mantle-armada/bootstrap/internal/registry"
)

var (
	ErrCallReverted = errors.New("call reverted")
	ErrNoArtifact   = errors.New("no compiled artifact")
)

const defaultCallTimeout = time.Minute

type (
	// Backend is the node surface the client needs. Both *ethclient.Client and
	// the simulated backend client satisfy it.
	Backend interface {
		bind.ContractBackend
		bind.DeployBackend
		BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
		ChainID(ctx context.Context) (*big.Int, error)
	}

	// Client submits calls to contracts addressed by logical name.
	Client struct {
		backend   Backend
		registry  *registry.Registry
		artifacts map[contracts.ContractName]contracts.Artifact
		fallback  abi.ABI
		timeout   time.Duration
		closeFn   func()

		chainIDOnce sync.Once
		chainID     *big.Int
		chainIDErr  error

		logger *slog.Logger
	}

	// Option customizes a Client.
	Option func(*Client)
)

// WithTxTimeout bounds how long Submit and Deploy wait for a transaction to
// be mined. Non-positive values keep the default.
func WithTxTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// NewClient creates a client that resolves contract names through reg.
func NewClient(backend Backend, reg *registry.Registry, artifacts map[contracts.ContractName]contracts.Artifact, opts ...Option) *Client {
	client := &Client{
		backend:   backend,
		registry:  reg,
		artifacts: artifacts,
		fallback:  contracts.FallbackABI(),
		timeout:   defaultCallTimeout,
		logger:    logger.Named("chain_client"),
	}
	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Dial connects to the node at url.
func Dial(ctx context.Context, url string, reg *registry.Registry, artifacts map[contracts.ContractName]contracts.Artifact, opts ...Option) (*Client, error) {
	ethClient, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", url, err)
	}

	client := NewClient(ethClient, reg, artifacts, opts...)
	client.closeFn = ethClient.Close

	return client, nil
}

// Close releases the underlying connection, if any.
func (c *Client) Close() {
	if c.closeFn != nil {
		c.closeFn()
	}
}

// ChainID returns the chain ID of the node. The first answer is cached.
func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	c.chainIDOnce.Do(func() {
		c.chainID, c.chainIDErr = c.backend.ChainID(ctx)
	})
	if c.chainIDErr != nil {
		return nil, fmt.Errorf("failed to get chain ID: %w", c.chainIDErr)
	}

	return new(big.Int).Set(c.chainID), nil
}

// NativeBalance returns the latest native balance of address.
func (c *Client) NativeBalance(ctx context.Context, address common.Address) (*big.Int, error) {
	balance, err := c.backend.BalanceAt(ctx, address, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read balance of %s: %w", address.Hex(), err)
	}

	return balance, nil
}

// Call performs a read-only call and returns the decoded outputs.
func (c *Client) Call(ctx context.Context, contract contracts.ContractName, method string, args ...any) ([]any, error) {
	bound, err := c.bind(contract)
	if err != nil {
		return nil, err
	}

	var out []any
	if err := bound.Call(&bind.CallOpts{Context: ctx}, &out, method, args...); err != nil {
		return nil, fmt.Errorf("call %s.%s failed: %w", contract, method, err)
	}

	return out, nil
}

// Submit sends a state-changing call signed by from and waits for its receipt.
func (c *Client) Submit(ctx context.Context, from *Account, contract contracts.ContractName, method string, args ...any) (*types.Receipt, error) {
	bound, err := c.bind(contract)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	auth, err := c.transactor(ctx, from)
	if err != nil {
		return nil, err
	}

	tx, err := bound.Transact(auth, method, args...)
	if err != nil {
		if isRevert(err) {
			return nil, fmt.Errorf("%w: %s.%s: %w", ErrCallReverted, contract, method, err)
		}
		return nil, fmt.Errorf("failed to send %s.%s: %w", contract, method, err)
	}

	c.logger.
		With("contract", contract).
		With("method", method).
		With("from", from).
		With("tx_hash", tx.Hash().Hex()).
		Debug("transaction sent")

	receipt, err := c.waitMined(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("%s.%s: %w", contract, method, err)
	}

	return receipt, nil
}

// Deploy creates a new instance of contract from its compiled artifact.
func (c *Client) Deploy(ctx context.Context, from *Account, contract contracts.ContractName, args ...any) (common.Address, error) {
	artifact, ok := c.artifacts[contract]
	if !ok {
		return common.Address{}, fmt.Errorf("%w for %s", ErrNoArtifact, contract)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	auth, err := c.transactor(ctx, from)
	if err != nil {
		return common.Address{}, err
	}

	address, tx, _, err := bind.DeployContract(auth, artifact.ABI, artifact.Bytecode, c.backend, args...)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to deploy %s: %w", contract, err)
	}

	c.logger.
		With("contract", contract).
		With("address", address.Hex()).
		With("tx_hash", tx.Hash().Hex()).
		Info("contract deployment transaction sent")

	if _, err := c.waitMined(ctx, tx); err != nil {
		return common.Address{}, fmt.Errorf("deployment of %s: %w", contract, err)
	}

	return address, nil
}

func (c *Client) waitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	receipt, err := bind.WaitMined(ctx, c.backend, tx)
	if err != nil {
		return nil, fmt.Errorf("failed to wait for transaction %s: %w", tx.Hash().Hex(), err)
	}

	if receipt.Status != types.ReceiptStatusSuccessful {
		return receipt, fmt.Errorf("%w: transaction %s failed with status %d", ErrCallReverted, tx.Hash().Hex(), receipt.Status)
	}

	return receipt, nil
}

func (c *Client) transactor(ctx context.Context, from *Account) (*bind.TransactOpts, error) {
	if from == nil || from.Key == nil {
		return nil, fmt.Errorf("no signing key")
	}

	chainID, err := c.ChainID(ctx)
	if err != nil {
		return nil, err
	}

	auth, err := bind.NewKeyedTransactorWithChainID(from.Key, chainID)
	if err != nil {
		return nil, fmt.Errorf("failed to create transactor: %w", err)
	}
	auth.Context = ctx

	return auth, nil
}

func (c *Client) bind(contract contracts.ContractName) (*bind.BoundContract, error) {
	address, err := c.registry.Get(contract)
	if err != nil {
		return nil, err
	}

	return bind.NewBoundContract(address, c.abiFor(contract), c.backend, c.backend, c.backend), nil
}

// abiFor prefers the compiled artifact ABI and falls back to the fixed
// signature table for contracts attached without one.
func (c *Client) abiFor(contract contracts.ContractName) abi.ABI {
	if artifact, ok := c.artifacts[contract]; ok {
		return artifact.ABI
	}
	return c.fallback
}

func isRevert(err error) bool {
	return strings.Contains(err.Error(), "execution reverted")
}
