package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/mantle-armada/bootstrap/internal/contracts"
	"github.com/mantle-armada/bootstrap/internal/infra/filesystem"
	"github.com/mantle-armada/bootstrap/internal/logger"
)

var (
	ErrNotFound       = errors.New("contract not found in registry")
	ErrInvalidAddress = errors.New("invalid contract address")
)

// Registry maps logical contract names to deployed addresses. It starts from a
// baseline of previously deployed contracts and grows as new ones are deployed.
type Registry struct {
	mu        sync.RWMutex
	addresses map[contracts.ContractName]common.Address
	logger    *slog.Logger
}

// Load creates a registry seeded with the baseline addresses.
func Load(baseline map[contracts.ContractName]common.Address) (*Registry, error) {
	r := &Registry{
		addresses: make(map[contracts.ContractName]common.Address, len(baseline)),
		logger:    logger.Named("address_registry"),
	}

	for _, name := range sortedNames(baseline) {
		if err := r.Set(name, baseline[name]); err != nil {
			return nil, fmt.Errorf("invalid baseline entry %s: %w", name, err)
		}
	}

	return r, nil
}

// ParseAddress accepts only 0x-prefixed, 20-byte hex addresses.
func ParseAddress(s string) (common.Address, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return common.Address{}, fmt.Errorf("%w: '%s' is missing the 0x prefix", ErrInvalidAddress, s)
	}
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("%w: '%s' is not a 20-byte hex address", ErrInvalidAddress, s)
	}

	return common.HexToAddress(s), nil
}

// Set records the address of a contract. The zero address is rejected; an
// address already held by another name is accepted but logged.
func (r *Registry) Set(name contracts.ContractName, address common.Address) error {
	if address == (common.Address{}) {
		return fmt.Errorf("%w: zero address for %s", ErrInvalidAddress, name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for other, existing := range r.addresses {
		if other != name && existing == address {
			r.logger.
				With("name", name).
				With("other", other).
				With("address", address.Hex()).
				Warn("address already registered under another name")
		}
	}

	r.addresses[name] = address

	return nil
}

// Get returns the address registered under name or ErrNotFound.
func (r *Registry) Get(name contracts.ContractName) (common.Address, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	address, ok := r.addresses[name]
	if !ok {
		return common.Address{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	return address, nil
}

// Has reports whether name is registered.
func (r *Registry) Has(name contracts.ContractName) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.addresses[name]
	return ok
}

// Merge adds the entries of addresses whose names are not registered yet and
// returns those names in lexical order. Existing entries are kept.
func (r *Registry) Merge(addresses map[contracts.ContractName]common.Address) ([]contracts.ContractName, error) {
	var added []contracts.ContractName
	for _, name := range sortedNames(addresses) {
		if r.Has(name) {
			continue
		}
		if err := r.Set(name, addresses[name]); err != nil {
			return added, err
		}
		added = append(added, name)
	}

	return added, nil
}

// Names returns the registered names in lexical order.
func (r *Registry) Names() []contracts.ContractName {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return sortedNames(r.addresses)
}

// Snapshot returns a copy of the registered addresses.
func (r *Registry) Snapshot() map[contracts.ContractName]common.Address {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[contracts.ContractName]common.Address, len(r.addresses))
	for name, address := range r.addresses {
		out[name] = address
	}
	return out
}

// Collisions groups names that share one address. Only addresses held by
// more than one name are returned.
func (r *Registry) Collisions() map[common.Address][]contracts.ContractName {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byAddress := make(map[common.Address][]contracts.ContractName)
	for _, name := range sortedNames(r.addresses) {
		address := r.addresses[name]
		byAddress[address] = append(byAddress[address], name)
	}

	for address, names := range byAddress {
		if len(names) < 2 {
			delete(byAddress, address)
		}
	}

	return byAddress
}

// Persist overwrites path with {"<chainID>": {"<name>": "<address>"}}.
func (r *Registry) Persist(writer filesystem.Writer, path string, chainID uint64) error {
	addresses := make(map[string]string)
	for name, address := range r.Snapshot() {
		addresses[string(name)] = address.Hex()
	}

	document := map[string]map[string]string{
		strconv.FormatUint(chainID, 10): addresses,
	}

	if err := writer.WriteJSON(path, document); err != nil {
		return fmt.Errorf("failed to persist address registry: %w", err)
	}

	r.logger.
		With("path", path).
		With("chain_id", chainID).
		With("count", len(addresses)).
		Info("address registry persisted")

	return nil
}

// ReadPersisted loads the addresses persisted for chainID. A missing chain
// entry yields an empty map.
func ReadPersisted(reader filesystem.Reader, path string, chainID uint64) (map[contracts.ContractName]common.Address, error) {
	var document map[string]map[string]string
	if err := reader.ReadJSON(path, &document); err != nil {
		return nil, fmt.Errorf("failed to read address registry: %w", err)
	}

	entries := document[strconv.FormatUint(chainID, 10)]
	addresses := make(map[contracts.ContractName]common.Address, len(entries))
	for name, hex := range entries {
		address, err := ParseAddress(hex)
		if err != nil {
			return nil, fmt.Errorf("persisted entry %s: %w", name, err)
		}
		addresses[contracts.ContractName(name)] = address
	}

	return addresses, nil
}

func sortedNames(m map[contracts.ContractName]common.Address) []contracts.ContractName {
	names := make([]contracts.ContractName, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
