package chain

import (
	"crypto/ecdsa"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Account is a signing identity. Only Address is ever logged or persisted.
type Account struct {
	Key     *ecdsa.PrivateKey
	Address common.Address
}

// NewAccount parses a hex private key, with or without the 0x prefix.
func NewAccount(privateKeyHex string) (*Account, error) {
	privateKeyHex = strings.TrimPrefix(strings.TrimSpace(privateKeyHex), "0x")

	privateKey, err := crypto.HexToECDSA(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	return accountFromKey(privateKey)
}

// GenerateAccount creates an account with a fresh random key.
func GenerateAccount() (*Account, error) {
	privateKey, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate private key: %w", err)
	}

	return accountFromKey(privateKey)
}

func accountFromKey(privateKey *ecdsa.PrivateKey) (*Account, error) {
	publicKeyECDSA, ok := privateKey.Public().(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("failed to cast public key to ECDSA")
	}

	return &Account{
		Key:     privateKey,
		Address: crypto.PubkeyToAddress(*publicKeyECDSA),
	}, nil
}

func (a *Account) String() string {
	return a.Address.Hex()
}

func (a *Account) LogValue() slog.Value {
	return slog.StringValue(a.Address.Hex())
}
