package agent

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"teo-client-go/internal/models"
)

// Prompter asks the user to approve a signature. Returning false rejects it.
type Prompter func(ctx context.Context, message, address string) (bool, error)

// KeystoreAgent is an in-process signing agent holding one private key.
type KeystoreAgent struct {
	key     *ecdsa.PrivateKey
	address string
	prompt  Prompter

	mu     sync.Mutex
	chains map[uint64]models.Network
	active uint64
}

// KeystoreOption configures a KeystoreAgent.
type KeystoreOption func(*KeystoreAgent)

// WithPrompter installs a per-signature approval hook.
func WithPrompter(p Prompter) KeystoreOption {
	return func(k *KeystoreAgent) {
		k.prompt = p
	}
}

// WithKnownChains pre-registers chains the agent can switch to without adding.
func WithKnownChains(networks ...models.Network) KeystoreOption {
	return func(k *KeystoreAgent) {
		for _, n := range networks {
			k.chains[n.ChainID] = n
		}
	}
}

// NewKeystoreAgent parses a hex private key (with or without 0x).
func NewKeystoreAgent(keyHex string, opts ...KeystoreOption) (*KeystoreAgent, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(keyHex), "0x"))
	if err != nil {
		return nil, fmt.Errorf("parsing private key: %w", err)
	}
	return NewKeystoreAgentFromKey(key, opts...), nil
}

// NewKeystoreAgentFromKey wraps an existing key.
func NewKeystoreAgentFromKey(key *ecdsa.PrivateKey, opts ...KeystoreOption) *KeystoreAgent {
	k := &KeystoreAgent{
		key:     key,
		address: strings.ToLower(crypto.PubkeyToAddress(key.PublicKey).Hex()),
		chains:  make(map[uint64]models.Network),
	}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// Address returns the lowercase address of the held key.
func (k *KeystoreAgent) Address() string {
	return k.address
}

// ActiveChain returns the chain id last switched to, 0 if none.
func (k *KeystoreAgent) ActiveChain() uint64 {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.active
}

func (k *KeystoreAgent) RequestAccounts(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return []string{k.address}, nil
}

func (k *KeystoreAgent) SwitchOrAddChain(ctx context.Context, network models.Network) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if network.ChainID == 0 {
		return fmt.Errorf("chain id cannot be zero")
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	if _, ok := k.chains[network.ChainID]; !ok {
		if network.RPCURL == "" {
			return fmt.Errorf("%w: chain %d", ErrChainUnrecognized, network.ChainID)
		}
		zap.L().Info("Adding chain to keystore agent",
			zap.Uint64("chain_id", network.ChainID),
			zap.String("chain_name", network.ChainName))
		k.chains[network.ChainID] = network
	}
	k.active = network.ChainID
	return nil
}

func (k *KeystoreAgent) PersonalSign(ctx context.Context, message, address string) (string, error) {
	if !SameAddress(address, k.address) {
		return "", fmt.Errorf("%w: %s", ErrUnknownAccount, address)
	}
	if k.prompt != nil {
		ok, err := k.prompt(ctx, message, k.address)
		if err != nil {
			return "", fmt.Errorf("prompting for signature: %w", err)
		}
		if !ok {
			return "", ErrUserRejected
		}
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return SignPersonal(k.key, message)
}

// TransactOpts returns signer options for on-chain calls made with the held key.
func (k *KeystoreAgent) TransactOpts(ctx context.Context, chainID *big.Int) (*bind.TransactOpts, error) {
	opts, err := bind.NewKeyedTransactorWithChainID(k.key, chainID)
	if err != nil {
		return nil, fmt.Errorf("building transactor: %w", err)
	}
	opts.Context = ctx
	return opts, nil
}
