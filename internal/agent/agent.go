// Package agent abstracts the external signing agent that holds the user's keys.
//
// Implementations: RPCAgent bridges an EIP-1193 provider over JSON-RPC and
// KeystoreAgent signs in-process with a single secp256k1 key.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"teo-client-go/internal/models"
)

// Sentinel errors shared by all agents.
var (
	// ErrAgentUnavailable means no signing agent could be reached.
	ErrAgentUnavailable = errors.New("signing agent unavailable")

	// ErrUserRejected means the user declined the prompt. It is an expected outcome.
	ErrUserRejected = errors.New("request rejected by user")

	// ErrChainUnrecognized means the agent does not know the requested chain.
	ErrChainUnrecognized = errors.New("chain not recognized by signing agent")

	// ErrUnknownAccount means the agent does not control the requested address.
	ErrUnknownAccount = errors.New("account not controlled by signing agent")
)

// Adapter is the capability set the wallet handshake needs from a signing agent.
type Adapter interface {
	// RequestAccounts returns the accounts the user exposes, active account first.
	RequestAccounts(ctx context.Context) ([]string, error)
	// SwitchOrAddChain makes network the active chain, adding it if the agent
	// does not recognize it and network carries an RPC URL.
	SwitchOrAddChain(ctx context.Context, network models.Network) error
	// PersonalSign signs message exactly as given with the key behind address.
	PersonalSign(ctx context.Context, message, address string) (string, error)
}

// NormalizeAddress validates a hex address and returns it lowercased.
func NormalizeAddress(address string) (string, error) {
	if !common.IsHexAddress(address) {
		return "", fmt.Errorf("invalid address %q", address)
	}
	return strings.ToLower(common.HexToAddress(address).Hex()), nil
}

// SameAddress compares two hex addresses case-insensitively.
func SameAddress(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
