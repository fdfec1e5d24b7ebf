package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"

	"teo-client-go/internal/models"
)

// EIP-1193 provider error codes.
const (
	codeUserRejected       = 4001
	codeUnauthorized       = 4100
	codeUnsupportedMethod  = 4200
	codeDisconnected       = 4900
	codeChainDisconnected  = 4901
	codeUnrecognizedChain  = 4902
	codeJSONMethodNotFound = -32601
)

// RPCAgent forwards requests to an EIP-1193 provider reachable over JSON-RPC,
// such as a browser-extension bridge or a hardware-wallet daemon.
type RPCAgent struct {
	url string

	mu     sync.Mutex
	client *rpc.Client
}

// NewRPCAgent creates an agent for url. The connection is established lazily.
func NewRPCAgent(url string) *RPCAgent {
	return &RPCAgent{url: url}
}

// Close releases the underlying connection.
func (a *RPCAgent) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.client != nil {
		a.client.Close()
		a.client = nil
	}
}

func (a *RPCAgent) conn(ctx context.Context) (*rpc.Client, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.client != nil {
		return a.client, nil
	}
	if a.url == "" {
		return nil, fmt.Errorf("%w: no agent url configured", ErrAgentUnavailable)
	}
	c, err := rpc.DialContext(ctx, a.url)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAgentUnavailable, err)
	}
	a.client = c
	return c, nil
}

func (a *RPCAgent) call(ctx context.Context, result interface{}, method string, args ...interface{}) error {
	c, err := a.conn(ctx)
	if err != nil {
		return err
	}
	if err := c.CallContext(ctx, result, method, args...); err != nil {
		return mapProviderError(method, err)
	}
	return nil
}

func mapProviderError(method string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		switch rpcErr.ErrorCode() {
		case codeUserRejected:
			return fmt.Errorf("%w: %s", ErrUserRejected, rpcErr.Error())
		case codeUnrecognizedChain:
			return fmt.Errorf("%w: %s", ErrChainUnrecognized, rpcErr.Error())
		case codeUnauthorized, codeUnsupportedMethod, codeDisconnected, codeChainDisconnected, codeJSONMethodNotFound:
			return fmt.Errorf("%w: %s: %s", ErrAgentUnavailable, method, rpcErr.Error())
		}
		return fmt.Errorf("%s: %w", method, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrAgentUnavailable, method, err)
}

func (a *RPCAgent) RequestAccounts(ctx context.Context) ([]string, error) {
	var accounts []string
	if err := a.call(ctx, &accounts, "eth_requestAccounts"); err != nil {
		return nil, err
	}
	return accounts, nil
}

type switchChainParams struct {
	ChainID string `json:"chainId"`
}

type addChainParams struct {
	ChainID           string                `json:"chainId"`
	ChainName         string                `json:"chainName"`
	RPCURLs           []string              `json:"rpcUrls"`
	NativeCurrency    models.NativeCurrency `json:"nativeCurrency"`
	BlockExplorerURLs []string              `json:"blockExplorerUrls,omitempty"`
}

func (a *RPCAgent) SwitchOrAddChain(ctx context.Context, network models.Network) error {
	chainID := hexutil.EncodeUint64(network.ChainID)

	err := a.call(ctx, nil, "wallet_switchEthereumChain", switchChainParams{ChainID: chainID})
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrChainUnrecognized) || network.RPCURL == "" {
		return err
	}

	zap.L().Info("Signing agent does not know chain, requesting add",
		zap.Uint64("chain_id", network.ChainID),
		zap.String("chain_name", network.ChainName))

	params := addChainParams{
		ChainID:        chainID,
		ChainName:      network.ChainName,
		RPCURLs:        []string{network.RPCURL},
		NativeCurrency: network.Currency,
	}
	if network.BlockExplorerURL != "" {
		params.BlockExplorerURLs = []string{network.BlockExplorerURL}
	}
	if err := a.call(ctx, nil, "wallet_addEthereumChain", params); err != nil {
		return err
	}
	return a.call(ctx, nil, "wallet_switchEthereumChain", switchChainParams{ChainID: chainID})
}

// PersonalSign hex-encodes the message so the provider signs its exact bytes
// even when the text itself looks like hex.
func (a *RPCAgent) PersonalSign(ctx context.Context, message, address string) (string, error) {
	var sig string
	if err := a.call(ctx, &sig, "personal_sign", hexutil.Encode([]byte(message)), address); err != nil {
		return "", err
	}
	return sig, nil
}
