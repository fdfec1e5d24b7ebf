// Package token is the narrow call surface of the TEO ERC-20 contract:
// balanceOf and burn. Minting is done by the backend only.
package token

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultDecimals is the TEO token precision.
const DefaultDecimals = 18

const teoABI = `[
	{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"decimals","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]},
	{"type":"function","name":"burn","stateMutability":"nonpayable","inputs":[{"name":"amount","type":"uint256"}],"outputs":[]}
]`

var parsedABI = mustParseABI()

func mustParseABI() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(teoABI))
	if err != nil {
		panic(fmt.Sprintf("token: invalid ABI: %v", err))
	}
	return parsed
}

// Contract is a bound TEO token.
type Contract struct {
	address  common.Address
	bound    *bind.BoundContract
	decimals int32
}

// New binds the token at address through backend.
func New(address string, backend bind.ContractBackend) (*Contract, error) {
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("invalid token address %q", address)
	}
	addr := common.HexToAddress(address)
	return &Contract{
		address:  addr,
		bound:    bind.NewBoundContract(addr, parsedABI, backend, backend, backend),
		decimals: DefaultDecimals,
	}, nil
}

// Dial connects to rpcURL and binds the token there.
func Dial(ctx context.Context, rpcURL, address string) (*Contract, *ethclient.Client, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, nil, fmt.Errorf("dialing chain rpc: %w", err)
	}
	c, err := New(address, client)
	if err != nil {
		client.Close()
		return nil, nil, err
	}
	return c, client, nil
}

// Address returns the contract address.
func (c *Contract) Address() common.Address {
	return c.address
}

// LoadDecimals reads the precision from the contract.
func (c *Contract) LoadDecimals(ctx context.Context) (int32, error) {
	var out []interface{}
	if err := c.bound.Call(&bind.CallOpts{Context: ctx}, &out, "decimals"); err != nil {
		return 0, fmt.Errorf("calling decimals: %w", err)
	}
	d := *abi.ConvertType(out[0], new(uint8)).(*uint8)
	c.decimals = int32(d)
	return c.decimals, nil
}

// BalanceOf returns address's balance in whole TEO.
func (c *Contract) BalanceOf(ctx context.Context, address string) (decimal.Decimal, error) {
	if !common.IsHexAddress(address) {
		return decimal.Zero, fmt.Errorf("invalid address %q", address)
	}

	var out []interface{}
	if err := c.bound.Call(&bind.CallOpts{Context: ctx}, &out, "balanceOf", common.HexToAddress(address)); err != nil {
		return decimal.Zero, fmt.Errorf("calling balanceOf: %w", err)
	}
	raw := *abi.ConvertType(out[0], new(*big.Int)).(**big.Int)
	return FromBaseUnits(raw, c.decimals), nil
}

// Burn destroys amount TEO from the signer's balance and returns the tx hash.
func (c *Contract) Burn(opts *bind.TransactOpts, amount decimal.Decimal) (string, error) {
	units, err := ToBaseUnits(amount, c.decimals)
	if err != nil {
		return "", err
	}
	if units.Sign() <= 0 {
		return "", fmt.Errorf("burn amount must be positive")
	}

	tx, err := c.bound.Transact(opts, "burn", units)
	if err != nil {
		return "", fmt.Errorf("sending burn: %w", err)
	}

	zap.L().Info("Burn transaction sent",
		zap.String("from", strings.ToLower(opts.From.Hex())),
		zap.String("amount", amount.String()),
		zap.String("tx_hash", tx.Hash().Hex()))

	return tx.Hash().Hex(), nil
}

// FromBaseUnits converts smallest units to a whole-token decimal.
func FromBaseUnits(raw *big.Int, decimals int32) decimal.Decimal {
	if raw == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(raw, -decimals)
}

// ToBaseUnits converts a whole-token amount to smallest units, rejecting
// amounts finer than the token precision.
func ToBaseUnits(amount decimal.Decimal, decimals int32) (*big.Int, error) {
	shifted := amount.Shift(decimals)
	if !shifted.Equal(shifted.Truncate(0)) {
		return nil, fmt.Errorf("amount %s has more than %d decimals", amount, decimals)
	}
	return shifted.BigInt(), nil
}
