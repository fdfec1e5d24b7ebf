/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package api

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/shopspring/decimal"

	"teo-client-go/internal/backend"
	"teo-client-go/internal/events"
	"teo-client-go/internal/models"
	"teo-client-go/internal/retry"
	"teo-client-go/internal/token"
)

// LedgerBackend is the backend surface for balance operations.
type LedgerBackend interface {
	HealthCheck(ctx context.Context) error
	CreditBurn(ctx context.Context, req models.BurnCreditRequest) (*models.OperationConfirmation, error)
	RequestWithdrawal(ctx context.Context, req models.AmountRequest) (*models.OperationConfirmation, error)
	Stake(ctx context.Context, req models.AmountRequest) (*models.OperationConfirmation, error)
}

var _ LedgerBackend = (*backend.Client)(nil)

// Token is the on-chain TEO surface.
type Token interface {
	BalanceOf(ctx context.Context, address string) (decimal.Decimal, error)
	Burn(opts *bind.TransactOpts, amount decimal.Decimal) (string, error)
}

var _ Token = (*token.Contract)(nil)

// BalanceService drives burn-for-credit, withdrawal and staking
type BalanceService struct {
	backend LedgerBackend
	token   Token
	events  events.Publisher
	retry   retry.Policy
}

// NewBalanceService builds the service. tok may be nil when no token contract
// is configured for the network; on-chain operations then fail.
func NewBalanceService(b LedgerBackend, tok Token, pub events.Publisher, p retry.Policy) *BalanceService {
	return &BalanceService{
		backend: b,
		token:   tok,
		events:  pub,
		retry:   p,
	}
}

func (s *BalanceService) HealthCheck(ctx context.Context) error {
	if err := s.backend.HealthCheck(ctx); err != nil {
		return fmt.Errorf("backend health check failed: %w", err)
	}
	return nil
}

func (s *BalanceService) walletUpdated(reason string) {
	if s.events != nil {
		s.events.Publish(events.WalletUpdated{Reason: reason})
	}
}
