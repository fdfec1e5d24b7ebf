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

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"teo-client-go/internal/agent"
	"teo-client-go/internal/retry"
)

// Balance returns the on-chain TEO balance of address
func (s *BalanceService) Balance(ctx context.Context, address string) (decimal.Decimal, error) {
	if s.token == nil {
		return decimal.Zero, fmt.Errorf("token contract not configured")
	}

	normalized, err := agent.NormalizeAddress(address)
	if err != nil {
		return decimal.Zero, err
	}

	balance, err := retry.Do(ctx, s.retry, "balance_of", func(ctx context.Context) (decimal.Decimal, error) {
		return s.token.BalanceOf(ctx, normalized)
	})
	if err != nil {
		zap.L().Error("Failed to get token balance",
			zap.String("address", normalized),
			zap.Error(err))
		return decimal.Zero, fmt.Errorf("failed to retrieve balance: %w", err)
	}

	return balance, nil
}
