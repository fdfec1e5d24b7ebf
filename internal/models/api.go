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

package models

import (
	"github.com/shopspring/decimal"
)

// OperationKind names a balance-management operation
type OperationKind string

const (
	OperationBurnCredit OperationKind = "burn_credit"
	OperationWithdrawal OperationKind = "withdrawal"
	OperationStake      OperationKind = "stake"
)

// BurnCreditRequest asks the backend to credit an on-chain burn
type BurnCreditRequest struct {
	Address string          `json:"address"`
	Amount  decimal.Decimal `json:"amount"`
	TxHash  string          `json:"txHash"`
}

// AmountRequest carries withdrawal and stake requests
type AmountRequest struct {
	Address        string          `json:"address"`
	Amount         decimal.Decimal `json:"amount"`
	IdempotencyKey string          `json:"idempotencyKey"`
}

// OperationConfirmation is the backend's receipt for a balance operation
type OperationConfirmation struct {
	Id      string          `json:"id"`
	Kind    OperationKind   `json:"kind"`
	Address string          `json:"address"`
	Amount  decimal.Decimal `json:"amount"`
	Status  string          `json:"status"`
	TxHash  string          `json:"txHash,omitempty"`
}

// BalanceResult represents the result of a balance-management operation
type BalanceResult struct {
	Success        bool            `json:"success"`
	Kind           OperationKind   `json:"kind,omitempty"`
	Address        string          `json:"address,omitempty"`
	Amount         decimal.Decimal `json:"amount,omitempty"`
	TxHash         string          `json:"tx_hash,omitempty"`
	ConfirmationId string          `json:"confirmation_id,omitempty"`
	Error          string          `json:"error,omitempty"`
}
