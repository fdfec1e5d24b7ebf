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

package main

import (
	"context"
	"flag"
	"fmt"
	"math/big"
	"os"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"teo-client-go/internal/api"
	"teo-client-go/internal/common"
	"teo-client-go/internal/config"
	"teo-client-go/internal/models"
	"teo-client-go/internal/retry"
)

type operationRequest struct {
	kind    models.OperationKind
	amount  decimal.Decimal
	address string
	txHash  string
}

func parseAndValidateFlags() (*operationRequest, error) {
	amountFlag := flag.String("amount", "", "Amount of TEO (required)")
	stakeFlag := flag.Bool("stake", false, "Stake instead of withdrawing")
	burnFlag := flag.Bool("burn", false, "Burn TEO on-chain for platform credit (keystore agent only)")
	creditFlag := flag.String("credit-tx", "", "Credit an already mined burn transaction")
	addressFlag := flag.String("address", "", "Wallet address (default: the linked wallet)")
	flag.Parse()

	if *amountFlag == "" {
		return nil, fmt.Errorf("--amount is required")
	}
	amount, err := decimal.NewFromString(*amountFlag)
	if err != nil {
		return nil, fmt.Errorf("invalid amount format: %w", err)
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("amount must be greater than zero")
	}

	req := &operationRequest{kind: models.OperationWithdrawal, amount: amount, address: *addressFlag}
	switch {
	case *burnFlag || *creditFlag != "":
		req.kind = models.OperationBurnCredit
		req.txHash = *creditFlag
	case *stakeFlag:
		req.kind = models.OperationStake
	}
	return req, nil
}

func execute(ctx context.Context, services *common.Services, balances *api.BalanceService, req *operationRequest) (*models.BalanceResult, error) {
	switch req.kind {
	case models.OperationStake:
		return balances.Stake(ctx, req.address, req.amount)
	case models.OperationBurnCredit:
		if req.txHash != "" {
			return balances.CreditBurn(ctx, req.address, req.amount, req.txHash)
		}
		if services.Keystore == nil {
			return nil, fmt.Errorf("burning requires TEO_AGENT_KEY")
		}
		opts, err := services.Keystore.TransactOpts(ctx, new(big.Int).SetUint64(services.Network.ChainID))
		if err != nil {
			return nil, err
		}
		return balances.BurnForCredit(ctx, opts, req.address, req.amount)
	default:
		return balances.RequestWithdrawal(ctx, req.address, req.amount)
	}
}

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	req, err := parseAndValidateFlags()
	if err != nil {
		fmt.Println(err)
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	services, err := common.InitializeServices(ctx, cfg, nil)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	if req.address == "" {
		link, err := retry.Do(ctx, services.Retry, "get_wallet", services.Backend.GetWallet)
		if err != nil {
			zap.L().Fatal("Failed to load linked wallet", zap.Error(err))
		}
		if !link.IsLinked() {
			fmt.Println("No wallet linked. Run link first.")
			os.Exit(1)
		}
		req.address = link.Address
	}

	balances, err := services.NewBalanceService(ctx)
	if err != nil {
		zap.L().Fatal("Failed to initialize balance service", zap.Error(err))
	}

	zap.L().Info("Submitting wallet operation",
		zap.String("kind", string(req.kind)),
		zap.String("address", req.address),
		zap.String("amount", req.amount.String()))

	result, err := execute(ctx, services, balances, req)
	if err != nil {
		zap.L().Fatal("Wallet operation failed", zap.Error(err))
	}

	if !result.Success {
		fmt.Printf("\n%s failed: %s\n", result.Kind, result.Error)
		if result.TxHash != "" {
			fmt.Printf("   Burn tx %s was mined; retry with --credit-tx %s\n", result.TxHash, result.TxHash)
		}
		os.Exit(1)
	}

	fmt.Printf("\n%s submitted\n", result.Kind)
	fmt.Printf("   Amount:       %s\n", common.FormatTeo(&result.Amount))
	fmt.Printf("   Address:      %s\n", result.Address)
	fmt.Printf("   Confirmation: %s\n", result.ConfirmationId)
	if result.TxHash != "" {
		fmt.Printf("   Tx hash:      %s\n", result.TxHash)
	}
}
