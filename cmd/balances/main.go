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
	"os"

	"go.uber.org/zap"

	"teo-client-go/internal/common"
	"teo-client-go/internal/config"
	"teo-client-go/internal/retry"
)

func resolveAddress(ctx context.Context, services *common.Services, flagAddress string) (string, error) {
	if flagAddress != "" {
		return flagAddress, nil
	}
	link, err := retry.Do(ctx, services.Retry, "get_wallet", services.Backend.GetWallet)
	if err != nil {
		return "", fmt.Errorf("failed to load linked wallet: %w", err)
	}
	if !link.IsLinked() {
		return "", fmt.Errorf("no wallet linked; pass --address or run link first")
	}
	return link.Address, nil
}

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	addressFlag := flag.String("address", "", "Address to query (default: the linked wallet)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	services, err := common.InitializeServices(ctx, cfg, nil)
	if err != nil {
		logger.Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	address, err := resolveAddress(ctx, services, *addressFlag)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	balances, err := services.NewBalanceService(ctx)
	if err != nil {
		logger.Fatal("Failed to connect to token contract", zap.Error(err))
	}

	balance, err := balances.Balance(ctx, address)
	if err != nil {
		logger.Fatal("Failed to query balance", zap.String("address", address), zap.Error(err))
	}

	common.PrintHeader("TEO BALANCE", common.DefaultWidth)
	fmt.Printf("%sNetwork: %s (chain %d)\n", common.BoxPrefix(false), services.Network.ChainName, services.Network.ChainID)
	fmt.Printf("%sAddress: %s\n", common.BoxPrefix(false), address)
	fmt.Printf("%sBalance: %s\n", common.BoxPrefix(true), common.FormatTeo(&balance))
	common.PrintFooter("On-chain balance via "+common.ShortAddress(services.Network.TokenAddress), common.DefaultWidth)

	logger.Info("Balance query completed",
		zap.String("address", address),
		zap.String("balance", balance.String()))
}
