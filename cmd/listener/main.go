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
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"teo-client-go/internal/common"
	"teo-client-go/internal/config"
	"teo-client-go/internal/discount"
	"teo-client-go/internal/events"
	"teo-client-go/internal/listener"
)

func main() {
	intervalFlag := flag.Duration("interval", 0, "Polling interval (default: TEO_POLL_INTERVAL)")
	flag.Parse()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	zap.L().Info("Starting TEO notification listener")

	services, err := common.InitializeServices(ctx, cfg, nil)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	interval := cfg.Listener.PollingInterval
	if *intervalFlag > 0 {
		interval = *intervalFlag
	}

	store := services.NewSnapshotStore()
	unbind := store.Bind(ctx, services.Bus, func(badge discount.Badge, err error) {
		if err != nil {
			zap.L().Warn("Badge refresh failed", zap.Error(err))
			return
		}
		zap.L().Info("Pending offers",
			zap.Int("count", badge.Count),
			zap.Bool("changed", badge.Changed))
	})
	defer unbind()

	services.Bus.OnWalletUpdated(func(e events.WalletUpdated) {
		zap.L().Info("Wallet updated", zap.String("reason", e.Reason))
	})

	l := listener.NewNotificationListener(services.Bus, interval)

	runErr := make(chan error, 1)
	go func() {
		runErr <- l.Run(ctx)
	}()

	zap.L().Info("Listener running", zap.Duration("interval", interval))
	zap.L().Info("Press Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
		zap.L().Info("Shutdown signal received, stopping listener...")
	case err := <-runErr:
		if err != nil {
			zap.L().Fatal("Listener exited", zap.Error(err))
		}
		return
	}

	done := make(chan struct{})
	go func() {
		l.Stop()
		close(done)
	}()

	select {
	case <-done:
		zap.L().Info("Listener stopped gracefully", zap.Int("polls", l.Ticks()))
	case <-time.After(30 * time.Second):
		zap.L().Warn("Forced shutdown after timeout")
	}
}
