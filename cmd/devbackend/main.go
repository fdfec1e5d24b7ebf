package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"teo-client-go/internal/auth"
	"teo-client-go/internal/common"
	"teo-client-go/internal/config"
	"teo-client-go/internal/devserver"
)

func main() {
	seedFlag := flag.Bool("seed", false, "Insert the demo teacher and pending offers")
	issueFlag := flag.String("issue-token", "", "Print an access token for this user id and exit")
	saveFlag := flag.Bool("save", false, "With -issue-token, also write the token file (TEO_TOKEN_FILE)")
	usersFlag := flag.Bool("users", false, "List users and exit")
	flag.Parse()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	ctx := context.Background()
	dbService, err := common.InitializeDatabase(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbService.Close()

	if *seedFlag {
		result, err := devserver.SeedDemo(ctx, dbService, time.Now())
		if err != nil {
			logger.Fatal("Failed to seed demo data", zap.Error(err))
		}
		fmt.Printf("Seeded user %s with %d snapshots\n", result.UserId, len(result.SnapshotIds))
	}

	if *usersFlag {
		users, err := common.InitializeUsers(ctx, dbService, "", logger)
		if err != nil {
			logger.Fatal("Failed to list users", zap.Error(err))
		}
		for i, u := range users {
			fmt.Printf("%s%s  %s <%s>\n", common.BoxPrefix(i == len(users)-1), u.Id, u.Name, u.Email)
		}
		return
	}

	srv, err := devserver.New(cfg.Dev, dbService)
	if err != nil {
		logger.Fatal("Failed to create server", zap.Error(err))
	}

	if *issueFlag != "" {
		if _, err := common.InitializeUsers(ctx, dbService, *issueFlag, logger); err != nil {
			logger.Fatal("Cannot issue token", zap.String("user_id", *issueFlag), zap.Error(err))
		}
		token, err := srv.IssueToken(*issueFlag)
		if err != nil {
			logger.Fatal("Failed to issue token", zap.Error(err))
		}
		if *saveFlag {
			expiresAt, _ := auth.ExpiryOf(token)
			if err := auth.Save(cfg.API.TokenFile, token, expiresAt); err != nil {
				logger.Fatal("Failed to save token", zap.Error(err))
			}
			logger.Info("Token saved", zap.String("file", cfg.API.TokenFile))
		}
		fmt.Println(token)
		return
	}

	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutdown signal received, stopping server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Forced shutdown", zap.Error(err))
	}
}
