package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"teo-client-go/internal/agent"
	"teo-client-go/internal/common"
	"teo-client-go/internal/config"
	"teo-client-go/internal/events"
	"teo-client-go/internal/wallet"
)

func main() {
	unlinkFlag := flag.Bool("unlink", false, "Remove the current wallet link")
	statusFlag := flag.Bool("status", false, "Only show the current link status")
	yesFlag := flag.Bool("yes", false, "Sign without asking for confirmation (keystore agent only)")
	flag.Parse()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	prompt := common.ConsolePrompter(os.Stdin, os.Stdout)
	if *yesFlag {
		prompt = nil
	}
	services, err := common.InitializeServices(ctx, cfg, prompt)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	session, err := services.NewSession()
	if err != nil {
		zap.L().Fatal("Failed to create wallet session", zap.Error(err))
	}

	services.Bus.OnWalletUpdated(func(e events.WalletUpdated) {
		zap.L().Info("Wallet updated", zap.String("reason", e.Reason))
	})

	link, err := session.Restore(ctx)
	if err != nil {
		if errors.Is(err, wallet.ErrAuthRequired) {
			fmt.Println("Not signed in. Set TEO_TOKEN or run devbackend -issue-token.")
			os.Exit(1)
		}
		zap.L().Fatal("Failed to load wallet status", zap.Error(err))
	}

	switch {
	case *statusFlag:
		printLink(session)
		return

	case *unlinkFlag:
		if !link.IsLinked() {
			fmt.Println("No wallet linked.")
			return
		}
		if err := session.Unlink(ctx); err != nil {
			zap.L().Fatal("Failed to unlink wallet", zap.Error(err))
		}
		fmt.Printf("Unlinked %s\n", link.Address)
		return
	}

	if _, err := session.Connect(ctx); err != nil {
		switch {
		case errors.Is(err, agent.ErrUserRejected):
			fmt.Println("Request declined. No changes made.")
			return
		case errors.Is(err, wallet.ErrLinkRejected):
			fmt.Printf("Link rejected: %v\n", err)
		case errors.Is(err, wallet.ErrChainMismatch):
			fmt.Printf("Switch your wallet to %s and try again.\n", services.Network.ChainName)
		default:
			fmt.Printf("Wallet connection failed: %v\n", err)
		}
		os.Exit(1)
	}

	printLink(session)
}

func printLink(session *wallet.Session) {
	link := session.Link()
	if !link.IsLinked() {
		fmt.Println("No wallet linked.")
		return
	}
	fmt.Printf("Linked wallet: %s (since %s)\n", link.Address, link.LinkedAt.Format("2006-01-02 15:04:05"))
}
