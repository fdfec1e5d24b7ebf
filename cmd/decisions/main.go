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

	"teo-client-go/internal/backend"
	"teo-client-go/internal/common"
	"teo-client-go/internal/config"
	"teo-client-go/internal/discount"
	"teo-client-go/internal/models"
)

const sessionExpired = "Session expired. Sign in again (devbackend -issue-token -save)."

type consoleNotifier struct{}

func (consoleNotifier) Confirm(message string) { fmt.Println("✓ " + message) }
func (consoleNotifier) Fail(message string)    { fmt.Println("✗ " + message) }

func printSnapshots(snapshots []models.DiscountSnapshot) {
	if len(snapshots) == 0 {
		fmt.Println("No pending discount offers.")
		return
	}
	for i, snap := range snapshots {
		isLast := i == len(snapshots)-1
		ref := fmt.Sprintf("snapshot %d", snap.ID)
		if snap.PendingDecisionID != nil {
			ref = fmt.Sprintf("decision %d", *snap.PendingDecisionID)
		}
		fmt.Printf("%s%-30s %-16s %14s  (%s)\n",
			common.BoxPrefix(isLast),
			snap.CourseTitle,
			snap.StudentLabel,
			common.FormatTeo(snap.OfferedTeacherTeo),
			ref)
	}
}

func printView(v discount.View) {
	fmt.Printf("\nDecision %d: %s\n", v.ID, v.Status)
	fmt.Printf("%sCourse:  %s\n", common.BoxDetailPrefix(false), v.CourseTitle)
	fmt.Printf("%sStudent: %s\n", common.BoxDetailPrefix(false), v.StudentLabel)
	fmt.Printf("%sTEO:     %s\n", common.BoxDetailPrefix(false), common.FormatTeo(v.Teo))
	if v.IfAccepted != nil && v.IfDeclined != nil {
		fmt.Printf("%sIf accepted: %s fiat + %s\n", common.BoxDetailPrefix(false), v.IfAccepted.Fiat.StringFixed(2), common.FormatTeo(&v.IfAccepted.Teo))
		fmt.Printf("%sIf declined: %s fiat + %s\n", common.BoxDetailPrefix(false), v.IfDeclined.Fiat.StringFixed(2), common.FormatTeo(&v.IfDeclined.Teo))
	}
	actions := "none"
	if v.CanAccept {
		actions = "accept, decline"
	}
	fmt.Printf("%sActions: %s\n", common.BoxDetailPrefix(true), actions)
}

func main() {
	showFlag := flag.Int64("show", 0, "Show one decision (a snapshot id is resolved too)")
	acceptFlag := flag.Int64("accept", 0, "Accept the decision with this id")
	declineFlag := flag.Int64("decline", 0, "Decline the decision with this id")
	flag.Parse()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	services, err := common.InitializeServices(ctx, cfg, nil)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	if !services.Tokens.Authenticated() {
		fmt.Println("Not signed in. Set TEO_TOKEN or run devbackend -issue-token.")
		os.Exit(1)
	}

	switch {
	case *acceptFlag > 0 || *declineFlag > 0:
		gateway := services.NewGateway(consoleNotifier{})
		var outcome *discount.ActionOutcome
		if *acceptFlag > 0 {
			outcome, err = gateway.Accept(ctx, models.DecisionID(*acceptFlag))
		} else {
			outcome, err = gateway.Decline(ctx, models.DecisionID(*declineFlag))
		}
		if err != nil {
			zap.L().Warn("Failed to refresh decision after action", zap.Error(err))
		}
		if outcome != nil && outcome.Conflict {
			fmt.Println("This offer was already resolved. Current state:")
		}
		if outcome != nil && outcome.View != nil {
			printView(*outcome.View)
		}
		if outcome == nil || !outcome.Success {
			os.Exit(1)
		}

	case *showFlag > 0:
		d, err := services.NewReconciler().Resolve(ctx, models.DecisionID(*showFlag))
		if err != nil {
			switch {
			case backend.IsUnauthorized(err):
				fmt.Println(sessionExpired)
			case errors.Is(err, discount.ErrNoLinkedDecision), backend.IsNotFound(err):
				fmt.Printf("No decision found for %d.\n", *showFlag)
			case errors.Is(err, discount.ErrRecoveryFailed):
				fmt.Println("Unable to load this offer right now. Please try again.")
			default:
				fmt.Printf("Failed to load decision: %v\n", err)
			}
			os.Exit(1)
		}
		printView(discount.ViewOf(d))

	default:
		store := services.NewSnapshotStore()
		snapshots, err := store.List(ctx)
		if backend.IsUnauthorized(err) {
			fmt.Println(sessionExpired)
			os.Exit(1)
		}
		if err != nil {
			zap.L().Fatal("Failed to list pending offers", zap.Error(err))
		}
		common.PrintHeader("PENDING DISCOUNT OFFERS", common.DefaultWidth)
		printSnapshots(snapshots)
		common.PrintFooter(fmt.Sprintf("%d pending", len(snapshots)), common.DefaultWidth)
	}
}
