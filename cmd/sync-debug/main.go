// sync-debug runs one sync pass inline against real backend state, printing
// the outcome instead of publishing events. Useful for poking at a user's
// connection without deploying anything.
//
// Usage:
//
//	sync-debug -user u123 -provider fitbit -type manual
//	sync-debug -user u123 -provider fitbit -status
//	sync-debug -user u123 -provider fitbit -history
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/stridewell/healthsync/pkg/bootstrap"
	"github.com/stridewell/healthsync/pkg/connection"
	"github.com/stridewell/healthsync/pkg/provider"
	syncengine "github.com/stridewell/healthsync/pkg/sync"
	"github.com/stridewell/healthsync/pkg/types"
)

func main() {
	userID := flag.String("user", "", "user ID (required)")
	providerTag := flag.String("provider", "", "provider tag (required)")
	syncType := flag.String("type", "manual", "sync type: background, manual, initial, custom")
	lookback := flag.Int("lookback", 0, "explicit lookback in days (required for custom)")
	showStatus := flag.Bool("status", false, "print connection status instead of syncing")
	showHistory := flag.Bool("history", false, "print recent sync logs instead of syncing")
	timeout := flag.Duration("timeout", 5*time.Minute, "overall deadline")
	flag.Parse()

	if *userID == "" || *providerTag == "" {
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	svc, err := bootstrap.NewService(ctx)
	if err != nil {
		fatalf("service init: %v", err)
	}

	p, err := provider.New(*providerTag, *userID)
	if err != nil {
		fatalf("%v (registered: %v)", err, provider.Names())
	}

	logger := bootstrap.NewLogger("sync-debug", true)

	switch {
	case *showStatus:
		syncer := syncengine.NewOrchestrator(svc.DB, p, logger)
		m := connection.NewManager(svc.DB, p, syncer, logger)
		info, err := m.Status(ctx, *userID)
		if err != nil {
			fatalf("status: %v", err)
		}
		printStatus(info)

	case *showHistory:
		logs, err := svc.DB.GetSyncHistory(ctx, *userID, 10)
		if err != nil {
			fatalf("history: %v", err)
		}
		printHistory(logs)

	default:
		orchestrator := syncengine.NewOrchestrator(svc.DB, p, logger)
		result, err := orchestrator.Sync(ctx, *userID, syncengine.Options{
			Type:         types.SyncType(*syncType),
			LookbackDays: *lookback,
		})
		if err != nil {
			fatalf("sync: %v", err)
		}
		printResult(result)
	}
}

func printStatus(info *connection.StatusInfo) {
	fmt.Printf("status: %s\n", info.Status)
	if info.Connection != nil {
		fmt.Printf("connection: %s (active=%t)\n", info.Connection.ID, info.Connection.Active)
		fmt.Printf("granted: %v\n", info.Connection.GrantedCategories)
	}
	if info.LastSync != nil {
		fmt.Printf("last sync: %s\n", info.LastSync.Format(time.RFC3339))
	}
}

func printHistory(logs []types.SyncLog) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STARTED\tTYPE\tSTATUS\tPROCESSED\tINSERTED\tDEDUP\tERROR")
	for _, l := range logs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			l.StartedAt.Format(time.RFC3339), l.SyncType, l.Status,
			l.RecordsProcessed, l.RecordsInserted, l.RecordsDeduplicated, l.ErrorMessage)
	}
	w.Flush()
}

func printResult(result *types.SyncResult) {
	fmt.Printf("success: %t\n", result.Success)
	fmt.Printf("processed: %d\n", result.RecordsProcessed)
	fmt.Printf("inserted: %d\n", result.RecordsInserted)
	fmt.Printf("deduplicated: %d\n", result.RecordsDeduplicated)
	for _, e := range result.Errors {
		fmt.Printf("batch %d error: %s\n", e.Batch, e.Message)
	}
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
