// Package main provides a maintenance tool that lists and replays
// interrupted cascade deletes from the repair journal.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/samber/do/v2"

	"github.com/knotspotapp/knotspot-server/internal/di"
	"github.com/knotspotapp/knotspot-server/internal/service"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cmd := "list"
	if len(args) > 0 {
		cmd = args[0]
	}

	// The container resolves lazily, so only the store, journal and
	// cascade layers spin up here. No HTTP server, no mDNS.
	injector := di.NewContainer()
	defer func() { _ = injector.Shutdown() }()

	repairer := do.MustInvoke[*service.RepairService](injector)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	switch cmd {
	case "list":
		return listOpen(ctx, repairer)
	case "replay":
		if len(args) < 2 {
			return fmt.Errorf("usage: repair replay <journal-id>")
		}
		return replay(ctx, repairer, args[1])
	case "replay-all":
		return replayAll(ctx, repairer)
	default:
		return fmt.Errorf("unknown command %q (expected list, replay or replay-all)", cmd)
	}
}

func listOpen(ctx context.Context, repairer *service.RepairService) error {
	records, err := repairer.ListOpen(ctx)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("No open journal records.")
		return nil
	}

	fmt.Printf("%d open journal record(s):\n\n", len(records))
	for _, rec := range records {
		fmt.Printf("  %s\n", rec.ID)
		fmt.Printf("    entity:    %s %s\n", rec.EntityKind, rec.EntityID)
		fmt.Printf("    remaining: %d path(s)\n", len(rec.RemainingPaths))
		fmt.Printf("    created:   %s\n", rec.CreatedAt.Format(time.RFC3339))
		if rec.Error != "" {
			fmt.Printf("    error:     %s\n", rec.Error)
		}
		fmt.Println()
	}
	return nil
}

func replay(ctx context.Context, repairer *service.RepairService, journalID string) error {
	if err := repairer.Replay(ctx, journalID); err != nil {
		return fmt.Errorf("replay %s: %w", journalID, err)
	}
	fmt.Printf("Replayed %s\n", journalID)
	return nil
}

func replayAll(ctx context.Context, repairer *service.RepairService) error {
	records, err := repairer.ListOpen(ctx)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("No open journal records.")
		return nil
	}

	failed := 0
	for _, rec := range records {
		if err := repairer.Replay(ctx, rec.ID); err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "Failed to replay %s: %v\n", rec.ID, err)
			continue
		}
		fmt.Printf("Replayed %s\n", rec.ID)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d record(s) failed", failed, len(records))
	}
	return nil
}
