// Package main provides the entry point for the Knotspot server application.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/do/v2"

	"github.com/knotspotapp/knotspot-server/internal/di"
	"github.com/knotspotapp/knotspot-server/internal/di/providers"
	"github.com/knotspotapp/knotspot-server/internal/logger"
)

func main() {
	// Create DI container
	injector := di.NewContainer()

	// Bootstrap all services
	if err := di.Bootstrap(injector); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap server: %v\n", err)
		os.Exit(1)
	}

	// Get logger for shutdown messages
	log := do.MustInvoke[*logger.Logger](injector)

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server gracefully...")

	// Shutdown all services in reverse order
	// The DI container handles shutdown order automatically
	if err := injector.Shutdown(); err != nil {
		log.Error("Shutdown error", "error", err)
	}

	// The store and journal use wrapper types, so close them explicitly
	if storeHandle, err := do.Invoke[*providers.StoreHandle](injector); err == nil {
		log.Info("Closing store...")
		if err := storeHandle.Shutdown(); err != nil {
			log.Error("Failed to close store", "error", err)
		} else {
			log.Info("Store closed successfully")
		}
	}

	if journalHandle, err := do.Invoke[*providers.JournalHandle](injector); err == nil {
		log.Info("Closing repair journal...")
		if err := journalHandle.Shutdown(); err != nil {
			log.Error("Failed to close repair journal", "error", err)
		} else {
			log.Info("Repair journal closed successfully")
		}
	}

	log.Info("See you space cowboy...")
}
