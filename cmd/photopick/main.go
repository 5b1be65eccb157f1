package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"photopick/internal/interfaces/cli/bootstrap"
	"photopick/internal/interfaces/cli/ledger"
	"photopick/internal/interfaces/cli/migrate"
	"photopick/internal/interfaces/cli/server"
	"photopick/internal/interfaces/cli/sweep"
)

func main() {
	opts := &bootstrap.Options{}

	rootCmd := &cobra.Command{
		Use:          "photopick",
		Short:        "Photopick - photo uploads with per-owner quotas",
		Long:         `Photopick stores photos for owners and enforces the upload quota of each owner's plan.`,
		SilenceUsage: true,
	}
	opts.AddFlags(rootCmd)

	rootCmd.AddCommand(
		server.NewCommand(opts),
		migrate.NewCommand(opts),
		ledger.NewCommand(opts),
		sweep.NewCommand(opts),
	)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
