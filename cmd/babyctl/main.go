package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/templui/babybook/cmd/babyctl/cmd"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "babyctl",
		Short:        "Command line tools for babybook",
		SilenceUsage: true,
	}

	cmd.AddGlobalFlags(rootCmd)
	rootCmd.AddCommand(cmd.MigrateCmd())
	rootCmd.AddCommand(cmd.BabiesCmd())
	rootCmd.AddCommand(cmd.UploadCmd())
	rootCmd.AddCommand(cmd.BlobsCmd())
	rootCmd.AddCommand(cmd.TokenCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
