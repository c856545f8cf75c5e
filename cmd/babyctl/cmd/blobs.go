package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/templui/babybook/internal/app"
)

func BlobsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blobs",
		Short: "Stored object maintenance",
	}

	cmd.AddCommand(blobsSweepCmd())
	return cmd
}

func blobsSweepCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Retry deleting objects whose cleanup failed after their record was removed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New(cmd.Context(), loadConfig())
			if err != nil {
				return err
			}
			defer a.Close()

			deleted, failed, err := a.MediaService.SweepOrphans(cmd.Context(), limit)
			if err != nil {
				return err
			}
			fmt.Printf("deleted %d, still failing %d\n", deleted, failed)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 100, "maximum objects to retry")
	return cmd
}
