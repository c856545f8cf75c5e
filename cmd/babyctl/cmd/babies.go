package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func BabiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "babies",
		Short: "List babies with their record counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := apiClient(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Cache().Close()

			babies, err := c.Babies(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tBORN\tGROWTH\tMILESTONES\tMEDIA")
			for _, b := range babies {
				fmt.Fprintf(w, "%s\t%s\t%s (%s)\t%d\t%d\t%d\n",
					b.ID, b.Name, b.BirthDate.Format(time.DateOnly), humanize.Time(b.BirthDate),
					b.Count.GrowthRecords, b.Count.Milestones, b.Count.MediaItems)
			}
			return w.Flush()
		},
	}
}
