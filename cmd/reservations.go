package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/eldorado-park/parkctl/internal"
	"github.com/eldorado-park/parkctl/internal/ui"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(reservationsCmd)
}

var reservationsCmd = &cobra.Command{
	Use:   "reservations",
	Short: "List your active parking reservations",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, store := openSession()
		client := newClient(cfg, store)

		res, err := ui.Spin("Loading reservations...", func() (any, error) {
			ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
			defer cancel()
			reservations, err := client.ActiveReservations(ctx)
			return reservations, err
		})
		if err != nil {
			fail(err)
		}

		reservations := res.([]internal.Reservation)
		if len(reservations) == 0 {
			fmt.Println("📭 No active reservations.")
			return
		}

		header := color.New(color.FgCyan, color.Bold).SprintFunc()
		fmt.Printf("%-25s %-12s %-20s %-20s\n",
			header("LOCATION"), header("SECTOR"), header("BEGINS"), header("ENDS"))
		fmt.Println(strings.Repeat("-", 80))
		for _, r := range reservations {
			location := fmt.Sprintf("%s, %s", r.City, r.Street)
			fmt.Printf("%-25s %-12s %-20s %-20s\n",
				truncateText(location, 23),
				r.SectorName,
				internal.FormatLocal(r.BeginTime),
				internal.FormatLocal(r.EndingTime),
			)
		}
	},
}
