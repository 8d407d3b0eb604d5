package cmd

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/eldorado-park/parkctl/internal"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var statusJSON bool

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Output in JSON format for automation")
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the stored session: login, active level, expiry, remaining time",
	Run: func(cmd *cobra.Command, args []string) {
		_, store := openSession()

		s, ok := store.Current()
		if !ok {
			fmt.Println("📭 No stored session. Run 'parkctl login' first.")
			return
		}

		now := time.Now()
		remaining := internal.Remaining(s.Expiration, now)

		state := "ACTIVE"
		stateColor := color.New(color.FgGreen).SprintFunc()
		switch {
		case s.Expiration.IsZero():
			state = "UNKNOWN"
			stateColor = color.New(color.FgWhite).SprintFunc()
		case remaining <= 0:
			state = "EXPIRED"
			stateColor = color.New(color.FgRed).SprintFunc()
		case remaining <= internal.WarningLeadTime:
			state = "EXPIRING"
			stateColor = color.New(color.FgYellow).SprintFunc()
		}

		if statusJSON {
			out := map[string]any{
				"login":        s.Login,
				"active_level": s.ActiveLevel,
				"levels":       s.Levels,
				"expiration":   s.Expiration.Format(time.RFC3339),
				"remaining":    int(remaining.Seconds()),
				"state":        state,
				"open_edits":   len(s.VersionTags),
			}
			b, _ := json.MarshalIndent(out, "", "  ")
			fmt.Println(string(b))
			return
		}

		header := color.New(color.FgCyan, color.Bold).SprintFunc()
		fmt.Printf("%-20s %-15s %-25s %-12s %-10s\n",
			header("LOGIN"), header("ACTIVE LEVEL"), header("EXPIRATION"), header("REMAINING"), header("STATE"))
		fmt.Println(strings.Repeat("-", 90))
		fmt.Printf("%-20s %-15s %-25s %-12s %-10s\n",
			s.Login,
			s.ActiveLevel,
			internal.FormatLocal(s.Expiration),
			internal.FormatRemaining(remaining),
			stateColor(state),
		)

		if len(s.Levels) > 0 {
			fmt.Printf("\nGranted levels: %s\n", strings.Join(s.Levels, ", "))
		}
		if len(s.VersionTags) > 0 {
			fmt.Println("\nOpen edit flows:")
			for resource, tag := range s.VersionTags {
				fmt.Printf("   %-20s tag %s\n", resource, truncateText(tag, 24))
			}
		}
	},
}
