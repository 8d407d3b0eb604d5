package cmd

import (
	"fmt"
	"os"

	"github.com/eldorado-park/parkctl/internal/ui"
	"github.com/spf13/cobra"
)

var roleCmd = &cobra.Command{
	Use:   "role",
	Short: "Manage the active user level",
	Long: `An account can hold several user levels (CLIENT, STAFF, ADMIN). Exactly one
is active at a time. Switching is purely local: the server only learns about
it through the next call that needs the privilege.`,
}

var roleListCmd = &cobra.Command{
	Use:   "list",
	Short: "List granted user levels",
	Run: func(cmd *cobra.Command, args []string) {
		_, store := openSession()

		s, ok := store.Current()
		if !ok {
			fmt.Println("📭 No active session.")
			return
		}
		if len(s.Levels) == 0 {
			fmt.Println("📭 No user levels recorded for this session.")
			return
		}

		for _, level := range s.Levels {
			marker := "  "
			if level == s.ActiveLevel {
				marker = "▸ "
			}
			fmt.Printf("%s%s\n", marker, level)
		}
	},
}

var roleSwitchCmd = &cobra.Command{
	Use:   "switch [level]",
	Short: "Switch the active user level",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		_, store := openSession()

		s, ok := store.Current()
		if !ok {
			fmt.Println("📭 No active session.")
			return
		}

		var level string
		if len(args) > 0 {
			level = args[0]
		} else {
			if len(s.Levels) == 0 {
				fmt.Println("📭 No user levels recorded for this session.")
				return
			}
			selected, err := ui.Select("Select Active Level", s.Levels)
			if err != nil {
				return
			}
			level = selected
		}

		if err := store.SwitchLevel(level); err != nil {
			fmt.Fprintf(os.Stderr, "❌ %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("✅ Active level is now '%s'\n", level)
		fmt.Println("💡 If this grant was revoked server-side, the next privileged call will fail with an authorization error.")
	},
}

func init() {
	roleCmd.AddCommand(roleListCmd)
	roleCmd.AddCommand(roleSwitchCmd)
	rootCmd.AddCommand(roleCmd)
}
