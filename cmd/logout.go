package cmd

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/eldorado-park/parkctl/internal/ui"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(logoutCmd)
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Invalidate the session and remove it from disk",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, store := openSession()

		if _, ok := store.Current(); !ok {
			fmt.Println("📭 No active session.")
			return
		}

		// Best effort: the local teardown happens even when the server
		// cannot be reached.
		client := newClient(cfg, store)
		_, err := ui.Spin("Signing out...", func() (any, error) {
			ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
			defer cancel()
			return nil, client.Logout(ctx)
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "⚠️  Server logout failed: %v\n", err)
		}

		if err := store.Clear(); err != nil {
			log.Fatalf("Failed to clear session: %v", err)
		}
		fmt.Println("✅ Logged out.")
	},
}
