package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/eldorado-park/parkctl/internal"
	"github.com/eldorado-park/parkctl/internal/ui"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(refreshCmd)
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Renew the session now instead of waiting for the expiry warning",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, store := openSession()
		client := newClient(cfg, store)

		refreshToken, ok := store.RefreshToken()
		if !ok {
			fmt.Fprintln(os.Stderr, "📭 No active session. Run 'parkctl login' first.")
			return
		}

		res, err := ui.Spin("Renewing session...", func() (any, error) {
			ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
			defer cancel()
			pair, err := client.RefreshSession(ctx, refreshToken)
			return pair, err
		})
		if err != nil {
			// The stored pair is untouched; a transient failure can be retried,
			// a rejected refresh token means logging in again.
			fmt.Fprintf(os.Stderr, "❌ %v\n", err)
			fmt.Fprintln(os.Stderr, "\n💡 If the refresh token was rejected, run 'parkctl login'.")
			os.Exit(1)
		}

		pair := res.(internal.TokenPair)
		if err := store.ReplacePair(pair); err != nil {
			fmt.Fprintf(os.Stderr, "❌ Failed to store renewed session: %v\n", err)
			os.Exit(1)
		}

		fmt.Println("✅ Session renewed.")
		if s, ok := store.Current(); ok && !s.Expiration.IsZero() {
			fmt.Printf("   Expires: %s\n", internal.FormatLocal(s.Expiration))
		}
	},
}
