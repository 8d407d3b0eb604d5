package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/eldorado-park/parkctl/internal/ui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func init() {
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Configure the API URL and encryption secret",
	Long: `Writes ~/.parkctl/.env with the API base URL and the secret used to
encrypt the session file at rest. Both can also be provided per call via
--api-url/--secret or the PARKCTL_API_URL/PARKCTL_SECRET variables.`,
	Run: func(cmd *cobra.Command, args []string) {
		apiURL, err := ui.GetInput("API base URL", "https://parking.example.com/api/v1", false)
		if err != nil || apiURL == "" {
			fmt.Fprintln(os.Stderr, "❌ API URL is required")
			return
		}

		fmt.Print("Encryption secret (min 32 chars, input hidden): ")
		raw, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			fmt.Fprintf(os.Stderr, "❌ Failed to read secret: %v\n", err)
			return
		}
		secret := strings.TrimSpace(string(raw))
		if len(secret) < 32 {
			fmt.Fprintln(os.Stderr, "❌ Secret must be at least 32 characters")
			return
		}

		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "❌ %v\n", err)
			return
		}
		dir := filepath.Join(home, ".parkctl")
		if err := os.MkdirAll(dir, 0700); err != nil {
			fmt.Fprintf(os.Stderr, "❌ Failed to create %s: %v\n", dir, err)
			return
		}

		envPath := filepath.Join(dir, ".env")
		content := fmt.Sprintf("PARKCTL_API_URL=%s\nPARKCTL_SECRET=%s\n", apiURL, secret)
		if err := os.WriteFile(envPath, []byte(content), 0600); err != nil {
			fmt.Fprintf(os.Stderr, "❌ Failed to write %s: %v\n", envPath, err)
			return
		}

		fmt.Printf("✅ Configuration written to %s\n", envPath)
		fmt.Println("\n💡 Next: parkctl login")
	},
}
