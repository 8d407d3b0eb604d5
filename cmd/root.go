package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/eldorado-park/parkctl/internal"
	"github.com/spf13/cobra"
)

var (
	flagAPIURL string
	flagSecret string
)

var bannerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))

func printBanner() {
	banner := `
  ██████╗  █████╗ ██████╗ ██╗  ██╗ ██████╗████████╗██╗
  ██╔══██╗██╔══██╗██╔══██╗██║ ██╔╝██╔════╝╚══██╔══╝██║
  ██████╔╝███████║██████╔╝█████╔╝ ██║        ██║   ██║
  ██╔═══╝ ██╔══██║██╔══██╗██╔═██╗ ██║        ██║   ██║
  ██║     ██║  ██║██║  ██║██║  ██╗╚██████╗   ██║   ███████╗
  ╚═╝     ╚═╝  ╚═╝╚═╝  ╚═╝╚═╝  ╚═╝ ╚═════╝   ╚═╝   ╚══════╝`
	fmt.Println(bannerStyle.Render(banner))
	fmt.Println("  Terminal client for the eldorado parking-reservation service")
	fmt.Println()
}

var rootCmd = &cobra.Command{
	Use:   "parkctl",
	Short: "parkctl is a CLI client for the eldorado parking-reservation service",
	Long: `parkctl manages your eldorado session from the terminal: login, proactive
session renewal before token expiry, user-level switching, and conflict-safe
edits of parking sectors and accounts.`,
}

// Execute runs the CLI
func Execute() {
	if len(os.Args) <= 1 || (len(os.Args) > 1 && os.Args[1] == "help") {
		printBanner()
	}
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagAPIURL, "api-url", "", "Base URL of the eldorado API (or PARKCTL_API_URL)")
	rootCmd.PersistentFlags().StringVar(&flagSecret, "secret", "", "Encryption secret for the session file (or PARKCTL_SECRET)")
}

// loadConfig merges the persistent flags over ~/.parkctl/.env and the
// environment.
func loadConfig() internal.Config {
	cfg := internal.LoadConfig()
	if flagAPIURL != "" {
		cfg.BaseURL = flagAPIURL
	}
	if flagSecret != "" {
		cfg.Secret = flagSecret
	}
	return cfg
}

// openSession loads config and the persisted session store, exiting with a
// friendly message when either is unusable.
func openSession() (internal.Config, *internal.SessionStore) {
	cfg := loadConfig()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
	store, err := internal.OpenSessionStore(cfg.Secret)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Failed to open session store: %v\n", err)
		os.Exit(1)
	}
	return cfg, store
}

func newClient(cfg internal.Config, store *internal.SessionStore) *internal.Client {
	return internal.NewClient(cfg.BaseURL, store, cfg.Timeout)
}
