package cmd

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/eldorado-park/parkctl/internal"
	"github.com/eldorado-park/parkctl/internal/ui"
	"github.com/spf13/cobra"
)

var loginUser string

func init() {
	loginCmd.Flags().StringVar(&loginUser, "login", "", "Account login")
	rootCmd.AddCommand(loginCmd)
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate against the parking service and store the session",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, store := openSession()
		client := newClient(cfg, store)

		login := loginUser
		if login == "" {
			var err error
			login, err = ui.GetInput("Account login", "jankowalski", false)
			if err != nil || login == "" {
				fmt.Fprintln(os.Stderr, "❌ Login is required")
				return
			}
		}

		password, err := ui.GetInput("Password", "", true)
		if err != nil || password == "" {
			fmt.Fprintln(os.Stderr, "❌ Password is required")
			return
		}

		res, err := ui.Spin("Signing in...", func() (any, error) {
			ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
			defer cancel()
			pair, err := client.LoginCredentials(ctx, login, password)
			return pair, err
		})
		if err != nil {
			log.Fatalf("Login failed: %v", err)
		}
		pair := res.(internal.TokenPair)

		session := internal.Session{
			Login:        login,
			AccessToken:  pair.AccessToken,
			RefreshToken: pair.RefreshToken,
		}
		if expiresAt, ok, decErr := internal.DecodeExpiry(pair.AccessToken); decErr == nil && ok {
			session.Expiration = expiresAt
		}
		if levels, decErr := internal.DecodeLevels(pair.AccessToken); decErr == nil {
			session.Levels = levels
		}
		if err := store.Init(session); err != nil {
			log.Fatalf("Failed to store session: %v", err)
		}

		// The role-grant set lives in the account payload; fetch it so
		// `role switch` has something to validate against.
		type accountRead struct {
			acct internal.Account
			tag  string
		}
		if acctRes, acctErr := ui.Spin("Loading account...", func() (any, error) {
			ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
			defer cancel()
			acct, tag, err := client.OwnAccount(ctx)
			if err != nil {
				return nil, err
			}
			return accountRead{acct: acct, tag: tag}, nil
		}); acctErr == nil {
			read := acctRes.(accountRead)
			levels := make([]string, 0, len(read.acct.UserLevels))
			for _, l := range read.acct.UserLevels {
				levels = append(levels, l.RoleName)
			}
			session.Levels = levels
			if len(levels) > 0 {
				session.ActiveLevel = levels[0]
			}
			if err := store.Init(session); err != nil {
				log.Fatalf("Failed to store session: %v", err)
			}
			_ = store.SetTag("account/self", read.tag)
		}

		fmt.Printf("✅ Signed in as '%s'\n", login)
		if !session.Expiration.IsZero() {
			fmt.Printf("   Session expires: %s\n", internal.FormatLocal(session.Expiration))
		}
		if session.ActiveLevel != "" {
			fmt.Printf("   Active level:    %s\n", session.ActiveLevel)
		}
		fmt.Println("\n💡 Run 'parkctl monitor' to be warned before the session expires.")
	},
}
