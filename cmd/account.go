package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/eldorado-park/parkctl/internal"
	"github.com/eldorado-park/parkctl/internal/ui"
	"github.com/spf13/cobra"
)

var (
	accountName     string
	accountLastname string
	accountEmail    string
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Inspect and edit your account",
}

var accountShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show your account and record its version tag",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, store := openSession()
		client := newClient(cfg, store)

		acct, tag, err := readOwnAccount(cfg, client)
		if err != nil {
			fail(err)
		}
		_ = store.SetTag("account/self", tag)

		levels := make([]string, 0, len(acct.UserLevels))
		for _, l := range acct.UserLevels {
			levels = append(levels, l.RoleName)
		}

		fmt.Printf("Account %s (%s)\n", acct.Login, acct.ID)
		fmt.Printf("   Name:        %s %s\n", acct.Name, acct.Lastname)
		fmt.Printf("   E-mail:      %s\n", acct.Email)
		fmt.Printf("   Levels:      %s\n", strings.Join(levels, ", "))
		fmt.Printf("   Version tag: %s\n", truncateText(tag, 32))
	},
}

var accountEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit your account under optimistic locking",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, store := openSession()
		client := newClient(cfg, store)

		acct, tag, err := readOwnAccount(cfg, client)
		if err != nil {
			fail(err)
		}
		_ = store.SetTag("account/self", tag)

		flow := internal.NewEditFlow("account/self", tag)
		if err := flow.Stage(applyAccountFlags(cmd, acct)); err != nil {
			fail(err)
		}

		for {
			newTag, err := flow.Submit(context.Background(), func(ctx context.Context, submitTag string) (string, error) {
				ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
				defer cancel()
				d, _ := flow.Draft()
				return client.ModifyOwnAccount(ctx, d.(internal.Account), submitTag)
			})
			if err == nil {
				store.ClearTag("account/self")
				fmt.Printf("✅ Account updated (new tag %s).\n", truncateText(newTag, 24))
				return
			}

			switch {
			case errors.Is(err, internal.ErrConflict):
				fmt.Println("⚠️  Your account was modified elsewhere since you read it.")
				choice, selErr := ui.Select("Edit conflict", []string{
					"Re-read and retry with my changes",
					"Abort (discard my changes)",
				})
				if selErr != nil || choice != "Re-read and retry with my changes" {
					fmt.Println("❌ Edit aborted.")
					return
				}
				fresh, freshTag, readErr := readOwnAccount(cfg, client)
				if readErr != nil {
					fail(readErr)
				}
				_ = store.SetTag("account/self", freshTag)
				flow.Reread(freshTag)
				if stageErr := flow.Stage(applyAccountFlags(cmd, fresh)); stageErr != nil {
					fail(stageErr)
				}

			case isValidation(err):
				fmt.Fprintf(os.Stderr, "❌ %v\n", err)
				return

			default:
				fail(err)
			}
		}
	},
}

func applyAccountFlags(cmd *cobra.Command, acct internal.Account) internal.Account {
	if cmd.Flags().Changed("name") {
		acct.Name = accountName
	}
	if cmd.Flags().Changed("lastname") {
		acct.Lastname = accountLastname
	}
	if cmd.Flags().Changed("email") {
		acct.Email = accountEmail
	}
	return acct
}

func readOwnAccount(cfg internal.Config, client *internal.Client) (internal.Account, string, error) {
	res, err := ui.Spin("Loading account...", func() (any, error) {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
		defer cancel()
		acct, tag, err := client.OwnAccount(ctx)
		if err != nil {
			return nil, err
		}
		return []any{acct, tag}, nil
	})
	if err != nil {
		return internal.Account{}, "", err
	}
	pair := res.([]any)
	return pair[0].(internal.Account), pair[1].(string), nil
}

func init() {
	accountEditCmd.Flags().StringVar(&accountName, "name", "", "New first name")
	accountEditCmd.Flags().StringVar(&accountLastname, "lastname", "", "New last name")
	accountEditCmd.Flags().StringVar(&accountEmail, "email", "", "New e-mail address")

	accountCmd.AddCommand(accountShowCmd)
	accountCmd.AddCommand(accountEditCmd)
	rootCmd.AddCommand(accountCmd)
}
