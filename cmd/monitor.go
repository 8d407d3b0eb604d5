package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/eldorado-park/parkctl/internal"
	"github.com/eldorado-park/parkctl/internal/ui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var monitorLogPath string

func init() {
	home, _ := os.UserHomeDir()
	monitorCmd.Flags().StringVar(&monitorLogPath, "log", filepath.Join(home, ".parkctl", "monitor.log"), "Monitor log file")
	rootCmd.AddCommand(monitorCmd)
}

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Watch the session and offer renewal before it expires",
	Long: `Runs in the foreground and tracks the access token's validity. One minute
before expiry it asks whether to renew the session; if the session hard-expires
(or renewal fails) it requires an explicit acknowledgement and logs you out.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, store := openSession()
		client := newClient(cfg, store)

		logger, err := internal.NewMonitorLogger(monitorLogPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "❌ Failed to open monitor log: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync()

		if _, ok := store.Current(); !ok {
			fmt.Println("📭 No active session. Run 'parkctl login' first.")
			return
		}

		events := make(chan internal.MonitorEvent, 8)
		mon := internal.NewMonitor(store, client.RefreshSession,
			internal.WithNotify(func(ev internal.MonitorEvent) { events <- ev }),
		)

		interrupt := make(chan os.Signal, 1)
		signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

		fmt.Println("👁  Watching session. Ctrl+C to stop (session keeps running).")
		logger.Info("monitor started")
		mon.Arm()

		for {
			select {
			case <-interrupt:
				mon.Disarm()
				logger.Info("monitor stopped", zap.String("reason", "interrupt"))
				fmt.Println("\n🛑 Monitor stopped. The session itself is untouched.")
				return

			case ev := <-events:
				logger.Info("state change",
					zap.String("state", ev.State.String()),
					zap.String("reason", ev.Reason),
					zap.Time("expires_at", ev.ExpiresAt),
				)

				switch ev.State {
				case internal.StateValid:
					if !ev.ExpiresAt.IsZero() {
						fmt.Printf("🟢 Session valid until %s\n", internal.FormatLocal(ev.ExpiresAt))
					} else {
						fmt.Println("🟢 Session valid (no expiry claim)")
					}

				case internal.StateWarning:
					remaining := internal.Remaining(ev.ExpiresAt, time.Now())
					fmt.Printf("\n⚠️  Session expires in %s.\n", internal.FormatRemaining(remaining))
					choice, selErr := ui.Select("Session about to expire", []string{
						"Renew the session now",
						"Let it expire",
					})
					if selErr != nil || choice == "Let it expire" {
						mon.Decline()
						logger.Info("renewal declined")
						fmt.Println("⏭️  Renewal declined; the session will hard-expire.")
						continue
					}
					ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
					renewErr := mon.Renew(ctx)
					cancel()
					if renewErr != nil {
						logger.Warn("renewal failed", zap.Error(renewErr))
						fmt.Printf("❌ Renewal failed: %v\n", renewErr)
						// The monitor already moved to Expired; the event
						// loop handles the acknowledgement next.
						continue
					}
					logger.Info("session renewed")
					fmt.Println("✅ Session renewed.")

				case internal.StateExpired:
					fmt.Println("\n🔒 Session expired. You must log in again.")
					// The only exit from this state is the acknowledgement.
					_, _ = ui.Select("Session expired", []string{"Log out"})
					if ackErr := mon.Acknowledge(); ackErr != nil {
						fmt.Fprintf(os.Stderr, "⚠️  Failed to clear session: %v\n", ackErr)
					}
					logger.Info("expiry acknowledged, session cleared")
					fmt.Println("✅ Session cleared. Run 'parkctl login' to start a new one.")
					return

				case internal.StateIdle:
					if ev.Reason == "no credential" {
						fmt.Println("📭 No credential to watch.")
						return
					}
				}
			}
		}
	},
}
