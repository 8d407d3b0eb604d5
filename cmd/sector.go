package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/eldorado-park/parkctl/internal"
	"github.com/eldorado-park/parkctl/internal/ui"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	sectorMaxPlaces int
	sectorWeight    int
	sectorType      string
)

var sectorCmd = &cobra.Command{
	Use:   "sector",
	Short: "Inspect and edit parking sectors",
}

var sectorListCmd = &cobra.Command{
	Use:   "list <parking-id>",
	Short: "List the sectors of a parking",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, store := openSession()
		client := newClient(cfg, store)

		res, err := ui.Spin("Loading sectors...", func() (any, error) {
			ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
			defer cancel()
			sectors, err := client.ListSectors(ctx, args[0])
			return sectors, err
		})
		if err != nil {
			fail(err)
		}
		sectors := res.([]internal.Sector)
		if len(sectors) == 0 {
			fmt.Println("📭 No sectors found.")
			return
		}

		header := color.New(color.FgCyan, color.Bold).SprintFunc()
		fmt.Printf("%-38s %-12s %-13s %-10s %-7s\n",
			header("ID"), header("NAME"), header("TYPE"), header("PLACES"), header("WEIGHT"))
		fmt.Println(strings.Repeat("-", 85))
		for _, s := range sectors {
			fmt.Printf("%-38s %-12s %-13s %-10d %-7d\n", s.ID, s.Name, s.Type, s.MaxPlaces, s.Weight)
		}
	},
}

var sectorShowCmd = &cobra.Command{
	Use:   "show <sector-id>",
	Short: "Show one sector and record its version tag",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, store := openSession()
		client := newClient(cfg, store)

		sector, tag, err := readSector(cfg, client, args[0])
		if err != nil {
			fail(err)
		}
		_ = store.SetTag("sector/"+sector.ID, tag)

		fmt.Printf("Sector %s (%s)\n", sector.Name, sector.ID)
		fmt.Printf("   Parking:     %s\n", sector.ParkingID)
		fmt.Printf("   Type:        %s\n", sector.Type)
		fmt.Printf("   Max places:  %d\n", sector.MaxPlaces)
		fmt.Printf("   Weight:      %d\n", sector.Weight)
		fmt.Printf("   Version tag: %s\n", truncateText(tag, 32))
	},
}

var sectorEditCmd = &cobra.Command{
	Use:   "edit <sector-id>",
	Short: "Edit a sector under optimistic locking",
	Long: `Reads the sector, applies the given changes and writes it back with the
version tag captured at read time. If someone else modified the sector in
between, the write is rejected as a conflict; you can then re-read and retry
with your changes preserved, or abort.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, store := openSession()
		client := newClient(cfg, store)
		id := args[0]

		sector, tag, err := readSector(cfg, client, id)
		if err != nil {
			fail(err)
		}
		_ = store.SetTag("sector/"+id, tag)

		flow := internal.NewEditFlow("sector/"+id, tag)
		draft := applySectorFlags(cmd, sector)
		if err := flow.Stage(draft); err != nil {
			fail(err)
		}

		for {
			newTag, err := flow.Submit(context.Background(), func(ctx context.Context, submitTag string) (string, error) {
				ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
				defer cancel()
				d, _ := flow.Draft()
				return client.ModifySector(ctx, d.(internal.Sector), submitTag)
			})
			if err == nil {
				// Edit flow closed; no tag to keep around.
				store.ClearTag("sector/" + id)
				fmt.Printf("✅ Sector updated (new tag %s).\n", truncateText(newTag, 24))
				return
			}

			switch {
			case errors.Is(err, internal.ErrConflict):
				fmt.Println("⚠️  Someone else modified this sector since you read it.")
				choice, selErr := ui.Select("Edit conflict", []string{
					"Re-read and retry with my changes",
					"Abort (discard my changes)",
				})
				if selErr != nil || choice != "Re-read and retry with my changes" {
					fmt.Println("❌ Edit aborted; the sector was left as the other user saved it.")
					return
				}
				fresh, freshTag, readErr := readSector(cfg, client, id)
				if readErr != nil {
					fail(readErr)
				}
				_ = store.SetTag("sector/"+id, freshTag)
				flow.Reread(freshTag)
				// Re-apply the requested changes on top of the fresh copy.
				if stageErr := flow.Stage(applySectorFlags(cmd, fresh)); stageErr != nil {
					fail(stageErr)
				}

			case isValidation(err):
				fmt.Fprintf(os.Stderr, "❌ %v\n", err)
				fmt.Fprintln(os.Stderr, "💡 Your changes were not lost; fix the values and run the command again.")
				return

			default:
				fail(err)
			}
		}
	},
}

// applySectorFlags overlays only the flags the user actually set.
func applySectorFlags(cmd *cobra.Command, sector internal.Sector) internal.Sector {
	if cmd.Flags().Changed("max-places") {
		sector.MaxPlaces = sectorMaxPlaces
	}
	if cmd.Flags().Changed("weight") {
		sector.Weight = sectorWeight
	}
	if cmd.Flags().Changed("type") {
		sector.Type = strings.ToUpper(sectorType)
	}
	return sector
}

func readSector(cfg internal.Config, client *internal.Client, id string) (internal.Sector, string, error) {
	res, err := ui.Spin("Loading sector...", func() (any, error) {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
		defer cancel()
		sector, tag, err := client.GetSector(ctx, id)
		if err != nil {
			return nil, err
		}
		return []any{sector, tag}, nil
	})
	if err != nil {
		return internal.Sector{}, "", err
	}
	pair := res.([]any)
	return pair[0].(internal.Sector), pair[1].(string), nil
}

func isValidation(err error) bool {
	var ve *internal.ValidationError
	return errors.As(err, &ve)
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "❌ %v\n", err)
	os.Exit(1)
}

func init() {
	sectorEditCmd.Flags().IntVar(&sectorMaxPlaces, "max-places", 0, "New maximum number of places (0-1000)")
	sectorEditCmd.Flags().IntVar(&sectorWeight, "weight", 0, "New sector weight (1-100)")
	sectorEditCmd.Flags().StringVar(&sectorType, "type", "", "New sector type (UNCOVERED, COVERED, UNDERGROUND)")

	sectorCmd.AddCommand(sectorListCmd)
	sectorCmd.AddCommand(sectorShowCmd)
	sectorCmd.AddCommand(sectorEditCmd)
	rootCmd.AddCommand(sectorCmd)
}
