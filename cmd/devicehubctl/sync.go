package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/devicehub/pkg/config"
	"github.com/doodlesbykumbi/devicehub/pkg/syncer"
)

// syncCmd represents the sync command
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one synchronization pass",
	Long: `Run one synchronization pass against the enabled sources.

Every active company is reconciled unless --company is given. The run
summary is printed as JSON. The command exits non-zero when the run could
not load companies or the database was unreachable for every pair.

Example:
  devicehubctl sync
  devicehubctl sync --company 7`,
	Run: func(cmd *cobra.Command, args []string) {
		companyID, _ := cmd.Flags().GetUint("company")

		if err := runSync(companyID); err != nil {
			fmt.Fprintf(os.Stderr, "Sync failed: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
	syncCmd.Flags().Uint("company", 0, "only reconcile this company")
}

func runSync(companyID uint) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	database, stores, _, err := openStores()
	if err != nil {
		return err
	}
	defer closeDB(database)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, runErr := newDriver(stores, cfg).Run(ctx, syncer.Request{CompanyID: companyID, Trigger: "cli"})

	out, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return runErr
}
