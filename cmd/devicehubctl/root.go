package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/devicehub/pkg/logging"
)

var rootCmd = &cobra.Command{
	Use:   "devicehubctl",
	Short: "Device inventory reconciliation server and tools",
	Long: `devicehubctl runs the devicehub API server and the tools around it.

Devices are pulled per company from Microsoft Intune and Kandji, reconciled
into one inventory, and every field change is recorded in a change log.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		envFile, _ := cmd.Flags().GetString("env-file")
		if err := loadEnv(envFile); err != nil {
			return err
		}
		logging.Init()
		return nil
	},
	SilenceUsage: true,
}

// loadEnv loads path into the environment without overriding variables that
// are already set. A missing default file is ignored.
func loadEnv(path string) error {
	if path == "" {
		path = ".env"
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil
		}
	}
	return godotenv.Load(path)
}

func init() {
	rootCmd.PersistentFlags().String("env-file", "", "load environment variables from this file (default .env if present)")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func main() {
	Execute()
}
