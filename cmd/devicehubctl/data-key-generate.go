package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/devicehub/pkg/secrets"
)

// dataKeyGenerateCmd represents the data-key generate command
var dataKeyGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a credential encryption key",
	Long: `
Generate a credential encryption key

Use this command to generate a new Base64-encoded 256 bit key. Once generated,
this key should be placed into the environment of the devicehub server. It
encrypts the Graph and Kandji credentials stored for each company.

Example:

$ export DEVICEHUB_DATA_KEY="$(devicehubctl data-key generate)"
`,
	Run: func(cmd *cobra.Command, args []string) {
		key, err := secrets.GenerateDataKey()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate key: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%s", key)
	},
}

func init() {
	dataKeyCmd.AddCommand(dataKeyGenerateCmd)
}
