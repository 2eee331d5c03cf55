package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/devicehub/pkg/model"
)

// companyListCmd represents the company list command
var companyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List companies without their credentials",
	Run: func(cmd *cobra.Command, args []string) {
		if err := listCompanies(); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to list companies: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	companyCmd.AddCommand(companyListCmd)
}

func listCompanies() error {
	database, stores, _, err := openStores()
	if err != nil {
		return err
	}
	defer closeDB(database)

	companies, err := stores.Companies.ListCompanies(context.Background())
	if err != nil {
		return err
	}
	out := make([]model.CompanySummary, 0, len(companies))
	for i := range companies {
		out = append(out, companies[i].Summary())
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
