package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/doodlesbykumbi/devicehub/pkg/audit"
	"github.com/doodlesbykumbi/devicehub/pkg/server/endpoints"
)

// companySaveCmd represents the company save command
var companySaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Add a company or update an existing one",
	Long: `Add a company or update an existing one.

Only the flags given are written; everything else keeps its stored value.
Without --id, or with an id that does not exist, a new company is added.
Credentials are encrypted with DEVICEHUB_DATA_KEY.

Example:
  devicehubctl company save --name Acme --kandji-api-key $KEY \
    --kandji-api-url https://acme.api.kandji.io
  devicehubctl company save --id 7 --archived`,
	Run: func(cmd *cobra.Command, args []string) {
		req, err := companyRequestFromFlags(cmd.Flags())
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		if err := saveCompany(req); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to save company: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	companyCmd.AddCommand(companySaveCmd)
	addCompanyFlags(companySaveCmd.Flags())
}

func addCompanyFlags(f *pflag.FlagSet) {
	f.Uint("id", 0, "company id to update")
	f.String("name", "", "company name")
	f.String("graph-tenant-id", "", "Microsoft Graph tenant id")
	f.String("graph-client-id", "", "Microsoft Graph client id")
	f.String("graph-client-secret", "", "Microsoft Graph client secret")
	f.String("kandji-api-key", "", "Kandji API key")
	f.String("kandji-api-url", "", "Kandji API base URL")
	f.Bool("archived", false, "exclude the company from synchronization")
}

// companyRequestFromFlags builds a request carrying only the changed flags.
func companyRequestFromFlags(f *pflag.FlagSet) (endpoints.CompanyRequest, error) {
	var req endpoints.CompanyRequest

	str := func(name string) *string {
		if !f.Changed(name) {
			return nil
		}
		v, _ := f.GetString(name)
		return &v
	}

	if f.Changed("id") {
		id, _ := f.GetUint("id")
		req.ID = &id
	}
	req.Name = str("name")
	req.GraphTenantID = str("graph-tenant-id")
	req.GraphClientID = str("graph-client-id")
	req.GraphClientSecret = str("graph-client-secret")
	req.KandjiAPIKey = str("kandji-api-key")
	req.KandjiAPIURL = str("kandji-api-url")
	if f.Changed("archived") {
		archived, _ := f.GetBool("archived")
		req.Archived = &archived
	}

	if req.ID == nil && (req.Name == nil || *req.Name == "") {
		return req, fmt.Errorf("--name is required when adding a company")
	}
	if len(req.Fields()) == 0 {
		return req, fmt.Errorf("nothing to save, pass at least one field flag")
	}
	return req, nil
}

func saveCompany(req endpoints.CompanyRequest) error {
	database, stores, _, err := openStores()
	if err != nil {
		return err
	}
	defer closeDB(database)

	company, created, err := endpoints.SaveCompany(context.Background(), stores.Companies, req)

	event := audit.CompanyUpdateEvent{
		Subject: "devicehubctl",
		Fields:  req.Fields(),
		Success: err == nil,
	}
	if err != nil {
		event.ErrorMessage = err.Error()
		if req.ID != nil {
			event.CompanyID = *req.ID
		}
		audit.Log(event)
		return err
	}
	event.CompanyID = company.ID
	event.Created = created
	audit.Log(event)

	data, err := json.MarshalIndent(company.Summary(), "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
