package cmdimport

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"cloudspend/connectors/aws"
	"cloudspend/connectors/config"
	ccsv "cloudspend/connectors/csv"
	"cloudspend/connectors/gcp"
)

// Run executes the import subcommand: fetch fresh billing data from the
// vendors and write it as the periodic export CSVs that calculate and web
// consume. This is a batch refresh of static files, not live ingestion.
func Run(args []string) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	awsScope := fs.Bool("aws", false, "Fetch the AWS Cost Explorer export")
	gcpScope := fs.Bool("gcp", false, "Fetch the GCP billing export from BigQuery")
	months := fs.Int("months", 0, "How many months back to fetch (default from config)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	// No scope flag means both providers.
	if !*awsScope && !*gcpScope {
		*awsScope = true
		*gcpScope = true
	}

	cfg := config.LoadOrDefault()
	if *months <= 0 {
		*months = cfg.Import.Months
	}

	slog.Info("import.start", "aws", *awsScope, "gcp", *gcpScope, "months", *months)
	ctx := context.Background()

	if *awsScope {
		if err := importAWS(ctx, cfg, *months); err != nil {
			slog.Error("phase.aws.fetch.error", "error", err)
			return err
		}
	}
	if *gcpScope {
		if err := importGCP(ctx, cfg, *months); err != nil {
			slog.Error("phase.gcp.fetch.error", "error", err)
			return err
		}
	}
	return nil
}

func importAWS(ctx context.Context, cfg *config.Config, months int) error {
	p, ok := findProvider(cfg, "AWS")
	if !ok {
		return fmt.Errorf("no AWS provider in config")
	}

	client, err := aws.NewClient(ctx, cfg.Import.AWS.TeamTag, cfg.Import.AWS.DefaultEnv)
	if err != nil {
		return err
	}
	account, err := client.AccountID(ctx)
	if err != nil {
		return err
	}
	rows, err := client.FetchDailyCosts(ctx, months)
	if err != nil {
		return err
	}
	for i := range rows {
		rows[i].ID = account
	}

	path := filepath.Join(cfg.Server.DataDir, p.File)
	if err := ccsv.WriteBillingCSV(path, "account_id", rows); err != nil {
		return err
	}
	slog.Info("import.aws.done", "rows", len(rows), "path", path)
	return nil
}

func importGCP(ctx context.Context, cfg *config.Config, months int) error {
	p, ok := findProvider(cfg, "GCP")
	if !ok {
		return fmt.Errorf("no GCP provider in config")
	}
	if cfg.Import.GCP.ProjectID == "" {
		return fmt.Errorf("import.gcp.project_id is required in config")
	}

	credsPath := cfg.Import.GCP.CredentialsFile
	if credsPath == "" {
		credsPath = os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")
	}
	if credsPath == "" {
		return fmt.Errorf("GCP credentials required: set import.gcp.credentials_file or GOOGLE_APPLICATION_CREDENTIALS")
	}
	creds, err := os.ReadFile(credsPath)
	if err != nil {
		return err
	}

	dataset := cfg.Import.GCP.Dataset
	if dataset == "" {
		dataset = "billing_export"
	}

	client, err := gcp.NewClient(ctx, cfg.Import.GCP.ProjectID, dataset, creds)
	if err != nil {
		return err
	}
	rows, err := client.FetchDailyCosts(ctx, months)
	if err != nil {
		return err
	}

	path := filepath.Join(cfg.Server.DataDir, p.File)
	if err := ccsv.WriteBillingCSV(path, "project_id", rows); err != nil {
		return err
	}
	slog.Info("import.gcp.done", "rows", len(rows), "path", path)
	return nil
}

func findProvider(cfg *config.Config, name string) (config.Provider, bool) {
	for _, p := range cfg.Providers {
		if p.Name == name {
			return p, true
		}
	}
	return config.Provider{}, false
}
