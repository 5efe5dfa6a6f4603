// Package main implements leadctl, the operator CLI for database maintenance and exports.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/ahmetcoskunkizilkaya/leaddesk/internal/config"
	"github.com/ahmetcoskunkizilkaya/leaddesk/internal/database"
	"github.com/ahmetcoskunkizilkaya/leaddesk/internal/dto"
	"github.com/ahmetcoskunkizilkaya/leaddesk/internal/logging"
	"github.com/ahmetcoskunkizilkaya/leaddesk/internal/services"
	"github.com/spf13/cobra"
)

var (
	version = "dev"

	// create-admin flags
	adminName     string
	adminEmail    string
	adminPassword string

	// export flags
	exportOut        string
	exportAs         string
	exportCallStatus string
	exportLeadStatus string
	exportSearch     string

	// prune-logs flags
	pruneOlderThan time.Duration
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "leadctl",
	Short: "Operator commands for the lead desk database",
	Long: `leadctl runs maintenance tasks against the lead desk database.
It reads the same environment variables as the server (DB_DRIVER, DB_HOST, ...).`,
	Version:      version,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Setup()
	},
}

func init() {
	createAdminCmd.Flags().StringVar(&adminName, "name", "Administrator", "admin display name")
	createAdminCmd.Flags().StringVar(&adminEmail, "email", "", "admin email (required)")
	createAdminCmd.Flags().StringVar(&adminPassword, "password", "", "admin password, at least 8 characters (required)")
	_ = createAdminCmd.MarkFlagRequired("email")
	_ = createAdminCmd.MarkFlagRequired("password")

	exportCmd.Flags().StringVar(&exportOut, "out", "leads.xlsx", "output file")
	exportCmd.Flags().StringVar(&exportAs, "as", "", "email of the admin running the export (defaults to ADMIN_EMAIL)")
	exportCmd.Flags().StringVar(&exportCallStatus, "call-status", "", "only leads with this call status")
	exportCmd.Flags().StringVar(&exportLeadStatus, "lead-status", "", "only leads with this lead status")
	exportCmd.Flags().StringVar(&exportSearch, "search", "", "substring match on name, email or phone")

	pruneLogsCmd.Flags().DurationVar(&pruneOlderThan, "older-than", 0, "delete logs older than this (defaults to LOG_RETENTION)")

	rootCmd.AddCommand(migrateCmd, createAdminCmd, exportCmd, pruneLogsCmd)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := connect(); err != nil {
			return err
		}
		if err := database.Migrate(database.DB); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
		return nil
	},
}

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an admin user if the email is not taken",
	Long: `Create an admin user. Running it again with the same email is a no-op.

Examples:
  leadctl create-admin --email ops@example.com --password 'changeme123'`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := connect(); err != nil {
			return err
		}
		users := services.NewUserService(database.DB, nil)
		created, err := users.EnsureAdmin(adminName, adminEmail, adminPassword)
		if err != nil {
			return err
		}
		if created {
			fmt.Fprintf(cmd.OutOrStdout(), "admin %s created\n", adminEmail)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "user %s already exists\n", adminEmail)
		}
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export leads to an .xlsx workbook",
	Long: `Export leads to an .xlsx workbook with the same filters as the dashboard.

Examples:
  leadctl export --out connected.xlsx --call-status Connected`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := connect()
		if err != nil {
			return err
		}

		as := exportAs
		if as == "" {
			as = cfg.AdminEmail
		}
		if as == "" {
			return fmt.Errorf("--as or ADMIN_EMAIL is required")
		}

		users := services.NewUserService(database.DB, nil)
		actor, err := users.ActorByEmail(as)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", as, err)
		}

		f, err := os.Create(exportOut)
		if err != nil {
			return err
		}
		defer f.Close()

		directory := services.NewDirectoryService(database.DB, cfg, nil)
		export := services.NewExportService(directory, nil)
		n, err := export.WriteLeads(f, dto.LeadFilter{
			Search:     exportSearch,
			CallStatus: exportCallStatus,
			LeadStatus: exportLeadStatus,
		}, actor)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "exported %d leads to %s\n", n, exportOut)
		return nil
	},
}

var pruneLogsCmd = &cobra.Command{
	Use:   "prune-logs",
	Short: "Delete stored error logs past the retention window",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := connect()
		if err != nil {
			return err
		}
		retention := pruneOlderThan
		if retention <= 0 {
			retention = cfg.LogRetention
		}
		n := logging.Prune(database.DB, time.Now().UTC().Add(-retention))
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %d log rows\n", n)
		return nil
	},
}

func connect() (*config.Config, error) {
	cfg := config.Load()
	if err := database.Connect(cfg); err != nil {
		slog.Error("database connection failed", "error", err)
		return nil, err
	}
	return cfg, nil
}
