package cli

import (
	"fmt"

	"github.com/SamuelMMedeiros/BV-Celular-sub002/pkg/config"
	"github.com/SamuelMMedeiros/BV-Celular-sub002/pkg/database"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func newDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database maintenance using the server configuration",
		Long:  "Runs against the database configured by the same environment variables and .env file as the server",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "migrate",
			Short: "Create or update the schema",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if _, err := openDB(); err != nil {
					return err
				}
				printSuccess(cmd.OutOrStdout(), "Schema is up to date")
				return nil
			},
		},
		&cobra.Command{
			Use:   "seed-admin",
			Short: "Create the admin employee from ADMIN_EMAIL and ADMIN_PASSWORD",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := loadConfig()
				if err != nil {
					return err
				}
				db, err := database.InitDB(cfg)
				if err != nil {
					return err
				}
				created, err := database.SeedAdmin(db, cfg.Admin)
				if err != nil {
					return err
				}
				if created {
					printSuccess(cmd.OutOrStdout(), "Admin %s created", cfg.Admin.Email)
				} else {
					printSuccess(cmd.OutOrStdout(), "Nothing to seed")
				}
				return nil
			},
		},
	)
	return cmd
}

func loadConfig() (*config.Config, error) {
	// A missing .env file is fine; the environment may be set directly
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func openDB() (*gorm.DB, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return database.InitDB(cfg)
}
