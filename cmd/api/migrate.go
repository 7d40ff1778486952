package main

import (
	"github.com/dafibh/ledger/ledger-backend/internal/config"
	"github.com/dafibh/ledger/ledger-backend/internal/repository/postgres"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Long:  `Apply every pending embedded schema migration to DATABASE_URL and exit.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			databaseURL, err := config.LoadDatabaseURL()
			if err != nil {
				return err
			}
			return postgres.RunMigrations(databaseURL)
		},
	}
}
