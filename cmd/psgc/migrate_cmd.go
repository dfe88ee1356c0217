package main

import (
	"fmt"

	"psgc_api_go/models"

	"github.com/spf13/cobra"
)

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the PSGC tables",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := a.connect()
			if err != nil {
				return err
			}
			if err := conn.WithContext(cmd.Context()).AutoMigrate(models.All()...); err != nil {
				return withCode(exitDatabase, fmt.Errorf("failed to run migrations: %w", err))
			}
			a.log.Info("migrations completed")
			fmt.Fprintln(a.out, "Migrations completed")
			return nil
		},
	}
}
