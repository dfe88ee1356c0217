package main

import (
	"fmt"

	"psgc_api_go/models"
	"psgc_api_go/services"

	"github.com/spf13/cobra"
)

func newExportCmd(a *app) *cobra.Command {
	var (
		opts   services.ExportOptions
		tables = map[string]*bool{}
		all    bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export PSGC tables to CSV or JSON",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Tables = nil
			if !all {
				for _, table := range models.Tables() {
					if *tables[table] {
						opts.Tables = append(opts.Tables, table)
					}
				}
			}

			conn, err := a.connect()
			if err != nil {
				return err
			}

			var storage services.StorageProvider
			if opts.Upload {
				services.InitializeStorage(a.cfg)
				storage = services.Storage
			}

			result, err := services.NewExporter(conn, storage, a.log).Run(cmd.Context(), opts)
			if err != nil {
				return err
			}

			for _, f := range result.Files {
				fmt.Fprintf(a.out, "  %-20s %6d rows  %s\n", f.Table, f.Rows, f.Path)
				if f.Key != "" {
					fmt.Fprintf(a.out, "  %-20s uploaded  %s %s\n", "", f.Key, f.URL)
				}
			}
			fmt.Fprintf(a.out, "Exported %d rows.\n", result.TotalRows())
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.OutputDir, "output", "exports", "Output directory")
	for _, table := range models.Tables() {
		tables[table] = cmd.Flags().Bool(table, false, "Export "+table)
	}
	cmd.Flags().BoolVar(&all, "all", false, "Export every table (default when no table is selected)")
	cmd.Flags().StringVar(&opts.Format, "format", services.ExportFormatCSV, "Output format: csv or json")
	cmd.Flags().StringVar(&opts.Status, "status", models.StatusActive, "Rows to export: active, inactive or all")
	cmd.Flags().BoolVar(&opts.Upload, "upload", false, "Upload the files to R2 (or STORAGE_DIR when R2 is not configured)")
	return cmd
}
