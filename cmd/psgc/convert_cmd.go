package main

import (
	"fmt"

	"psgc_api_go/models"
	"psgc_api_go/services"

	"github.com/spf13/cobra"
)

func newConvertCmd(a *app) *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert published PSGC sources into import CSVs",
	}
	cmd.PersistentFlags().StringVar(&outDir, "output", "data", "Directory for the generated CSV files")

	cmd.AddCommand(&cobra.Command{
		Use:   "json SRC_DIR",
		Short: "Convert regions/provinces/muncities/barangays.json",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := services.ConvertJSONDataset(args[0], outDir)
			if err != nil {
				return err
			}
			printConvertResult(a, result)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "xlsx FILE",
		Short: "Convert the PSA PSGC publication workbook",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := services.ConvertWorkbook(args[0], outDir)
			if err != nil {
				return err
			}
			printConvertResult(a, result)
			return nil
		},
	})

	return cmd
}

func printConvertResult(a *app, result *services.ConvertResult) {
	for _, table := range models.Tables() {
		fmt.Fprintf(a.out, "  %-20s %6d rows  %s\n", table, result.Rows[table], result.Files[table])
	}
	a.log.WithField("rows", result.Rows).Info("conversion finished")
}
