package main

import (
	"errors"
	"fmt"

	"psgc_api_go/config"
	"psgc_api_go/models"
	"psgc_api_go/services"

	"github.com/spf13/cobra"
)

func newImportCmd(a *app) *cobra.Command {
	var (
		opts  services.ImportOptions
		force bool
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import PSGC CSV files in one transaction",
		Long:  "Reads the given CSV files in dependency order (regions, provinces, " +
			"city/municipalities, barangays) and upserts every row on its PSGC code. " +
			"Any failure rolls back the whole run.",
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Regions == "" && opts.Provinces == "" && opts.CityMunicipalities == "" && opts.Barangays == "" {
				return withCode(exitUsage, errors.New("at least one of --regions, --provinces, --city_municipalities, --barangays is required"))
			}

			conn, err := a.connect()
			if err != nil {
				return err
			}

			if force {
				opts.Confirm = func(string) bool { return true }
			} else {
				opts.Confirm = promptConfirm(a.in, a.out)
			}

			var cache services.CacheStore
			if opts.FlushCache {
				cache = a.cacheStore()
			}

			result, err := services.NewImporter(conn, cache, a.log).Run(cmd.Context(), opts)
			if err != nil {
				return err
			}
			printImportResult(a, result)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Regions, "regions", "", "Path to regions CSV")
	cmd.Flags().StringVar(&opts.Provinces, "provinces", "", "Path to provinces CSV")
	cmd.Flags().StringVar(&opts.CityMunicipalities, "city_municipalities", "", "Path to city/municipalities CSV")
	cmd.Flags().StringVar(&opts.Barangays, "barangays", "", "Path to barangays CSV")
	cmd.Flags().BoolVar(&opts.Truncate, "truncate", false, "Delete all PSGC rows before importing (asks for confirmation)")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Run the import and roll it back")
	cmd.Flags().BoolVar(&opts.FlushCache, "flush-cache", false, "Drop cached API responses after a successful import")
	cmd.Flags().BoolVar(&force, "force", false, "Do not ask before truncating")
	return cmd
}

func printImportResult(a *app, result *services.ImportResult) {
	switch result.State {
	case services.ImportDeclined:
		fmt.Fprintln(a.out, "Truncate declined; nothing was changed.")
		return
	case services.ImportRolledBack:
		fmt.Fprintln(a.out, "Dry run: all changes rolled back.")
	default:
		fmt.Fprintln(a.out, "Import committed.")
	}
	for _, table := range models.Tables() {
		if n, ok := result.Rows[table]; ok {
			fmt.Fprintf(a.out, "  %-20s %d rows\n", table, n)
		}
	}
}

// cacheStore opens the configured response cache. The in-memory cache lives
// inside the server process, so it cannot be reached from here.
func (a *app) cacheStore() services.CacheStore {
	if a.cfg.CacheDriver == config.CacheDriverMemory {
		a.log.Warn("CACHE_DRIVER=memory is per-process; restart the server to drop its cache")
		return nil
	}
	store, err := services.InitializeCache(a.cfg)
	if err != nil {
		a.log.WithError(err).Warn("response cache unavailable")
		return nil
	}
	return store
}
