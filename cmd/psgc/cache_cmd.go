package main

import (
	"fmt"

	"psgc_api_go/config"

	"github.com/spf13/cobra"
)

func newCacheCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the API response cache",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete every cached API response",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch a.cfg.CacheDriver {
			case config.CacheDriverNone:
				fmt.Fprintln(a.out, "Response cache is disabled; nothing to clear.")
				return nil
			case config.CacheDriverMemory:
				fmt.Fprintln(a.out, "Response cache is in-memory; restart the server to clear it.")
				return nil
			}

			store := a.cacheStore()
			if store == nil {
				return fmt.Errorf("response cache unavailable")
			}
			if err := store.Flush(cmd.Context()); err != nil {
				return fmt.Errorf("failed to clear response cache: %w", err)
			}
			fmt.Fprintln(a.out, "Response cache cleared.")
			return nil
		},
	})
	return cmd
}
