package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"vidsnag/internal/cache"
	"vidsnag/internal/dirs"
)

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear cached search results and metadata",
	}
	cmd.AddCommand(&cobra.Command{
		Use:           "clear",
		Short:         "Remove every cached entry",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := cacheFromDisk()
			if err != nil {
				return &ExitError{Code: ExitCLIError, Err: err}
			}
			n := c.Len()
			if err := c.Purge(); err != nil {
				return &ExitError{Code: ExitCLIError, Err: err}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached entries.\n", n)
			return nil
		},
	})
	return cmd
}

// cacheFromDisk opens the cache file even when caching is configured off.
func cacheFromDisk() (*cache.Cache, error) {
	p, err := dirs.CacheFile()
	if err != nil {
		return nil, err
	}
	c := cache.New(time.Hour, cache.WithFile(p))
	if err := c.Load(); err != nil {
		return nil, err
	}
	return c, nil
}
