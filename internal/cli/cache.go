package cli

import (
	"fmt"
	"os"

	"github.com/dshills/codecheck/internal/cache"
	"github.com/dshills/codecheck/internal/config"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the response cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show response cache statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(flagConfig, nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}
		c, err := cache.New(cfg.Cache.Enabled, cfg.Cache.Dir, cfg.Cache.TTL)
		if err != nil {
			return fmt.Errorf("opening cache: %w", err)
		}
		if !c.Enabled() {
			fmt.Fprintln(os.Stdout, "Cache is disabled.")
			return nil
		}
		stats, err := c.GetStats()
		if err != nil {
			return fmt.Errorf("reading cache stats: %w", err)
		}
		fmt.Fprintf(os.Stdout, "Directory: %s\n", stats.Dir)
		fmt.Fprintf(os.Stdout, "Entries:   %d (%d expired)\n", stats.Entries, stats.Expired)
		fmt.Fprintf(os.Stdout, "Size:      %s\n", humanize.Bytes(uint64(stats.TotalBytes)))
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached responses",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(flagConfig, nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}
		// Open regardless of cache.enabled so a disabled cache can still be
		// emptied.
		c, err := cache.New(true, cfg.Cache.Dir, cfg.Cache.TTL)
		if err != nil {
			return fmt.Errorf("opening cache: %w", err)
		}
		n, err := c.Clear()
		if err != nil {
			return fmt.Errorf("clearing cache: %w", err)
		}
		fmt.Fprintf(os.Stdout, "Removed %d cached response(s).\n", n)
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}
