package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/brandatlas/footprint/internal/boundary"
	"github.com/brandatlas/footprint/internal/drill"
)

var (
	prefetchDepth int
	syncURL       string
)

var boundariesCmd = &cobra.Command{
	Use:   "boundaries",
	Short: "Manage the administrative boundary data",
}

var boundariesPrefetchCmd = &cobra.Command{
	Use:   "prefetch",
	Short: "Warm the boundary cache ahead of serving",
	Long:  "Fetches the province layer and, at depth 2, every province's city layer, so drill transitions never wait on the network.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("boundaries"); err != nil {
			return err
		}
		if prefetchDepth < 1 || prefetchDepth > 2 {
			return eris.Errorf("depth must be 1 or 2, got %d", prefetchDepth)
		}

		ctx := cmd.Context()
		cache := newBoundaryCache()

		provinces, err := cache.Get(ctx, drill.RootCode)
		if err != nil {
			return eris.Wrap(err, "fetch province layer")
		}

		codes := make([]string, 0, len(provinces))
		for _, s := range provinces {
			codes = append(codes, s.Adcode)
		}
		resolved := cache.Prefetch(ctx, codes, cfg.Boundary.PrefetchParallel)
		zap.L().Info("province layers cached",
			zap.Int("resolved", resolved), zap.Int("requested", len(codes)))

		if prefetchDepth >= 2 {
			var cityCodes []string
			for _, code := range codes {
				shapes, ok := cache.Peek(code)
				if !ok {
					continue
				}
				for _, s := range shapes {
					cityCodes = append(cityCodes, s.Adcode)
				}
			}
			resolved = cache.Prefetch(ctx, cityCodes, cfg.Boundary.PrefetchParallel)
			zap.L().Info("city layers cached",
				zap.Int("resolved", resolved), zap.Int("requested", len(cityCodes)))
		}

		stats := cache.Stats()
		fmt.Printf("cached %d boundary layers (%d fetches)\n", stats.Entries, stats.Misses)
		return nil
	},
}

var boundariesSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Mirror a boundary shapefile archive for offline use",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("boundaries"); err != nil {
			return err
		}
		rawURL := syncURL
		if rawURL == "" {
			rawURL = cfg.Boundary.ArchiveURL
		}
		if rawURL == "" {
			return eris.New("no archive url: set --url or boundary.archive_url")
		}

		files, err := boundary.SyncArchive(cmd.Context(), rawURL, cfg.Boundary.MirrorDir)
		if err != nil {
			return err
		}
		fmt.Printf("mirrored %d files into %s\n", len(files), cfg.Boundary.MirrorDir)
		return nil
	},
}

func init() {
	boundariesPrefetchCmd.Flags().IntVar(&prefetchDepth, "depth", 1, "1 = provinces, 2 = provinces and cities")
	boundariesSyncCmd.Flags().StringVar(&syncURL, "url", "", "archive url (default from config)")
	boundariesCmd.AddCommand(boundariesPrefetchCmd)
	boundariesCmd.AddCommand(boundariesSyncCmd)
	rootCmd.AddCommand(boundariesCmd)
}
