package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"locheal/internal/cache"
)

// statsCmd prints a summary of the locator cache.
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show locator cache statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		store := cache.New(cache.Options{
			Path:   cfg.Cache.Path,
			MaxAge: cfg.GetCacheMaxAge(),
		})
		fmt.Println(cache.NewReporter(store).Render())
		return nil
	},
}

// clearCmd empties the locator cache.
var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all cached locator healings",
	RunE: func(cmd *cobra.Command, args []string) error {
		store := cache.New(cache.Options{
			Path:   cfg.Cache.Path,
			MaxAge: cfg.GetCacheMaxAge(),
		})
		n := store.Len()
		store.Clear()
		logger.Info("cache cleared", zap.Int("entries", n))
		fmt.Printf("Removed %d cached healings from %s\n", n, store.Path())
		return nil
	},
}
