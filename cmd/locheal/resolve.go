package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"locheal/internal/cache"
	"locheal/internal/driver"
	"locheal/internal/healing"
	"locheal/internal/inference"
	"locheal/internal/pagectx"
)

var (
	resolveURL      string
	resolveHeal     bool
	resolveDescribe string
)

// resolveCmd resolves one locator against a live page.
var resolveCmd = &cobra.Command{
	Use:   "resolve [locator]",
	Short: "Resolve a locator against a live page, healing it if needed",
	Long: `Opens the page, tries the locator, and walks the fallback chain when
it no longer matches: cached healings first, then a freshly generated
candidate validated against the page.

Without --heal a validated suggestion is reported for review instead of
being applied.`,
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().StringVar(&resolveURL, "url", "", "Page URL to resolve against (required)")
	resolveCmd.Flags().BoolVar(&resolveHeal, "heal", false, "Apply a validated replacement transparently")
	resolveCmd.Flags().StringVar(&resolveDescribe, "describe", "", "Human description of the target element")
	_ = resolveCmd.MarkFlagRequired("url")
}

func runResolve(cmd *cobra.Command, args []string) error {
	loc := args[0]

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	session, err := driver.Connect(ctx, driver.Options{
		Headless:    cfg.Browser.Headless,
		DebuggerURL: cfg.Browser.DebuggerURL,
		PageTimeout: cfg.GetPageTimeout(),
	})
	if err != nil {
		return err
	}
	defer session.Close()

	page, err := session.OpenPage(ctx, resolveURL)
	if err != nil {
		return err
	}
	defer page.Close()

	store := cache.New(cache.Options{
		Path:   cfg.Cache.Path,
		MaxAge: cfg.GetCacheMaxAge(),
	})

	policy := healing.Policy{
		Enabled:           cfg.Healing.Enabled,
		CredentialSet:     cfg.Inference.APIKey != "",
		TransparentApply:  resolveHeal || cfg.Healing.TransparentApply,
		ElementTimeout:    cfg.GetElementTimeout(),
		ResolveTimeout:    cfg.GetResolveTimeout(),
		ValidationRetries: cfg.Healing.ValidationRetries,
	}

	provider := inference.NewGemini(inference.Options{
		APIKey:  cfg.Inference.APIKey,
		BaseURL: cfg.Inference.BaseURL,
		Model:   cfg.Inference.Model,
		Timeout: cfg.GetInferenceTimeout(),
	})

	resolver := healing.NewResolver(store, policy, provider, pagectx.Extractor{})

	req := healing.NewRequest(loc, page)
	req.Description = resolveDescribe

	out, err := resolver.Resolve(ctx, req)
	if err != nil {
		return err
	}

	logger.Info("resolved",
		zap.String("locator", loc),
		zap.String("resolved", out.Locator),
		zap.String("source", out.Source.String()))

	switch out.Source {
	case healing.SourceOriginal:
		fmt.Printf("OK %s (matched as written)\n", out.Locator)
	case healing.SourceCacheHealed:
		fmt.Printf("HEALED %s -> %s (%s, from cache)\n", loc, out.Locator, out.Strategy)
	case healing.SourceFreshlyHealed:
		fmt.Printf("HEALED %s -> %s (%s, confidence %.0f)\n", loc, out.Locator, out.Strategy, out.Confidence)
	}
	return nil
}
