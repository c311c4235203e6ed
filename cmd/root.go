package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/Ev3lynx727/containerd-apps-tokped-scrapper/config"
	"github.com/Ev3lynx727/containerd-apps-tokped-scrapper/internal/analytics"
	"github.com/Ev3lynx727/containerd-apps-tokped-scrapper/internal/cache"
	"github.com/Ev3lynx727/containerd-apps-tokped-scrapper/internal/httputil"
	"github.com/Ev3lynx727/containerd-apps-tokped-scrapper/internal/metrics"
	"github.com/Ev3lynx727/containerd-apps-tokped-scrapper/internal/platform"
	"github.com/Ev3lynx727/containerd-apps-tokped-scrapper/internal/search"
	"github.com/Ev3lynx727/containerd-apps-tokped-scrapper/internal/stealth"
	"github.com/Ev3lynx727/containerd-apps-tokped-scrapper/internal/tokopedia"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "tokped-scrapper",
	Short: "Tokopedia product intelligence: scraping pipeline, analytics API, MCP server",
	Long: "Collects Tokopedia product data through a layered strategy chain, " +
		"enriches it with popularity and shop scores, and serves the results " +
		"over a REST API, an MCP server, or the CLI.",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("delay-profile", "normal", "Delay profile: cautious, normal, aggressive")
	rootCmd.PersistentFlags().Bool("respect-robots", true, "Respect robots.txt rules")
	rootCmd.PersistentFlags().String("proxy-mode", "direct", "Proxy mode: decodo, custom, direct")
	rootCmd.PersistentFlags().String("proxy-file", "", "Path to proxy list file")
	rootCmd.PersistentFlags().String("redis", "", "Redis address (default from $TOKPED_REDIS_ADDR)")
	rootCmd.PersistentFlags().Bool("headless", false, "Enable the headless-browser fallback strategy")
}

func initConfig() {
	cfg = config.DefaultConfig()
	cfg.LoadFromEnv()

	// Override from flags
	if v, _ := rootCmd.PersistentFlags().GetString("delay-profile"); v != "" {
		cfg.DelayProfile = v
	}
	if v, _ := rootCmd.PersistentFlags().GetBool("respect-robots"); !v {
		cfg.RespectRobots = false
	}
	if v, _ := rootCmd.PersistentFlags().GetString("proxy-mode"); v != "" {
		cfg.ProxyMode = v
	}
	if v, _ := rootCmd.PersistentFlags().GetString("proxy-file"); v != "" {
		cfg.ProxyFile = v
	}
	if v, _ := rootCmd.PersistentFlags().GetString("redis"); v != "" {
		cfg.RedisAddr = v
	}
	if v, _ := rootCmd.PersistentFlags().GetBool("headless"); v {
		cfg.EnableHeadless = true
	}
}

func newLogger() *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return log
}

// buildHTTPClient creates the stealth-wrapped HTTP client from config.
func buildHTTPClient() *http.Client {
	fpPool := stealth.NewFingerprintPool()
	delay := stealth.NewHumanDelay(stealth.DelayProfile(cfg.DelayProfile))
	limiter := rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.RateBurst)

	baseTransport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
	}

	var proxyRotator *stealth.ProxyRotator
	switch cfg.ProxyMode {
	case "decodo":
		if cfg.DecodoUsername != "" && cfg.DecodoPassword != "" {
			proxyRotator = stealth.NewProxyRotator([]stealth.ProxyProvider{
				&stealth.DecodoProvider{
					Username: cfg.DecodoUsername,
					Password: cfg.DecodoPassword,
					Country:  cfg.DecodoCountry,
					City:     cfg.DecodoCity,
				},
			})
		}
	case "custom":
		if providers := loadProxyFile(cfg.ProxyFile); len(providers) > 0 {
			proxyRotator = stealth.NewProxyRotator(providers)
		}
	}

	robotsClient := &http.Client{}
	robots := stealth.NewRobotsChecker(robotsClient, cfg.RespectRobots)

	transport := &stealth.StealthTransport{
		Base:        baseTransport,
		Robots:      robots,
		Fingerprint: fpPool,
		Proxy:       proxyRotator,
		Delay:       delay,
		RateLimiter: limiter,
	}

	return httputil.NewHTTPClient(transport)
}

// loadProxyFile reads one proxy URL per line; blank lines and #
// comments are skipped.
func loadProxyFile(path string) []stealth.ProxyProvider {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read proxy file: %v\n", err)
		return nil
	}
	var providers []stealth.ProxyProvider
	for i, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		providers = append(providers, &stealth.HTTPProxyProvider{
			RawURL: line,
			Label:  fmt.Sprintf("custom-%d", i+1),
		})
	}
	return providers
}

// buildScraper assembles the full strategy chain and registers it on
// the platform registry for the MCP tools.
func buildScraper() *tokopedia.Scraper {
	client := buildHTTPClient()
	limiter := rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.RateBurst)
	scraper := tokopedia.NewScraper(client, limiter, tokopedia.Options{
		EnableHeadless: cfg.EnableHeadless,
		LauncherURL:    cfg.LauncherURL,
		MaxConcurrent:  cfg.MaxConcurrent,
	})
	platform.Register("tokopedia", scraper)
	return scraper
}

// buildStore connects to Redis, falling back to the in-process store
// when Redis is unreachable. One-shot CLI runs lose only cross-run
// caching that way.
func buildStore(ctx context.Context, log *logrus.Logger) cache.Store {
	store, err := cache.NewRedisStore(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.WithError(err).Warn("redis unavailable, using in-process cache")
		return cache.NewMemoryStore()
	}
	return store
}

// app is the fully wired service graph behind every command.
type app struct {
	log       *logrus.Logger
	scraper   *tokopedia.Scraper
	store     cache.Store
	metrics   *metrics.Collector
	analytics *analytics.Aggregator
	search    *search.Service
}

func buildApp(ctx context.Context) *app {
	log := newLogger()
	scraper := buildScraper()
	store := buildStore(ctx, log)
	m := metrics.NewCollector()
	agg := analytics.NewAggregator(store, log)
	svc := search.NewService(scraper, store, agg, m, log)
	return &app{
		log:       log,
		scraper:   scraper,
		store:     store,
		metrics:   m,
		analytics: agg,
		search:    svc,
	}
}
