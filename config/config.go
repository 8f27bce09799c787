// Package config loads the application configuration from flags or a YAML
// file. Every value has a working default, so coinwatch runs unconfigured.
package config

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultStorageDir   = "./wal/watchlists"
	defaultStreamURL    = "wss://stream.binance.com:9443/ws"
	defaultQuote        = "USDT"
	defaultSearchLimit  = 10
	defaultNoticeTTL    = 5 * time.Second
	defaultRefreshEvery = 2 * time.Second
)

// Config holds all application settings.
type Config struct {
	// StorageDir is the directory of the local watchlists WAL.
	StorageDir string
	// StreamURL is the exchange's public websocket feed endpoint.
	StreamURL string
	// QuoteCurrency restricts searches and subscriptions to pairs quoted
	// in this currency.
	QuoteCurrency string
	// SearchLimit caps the number of catalog search results.
	SearchLimit int
	// NoticeTTL is how long a transient user notice stays visible.
	NoticeTTL time.Duration
	// RefreshEvery is the live view's render interval.
	RefreshEvery time.Duration
}

type configYaml struct {
	StorageDir    string        `yaml:"storage_dir,omitempty"`
	StreamURL     string        `yaml:"stream_url,omitempty"`
	QuoteCurrency string        `yaml:"quote_currency,omitempty"`
	SearchLimit   int           `yaml:"search_limit,omitempty"`
	NoticeTTL     time.Duration `yaml:"notice_ttl,omitempty"`
	RefreshEvery  time.Duration `yaml:"refresh_every,omitempty"`
}

// Get reads flags, overlays an optional --config YAML file and validates
// the result.
func Get() (Config, error) {
	configPath := flag.String("config", "", "path to yaml config")
	storageDir := flag.String("storagedir", defaultStorageDir, "directory for the local watchlists WAL")
	streamURL := flag.String("streamurl", defaultStreamURL, "websocket feed endpoint")
	quote := flag.String("quote", defaultQuote, "quote currency, example: USDT")
	searchLimit := flag.Int("searchlimit", defaultSearchLimit, "max catalog search results")
	flag.Parse()

	cfg := Config{
		StorageDir:    *storageDir,
		StreamURL:     *streamURL,
		QuoteCurrency: *quote,
		SearchLimit:   *searchLimit,
		NoticeTTL:     defaultNoticeTTL,
		RefreshEvery:  defaultRefreshEvery,
	}

	if *configPath != "" {
		if err := overlayYaml(&cfg, *configPath); err != nil {
			return Config{}, err
		}
	}

	return validate(cfg)
}

func overlayYaml(cfg *Config, path string) error {
	f, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var y configYaml
	if err := yaml.Unmarshal(f, &y); err != nil {
		return fmt.Errorf("incorrect yaml config %s: %w", path, err)
	}

	if y.StorageDir != "" {
		cfg.StorageDir = y.StorageDir
	}
	if y.StreamURL != "" {
		cfg.StreamURL = y.StreamURL
	}
	if y.QuoteCurrency != "" {
		cfg.QuoteCurrency = y.QuoteCurrency
	}
	if y.SearchLimit != 0 {
		cfg.SearchLimit = y.SearchLimit
	}
	if y.NoticeTTL != 0 {
		cfg.NoticeTTL = y.NoticeTTL
	}
	if y.RefreshEvery != 0 {
		cfg.RefreshEvery = y.RefreshEvery
	}

	return nil
}

func validate(cfg Config) (Config, error) {
	cfg.QuoteCurrency = strings.ToUpper(strings.TrimSpace(cfg.QuoteCurrency))
	if cfg.QuoteCurrency == "" {
		return Config{}, fmt.Errorf("quote currency must not be empty")
	}
	if cfg.SearchLimit <= 0 {
		return Config{}, fmt.Errorf("search limit must be positive, got %d", cfg.SearchLimit)
	}
	if !strings.HasPrefix(cfg.StreamURL, "ws") {
		return Config{}, fmt.Errorf("invalid stream url: %s", cfg.StreamURL)
	}
	if cfg.NoticeTTL <= 0 {
		cfg.NoticeTTL = defaultNoticeTTL
	}
	if cfg.RefreshEvery <= 0 {
		cfg.RefreshEvery = defaultRefreshEvery
	}

	return cfg, nil
}
