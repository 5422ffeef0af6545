// Package config loads tool configuration from a YAML file and
// LEXSTRUCT_-prefixed environment variables, with sane defaults for
// every key so a bare invocation works out of the box.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/coolbeans/lexstruct/pkg/fetch"
)

// Config is the full tool configuration.
type Config struct {
	// LibraryPath is where reconstructed documents are stored.
	LibraryPath string `mapstructure:"library_path"`

	// HTMLDir is where fetched pages are saved.
	HTMLDir string `mapstructure:"html_dir"`

	// PatternsDir holds extra outline pattern YAML files.
	PatternsDir string `mapstructure:"patterns_dir"`

	Fetch FetchSettings `mapstructure:"fetch"`
	Serve ServeSettings `mapstructure:"serve"`
	Bulk  BulkSettings  `mapstructure:"bulk"`
}

// FetchSettings configures the HTTP client.
type FetchSettings struct {
	UserAgent       string            `mapstructure:"user_agent"`
	Headers         map[string]string `mapstructure:"headers"`
	Cookies         map[string]string `mapstructure:"cookies"`
	RequestInterval time.Duration     `mapstructure:"request_interval"`
	Timeout         time.Duration     `mapstructure:"timeout"`
	Retries         uint              `mapstructure:"retries"`
	CacheDir        string            `mapstructure:"cache_dir"`
	CacheTTL        time.Duration     `mapstructure:"cache_ttl"`
}

// ToFetchConfig converts the settings into a fetch.Config.
func (settings FetchSettings) ToFetchConfig() fetch.Config {
	return fetch.Config{
		UserAgent:       settings.UserAgent,
		Headers:         settings.Headers,
		Cookies:         settings.Cookies,
		RequestInterval: settings.RequestInterval,
		Timeout:         settings.Timeout,
		Retries:         settings.Retries,
		CacheDir:        settings.CacheDir,
		CacheTTL:        settings.CacheTTL,
	}
}

// ServeSettings configures the HTTP API server.
type ServeSettings struct {
	Addr string `mapstructure:"addr"`
}

// BulkSettings configures batch runs.
type BulkSettings struct {
	Workers int  `mapstructure:"workers"`
	Resume  bool `mapstructure:"resume"`
}

// Load reads configuration from the given file, or from ./lexstruct.yaml
// and $HOME/.lexstruct/lexstruct.yaml when cfgFile is empty. A missing
// config file is fine; defaults and environment variables still apply.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("library_path", "library")
	v.SetDefault("html_dir", "html")
	v.SetDefault("patterns_dir", "patterns")
	v.SetDefault("fetch.request_interval", fetch.DefaultRequestInterval)
	v.SetDefault("fetch.timeout", 30*time.Second)
	v.SetDefault("fetch.retries", fetch.DefaultRetries)
	v.SetDefault("fetch.cache_ttl", fetch.DefaultCacheTTL)
	v.SetDefault("serve.addr", ":8080")
	v.SetDefault("bulk.workers", 4)
	v.SetDefault("bulk.resume", true)

	v.SetEnvPrefix("LEXSTRUCT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("lexstruct")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.lexstruct")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}
