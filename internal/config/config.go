// Package config loads magicforest's runtime configuration from defaults,
// an optional file, and environment variables, in that order of
// increasing precedence.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds every setting a magicforest process (CLI or daemon) reads
// at startup.
type Config struct {
	// RuleFiles are the magic rule files to compile. There is no built-in
	// rule set: empty means an empty forest, so no content rule matches.
	RuleFiles []string

	// DefaultUnknownMime is returned when nothing — not the compiled
	// forest, not the fallback detector — recognized the content.
	DefaultUnknownMime string
	// MatchMode is "most_specific" or "collect_all" (see magic.MatchMode).
	MatchMode string

	LogLevel  string
	LogFormat string

	CacheEnabled bool
	RedisAddress string
	RedisDB      int

	FallbackEnabled bool

	HTTPAddress string
}

// Load reads magicforest.yaml from the working directory, $HOME/.magicforest,
// or /etc/magicforest (first found wins), overlays MAGICFOREST_-prefixed
// environment variables, and fills in defaults for anything still unset.
// A missing config file is not an error; a malformed one is.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("default_unknown_mime", "application/octet-stream")
	v.SetDefault("match_mode", "most_specific")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.redis_address", "localhost:6379")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("detect.fallback_enabled", true)
	v.SetDefault("server.http_address", ":8080")
	v.SetDefault("rule_files", []string{})

	v.SetConfigName("magicforest")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.magicforest")
	v.AddConfigPath("/etc/magicforest")

	v.SetEnvPrefix("MAGICFOREST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("config: read magicforest.yaml: %w", err)
		}
	}

	return &Config{
		RuleFiles:           v.GetStringSlice("rule_files"),
		DefaultUnknownMime:  v.GetString("default_unknown_mime"),
		MatchMode:           v.GetString("match_mode"),
		LogLevel:            v.GetString("log.level"),
		LogFormat:           v.GetString("log.format"),
		CacheEnabled:        v.GetBool("cache.enabled"),
		RedisAddress:        v.GetString("cache.redis_address"),
		RedisDB:             v.GetInt("cache.redis_db"),
		FallbackEnabled:     v.GetBool("detect.fallback_enabled"),
		HTTPAddress:         v.GetString("server.http_address"),
	}, nil
}
