// Command magicforestd serves file-type identification over HTTP: load
// configuration, build a Detector, then run a gin server exposing
// /v1/identify and /healthz.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/gomime/magicforest/internal/cache"
	"github.com/gomime/magicforest/internal/config"
	"github.com/gomime/magicforest/internal/logging"
	"github.com/gomime/magicforest/internal/magic"
	"github.com/gomime/magicforest/pkg/magicforest"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("magicforestd: %w", err)
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	var resultCache cache.Cache
	if cfg.CacheEnabled {
		redisCache, err := cache.NewRedisCache(context.Background(), cfg.RedisAddress, "", cfg.RedisDB)
		if err != nil {
			return fmt.Errorf("magicforestd: %w", err)
		}
		resultCache = redisCache
	} else {
		resultCache = cache.NewMemoryCache()
	}

	det, err := magicforest.NewWithOptions(magicforest.Options{
		RuleFiles:       cfg.RuleFiles,
		EnableFallback:  cfg.FallbackEnabled,
		Mode:            magic.ParseMatchMode(cfg.MatchMode),
		DefaultMimeType: cfg.DefaultUnknownMime,
		Cache:           resultCache,
		Logger:          log,
	})
	if err != nil {
		return fmt.Errorf("magicforestd: %w", err)
	}

	router := newRouter(det)
	log.WithField("address", cfg.HTTPAddress).Info("magicforestd listening")
	return router.Run(cfg.HTTPAddress)
}

func newRouter(det *magicforest.Detector) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.POST("/v1/identify", func(c *gin.Context) {
		result, err := det.Identify(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"mime_type":   result.MimeType,
			"specificity": result.Specificity,
			"source":      result.Source,
		})
	})

	return router
}
