package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	// Save original env vars and restore after tests
	originalEnv := map[string]string{
		"PARCELSCAN_APP_NAME":                  os.Getenv("PARCELSCAN_APP_NAME"),
		"PARCELSCAN_APP_ENV":                   os.Getenv("PARCELSCAN_APP_ENV"),
		"PARCELSCAN_APP_PORT":                  os.Getenv("PARCELSCAN_APP_PORT"),
		"PARCELSCAN_DATABASE_HOST":             os.Getenv("PARCELSCAN_DATABASE_HOST"),
		"PARCELSCAN_DATABASE_PORT":             os.Getenv("PARCELSCAN_DATABASE_PORT"),
		"PARCELSCAN_DATABASE_PASSWORD":         os.Getenv("PARCELSCAN_DATABASE_PASSWORD"),
		"PARCELSCAN_DATABASE_SSLMODE":          os.Getenv("PARCELSCAN_DATABASE_SSLMODE"),
		"PARCELSCAN_DATABASE_MAX_OPEN_CONNS":   os.Getenv("PARCELSCAN_DATABASE_MAX_OPEN_CONNS"),
		"PARCELSCAN_DATABASE_MAX_IDLE_CONNS":   os.Getenv("PARCELSCAN_DATABASE_MAX_IDLE_CONNS"),
		"PARCELSCAN_SHOPIFY_SHOP_DOMAIN":       os.Getenv("PARCELSCAN_SHOPIFY_SHOP_DOMAIN"),
		"PARCELSCAN_SHOPIFY_ACCESS_TOKEN":      os.Getenv("PARCELSCAN_SHOPIFY_ACCESS_TOKEN"),
		"PARCELSCAN_SYNC_PAGE_SIZE":            os.Getenv("PARCELSCAN_SYNC_PAGE_SIZE"),
		"PARCELSCAN_SYNC_STALE_AFTER":          os.Getenv("PARCELSCAN_SYNC_STALE_AFTER"),
		"PARCELSCAN_SCHEDULER_ENABLED":         os.Getenv("PARCELSCAN_SCHEDULER_ENABLED"),
		"PARCELSCAN_SCHEDULER_SYNC_INTERVAL":   os.Getenv("PARCELSCAN_SCHEDULER_SYNC_INTERVAL"),
		"PARCELSCAN_TELEMETRY_SAMPLING_RATIO":  os.Getenv("PARCELSCAN_TELEMETRY_SAMPLING_RATIO"),
		"PARCELSCAN_TELEMETRY_DB_LOG_FULL_SQL": os.Getenv("PARCELSCAN_TELEMETRY_DB_LOG_FULL_SQL"),
	}

	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	clearEnv := func() {
		for k := range originalEnv {
			os.Unsetenv(k)
		}
	}

	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearEnv()

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "parcelscan-backend", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "parcelscan", cfg.Database.DBName)
		assert.Equal(t, 250, cfg.Sync.PageSize)
		assert.Equal(t, 30, cfg.Sync.DefaultLookbackDays)
		assert.Equal(t, 90, cfg.Sync.FullLookbackDays)
		assert.Equal(t, 2*time.Minute, cfg.Sync.StaleAfter)
		assert.Equal(t, "2024-01", cfg.Shopify.APIVersion)
		assert.Equal(t, 10*time.Minute, cfg.Scheduler.SyncInterval)
		assert.False(t, cfg.Scheduler.Enabled)
	})

	t.Run("loads values from environment variables with PARCELSCAN prefix", func(t *testing.T) {
		clearEnv()
		os.Setenv("PARCELSCAN_APP_PORT", "9000")
		os.Setenv("PARCELSCAN_DATABASE_HOST", "testdb.local")
		os.Setenv("PARCELSCAN_SHOPIFY_SHOP_DOMAIN", "demo.myshopify.com")
		os.Setenv("PARCELSCAN_SHOPIFY_ACCESS_TOKEN", "shpat_test")
		os.Setenv("PARCELSCAN_SYNC_PAGE_SIZE", "100")
		os.Setenv("PARCELSCAN_SYNC_STALE_AFTER", "5m")
		os.Setenv("PARCELSCAN_SCHEDULER_ENABLED", "true")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, "demo.myshopify.com", cfg.Shopify.ShopDomain)
		assert.Equal(t, "shpat_test", cfg.Shopify.AccessToken)
		assert.Equal(t, 100, cfg.Sync.PageSize)
		assert.Equal(t, 5*time.Minute, cfg.Sync.StaleAfter)
		assert.True(t, cfg.Scheduler.Enabled)
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		clearEnv()
		os.Setenv("PARCELSCAN_DATABASE_MAX_OPEN_CONNS", "10")
		os.Setenv("PARCELSCAN_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_idle_conns")
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("rejects page size above the API maximum", func(t *testing.T) {
		clearEnv()
		os.Setenv("PARCELSCAN_SYNC_PAGE_SIZE", "500")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "page_size")
	})

	t.Run("production requires shopify credentials", func(t *testing.T) {
		clearEnv()
		os.Setenv("PARCELSCAN_APP_ENV", "production")
		os.Setenv("PARCELSCAN_DATABASE_PASSWORD", "secret")
		os.Setenv("PARCELSCAN_DATABASE_SSLMODE", "require")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "shopify.shop_domain")
	})

	t.Run("production rejects full SQL logging", func(t *testing.T) {
		clearEnv()
		os.Setenv("PARCELSCAN_APP_ENV", "production")
		os.Setenv("PARCELSCAN_DATABASE_PASSWORD", "secret")
		os.Setenv("PARCELSCAN_DATABASE_SSLMODE", "require")
		os.Setenv("PARCELSCAN_SHOPIFY_SHOP_DOMAIN", "demo.myshopify.com")
		os.Setenv("PARCELSCAN_SHOPIFY_ACCESS_TOKEN", "shpat_test")
		os.Setenv("PARCELSCAN_TELEMETRY_DB_LOG_FULL_SQL", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "db_log_full_sql")
	})

	t.Run("validates sampling ratio bounds", func(t *testing.T) {
		clearEnv()
		os.Setenv("PARCELSCAN_TELEMETRY_SAMPLING_RATIO", "1.5")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sampling_ratio")
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("builds DSN with escaped credentials", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "user@host",
			Password: "p@ss/word",
			DBName:   "parcelscan",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "postgres://")
		assert.Contains(t, dsn, "localhost:5432")
		assert.Contains(t, dsn, "parcelscan")
		assert.Contains(t, dsn, "sslmode=disable")
		assert.NotContains(t, dsn, "p@ss/word")
	})
}
