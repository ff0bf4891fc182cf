package config

import (
	"os"
	"strconv"
	"time"
)

const (
	// IndexName is the Meilisearch index every reindex run writes into.
	IndexName = "articles"
	// IndexPrimaryKey makes repeated pushes of the same article an upsert
	// rather than a duplicate.
	IndexPrimaryKey = "id"
)

const (
	defaultReindexInterval    = time.Hour
	defaultFetchPageSize      = 100
	defaultHTTPAddr           = ":9300"
	defaultNeo4jTimeout       = 10 * time.Second
	defaultMeilisearchTimeout = 15 * time.Second
	defaultReadHeaderTimeout  = 5 * time.Second
	defaultShutdownTimeout    = 30 * time.Second
)

func stringEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func intEnv(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func durationEnv(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
