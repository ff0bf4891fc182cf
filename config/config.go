package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
)

type Config struct {
	Neo4j       Neo4jConfig
	Meilisearch MeilisearchConfig
	Reindex     ReindexConfig
	HTTP        HTTPConfig
}

type Neo4jConfig struct {
	URI      string
	User     string
	Password string
	// Database selects a named database; empty means the server default.
	Database string
	Timeout  time.Duration
}

type MeilisearchConfig struct {
	Host    string
	APIKey  string
	Timeout time.Duration
}

type ReindexConfig struct {
	Interval time.Duration
	PageSize int
}

type HTTPConfig struct {
	Addr              string
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
}

// Load reads the service configuration from the environment. All missing
// required variables are reported together so an operator can fix them in
// one pass.
func Load() (*Config, error) {
	var missing []string
	required := func(key string) string {
		if value := getEnv(key); value != "" {
			return value
		}
		missing = append(missing, key)
		return ""
	}

	pageSize := intEnv("FETCH_PAGE_SIZE", defaultFetchPageSize)
	if pageSize <= 0 {
		pageSize = defaultFetchPageSize
	}

	cfg := &Config{
		Neo4j: Neo4jConfig{
			URI:      required("NEO4J_URI"),
			User:     required("NEO4J_USER"),
			Password: required("NEO4J_PASSWORD"),
			Database: getEnvOrDefault("NEO4J_DATABASE", ""),
			Timeout:  durationEnv("NEO4J_TIMEOUT", defaultNeo4jTimeout),
		},
		Meilisearch: MeilisearchConfig{
			Host:    required("MEILISEARCH_HOST"),
			APIKey:  getEnvOrDefault("MEILISEARCH_API_KEY", ""),
			Timeout: durationEnv("MEILISEARCH_TIMEOUT", defaultMeilisearchTimeout),
		},
		Reindex: ReindexConfig{
			Interval: durationEnv("REINDEX_INTERVAL", defaultReindexInterval),
			PageSize: pageSize,
		},
		HTTP: HTTPConfig{
			Addr:              stringEnv("HTTP_ADDR", defaultHTTPAddr),
			ReadHeaderTimeout: defaultReadHeaderTimeout,
			ShutdownTimeout:   defaultShutdownTimeout,
		},
	}

	if len(missing) > 0 {
		for _, key := range missing {
			slog.Error("missing required environment variable", "variable", key)
		}
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	slog.Info("configuration loaded",
		"neo4j_uri", cfg.Neo4j.URI,
		"meilisearch_host", cfg.Meilisearch.Host,
		"reindex_interval", cfg.Reindex.Interval,
		"http_addr", cfg.HTTP.Addr,
	)

	return cfg, nil
}

// getEnv reads a variable, preferring a _FILE-suffixed companion pointing at
// a secret file (Docker Secrets convention).
func getEnv(key string) string {
	if fileValue := os.Getenv(key + "_FILE"); fileValue != "" {
		if content, err := os.ReadFile(fileValue); err == nil {
			return strings.TrimSpace(string(content))
		}
	}
	return os.Getenv(key)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := getEnv(key); value != "" {
		return value
	}
	return defaultValue
}
