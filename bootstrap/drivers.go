package bootstrap

import (
	"context"
	"fmt"
	"time"

	"article-search/config"
	"article-search/driver"
	"article-search/logger"

	"github.com/meilisearch/meilisearch-go"
)

// initGraphDriver connects to Neo4j and verifies connectivity before any
// component depends on it.
func initGraphDriver(ctx context.Context, cfg *config.Config) (*driver.GraphDriver, error) {
	logger.Logger.Info("Connecting to Neo4j", "uri", cfg.Neo4j.URI)

	connectCtx, cancel := context.WithTimeout(ctx, cfg.Neo4j.Timeout)
	defer cancel()

	graphDriver, err := driver.NewGraphDriver(connectCtx, cfg.Neo4j.URI, cfg.Neo4j.User, cfg.Neo4j.Password, cfg.Neo4j.Database)
	if err != nil {
		return nil, fmt.Errorf("neo4j init: %w", err)
	}

	logger.Logger.Info("Connected to Neo4j successfully")
	return graphDriver, nil
}

// initMeilisearchClient initializes the Meilisearch client with retry logic.
func initMeilisearchClient(cfg *config.Config) (meilisearch.ServiceManager, error) {
	const maxRetries = 5
	const retryDelay = 5 * time.Second

	logger.Logger.Info("Connecting to Meilisearch", "host", cfg.Meilisearch.Host)

	var msClient meilisearch.ServiceManager

	for i := range maxRetries {
		msClient = meilisearch.New(cfg.Meilisearch.Host, meilisearch.WithAPIKey(cfg.Meilisearch.APIKey))

		if _, healthErr := msClient.Health(); healthErr != nil {
			logger.Logger.Warn("Meilisearch not ready, retrying", "attempt", i+1, "max", maxRetries, "err", healthErr)
			if i < maxRetries-1 {
				time.Sleep(retryDelay)
				continue
			}
			return nil, fmt.Errorf("failed to connect to Meilisearch after %d attempts: %w", maxRetries, healthErr)
		}

		logger.Logger.Info("Connected to Meilisearch successfully")
		break
	}

	return msClient, nil
}
