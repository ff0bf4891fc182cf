package driver

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

const articlePageQuery = `MATCH (a:Article)
RETURN a.id AS id, a.title AS title, a.description AS description, a.content AS content
ORDER BY a.id SKIP $skip LIMIT $limit`

const articlesByIDsQuery = `MATCH (a:Article)
WHERE a.id IN $ids
RETURN a.id AS id, a.title AS title, a.description AS description, a.content AS content
ORDER BY a.id`

const articleProbeQuery = `MATCH (a:Article) RETURN a.id AS id LIMIT 1`

// GraphDriver wraps the Neo4j driver. The underlying driver pools
// connections; sessions are opened per call and closed with it.
type GraphDriver struct {
	driver   neo4j.DriverWithContext
	database string
}

func NewGraphDriver(ctx context.Context, uri, user, password, database string) (*GraphDriver, error) {
	drv, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, &DriverError{
			Op:  "NewGraphDriver",
			Err: "failed to create driver: " + err.Error(),
		}
	}

	if err := drv.VerifyConnectivity(ctx); err != nil {
		return nil, &DriverError{
			Op:        "NewGraphDriver",
			Err:       "failed to verify connectivity: " + err.Error(),
			Transient: neo4j.IsRetryable(err),
		}
	}

	return &GraphDriver{
		driver:   drv,
		database: database,
	}, nil
}

func (d *GraphDriver) Close(ctx context.Context) error {
	return d.driver.Close(ctx)
}

// FetchArticles returns one page of article rows ordered by ID. The stable
// order keeps successive pages free of duplicates and gaps.
func (d *GraphDriver) FetchArticles(ctx context.Context, skip, limit int) ([]*ArticleRecord, error) {
	records, err := d.readRecords(ctx, articlePageQuery, map[string]any{
		"skip":  skip,
		"limit": limit,
	})
	if err != nil {
		return nil, &DriverError{
			Op:        "FetchArticles",
			Err:       err.Error(),
			Transient: neo4j.IsRetryable(err),
		}
	}
	return toArticleRecords(records), nil
}

func (d *GraphDriver) FetchArticlesByIDs(ctx context.Context, ids []string) ([]*ArticleRecord, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	records, err := d.readRecords(ctx, articlesByIDsQuery, map[string]any{"ids": ids})
	if err != nil {
		return nil, &DriverError{
			Op:        "FetchArticlesByIDs",
			Err:       err.Error(),
			Transient: neo4j.IsRetryable(err),
		}
	}
	return toArticleRecords(records), nil
}

// Probe runs a minimal read to prove the store answers queries.
func (d *GraphDriver) Probe(ctx context.Context) error {
	if _, err := d.readRecords(ctx, articleProbeQuery, nil); err != nil {
		return &DriverError{
			Op:        "Probe",
			Err:       err.Error(),
			Transient: neo4j.IsRetryable(err),
		}
	}
	return nil
}

func (d *GraphDriver) readRecords(ctx context.Context, query string, params map[string]any) ([]*neo4j.Record, error) {
	session := d.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: d.database,
	})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, err
	}
	return result.([]*neo4j.Record), nil
}

func toArticleRecords(records []*neo4j.Record) []*ArticleRecord {
	out := make([]*ArticleRecord, 0, len(records))
	for _, rec := range records {
		out = append(out, &ArticleRecord{
			ID:          recordString(rec, "id"),
			Title:       recordString(rec, "title"),
			Description: recordString(rec, "description"),
			Content:     recordValue(rec, "content"),
		})
	}
	return out
}

func recordString(rec *neo4j.Record, key string) string {
	value, ok := rec.Get(key)
	if !ok || value == nil {
		return ""
	}
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", value)
}

func recordValue(rec *neo4j.Record, key string) any {
	value, ok := rec.Get(key)
	if !ok {
		return nil
	}
	return value
}
