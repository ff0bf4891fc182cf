package driver

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"syscall"
	"time"

	"github.com/meilisearch/meilisearch-go"

	"article-search/utils/retry"
)

// taskPollInterval is how often a pending Meilisearch task is polled until
// it settles.
const taskPollInterval = 50 * time.Millisecond

// retrievedAttributes is the projection served back to search clients.
// Content is indexed for matching but never returned.
var retrievedAttributes = []string{"id", "title", "description"}

type MeilisearchDriver struct {
	client     meilisearch.ServiceManager
	index      meilisearch.IndexManager
	indexName  string
	primaryKey string
}

func NewMeilisearchDriver(client meilisearch.ServiceManager, indexName, primaryKey string) *MeilisearchDriver {
	return &MeilisearchDriver{
		client:     client,
		index:      client.Index(indexName),
		indexName:  indexName,
		primaryKey: primaryKey,
	}
}

// EnsureIndex creates the index with the configured primary key when it does
// not exist yet. Any error other than index_not_found propagates unchanged.
func (d *MeilisearchDriver) EnsureIndex(ctx context.Context) error {
	_, err := d.client.GetIndex(d.indexName)
	if err == nil {
		return nil
	}
	if !isIndexNotFound(err) {
		return &DriverError{
			Op:        "EnsureIndex",
			Err:       err.Error(),
			Transient: isTransientEngineError(err),
		}
	}

	task, err := d.client.CreateIndex(&meilisearch.IndexConfig{
		Uid:        d.indexName,
		PrimaryKey: d.primaryKey,
	})
	if err != nil {
		return &DriverError{
			Op:        "EnsureIndex",
			Err:       "failed to create index: " + err.Error(),
			Transient: isTransientEngineError(err),
		}
	}

	if err := d.waitForTask(task.TaskUID, "index creation"); err != nil {
		return &DriverError{Op: "EnsureIndex", Err: err.Error(), Transient: true}
	}
	return nil
}

func (d *MeilisearchDriver) PutDocuments(ctx context.Context, docs []SearchDocumentDriver) error {
	if len(docs) == 0 {
		return nil
	}

	task, err := d.index.AddDocuments(docs, nil)
	if err != nil {
		return &DriverError{
			Op:        "PutDocuments",
			Err:       err.Error(),
			Transient: isTransientEngineError(err),
		}
	}

	if err := d.waitForTask(task.TaskUID, "document indexing"); err != nil {
		return &DriverError{Op: "PutDocuments", Err: err.Error(), Transient: true}
	}
	return nil
}

func (d *MeilisearchDriver) DeleteDocuments(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	task, err := d.index.DeleteDocuments(ids, nil)
	if err != nil {
		return &DriverError{
			Op:        "DeleteDocuments",
			Err:       err.Error(),
			Transient: isTransientEngineError(err),
		}
	}

	if err := d.waitForTask(task.TaskUID, "document deletion"); err != nil {
		return &DriverError{Op: "DeleteDocuments", Err: err.Error(), Transient: true}
	}
	return nil
}

func (d *MeilisearchDriver) Search(ctx context.Context, query string, limit int) ([]SearchDocumentDriver, error) {
	searchRequest := &meilisearch.SearchRequest{
		Limit:                int64(limit),
		AttributesToRetrieve: retrievedAttributes,
	}

	result, err := d.index.Search(query, searchRequest)
	if err != nil {
		return nil, &DriverError{
			Op:        "Search",
			Err:       err.Error(),
			Transient: isTransientEngineError(err),
		}
	}

	docs := make([]SearchDocumentDriver, 0, len(result.Hits))
	for _, hit := range result.Hits {
		var doc SearchDocumentDriver
		if err := decodeHit(hit, &doc); err != nil {
			continue
		}
		docs = append(docs, doc)
	}

	return docs, nil
}

// Ping checks that the engine answers. A missing index still counts as
// healthy because the next reindex run creates it.
func (d *MeilisearchDriver) Ping(ctx context.Context) error {
	_, err := d.client.GetIndex(d.indexName)
	if err == nil || isIndexNotFound(err) {
		return nil
	}
	return &DriverError{
		Op:        "Ping",
		Err:       err.Error(),
		Transient: isTransientEngineError(err),
	}
}

// waitForTask blocks until the task settles and fails when the engine
// reports anything other than success.
func (d *MeilisearchDriver) waitForTask(taskUID int64, what string) error {
	task, err := d.index.WaitForTask(taskUID, taskPollInterval)
	if err != nil {
		return errors.New("failed to wait for " + what + ": " + err.Error())
	}
	if task.Status != meilisearch.TaskStatusSucceeded {
		msg := what + " task finished as " + string(task.Status)
		if task.Error.Message != "" {
			msg += ": " + task.Error.Message
		}
		return errors.New(msg)
	}
	return nil
}

// decodeHit converts a search hit through JSON, which keeps the driver
// independent of the concrete hit representation the client library uses.
func decodeHit(hit any, out *SearchDocumentDriver) error {
	raw, err := json.Marshal(hit)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func isIndexNotFound(err error) bool {
	var msErr *meilisearch.Error
	if !errors.As(err, &msErr) {
		return false
	}
	return msErr.MeilisearchApiError.Code == "index_not_found" ||
		msErr.StatusCode == http.StatusNotFound
}

// isTransientEngineError classifies engine failures for the retry layer.
// A response status decides when one exists; otherwise the request never
// reached the engine and is worth retrying.
func isTransientEngineError(err error) bool {
	var msErr *meilisearch.Error
	if errors.As(err, &msErr) {
		if msErr.StatusCode == 0 {
			return true
		}
		return retry.IsTransientHTTPStatus(msErr.StatusCode)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET)
}
