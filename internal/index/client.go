// Package index wraps the Meilisearch instance that holds the repository
// records. The engine is an external collaborator: this client only moves
// documents in and out, it never implements ranking itself.
package index

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/meilisearch/meilisearch-go"

	"github.com/YancyGuo/githubhunt/internal/models"
)

var (
	// ErrUnavailable wraps any transport-level failure talking to the
	// engine. The agent surfaces it as a tool-error observation instead of
	// aborting the whole request.
	ErrUnavailable = errors.New("index: search engine unavailable")

	// ErrNotFound is returned by Get for an unknown repository id.
	ErrNotFound = errors.New("index: document not found")
)

// taskPollInterval is how often we poll Meilisearch task status after an
// upsert.
const taskPollInterval = 50 * time.Millisecond

// Client is a thin wrapper around one Meilisearch index.
type Client struct {
	manager meilisearch.ServiceManager
	index   meilisearch.IndexManager
}

// New connects to the Meilisearch host. apiKey may be empty for an
// unsecured local instance.
func New(host, apiKey, indexUID string) *Client {
	manager := meilisearch.New(host, meilisearch.WithAPIKey(apiKey))
	return &Client{
		manager: manager,
		index:   manager.Index(indexUID),
	}
}

// Upsert writes records into the index, keyed by the "id" attribute.
// Re-upserting an identifier overwrites the prior document, so the call is
// idempotent. It blocks until the engine has processed the batch so the
// offline sync can trust that a completed run is fully indexed.
func (c *Client) Upsert(ctx context.Context, records []models.Repo) error {
	if len(records) == 0 {
		return nil
	}
	for i := range records {
		if records[i].ID == "" {
			records[i].ID = models.RepoID(records[i].FullName)
		}
	}

	info, err := c.index.AddDocumentsWithContext(ctx, &records, "id")
	if err != nil {
		return fmt.Errorf("%w: upsert: %v", ErrUnavailable, err)
	}

	task, err := c.manager.WaitForTaskWithContext(ctx, info.TaskUID, taskPollInterval)
	if err != nil {
		return fmt.Errorf("%w: wait for upsert task: %v", ErrUnavailable, err)
	}
	if task.Status != meilisearch.TaskStatusSucceeded {
		return fmt.Errorf("index: upsert task %d finished as %s", info.TaskUID, task.Status)
	}
	return nil
}

// Search runs a keyword query with the "frequency" matching strategy, so
// documents matching most (not necessarily all) query terms still rank as
// candidates. Results come back in engine order.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]models.Repo, error) {
	if limit <= 0 {
		limit = 5
	}

	res, err := c.index.SearchWithContext(ctx, query, &meilisearch.SearchRequest{
		Limit:            int64(limit),
		MatchingStrategy: meilisearch.Frequency,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: search: %v", ErrUnavailable, err)
	}

	repos := make([]models.Repo, 0, len(res.Hits))
	for _, hit := range res.Hits {
		raw, err := json.Marshal(hit)
		if err != nil {
			return nil, fmt.Errorf("index: encode hit: %w", err)
		}
		var repo models.Repo
		if err := json.Unmarshal(raw, &repo); err != nil {
			return nil, fmt.Errorf("index: decode hit: %w", err)
		}
		repos = append(repos, repo)
	}
	return repos, nil
}

// Get fetches a single record by repository full name.
func (c *Client) Get(ctx context.Context, fullName string) (models.Repo, error) {
	var repo models.Repo
	err := c.index.GetDocumentWithContext(ctx, models.RepoID(fullName), nil, &repo)
	if err != nil {
		var apiErr *meilisearch.Error
		if errors.As(err, &apiErr) && apiErr.StatusCode == 404 {
			return models.Repo{}, fmt.Errorf("%w: %s", ErrNotFound, fullName)
		}
		return models.Repo{}, fmt.Errorf("%w: get %s: %v", ErrUnavailable, fullName, err)
	}
	return repo, nil
}

// Health probes the engine. Used by the sync CLI before a run; the HTTP
// /health endpoint deliberately does not call this.
func (c *Client) Health(ctx context.Context) error {
	if _, err := c.manager.HealthWithContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
