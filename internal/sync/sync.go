// Package sync is the offline GitHub → search-index pipeline. It runs as a
// standalone batch process, never concurrently with query serving, and
// persists a page cursor after every page so an interrupted run resumes
// where it stopped.
package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/YancyGuo/githubhunt/internal/github"
	"github.com/YancyGuo/githubhunt/internal/models"
)

// Lister is the slice of the GitHub client the pipeline needs.
type Lister interface {
	SearchRepositories(ctx context.Context, query string, page int) ([]models.Repo, int, error)
	FetchReadme(ctx context.Context, owner, name string) (string, error)
}

// Upserter is the slice of the index client the pipeline needs.
type Upserter interface {
	Upsert(ctx context.Context, records []models.Repo) error
}

// cursor is what survives between runs. Page 0 means the sweep for Query
// completed.
type cursor struct {
	Query string `json:"query"`
	Page  int    `json:"page"`
}

// Pipeline moves repository records from GitHub into the search index.
type Pipeline struct {
	gh        Lister
	idx       Upserter
	statePath string
}

// New wires the pipeline. statePath is where the resume cursor lives.
func New(gh Lister, idx Upserter, statePath string) *Pipeline {
	return &Pipeline{gh: gh, idx: idx, statePath: statePath}
}

// Run sweeps GitHub search results for query into the index, at most
// maxPages pages this invocation (0 = no per-run cap). Each record is
// enriched with its README when one exists; a missing README is not an
// error. The cursor is saved after every indexed page, and any failure
// leaves it pointing at the unfinished page; upserts are idempotent, so
// redoing a page on resume is harmless.
func (p *Pipeline) Run(ctx context.Context, query string, maxPages int) error {
	cur, err := p.loadCursor()
	if err != nil {
		return err
	}
	if cur.Query != query {
		cur = cursor{Query: query, Page: 1}
	}
	if cur.Page == 0 {
		slog.Info("sync already complete for query; use -reset to start over", "query", query)
		return nil
	}

	pages := 0
	for cur.Page != 0 {
		if maxPages > 0 && pages >= maxPages {
			slog.Info("page budget reached; rerun to continue", "next_page", cur.Page)
			return nil
		}

		records, next, err := p.gh.SearchRepositories(ctx, query, cur.Page)
		if err != nil {
			return fmt.Errorf("sync: list page %d: %w", cur.Page, err)
		}

		for i := range records {
			readme, err := p.gh.FetchReadme(ctx, records[i].Owner, records[i].Name)
			switch {
			case err == nil:
				records[i].Readme = readme
			case errors.Is(err, github.ErrNotFound):
				// Repos without a README are still worth indexing.
			default:
				return fmt.Errorf("sync: readme for %s: %w", records[i].FullName, err)
			}
		}

		if err := p.idx.Upsert(ctx, records); err != nil {
			return fmt.Errorf("sync: upsert page %d: %w", cur.Page, err)
		}

		slog.Info("page indexed", "page", cur.Page, "records", len(records), "next_page", next)
		cur.Page = next
		if err := p.saveCursor(cur); err != nil {
			return err
		}
		pages++
	}

	slog.Info("sync complete", "query", query)
	return nil
}

// Reset clears the saved cursor so the next Run starts from page one.
func (p *Pipeline) Reset() error {
	if err := os.Remove(p.statePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("sync: reset cursor: %w", err)
	}
	return nil
}

func (p *Pipeline) loadCursor() (cursor, error) {
	raw, err := os.ReadFile(p.statePath)
	if os.IsNotExist(err) {
		return cursor{}, nil
	}
	if err != nil {
		return cursor{}, fmt.Errorf("sync: read cursor: %w", err)
	}
	var cur cursor
	if err := json.Unmarshal(raw, &cur); err != nil {
		return cursor{}, fmt.Errorf("sync: parse cursor %s: %w", p.statePath, err)
	}
	return cur, nil
}

func (p *Pipeline) saveCursor(cur cursor) error {
	raw, err := json.Marshal(cur)
	if err != nil {
		return err
	}
	if err := os.WriteFile(p.statePath, raw, 0o644); err != nil {
		return fmt.Errorf("sync: save cursor: %w", err)
	}
	return nil
}
