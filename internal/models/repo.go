package models

import (
	"strings"
	"time"
)

// Repo represents one GitHub repository record in the search index.
type Repo struct {
	// ID is the index primary key. Meilisearch document ids may not contain
	// slashes, so it is the full name with "/" replaced by "--"
	// (see RepoID). FullName stays the human-facing identifier.
	ID          string    `json:"id"`
	Owner       string    `json:"owner"`
	Name        string    `json:"name"`
	FullName    string    `json:"full_name"` // e.g. "redis/redis"
	Description string    `json:"description"`
	Stars       int       `json:"stars"`
	Language    string    `json:"language"`
	Readme      string    `json:"readme,omitempty"`
	SyncedAt    time.Time `json:"synced_at"`
}

// RepoID derives the index primary key from a repository full name.
// The mapping is deterministic, so upserting the same repository twice
// always lands on the same document.
func RepoID(fullName string) string {
	return strings.ReplaceAll(fullName, "/", "--")
}

// SplitFullName splits "owner/name" into its two halves. ok is false when
// the input is not of that shape.
func SplitFullName(fullName string) (owner, name string, ok bool) {
	parts := strings.SplitN(fullName, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}
