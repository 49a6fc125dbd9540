package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v2"

	"github.com/YancyGuo/githubhunt/internal/models"
)

// Tool names form a closed set; dispatch is by exact match.
const (
	ToolSearchRepositories = "search_repositories"
	ToolGetRepoReadme      = "get_repo_readme"
	ToolGetUserStarred     = "get_user_starred"
	ToolViewRepoPage       = "view_repo_page"
)

const (
	defaultSearchLimit = 5
	maxSearchLimit     = 20
	maxReadmeChars     = 8000
	maxStarredEntries  = 200
)

// ---- Client contracts -------------------------------------------------------

// Searcher is the slice of the index client the search tool needs.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]models.Repo, error)
}

// Fetcher is the slice of the GitHub client the fetch tools need.
type Fetcher interface {
	FetchReadme(ctx context.Context, owner, name string) (string, error)
	ListStarred(ctx context.Context, username string) ([]string, error)
}

// Analyzer is the optional vision capability.
type Analyzer interface {
	Analyze(ctx context.Context, fullName string) (string, error)
}

// ---- Toolset ----------------------------------------------------------------

// Toolset assembles the fixed tool registry. Pass a nil Analyzer to omit
// the visual tool entirely: an absent capability shrinks the registered set
// at construction time rather than failing at call time.
func Toolset(idx Searcher, gh Fetcher, vis Analyzer) []Tool {
	tools := []Tool{
		searchTool(idx),
		readmeTool(gh),
		starredTool(gh),
	}
	if vis != nil {
		tools = append(tools, viewTool(vis))
	}
	return tools
}

func searchTool(idx Searcher) Tool {
	return Tool{
		Name: ToolSearchRepositories,
		Def: openai.ChatCompletionFunctionTool(openai.FunctionDefinitionParam{
			Name:        ToolSearchRepositories,
			Description: openai.String("Search the local repository index by keywords. Partial keyword matches still return candidates."),
			Parameters: openai.FunctionParameters{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{
						"type":        "string",
						"description": "Space-separated search keywords, e.g. \"go redis event loop\"",
					},
					"limit": map[string]any{
						"type":        "integer",
						"description": fmt.Sprintf("Maximum results to return (default %d, max %d)", defaultSearchLimit, maxSearchLimit),
					},
				},
				"required": []string{"query"},
			},
		}),
		Run: func(ctx context.Context, raw json.RawMessage) (string, error) {
			var args struct {
				Query string `json:"query"`
				Limit int    `json:"limit"`
			}
			if err := json.Unmarshal(raw, &args); err != nil {
				return "", fmt.Errorf("invalid arguments: %w", err)
			}
			if strings.TrimSpace(args.Query) == "" {
				return "", fmt.Errorf("query must not be empty")
			}
			limit := args.Limit
			if limit <= 0 {
				limit = defaultSearchLimit
			}
			if limit > maxSearchLimit {
				limit = maxSearchLimit
			}

			repos, err := idx.Search(ctx, args.Query, limit)
			if err != nil {
				return "", err
			}
			if len(repos) == 0 {
				return "no repositories matched; try different or fewer keywords", nil
			}

			type hit struct {
				FullName    string `json:"full_name"`
				Description string `json:"description"`
				Stars       int    `json:"stars"`
				Language    string `json:"language"`
			}
			hits := make([]hit, len(repos))
			for i, r := range repos {
				hits[i] = hit{r.FullName, r.Description, r.Stars, r.Language}
			}
			out, err := json.Marshal(hits)
			if err != nil {
				return "", err
			}
			return string(out), nil
		},
	}
}

func readmeTool(gh Fetcher) Tool {
	return Tool{
		Name: ToolGetRepoReadme,
		Def: openai.ChatCompletionFunctionTool(openai.FunctionDefinitionParam{
			Name:        ToolGetRepoReadme,
			Description: openai.String("Fetch the README text of a repository for closer inspection."),
			Parameters: openai.FunctionParameters{
				"type": "object",
				"properties": map[string]any{
					"repo": map[string]any{
						"type":        "string",
						"description": "Repository full name, e.g. \"redis/redis\"",
					},
				},
				"required": []string{"repo"},
			},
		}),
		Run: func(ctx context.Context, raw json.RawMessage) (string, error) {
			var args struct {
				Repo string `json:"repo"`
			}
			if err := json.Unmarshal(raw, &args); err != nil {
				return "", fmt.Errorf("invalid arguments: %w", err)
			}
			owner, name, ok := models.SplitFullName(args.Repo)
			if !ok {
				return "", fmt.Errorf("repo must be of the form owner/name, got %q", args.Repo)
			}

			readme, err := gh.FetchReadme(ctx, owner, name)
			if err != nil {
				return "", err
			}
			if runes := []rune(readme); len(runes) > maxReadmeChars {
				readme = string(runes[:maxReadmeChars]) + "\n\n[README truncated]"
			}
			return readme, nil
		},
	}
}

func starredTool(gh Fetcher) Tool {
	return Tool{
		Name: ToolGetUserStarred,
		Def: openai.ChatCompletionFunctionTool(openai.FunctionDefinitionParam{
			Name:        ToolGetUserStarred,
			Description: openai.String("List the repositories a GitHub user has starred, as full names."),
			Parameters: openai.FunctionParameters{
				"type": "object",
				"properties": map[string]any{
					"username": map[string]any{
						"type":        "string",
						"description": "GitHub login, e.g. \"torvalds\"",
					},
				},
				"required": []string{"username"},
			},
		}),
		Run: func(ctx context.Context, raw json.RawMessage) (string, error) {
			var args struct {
				Username string `json:"username"`
			}
			if err := json.Unmarshal(raw, &args); err != nil {
				return "", fmt.Errorf("invalid arguments: %w", err)
			}
			if args.Username == "" {
				return "", fmt.Errorf("username must not be empty")
			}

			starred, err := gh.ListStarred(ctx, args.Username)
			if err != nil {
				return "", err
			}
			if len(starred) == 0 {
				return "the user has no starred repositories", nil
			}
			if len(starred) > maxStarredEntries {
				starred = starred[:maxStarredEntries]
			}
			return strings.Join(starred, "\n"), nil
		},
	}
}

func viewTool(vis Analyzer) Tool {
	return Tool{
		Name: ToolViewRepoPage,
		Def: openai.ChatCompletionFunctionTool(openai.FunctionDefinitionParam{
			Name:        ToolViewRepoPage,
			Description: openai.String("Screenshot a repository's GitHub page and describe it visually."),
			Parameters: openai.FunctionParameters{
				"type": "object",
				"properties": map[string]any{
					"repo": map[string]any{
						"type":        "string",
						"description": "Repository full name, e.g. \"redis/redis\"",
					},
				},
				"required": []string{"repo"},
			},
		}),
		Run: func(ctx context.Context, raw json.RawMessage) (string, error) {
			var args struct {
				Repo string `json:"repo"`
			}
			if err := json.Unmarshal(raw, &args); err != nil {
				return "", fmt.Errorf("invalid arguments: %w", err)
			}
			if _, _, ok := models.SplitFullName(args.Repo); !ok {
				return "", fmt.Errorf("repo must be of the form owner/name, got %q", args.Repo)
			}
			return vis.Analyze(ctx, args.Repo)
		},
	}
}
