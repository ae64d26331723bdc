package docstore

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/MrSnakeDoc/readmehub/internal/domain"
	"github.com/MrSnakeDoc/readmehub/internal/logger"
	"github.com/MrSnakeDoc/readmehub/internal/utils"
)

const (
	// DefaultGitHubAPIURL is the public GitHub REST endpoint.
	DefaultGitHubAPIURL = "https://api.github.com"
	// DefaultGitHubTimeout bounds every call to the contents API.
	DefaultGitHubTimeout = 15 * time.Second

	githubAPIVersion = "2022-11-28"
	maxErrorBody     = 64 << 10
)

// GitHubOptions locates the document inside a repository.
type GitHubOptions struct {
	BaseURL string        // API root, ex: https://api.github.com
	Owner   string        // repository owner
	Repo    string        // repository name
	Path    string        // file path inside the repository, ex: data/db.json
	Branch  string        // branch to read from and commit to
	Token   string        // token with contents:write; reads work without one on public repos
	Timeout time.Duration // per-request timeout
}

// GitHubStore persists the document as a file in a GitHub repository through
// the contents API. The file's blob SHA is the version token.
type GitHubStore struct {
	opts       GitHubOptions
	httpClient *http.Client
	logger     logger.Logger
}

// NewGitHubStore validates opts and builds the store.
func NewGitHubStore(opts GitHubOptions, log logger.Logger) (*GitHubStore, error) {
	if opts.Owner == "" || opts.Repo == "" || opts.Path == "" {
		return nil, fmt.Errorf("github store requires owner, repo and path")
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultGitHubAPIURL
	}
	if opts.Branch == "" {
		opts.Branch = "main"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultGitHubTimeout
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")

	return &GitHubStore{
		opts:       opts,
		httpClient: &http.Client{Timeout: opts.Timeout},
		logger:     log,
	}, nil
}

func (g *GitHubStore) Name() string { return "github" }

// contentsResponse is the subset of the contents API file payload we use.
type contentsResponse struct {
	SHA      string `json:"sha"`
	Size     int64  `json:"size"`
	Encoding string `json:"encoding"`
	Content  string `json:"content"`
}

type putRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
	Branch  string `json:"branch"`
	SHA     string `json:"sha,omitempty"`
}

type putResponse struct {
	Content struct {
		SHA string `json:"sha"`
	} `json:"content"`
}

type apiError struct {
	Message string `json:"message"`
}

func (g *GitHubStore) contentsURL(withRef bool) string {
	segments := strings.Split(strings.Trim(g.opts.Path, "/"), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	u := fmt.Sprintf("%s/repos/%s/%s/contents/%s",
		g.opts.BaseURL, url.PathEscape(g.opts.Owner), url.PathEscape(g.opts.Repo), strings.Join(segments, "/"))
	if withRef {
		u += "?ref=" + url.QueryEscape(g.opts.Branch)
	}
	return u
}

func (g *GitHubStore) newRequest(ctx context.Context, method, target string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", githubAPIVersion)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if g.opts.Token != "" {
		req.Header.Set("Authorization", "Bearer "+g.opts.Token)
	}
	return req, nil
}

// Load fetches the document and its blob SHA.
func (g *GitHubStore) Load(ctx context.Context) (*Snapshot, error) {
	req, err := g.newRequest(ctx, http.MethodGet, g.contentsURL(true), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBackend, err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch %s: %w", ErrBackend, g.opts.Path, err)
	}
	defer utils.Close(resp.Body)

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		g.logger.Info("document not found in repository, starting empty",
			logger.String("path", g.opts.Path),
			logger.String("branch", g.opts.Branch))
		return Empty(), nil
	default:
		return nil, fmt.Errorf("%w: fetch %s: %s", ErrBackend, g.opts.Path, readAPIError(resp))
	}

	var file contentsResponse
	if err := json.NewDecoder(resp.Body).Decode(&file); err != nil {
		return nil, fmt.Errorf("%w: decode contents response: %w", ErrBackend, err)
	}

	var raw []byte
	if file.Encoding == "base64" {
		raw, err = base64.StdEncoding.DecodeString(strings.ReplaceAll(file.Content, "\n", ""))
		if err != nil {
			return nil, fmt.Errorf("%w: decode base64 content: %w", ErrBackend, err)
		}
	} else {
		// Files above 1 MB come back with encoding "none" and no content.
		raw, err = g.fetchRaw(ctx)
		if err != nil {
			return nil, err
		}
	}

	doc, err := Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBackend, err)
	}

	g.logger.Debug("document loaded from github",
		logger.String("sha", file.SHA),
		logger.Int("articles", len(doc.Articles)),
		logger.Int("categories", len(doc.Categories)))

	return &Snapshot{Document: doc, Version: file.SHA, Exists: true}, nil
}

func (g *GitHubStore) fetchRaw(ctx context.Context) ([]byte, error) {
	req, err := g.newRequest(ctx, http.MethodGet, g.contentsURL(true), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBackend, err)
	}
	req.Header.Set("Accept", "application/vnd.github.raw+json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch raw %s: %w", ErrBackend, g.opts.Path, err)
	}
	defer utils.Close(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: fetch raw %s: %s", ErrBackend, g.opts.Path, readAPIError(resp))
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read raw %s: %w", ErrBackend, g.opts.Path, err)
	}
	return data, nil
}

// Save commits doc to the branch. version is sent as the file SHA; GitHub
// rejects the write when it is stale, or missing while the file exists.
func (g *GitHubStore) Save(ctx context.Context, doc *domain.Document, version, message string) (string, error) {
	if g.opts.Token == "" {
		return "", ErrNoCredential
	}

	data, err := Encode(doc)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrBackend, err)
	}
	body, err := json.Marshal(putRequest{
		Message: message,
		Content: base64.StdEncoding.EncodeToString(data),
		Branch:  g.opts.Branch,
		SHA:     version,
	})
	if err != nil {
		return "", fmt.Errorf("%w: encode request: %w", ErrBackend, err)
	}

	req, err := g.newRequest(ctx, http.MethodPut, g.contentsURL(false), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrBackend, err)
	}

	start := time.Now()
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: commit %s: %w", ErrBackend, g.opts.Path, err)
	}
	defer utils.Close(resp.Body)

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
	case http.StatusConflict:
		return "", fmt.Errorf("%w: %s", ErrConflict, readAPIError(resp))
	case http.StatusUnprocessableEntity:
		// 422 covers a missing or unknown sha as well as unrelated
		// validation failures such as an unknown branch.
		msg := readAPIError(resp)
		if strings.Contains(strings.ToLower(msg), "sha") {
			return "", fmt.Errorf("%w: %s", ErrConflict, msg)
		}
		return "", fmt.Errorf("%w: GitHub API Error: %s", ErrBackend, msg)
	default:
		return "", fmt.Errorf("%w: GitHub API Error: %s", ErrBackend, readAPIError(resp))
	}

	var out putResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decode commit response: %w", ErrBackend, err)
	}

	g.logger.Info("document committed to github",
		logger.String("message", message),
		logger.String("previous_sha", version),
		logger.String("sha", out.Content.SHA),
		logger.Duration("duration", time.Since(start)))

	return out.Content.SHA, nil
}

// readAPIError extracts GitHub's error message, falling back to the status.
func readAPIError(resp *http.Response) string {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var e apiError
	if json.Unmarshal(data, &e) == nil && e.Message != "" {
		return fmt.Sprintf("%s (%d)", e.Message, resp.StatusCode)
	}
	return resp.Status
}
