// Package search provides Google web search via the Custom Search JSON API,
// authenticated with an API key instead of an OAuth session, plus a bounded
// in-memory history of recent queries.
package search

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	customsearch "google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"
)

const (
	// MaxResultsPerQuery is the Custom Search API's per-request cap.
	MaxResultsPerQuery = 10

	// historyLimit bounds the in-memory search history.
	historyLimit = 50

	// DefaultHistoryResults is returned by History when no limit is given.
	DefaultHistoryResults = 10
)

// Result is a single search hit.
type Result struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	Snippet     string `json:"snippet"`
	DisplayLink string `json:"display_link"`
}

// Response is the outcome of one search.
type Response struct {
	Query        string   `json:"query"`
	Results      []Result `json:"results"`
	TotalResults int64    `json:"total_results"`
}

// HistoryEntry records one past search.
type HistoryEntry struct {
	ID         string    `json:"id"`
	Query      string    `json:"query"`
	Timestamp  time.Time `json:"timestamp"`
	NumResults int64     `json:"num_results"`
}

// Client performs searches against one Custom Search engine. It is safe for
// concurrent use; the query history is shared across all callers.
type Client struct {
	svc   *customsearch.Service
	cseID string

	mu      sync.Mutex
	history []HistoryEntry
	nextID  int
}

// NewClient creates a search client for the given API key and Custom Search
// Engine ID.
func NewClient(ctx context.Context, apiKey, cseID string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if cseID == "" {
		return nil, fmt.Errorf("search engine ID is required")
	}

	svc, err := customsearch.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create search service: %w", err)
	}

	return &Client{svc: svc, cseID: cseID, nextID: 1}, nil
}

// Search performs a web search. numResults is capped at the API's
// per-request limit; safeSearch toggles the provider's content filter.
// Every successful call is recorded in the history.
func (c *Client) Search(ctx context.Context, query string, numResults int64, safeSearch bool) (*Response, error) {
	if query == "" {
		return nil, fmt.Errorf("search query is required")
	}
	if numResults <= 0 || numResults > MaxResultsPerQuery {
		numResults = MaxResultsPerQuery
	}

	safe := "off"
	if safeSearch {
		safe = "active"
	}

	res, err := c.svc.Cse.List().
		Context(ctx).
		Cx(c.cseID).
		Q(query).
		Num(numResults).
		Safe(safe).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to perform search: %w", err)
	}

	response := &Response{Query: query}
	for _, item := range res.Items {
		response.Results = append(response.Results, Result{
			Title:       item.Title,
			Link:        item.Link,
			Snippet:     item.Snippet,
			DisplayLink: item.DisplayLink,
		})
	}
	if res.SearchInformation != nil {
		if total, err := strconv.ParseInt(res.SearchInformation.TotalResults, 10, 64); err == nil {
			response.TotalResults = total
		}
	}

	c.recordSearch(query, numResults)
	return response, nil
}

// recordSearch appends an entry to the history, dropping the oldest entries
// beyond the bound.
func (c *Client) recordSearch(query string, numResults int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.history = append(c.history, HistoryEntry{
		ID:         strconv.Itoa(c.nextID),
		Query:      query,
		Timestamp:  time.Now().UTC(),
		NumResults: numResults,
	})
	c.nextID++

	if len(c.history) > historyLimit {
		c.history = c.history[len(c.history)-historyLimit:]
	}
}

// History returns the most recent entries, newest last. A non-positive
// limit returns the default number of entries.
func (c *Client) History(limit int) []HistoryEntry {
	if limit <= 0 {
		limit = DefaultHistoryResults
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	start := len(c.history) - limit
	if start < 0 {
		start = 0
	}
	out := make([]HistoryEntry, len(c.history)-start)
	copy(out, c.history[start:])
	return out
}

// ClearHistory removes all history entries. The ID counter keeps counting
// so entry IDs stay unique across clears.
func (c *Client) ClearHistory() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history = nil
}
