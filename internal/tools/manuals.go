package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/callsight/callsight/internal/domain"
)

// maxManualResults caps how many search hits are formatted for the model.
const maxManualResults = 3

// ManualsClient queries the company-manuals document search service.
type ManualsClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewManualsClient creates a manuals search client.
func NewManualsClient(baseURL, apiKey string) *ManualsClient {
	return &ManualsClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type manualHit struct {
	Content string `json:"content"`
	Source  string `json:"source"`
}

// search queries the document index and returns ranked hits.
func (c *ManualsClient) search(ctx context.Context, query string) ([]manualHit, error) {
	payload, err := json.Marshal(map[string]string{"query": query})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/search", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned %d: %s", resp.StatusCode, body)
	}

	var decoded struct {
		Results []manualHit `json:"results"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("decoding search response: %w", err)
	}
	return decoded.Results, nil
}

// SearchManualsTool searches company manuals to help with support solutions.
type SearchManualsTool struct {
	Manuals *ManualsClient
}

func (t *SearchManualsTool) Name() string { return domain.ToolSearchCompanyManuals }

func (t *SearchManualsTool) Description() string {
	return "Search company manuals for support solutions. Use when the customer asks about internal policy, product instructions, or process."
}

func (t *SearchManualsTool) InputSchema() string {
	return `{"type":"object","properties":{"query":{"type":"string","description":"Search query for company manuals"}},"required":["query"]}`
}

func (t *SearchManualsTool) Execute(ctx context.Context, input string) (string, error) {
	var args struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal([]byte(input), &args); err != nil {
		return Failure("invalid arguments: %v", err), nil
	}

	hits, err := t.Manuals.search(ctx, args.Query)
	if err != nil {
		return Failure("Error searching company manuals: %v", err), nil
	}

	if len(hits) == 0 {
		return SuccessWithSources(fmt.Sprintf("No results found for query: %q", args.Query), []string{}), nil
	}
	if len(hits) > maxManualResults {
		hits = hits[:maxManualResults]
	}

	var formatted []string
	var sources []string
	seen := make(map[string]bool)
	for i, hit := range hits {
		source := sourceName(hit.Source)
		if !seen[source] {
			seen[source] = true
			sources = append(sources, source)
		}

		content := truncateContent(hit.Content, 1000)
		formatted = append(formatted, fmt.Sprintf("%d. Source: %s\nContent: %s\n", i+1, source, content))
	}

	return SuccessWithSources(strings.Join(formatted, "\n"), sources), nil
}

// truncateContent caps s at limit bytes, backing up so a multi-byte rune is
// never split mid-sequence.
func truncateContent(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// sourceName reduces a document URL to its bare filename without extension;
// anything unparseable passes through unchanged.
func sourceName(source string) string {
	if source == "" {
		return "Unknown"
	}
	if strings.HasPrefix(source, "https://") || strings.HasPrefix(source, "http://") {
		if u, err := url.Parse(source); err == nil {
			name := path.Base(u.Path)
			return strings.TrimSuffix(name, path.Ext(name))
		}
	}
	return source
}
