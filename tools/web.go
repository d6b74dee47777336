package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

const (
	maxPageChars   = 10000
	defaultTimeout = 30 * time.Second
	userAgent      = "anyagent/1.0"
)

// SearchWebTool queries DuckDuckGo and returns result links with snippets.
type SearchWebTool struct {
	client  *http.Client
	baseURL string
}

// NewSearchWebTool creates the search tool.
func NewSearchWebTool() *SearchWebTool {
	return &SearchWebTool{
		client:  &http.Client{Timeout: defaultTimeout},
		baseURL: "https://html.duckduckgo.com/html/",
	}
}

// Name implements Tool.
func (t *SearchWebTool) Name() string { return "search_web" }

// Description implements Tool.
func (t *SearchWebTool) Description() string {
	return "Perform a duckduckgo web search based on your query then returns the top search results."
}

// Schema implements Tool.
func (t *SearchWebTool) Schema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"query": map[string]interface{}{
				"type":        "string",
				"description": "The search query to perform.",
			},
		},
		"required": []string{"query"},
	}
}

var (
	resultLinkRe    = regexp.MustCompile(`<a[^>]+class="result__a"[^>]*href="([^"]+)"[^>]*>(.*?)</a>`)
	resultSnippetRe = regexp.MustCompile(`<a[^>]+class="result__snippet"[^>]*>(.*?)</a>`)
	tagRe           = regexp.MustCompile(`<[^>]+>`)
)

// Execute implements Tool.
func (t *SearchWebTool) Execute(ctx context.Context, input string) (string, error) {
	var args struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal([]byte(input), &args); err != nil {
		return "", fmt.Errorf("search_web: parse input: %w", err)
	}
	if args.Query == "" {
		return "", fmt.Errorf("search_web: query is required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		t.baseURL+"?q="+url.QueryEscape(args.Query), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("search_web: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("search_web: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}

	results := parseSearchResults(string(body), 10)
	if len(results) == 0 {
		return "No results found.", nil
	}
	return strings.Join(results, "\n\n"), nil
}

func parseSearchResults(page string, limit int) []string {
	links := resultLinkRe.FindAllStringSubmatch(page, limit)
	snippets := resultSnippetRe.FindAllStringSubmatch(page, limit)

	var results []string
	for i, link := range links {
		href := html.UnescapeString(link[1])
		// DuckDuckGo wraps targets in a redirect URL; unwrap it.
		if u, err := url.Parse(href); err == nil {
			if target := u.Query().Get("uddg"); target != "" {
				href = target
			}
		}
		title := stripTags(link[2])
		entry := fmt.Sprintf("[%s](%s)", title, href)
		if i < len(snippets) {
			entry += "\n" + stripTags(snippets[i][1])
		}
		results = append(results, entry)
	}
	return results
}

func stripTags(s string) string {
	return strings.TrimSpace(html.UnescapeString(tagRe.ReplaceAllString(s, "")))
}

// VisitWebpageTool fetches a URL and returns its readable text content.
type VisitWebpageTool struct {
	client *http.Client
}

// NewVisitWebpageTool creates the page fetch tool.
func NewVisitWebpageTool() *VisitWebpageTool {
	return &VisitWebpageTool{client: &http.Client{Timeout: defaultTimeout}}
}

// Name implements Tool.
func (t *VisitWebpageTool) Name() string { return "visit_webpage" }

// Description implements Tool.
func (t *VisitWebpageTool) Description() string {
	return "Visits a webpage at the given url and reads its content as a markdown string."
}

// Schema implements Tool.
func (t *VisitWebpageTool) Schema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"url": map[string]interface{}{
				"type":        "string",
				"description": "The url of the webpage to visit.",
			},
		},
		"required": []string{"url"},
	}
}

// Execute implements Tool.
func (t *VisitWebpageTool) Execute(ctx context.Context, input string) (string, error) {
	var args struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal([]byte(input), &args); err != nil {
		return "", fmt.Errorf("visit_webpage: parse input: %w", err)
	}
	if args.URL == "" {
		return "", fmt.Errorf("visit_webpage: url is required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, args.URL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("visit_webpage: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("visit_webpage: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", err
	}

	return htmlToText(string(body)), nil
}

var (
	scriptRe = regexp.MustCompile(`(?is)<(script|style|noscript)[^>]*>.*?</\w+>`)
	blockRe  = regexp.MustCompile(`(?i)</?(p|div|br|h[1-6]|li|tr|section|article)[^>]*>`)
	blankRe  = regexp.MustCompile(`\n{3,}`)
)

func htmlToText(page string) string {
	page = scriptRe.ReplaceAllString(page, "")
	page = blockRe.ReplaceAllString(page, "\n")
	page = stripTags(page)
	page = blankRe.ReplaceAllString(page, "\n\n")
	page = strings.TrimSpace(page)
	if len(page) > maxPageChars {
		page = page[:maxPageChars] + "\n...(truncated)"
	}
	return page
}

var (
	_ Tool = (*SearchWebTool)(nil)
	_ Tool = (*VisitWebpageTool)(nil)
)
