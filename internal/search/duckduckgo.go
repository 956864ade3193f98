// Package search renders DuckDuckGo instant answers into short text
// blocks for prompt augmentation.
package search

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

const (
	// DefaultBaseURL is the DuckDuckGo instant-answer endpoint.
	DefaultBaseURL = "https://api.duckduckgo.com/"
	// DefaultMaxResults caps related-topic entries when the caller
	// passes no explicit limit.
	DefaultMaxResults = 5

	requestTimeout = 10 * time.Second
	userAgent      = "Jervis/1.0 (AI Assistant)"

	// Infobox rows are noisy; only the leading few are kept.
	infoboxLimit = 3
)

// Client queries the instant-answer API and formats the payload into a
// short human-readable block.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides DefaultBaseURL.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient overrides the default 10s-timeout client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger attaches a logger; the default discards.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log.With().Str("component", "search").Logger() }
}

// NewClient builds a Client with a modest timeout.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: requestTimeout},
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search performs one instant-answer lookup and renders whatever
// fields came back in a fixed block order. When every field is absent
// it falls back to a constant naming the query and a constructed
// search URL; that fallback is a success, never an empty result.
// Network failures, non-OK statuses, and undecodable payloads return
// an error with the cause logged.
func (c *Client) Search(ctx context.Context, query string, maxResults int) (string, error) {
	text, err := c.search(ctx, query, maxResults)
	if err != nil {
		c.log.Error().Err(err).Str("query", query).Msg("search failed")
		return "", err
	}
	return text, nil
}

// News searches recent coverage of topic; an empty topic defaults to
// technology news.
func (c *Client) News(ctx context.Context, topic string, maxResults int) (string, error) {
	if topic == "" {
		topic = "technology"
	}
	return c.Search(ctx, topic+" news latest", maxResults)
}

// Weather looks up current conditions for a location.
func (c *Client) Weather(ctx context.Context, location string) (string, error) {
	return c.Search(ctx, "weather "+location, 1)
}

// Definition looks up the definition of a term.
func (c *Client) Definition(ctx context.Context, term string) (string, error) {
	return c.Search(ctx, "define "+term, 1)
}

func (c *Client) search(ctx context.Context, query string, maxResults int) (string, error) {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("no_html", "1")
	params.Set("skip_disambig", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("instant answer API: http %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if !gjson.ValidBytes(body) {
		return "", fmt.Errorf("instant answer API: invalid JSON response")
	}

	if text := formatResults(gjson.ParseBytes(body), maxResults); text != "" {
		return text, nil
	}
	return fallbackResult(query), nil
}

// formatResults renders present fields in a fixed order: direct
// answer, abstract, definition, related topics, infobox rows. Absent
// fields contribute nothing; an all-absent payload yields "".
func formatResults(data gjson.Result, maxResults int) string {
	var lines []string

	if answer := data.Get("Answer").String(); answer != "" {
		lines = append(lines, "Answer: "+answer)
	}

	if abstract := data.Get("Abstract").String(); abstract != "" {
		lines = append(lines, "Summary: "+abstract)
		if u := data.Get("AbstractURL").String(); u != "" {
			lines = append(lines, "Source: "+u)
		}
	}

	if def := data.Get("Definition").String(); def != "" {
		lines = append(lines, "Definition: "+def)
		if u := data.Get("DefinitionURL").String(); u != "" {
			lines = append(lines, "Source: "+u)
		}
	}

	if topics := data.Get("RelatedTopics").Array(); len(topics) > 0 {
		if len(topics) > maxResults {
			topics = topics[:maxResults]
		}
		lines = append(lines, "Related Information:")
		for _, topic := range topics {
			// Grouped topic nodes carry no Text and are skipped.
			text := topic.Get("Text").String()
			if text == "" {
				continue
			}
			lines = append(lines, "- "+text)
			if u := topic.Get("FirstURL").String(); u != "" {
				lines = append(lines, "  Source: "+u)
			}
		}
	}

	if rows := data.Get("Infobox.content").Array(); len(rows) > 0 {
		if len(rows) > infoboxLimit {
			rows = rows[:infoboxLimit]
		}
		lines = append(lines, "Additional Information:")
		for _, row := range rows {
			label := row.Get("label").String()
			value := row.Get("value").String()
			if label == "" || value == "" {
				continue
			}
			lines = append(lines, fmt.Sprintf("- %s: %s", label, value))
		}
	}

	return strings.Join(lines, "\n")
}

// fallbackResult names the query and a constructed search URL. It is
// deliberately a success terminal: a completed search never comes back
// empty.
func fallbackResult(query string) string {
	searchURL := "https://duckduckgo.com/html/?q=" + url.QueryEscape(query)
	return fmt.Sprintf("Web search performed for: '%s'. For detailed results, please visit: %s", query, searchURL)
}
