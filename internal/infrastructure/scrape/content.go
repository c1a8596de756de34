package scrape

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	readability "github.com/go-shiori/go-readability"

	"github.com/cancaonovachor/nova-internal-tools/internal/domain"
	"github.com/cancaonovachor/nova-internal-tools/internal/ports"
)

const (
	maxContentRunes      = 5000
	maxContentTitleRunes = 500
)

var blankLines = regexp.MustCompile(`\n{3,}`)

// ContentFetcher pulls an article page and reduces it to readable text for
// the enrichment prompts.
type ContentFetcher struct {
	client *Client
}

var _ ports.ContentFetcher = (*ContentFetcher)(nil)

// NewContentFetcher wires the shared fetch client.
func NewContentFetcher(client *Client) *ContentFetcher {
	return &ContentFetcher{client: client}
}

// FetchContent downloads the page and extracts title and body text. The body
// is capped so enrichment prompts stay within budget.
func (f *ContentFetcher) FetchContent(ctx context.Context, pageURL string) (domain.PageContent, error) {
	resp, err := f.client.Get(ctx, pageURL)
	if err != nil {
		return domain.PageContent{}, err
	}
	defer resp.Body.Close()

	article, err := readability.FromReader(resp.Body, resp.Request.URL)
	if err != nil {
		return domain.PageContent{}, fmt.Errorf("extract content %s: %w", pageURL, err)
	}

	body := blankLines.ReplaceAllString(article.TextContent, "\n\n")

	return domain.PageContent{
		Title: truncateRunes(strings.TrimSpace(article.Title), maxContentTitleRunes),
		Body:  truncateRunes(strings.TrimSpace(body), maxContentRunes),
	}, nil
}
