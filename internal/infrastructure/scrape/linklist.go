package scrape

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/cancaonovachor/nova-internal-tools/internal/domain"
	"github.com/cancaonovachor/nova-internal-tools/internal/scanner"
)

const maxTitleRunes = 200

// LinkListScanner extracts article candidates from a news-listing page. The
// per-source options steer what counts as an article link:
//
//	selector        CSS selector for links (default "a")
//	includePattern  substring the absolute URL must contain
//	excludePattern  substring that rejects a URL
//	requireSuffix   required URL suffix (e.g. ".html")
//	minTitleLength  minimum link-text length in runes
//	maxLinks        cap on extracted links (0 = unlimited)
//	urlDatePattern  regexp with year and month groups applied to the URL
type LinkListScanner struct {
	client *Client
}

// NewLinkListScanner wires the shared fetch client.
func NewLinkListScanner(client *Client) *LinkListScanner {
	return &LinkListScanner{client: client}
}

// Name identifies the strategy inside the registry.
func (l *LinkListScanner) Name() string {
	return "linklist"
}

var _ scanner.Scanner = (*LinkListScanner)(nil)

// Scan fetches the listing page and extracts candidates in page order.
func (l *LinkListScanner) Scan(ctx context.Context, src domain.Source) ([]domain.Candidate, error) {
	opts, err := parseListOptions(src.Options)
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", src.ID, err)
	}

	base, err := url.Parse(src.URL)
	if err != nil {
		return nil, fmt.Errorf("source %s: parse url: %w", src.ID, err)
	}

	resp, err := l.client.Get(ctx, src.URL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse listing: %w", err)
	}

	return l.extractCandidates(doc, base, src, opts), nil
}

func (l *LinkListScanner) extractCandidates(doc *goquery.Document, base *url.URL, src domain.Source, opts listOptions) []domain.Candidate {
	var candidates []domain.Candidate
	seen := map[string]struct{}{}

	doc.Find(opts.selector).EachWithBreak(func(i int, sel *goquery.Selection) bool {
		href, ok := sel.Attr("href")
		if !ok || href == "" {
			return true
		}

		title := strings.TrimSpace(sel.Text())
		if title == "" {
			return true
		}

		absolute := resolveURL(base, href)
		if absolute == "" {
			return true
		}
		if _, dup := seen[absolute]; dup {
			return true
		}

		if !opts.accepts(absolute, title) {
			return true
		}

		seen[absolute] = struct{}{}
		candidates = append(candidates, domain.Candidate{
			Title:       truncateRunes(title, maxTitleRunes),
			URL:         absolute,
			PublishedAt: opts.dateFromURL(absolute),
			Source:      src.Name,
			Language:    src.Language,
		})

		return opts.maxLinks <= 0 || len(candidates) < opts.maxLinks
	})

	return candidates
}

type listOptions struct {
	selector       string
	includePattern string
	excludePattern string
	requireSuffix  string
	minTitleLen    int
	maxLinks       int
	urlDateExpr    *regexp.Regexp
}

func parseListOptions(raw map[string]string) (listOptions, error) {
	opts := listOptions{selector: "a"}

	if v := raw["selector"]; v != "" {
		opts.selector = v
	}
	opts.includePattern = raw["includePattern"]
	opts.excludePattern = raw["excludePattern"]
	opts.requireSuffix = raw["requireSuffix"]

	if v := raw["minTitleLength"]; v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return listOptions{}, fmt.Errorf("option minTitleLength: %w", err)
		}
		opts.minTitleLen = n
	}

	if v := raw["maxLinks"]; v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return listOptions{}, fmt.Errorf("option maxLinks: %w", err)
		}
		opts.maxLinks = n
	}

	if v := raw["urlDatePattern"]; v != "" {
		expr, err := regexp.Compile(v)
		if err != nil {
			return listOptions{}, fmt.Errorf("option urlDatePattern: %w", err)
		}
		opts.urlDateExpr = expr
	}

	return opts, nil
}

func (o listOptions) accepts(absolute, title string) bool {
	// Pure fragment anchors are navigation, not articles. Links whose path
	// itself carries a document ("page.htm#section", ".pdf") stay in.
	if strings.Contains(absolute, "#") &&
		!strings.Contains(absolute, ".htm") &&
		!strings.Contains(absolute, ".pdf") {
		return false
	}

	if o.includePattern != "" && !strings.Contains(absolute, o.includePattern) {
		return false
	}
	if o.excludePattern != "" && strings.Contains(absolute, o.excludePattern) {
		return false
	}
	if o.requireSuffix != "" && !strings.HasSuffix(absolute, o.requireSuffix) {
		return false
	}
	if o.minTitleLen > 0 && utf8.RuneCountInString(title) < o.minTitleLen {
		return false
	}

	return true
}

// dateFromURL derives a month-precision timestamp from URL path segments,
// e.g. /info/archives/2026/03/post.html. Returns zero when the pattern is
// unset or does not match.
func (o listOptions) dateFromURL(absolute string) time.Time {
	if o.urlDateExpr == nil {
		return time.Time{}
	}

	match := o.urlDateExpr.FindStringSubmatch(absolute)
	if len(match) < 3 {
		return time.Time{}
	}

	year, err := strconv.Atoi(match[1])
	if err != nil {
		return time.Time{}
	}
	month, err := strconv.Atoi(match[2])
	if err != nil || month < 1 || month > 12 {
		return time.Time{}
	}

	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
}

func resolveURL(base *url.URL, href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(ref)
	if resolved.Host == "" {
		return ""
	}
	return resolved.String()
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}
