package providers

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"soundgraph-backend/internal/domain/taxonomy"
	"soundgraph-backend/internal/domain/track"
)

const (
	// DefaultWikipediaAPIURL is the MediaWiki action API.
	DefaultWikipediaAPIURL = "https://en.wikipedia.org/w/api.php"
	// DefaultWikipediaRESTURL is the Wikimedia REST API root.
	DefaultWikipediaRESTURL = "https://en.wikipedia.org/api/rest_v1"

	categoryPrefix = "Category:"
)

// Wikipedia serves as both the category index and the summary provider.
type Wikipedia struct {
	transport   *Transport
	apiURL      string
	restURL     string
	memberLimit int
}

// NewWikipedia creates the encyclopedic adapter.
func NewWikipedia(transport *Transport, apiURL, restURL string, memberLimit int) *Wikipedia {
	if apiURL == "" {
		apiURL = DefaultWikipediaAPIURL
	}
	if restURL == "" {
		restURL = DefaultWikipediaRESTURL
	}
	if memberLimit <= 0 || memberLimit > 500 {
		memberLimit = 100
	}
	return &Wikipedia{
		transport:   transport,
		apiURL:      apiURL,
		restURL:     strings.TrimRight(restURL, "/"),
		memberLimit: memberLimit,
	}
}

type categoryMembersResponse struct {
	Error *struct {
		Code string `json:"code"`
		Info string `json:"info"`
	} `json:"error"`
	Query struct {
		CategoryMembers []struct {
			NS    int    `json:"ns"`
			Title string `json:"title"`
		} `json:"categorymembers"`
	} `json:"query"`
}

// CategoryMembers lists the pages and sub-categories of Category:<key> in
// provider order. Sub-category prefixes are stripped; list pages and the
// category's own main article are dropped.
func (w *Wikipedia) CategoryMembers(ctx context.Context, key string) []string {
	key = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(key), categoryPrefix))
	if key == "" {
		return []string{}
	}

	params := url.Values{}
	params.Set("action", "query")
	params.Set("list", "categorymembers")
	params.Set("cmtitle", categoryPrefix+key)
	params.Set("cmlimit", strconv.Itoa(w.memberLimit))
	params.Set("cmtype", "page|subcat")
	params.Set("format", "json")
	params.Set("formatversion", "2")

	var resp categoryMembersResponse
	if err := w.transport.GetJSON(ctx, "categorymembers", w.apiURL+"?"+params.Encode(), &resp); err != nil {
		degrade(w.transport.Logger(), "categorymembers", key, err)
		return []string{}
	}
	if resp.Error != nil {
		w.transport.Logger().Warn("MediaWiki reported an error",
			zap.String("category", key),
			zap.String("code", resp.Error.Code),
		)
		return []string{}
	}

	self := track.Normalize(key)
	out := make([]string, 0, len(resp.Query.CategoryMembers))
	seen := make(map[string]struct{}, len(resp.Query.CategoryMembers))
	for _, m := range resp.Query.CategoryMembers {
		title := strings.TrimSpace(strings.TrimPrefix(m.Title, categoryPrefix))
		if title == "" || strings.HasPrefix(title, "List of") || strings.HasPrefix(title, "Lists of") {
			continue
		}
		if track.Normalize(title) == self {
			continue
		}
		if _, dup := seen[title]; dup {
			continue
		}
		seen[title] = struct{}{}
		out = append(out, title)
	}
	return out
}

type pageSummaryResponse struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Extract     string `json:"extract"`
	ContentURLs struct {
		Desktop struct {
			Page string `json:"page"`
		} `json:"desktop"`
	} `json:"content_urls"`
}

// PageSummary fetches the lead summary of an article. Missing pages,
// disambiguation pages and empty extracts return nil.
func (w *Wikipedia) PageSummary(ctx context.Context, title string) *taxonomy.Summary {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil
	}
	path := url.PathEscape(strings.ReplaceAll(title, " ", "_"))

	var resp pageSummaryResponse
	if err := w.transport.GetJSON(ctx, "page.summary", w.restURL+"/page/summary/"+path, &resp); err != nil {
		degrade(w.transport.Logger(), "page.summary", title, err)
		return nil
	}
	if resp.Type == "disambiguation" || strings.TrimSpace(resp.Extract) == "" {
		return nil
	}
	return &taxonomy.Summary{
		Title:   resp.Title,
		Extract: resp.Extract,
		URL:     resp.ContentURLs.Desktop.Page,
	}
}
