package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"soundgraph-backend/internal/domain/tags"
)

// DefaultLastFMBaseURL is the Last.fm 2.0 API root.
const DefaultLastFMBaseURL = "https://ws.audioscrobbler.com/2.0/"

// LastFM fetches folksonomic top tags.
type LastFM struct {
	transport *Transport
	baseURL   string
	apiKey    string
}

// NewLastFM creates the tag adapter. Without an API key every lookup is
// empty.
func NewLastFM(transport *Transport, baseURL, apiKey string) *LastFM {
	if baseURL == "" {
		baseURL = DefaultLastFMBaseURL
	}
	if apiKey == "" {
		transport.Logger().Warn("no Last.fm API key configured, tag lookups will be empty")
	}
	return &LastFM{transport: transport, baseURL: baseURL, apiKey: apiKey}
}

// lastfmTags tolerates Last.fm serialising a single tag as an object and an
// empty list as a string.
type lastfmTags []lastfmTag

type lastfmTag struct {
	Name  string      `json:"name"`
	Count flexibleInt `json:"count"`
}

func (l *lastfmTags) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || data[0] == '"' || bytes.Equal(data, []byte("null")):
		*l = nil
		return nil
	case data[0] == '{':
		var one lastfmTag
		if err := json.Unmarshal(data, &one); err != nil {
			return err
		}
		*l = lastfmTags{one}
		return nil
	default:
		var many []lastfmTag
		if err := json.Unmarshal(data, &many); err != nil {
			return err
		}
		*l = many
		return nil
	}
}

// flexibleInt accepts both 12 and "12".
type flexibleInt int

func (f *flexibleInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	*f = flexibleInt(n)
	return nil
}

type lastfmResponse struct {
	Error   int    `json:"error"`
	Message string `json:"message"`
	TopTags struct {
		Tag lastfmTags `json:"tag"`
	} `json:"toptags"`
}

// ArtistTopTags returns the top tags of an artist.
func (c *LastFM) ArtistTopTags(ctx context.Context, artist string) []tags.RawTag {
	artist = strings.TrimSpace(artist)
	if artist == "" {
		return []tags.RawTag{}
	}
	params := url.Values{}
	params.Set("method", "artist.gettoptags")
	params.Set("artist", artist)
	return c.topTags(ctx, "artist.gettoptags", artist, params)
}

// TrackTopTags returns the top tags of a track.
func (c *LastFM) TrackTopTags(ctx context.Context, artist, name string) []tags.RawTag {
	artist, name = strings.TrimSpace(artist), strings.TrimSpace(name)
	if artist == "" || name == "" {
		return []tags.RawTag{}
	}
	params := url.Values{}
	params.Set("method", "track.gettoptags")
	params.Set("artist", artist)
	params.Set("track", name)
	return c.topTags(ctx, "track.gettoptags", artist+" - "+name, params)
}

func (c *LastFM) topTags(ctx context.Context, operation, subject string, params url.Values) []tags.RawTag {
	if c.apiKey == "" {
		return []tags.RawTag{}
	}
	params.Set("api_key", c.apiKey)
	params.Set("format", "json")
	params.Set("autocorrect", "1")

	var resp lastfmResponse
	if err := c.transport.GetJSON(ctx, operation, c.baseURL+"?"+params.Encode(), &resp); err != nil {
		degrade(c.transport.Logger(), operation, subject, err)
		return []tags.RawTag{}
	}
	if resp.Error != 0 {
		c.transport.Logger().Warn("Last.fm reported an error",
			zap.String("operation", operation),
			zap.String("subject", subject),
			zap.Int("code", resp.Error),
			zap.String("message", resp.Message),
		)
		return []tags.RawTag{}
	}

	out := make([]tags.RawTag, 0, len(resp.TopTags.Tag))
	for _, t := range resp.TopTags.Tag {
		out = append(out, tags.RawTag{Name: t.Name, Count: int(t.Count)})
	}
	return out
}
