package providers

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"soundgraph-backend/internal/domain/track"
)

// DefaultITunesBaseURL is the public iTunes Search API.
const DefaultITunesBaseURL = "https://itunes.apple.com"

// ITunes searches the iTunes catalogue for songs.
type ITunes struct {
	transport *Transport
	baseURL   string
	country   string
	limit     int
}

// NewITunes creates the track metadata adapter.
func NewITunes(transport *Transport, baseURL, country string, limit int) *ITunes {
	if baseURL == "" {
		baseURL = DefaultITunesBaseURL
	}
	if limit <= 0 {
		limit = 10
	}
	return &ITunes{
		transport: transport,
		baseURL:   strings.TrimRight(baseURL, "/"),
		country:   country,
		limit:     limit,
	}
}

type itunesResponse struct {
	ResultCount int `json:"resultCount"`
	Results     []struct {
		WrapperType      string `json:"wrapperType"`
		Kind             string `json:"kind"`
		TrackID          int64  `json:"trackId"`
		TrackName        string `json:"trackName"`
		ArtistName       string `json:"artistName"`
		CollectionName   string `json:"collectionName"`
		ReleaseDate      string `json:"releaseDate"`
		ArtworkURL100    string `json:"artworkUrl100"`
		PreviewURL       string `json:"previewUrl"`
		PrimaryGenreName string `json:"primaryGenreName"`
	} `json:"results"`
}

// SearchTracks returns matching songs in provider order. A blank query
// returns an empty list without calling out.
func (c *ITunes) SearchTracks(ctx context.Context, query string, limit int) []track.Track {
	query = strings.TrimSpace(query)
	if query == "" {
		return []track.Track{}
	}
	if limit <= 0 || limit > 200 {
		limit = c.limit
	}

	params := url.Values{}
	params.Set("term", query)
	params.Set("entity", "song")
	params.Set("media", "music")
	params.Set("limit", strconv.Itoa(limit))
	if c.country != "" {
		params.Set("country", c.country)
	}

	var resp itunesResponse
	if err := c.transport.GetJSON(ctx, "search", c.baseURL+"/search?"+params.Encode(), &resp); err != nil {
		degrade(c.transport.Logger(), "search", query, err)
		return []track.Track{}
	}

	out := make([]track.Track, 0, len(resp.Results))
	for _, r := range resp.Results {
		if r.WrapperType != "" && r.WrapperType != "track" {
			continue
		}
		if strings.TrimSpace(r.TrackName) == "" {
			continue
		}
		t := track.Track{
			Name:         r.TrackName,
			Artist:       r.ArtistName,
			Album:        r.CollectionName,
			ReleaseDate:  r.ReleaseDate,
			ArtworkURL:   r.ArtworkURL100,
			PreviewURL:   r.PreviewURL,
			PrimaryGenre: r.PrimaryGenreName,
		}
		if r.TrackID != 0 {
			t.ID = strconv.FormatInt(r.TrackID, 10)
		}
		out = append(out, t)
	}
	return out
}
