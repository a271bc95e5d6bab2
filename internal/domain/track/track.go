// Package track holds the track record returned by the track metadata
// provider and the identity rules derived from it.
package track

import (
	"strings"
)

// Track is a single search result from the track metadata provider.
type Track struct {
	ID           string `json:"id,omitempty"`
	Name         string `json:"name" validate:"required,max=500"`
	Artist       string `json:"artist" validate:"required,max=500"`
	Album        string `json:"album,omitempty"`
	ReleaseDate  string `json:"release_date,omitempty"`
	ArtworkURL   string `json:"artwork_url,omitempty" validate:"omitempty,url"`
	PreviewURL   string `json:"preview_url,omitempty" validate:"omitempty,url"`
	PrimaryGenre string `json:"primary_genre,omitempty"`
}

// Key returns the stable identity of the track. The provider's id wins when
// present; otherwise the normalized name and artist form a composite key.
func (t Track) Key() string {
	if id := strings.TrimSpace(t.ID); id != "" {
		return id
	}
	return Normalize(t.Name) + "|" + Normalize(t.Artist)
}

// Same reports whether both records describe the same logical track.
func (t Track) Same(other Track) bool {
	return t.Key() == other.Key()
}

// IsZero reports whether the record is empty.
func (t Track) IsZero() bool {
	return strings.TrimSpace(t.Name) == "" && strings.TrimSpace(t.Artist) == "" && strings.TrimSpace(t.ID) == ""
}

// DisplayName is "Name - Artist", used for graph titles.
func (t Track) DisplayName() string {
	if t.Artist == "" {
		return t.Name
	}
	return t.Name + " - " + t.Artist
}

// Normalize lower-cases, trims and collapses inner whitespace.
func Normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
