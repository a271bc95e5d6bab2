// Package tags filters folksonomic tags down to genre-like descriptors.
package tags

import (
	"regexp"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"soundgraph-backend/internal/domain/track"
)

// RawTag is a tag as reported by the tag provider.
type RawTag struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// DefaultLimit is the number of top-counted tags considered per source.
const DefaultLimit = 12

// minContainment is the shortest string that may trigger the artist
// containment rule. Shorter artist names only drop exact matches.
const minContainment = 3

var decadePattern = regexp.MustCompile(`^(\d{2}|\d{4})'?s$`)

// DefaultDenylist returns the built-in noise vocabulary.
func DefaultDenylist() []string {
	return []string{
		// attendance
		"seen live", "favorites", "favourites", "favorite", "my favorite", "love", "awesome", "beautiful",
		// nationality and place
		"uk", "british", "english", "american", "usa", "us", "london", "new york", "canadian", "french",
		"german", "swedish", "australian", "japanese", "korean", "irish", "scottish", "brazilian",
		// personnel
		"male vocalists", "female vocalists", "male vocalist", "female vocalist", "singer-songwriter",
		"female vocals", "male vocals",
		// format
		"remix", "remixes", "live", "cover", "covers", "soundtrack", "instrumental", "acoustic",
		"compilation", "single", "albums i own",
	}
}

// Normalizer lower-cases, trims and filters raw tags. The denylist can be
// replaced at runtime.
type Normalizer struct {
	mu       sync.RWMutex
	denylist map[string]struct{}
}

// NewNormalizer creates a normalizer. A nil denylist selects DefaultDenylist.
func NewNormalizer(denylist []string) *Normalizer {
	n := &Normalizer{}
	if denylist == nil {
		denylist = DefaultDenylist()
	}
	n.SetDenylist(denylist)
	return n
}

// SetDenylist swaps the denylist.
func (n *Normalizer) SetDenylist(denylist []string) {
	set := make(map[string]struct{}, len(denylist))
	for _, d := range denylist {
		if d = track.Normalize(d); d != "" {
			set[d] = struct{}{}
		}
	}
	n.mu.Lock()
	n.denylist = set
	n.mu.Unlock()
}

// Denied reports whether a normalized tag is noise.
func (n *Normalizer) Denied(tag string) bool {
	if decadePattern.MatchString(tag) {
		return true
	}
	n.mu.RLock()
	_, ok := n.denylist[tag]
	n.mu.RUnlock()
	return ok
}

// Filter sorts raw by descending count, keeps the top limit, normalizes each
// name and drops empties, denied tags, tags naming the artist and repeats.
// The result can be shorter than limit.
func (n *Normalizer) Filter(raw []RawTag, limit int, artist string) []string {
	if limit <= 0 {
		limit = DefaultLimit
	}
	sorted := make([]RawTag, len(raw))
	copy(sorted, raw)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Count > sorted[j].Count
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}

	artist = track.Normalize(artist)
	out := make([]string, 0, len(sorted))
	seen := make(map[string]struct{}, len(sorted))
	for _, rt := range sorted {
		tag := track.Normalize(rt.Name)
		if tag == "" || n.Denied(tag) || namesArtist(tag, artist) {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

// Merge unions already-filtered lists, keeping first-seen order.
func Merge(lists ...[]string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, list := range lists {
		for _, tag := range list {
			if _, dup := seen[tag]; dup {
				continue
			}
			seen[tag] = struct{}{}
			out = append(out, tag)
		}
	}
	if out == nil {
		out = []string{}
	}
	return out
}

func namesArtist(tag, artist string) bool {
	if artist == "" {
		return false
	}
	if tag == artist {
		return true
	}
	if utf8.RuneCountInString(artist) >= minContainment && strings.Contains(tag, artist) {
		return true
	}
	return utf8.RuneCountInString(tag) >= minContainment && strings.Contains(artist, tag)
}
