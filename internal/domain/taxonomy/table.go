// Package taxonomy maps genre and tag names onto the spellings an external
// encyclopedic index is likely to use.
package taxonomy

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"soundgraph-backend/internal/domain/track"
)

// Table is the declarative fallback policy. Keys of both alias maps are
// normalized names; values are passed to providers verbatim.
type Table struct {
	// CategoryAliases maps a name to its canonical category key.
	CategoryAliases map[string]string `json:"category_aliases" yaml:"category_aliases" toml:"category_aliases"`
	// ArticleAliases maps a name to its canonical article title.
	ArticleAliases map[string]string `json:"article_aliases" yaml:"article_aliases" toml:"article_aliases"`
	// Suffixes are appended to the raw name, in order, as last-resort keys.
	Suffixes []string `json:"suffixes" yaml:"suffixes" toml:"suffixes"`
}

// DefaultTable returns the built-in alias and suffix table.
func DefaultTable() Table {
	return Table{
		CategoryAliases: map[string]string{
			"hip hop":          "Hip hop genres",
			"hip-hop":          "Hip hop genres",
			"hiphop":           "Hip hop genres",
			"rap":              "Hip hop genres",
			"r&b":              "Rhythm and blues music genres",
			"rnb":              "Rhythm and blues music genres",
			"rhythm and blues": "Rhythm and blues music genres",
			"edm":              "Electronic dance music genres",
			"electronic":       "Electronic music genres",
			"electronica":      "Electronic music genres",
			"dnb":              "Drum and bass",
			"d&b":              "Drum and bass",
			"drum n bass":      "Drum and bass",
			"rock":             "Rock music genres",
			"metal":            "Heavy metal genres",
			"heavy metal":      "Heavy metal genres",
			"punk":             "Punk rock genres",
			"jazz":             "Jazz genres",
			"country":          "Country music genres",
			"pop":              "Pop music genres",
			"house":            "House music genres",
			"folk":             "Folk music genres",
			"blues":            "Blues music genres",
		},
		ArticleAliases: map[string]string{
			"hip hop":    "Hip hop music",
			"hip-hop":    "Hip hop music",
			"hiphop":     "Hip hop music",
			"rap":        "Hip hop music",
			"r&b":        "Rhythm and blues",
			"rnb":        "Rhythm and blues",
			"edm":        "Electronic dance music",
			"dnb":        "Drum and bass",
			"d&b":        "Drum and bass",
			"uk rap":     "British hip hop",
			"uk drill":   "UK drill",
			"electronic": "Electronic music",
		},
		Suffixes: []string{"genres", "music genres", "music"},
	}
}

// Normalized returns a copy of t with alias keys normalized and blank entries
// removed.
func (t Table) Normalized() Table {
	out := Table{
		CategoryAliases: normalizeKeys(t.CategoryAliases),
		ArticleAliases:  normalizeKeys(t.ArticleAliases),
	}
	for _, s := range t.Suffixes {
		if s = strings.TrimSpace(s); s != "" {
			out.Suffixes = append(out.Suffixes, s)
		}
	}
	return out
}

func normalizeKeys(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		k = track.Normalize(k)
		v = strings.TrimSpace(v)
		if k == "" || v == "" {
			continue
		}
		out[k] = v
	}
	return out
}

// CategoryCandidates lists the lookup keys tried for name, in order: the
// curated alias, the raw name, its space/hyphen variants and the suffixed
// forms of the raw name. Duplicates are dropped; the order is deterministic.
func (t Table) CategoryCandidates(name string) []string {
	raw := strings.TrimSpace(name)
	if raw == "" {
		return nil
	}
	c := newCandidates()
	if alias, ok := t.CategoryAliases[track.Normalize(raw)]; ok {
		c.add(alias)
	}
	c.add(raw)
	c.add(strings.ReplaceAll(raw, "-", " "))
	c.add(strings.ReplaceAll(raw, " ", "-"))
	for _, suffix := range t.Suffixes {
		c.add(raw + " " + suffix)
	}
	return c.list
}

// ArticleCandidates lists the titles tried for a summary of name: the curated
// article alias, the name as given, first-letter-capitalised, "<name> music"
// and "<name> (music genre)".
func (t Table) ArticleCandidates(name string) []string {
	raw := strings.TrimSpace(name)
	if raw == "" {
		return nil
	}
	c := newCandidates()
	if alias, ok := t.ArticleAliases[track.Normalize(raw)]; ok {
		c.add(alias)
	}
	c.add(raw)
	c.add(capitalize(raw))
	c.add(raw + " music")
	c.add(raw + " (music genre)")
	return c.list
}

type candidates struct {
	list []string
	seen map[string]struct{}
}

func newCandidates() *candidates {
	return &candidates{seen: make(map[string]struct{})}
}

func (c *candidates) add(s string) {
	if s == "" {
		return
	}
	if _, dup := c.seen[s]; dup {
		return
	}
	c.seen[s] = struct{}{}
	c.list = append(c.list, s)
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
