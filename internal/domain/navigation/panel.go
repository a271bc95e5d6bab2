package navigation

import (
	"encoding/json"

	"soundgraph-backend/internal/domain/taxonomy"
	"soundgraph-backend/internal/domain/track"
)

// NoSummaryMessage is shown when no summary could be resolved.
const NoSummaryMessage = "No summary found."

// TrackPanel is the detail panel of a track view.
type TrackPanel struct {
	Kind  string      `json:"kind"`
	Track track.Track `json:"track"`
	Tags  []string    `json:"tags"`
}

// GenrePanel is the detail panel of a genre-focus view.
type GenrePanel struct {
	Kind         string            `json:"kind"`
	Name         string            `json:"name"`
	Summary      *taxonomy.Summary `json:"summary"`
	Message      string            `json:"message,omitempty"`
	Subgenres    int               `json:"subgenres"`
	ContextTrack string            `json:"context_track,omitempty"`
}

// HoverCard is returned for a hovered node.
type HoverCard struct {
	NodeID  string            `json:"node_id"`
	Label   string            `json:"label"`
	Track   *track.Track      `json:"track,omitempty"`
	Summary *taxonomy.Summary `json:"summary,omitempty"`
	Message string            `json:"message,omitempty"`
}

func encodeTrackPanel(t track.Track, tags []string) ([]byte, error) {
	if tags == nil {
		tags = []string{}
	}
	return json.Marshal(TrackPanel{Kind: "track", Track: t, Tags: tags})
}

func encodeGenrePanel(name string, summary *taxonomy.Summary, subgenres int, contextTrack *track.Track) ([]byte, error) {
	p := GenrePanel{
		Kind:      "genre",
		Name:      name,
		Summary:   summary,
		Subgenres: subgenres,
	}
	if summary == nil {
		p.Message = NoSummaryMessage
	}
	if contextTrack != nil {
		p.ContextTrack = contextTrack.DisplayName()
	}
	return json.Marshal(p)
}
