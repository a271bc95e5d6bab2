package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"soundgraph-backend/internal/domain/graph"
	"soundgraph-backend/internal/domain/navigation"
	"soundgraph-backend/internal/domain/track"
)

var (
	Title  = color.New(color.FgHiWhite, color.Bold)
	Subtle = color.New(color.FgHiBlack)
	Warn   = color.New(color.FgYellow)
	Bad    = color.New(color.FgRed)

	roleStyles = map[string]*color.Color{
		graph.ColorCentralTrack: color.New(color.FgHiWhite, color.Bold),
		graph.ColorCentralGenre: color.New(color.FgHiMagenta, color.Bold),
		graph.ColorCentralTag:   color.New(color.FgHiCyan, color.Bold),
		graph.ColorContext:      color.New(color.FgWhite, color.Faint),
		graph.ColorTag:          color.New(color.FgCyan),
		graph.ColorGenre:        color.New(color.FgMagenta),
		graph.ColorPlaceholder:  color.New(color.FgHiBlack, color.Italic),
	}
)

// Renderer prints views to a terminal.
type Renderer struct {
	out io.Writer
}

// NewRenderer creates a renderer writing to out.
func NewRenderer(out io.Writer) *Renderer {
	return &Renderer{out: out}
}

// Tracks prints numbered track cards.
func (r *Renderer) Tracks(tracks []track.Track) {
	if len(tracks) == 0 {
		Warn.Fprintln(r.out, "No tracks found.")
		return
	}
	for i, t := range tracks {
		fmt.Fprintf(r.out, "%3d  %s", i+1, Title.Sprint(t.DisplayName()))
		if t.Album != "" {
			Subtle.Fprintf(r.out, "  (%s)", t.Album)
		}
		fmt.Fprintln(r.out)
	}
}

// View prints the graph as a numbered node list followed by the panel and
// returns the node ids in display order.
func (r *Renderer) View(v navigation.View) []string {
	if v.State == navigation.StateIdle {
		Subtle.Fprintln(r.out, "Nothing selected.")
		return nil
	}

	rendered := v.Graph.Render()
	fmt.Fprintf(r.out, "\n%s  %s\n", Title.Sprint(rendered.Title), Subtle.Sprintf("[%s #%d]", v.State, v.Generation))

	ids := make([]string, 0, len(rendered.Nodes))
	for i, n := range rendered.Nodes {
		ids = append(ids, n.ID)
		style, ok := roleStyles[n.Color]
		if !ok {
			style = color.New()
		}
		marker := " "
		switch {
		case n.IsCentral:
			marker = "*"
		case n.IsContext:
			marker = "<"
		}
		fmt.Fprintf(r.out, "%3d %s %s %s\n", i+1, marker, style.Sprint(n.Label), Subtle.Sprintf("(%s)", n.Kind))
	}

	r.panel(v.Panel)
	return ids
}

// Hover prints a hover card.
func (r *Renderer) Hover(card navigation.HoverCard) {
	fmt.Fprintln(r.out, Title.Sprint(card.Label))
	switch {
	case card.Track != nil:
		r.trackDetails(*card.Track)
	case card.Summary != nil:
		r.summary(card.Summary.Title, card.Summary.Extract, card.Summary.URL)
	default:
		Subtle.Fprintln(r.out, card.Message)
	}
}

// Error prints an error line.
func (r *Renderer) Error(err error) {
	Bad.Fprintf(r.out, "error: %v\n", err)
}

// Notice prints a hint line.
func (r *Renderer) Notice(format string, args ...interface{}) {
	Warn.Fprintf(r.out, format+"\n", args...)
}

func (r *Renderer) panel(raw json.RawMessage) {
	if len(raw) == 0 {
		return
	}
	var head struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return
	}

	fmt.Fprintln(r.out, Subtle.Sprint(strings.Repeat("─", 40)))
	switch head.Kind {
	case "track":
		var p navigation.TrackPanel
		if json.Unmarshal(raw, &p) != nil {
			return
		}
		r.trackDetails(p.Track)
		if len(p.Tags) > 0 {
			fmt.Fprintf(r.out, "Tags: %s\n", strings.Join(p.Tags, ", "))
		} else {
			Subtle.Fprintln(r.out, "No tags.")
		}
	case "genre":
		var p navigation.GenrePanel
		if json.Unmarshal(raw, &p) != nil {
			return
		}
		if p.Summary != nil {
			r.summary(p.Summary.Title, p.Summary.Extract, p.Summary.URL)
		} else {
			Subtle.Fprintln(r.out, p.Message)
		}
		fmt.Fprintf(r.out, "Subgenres: %d\n", p.Subgenres)
	}
}

func (r *Renderer) trackDetails(t track.Track) {
	fmt.Fprintf(r.out, "%s by %s\n", t.Name, t.Artist)
	if t.Album != "" {
		fmt.Fprintf(r.out, "Album: %s\n", t.Album)
	}
	if t.ReleaseDate != "" {
		fmt.Fprintf(r.out, "Released: %s\n", t.ReleaseDate)
	}
	if t.PrimaryGenre != "" {
		fmt.Fprintf(r.out, "Genre: %s\n", t.PrimaryGenre)
	}
}

func (r *Renderer) summary(title, extract, url string) {
	fmt.Fprintln(r.out, Title.Sprint(title))
	fmt.Fprintln(r.out, extract)
	if url != "" {
		Subtle.Fprintln(r.out, url)
	}
}
