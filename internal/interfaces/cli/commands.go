// Package cli is the terminal surface of the explorer.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"soundgraph-backend/internal/domain/navigation"
	"soundgraph-backend/internal/domain/track"
)

// Explorer is the use-case surface the terminal drives.
type Explorer interface {
	Search(ctx context.Context, query string) []track.Track
	CreateSession(ctx context.Context) (*navigation.Session, error)
	SelectTrack(ctx context.Context, sessionID string, t track.Track) (navigation.View, error)
	FocusGenre(ctx context.Context, sessionID, name string) (navigation.View, error)
	ClickNode(ctx context.Context, sessionID, nodeID string) (navigation.View, error)
	HoverNode(ctx context.Context, sessionID, nodeID string) (navigation.HoverCard, error)
	Back(ctx context.Context, sessionID string) (navigation.View, error)
}

// Options are the global flags.
type Options struct {
	ConfigDir string
	Env       string
}

// Opener builds an Explorer from the global flags. The returned function
// releases what the explorer holds.
type Opener func(ctx context.Context, opts Options) (Explorer, func(), error)

// NewRootCommand builds the explore command tree.
func NewRootCommand(open Opener) *cobra.Command {
	opts := &Options{}

	root := &cobra.Command{
		Use:           "explore",
		Short:         "Explore music genres from a track",
		Long:          `Search for a track, then walk from its tags into the genre taxonomy and back.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.ConfigDir, "config-dir", "config", "directory holding base/<env>/local config files")
	root.PersistentFlags().StringVar(&opts.Env, "env", "", "environment name (defaults to $ENVIRONMENT)")

	root.AddCommand(newSearchCommand(open, opts), newRunCommand(open, opts))
	return root
}

func newSearchCommand(open Opener, opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Print numbered track cards for a query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			explorer, closeFn, err := open(cmd.Context(), *opts)
			if err != nil {
				return err
			}
			defer closeFn()

			NewRenderer(cmd.OutOrStdout()).Tracks(explorer.Search(cmd.Context(), strings.Join(args, " ")))
			return nil
		},
	}
}

func newRunCommand(open Opener, opts *Options) *cobra.Command {
	var pick int

	cmd := &cobra.Command{
		Use:   "run <query>",
		Short: "Select a search result and explore interactively",
		Long: `Select a search result and explore interactively.

Commands:
  N         click node N
  g <name>  focus a genre by name
  h N       hover node N
  b         back to the track
  q         quit`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			explorer, closeFn, err := open(ctx, *opts)
			if err != nil {
				return err
			}
			defer closeFn()

			r := NewRenderer(cmd.OutOrStdout())
			results := explorer.Search(ctx, strings.Join(args, " "))
			if len(results) == 0 {
				r.Tracks(results)
				return nil
			}
			if pick < 1 || pick > len(results) {
				return fmt.Errorf("--pick must be between 1 and %d", len(results))
			}

			session, err := explorer.CreateSession(ctx)
			if err != nil {
				return err
			}
			view, err := explorer.SelectTrack(ctx, session.ID(), results[pick-1])
			if err != nil {
				return err
			}

			loop := &interactive{
				explorer:  explorer,
				renderer:  r,
				sessionID: session.ID(),
				nodes:     r.View(view),
			}
			return loop.run(ctx, bufio.NewScanner(cmd.InOrStdin()))
		},
	}
	cmd.Flags().IntVar(&pick, "pick", 1, "search result to select (1-based)")
	return cmd
}

type interactive struct {
	explorer  Explorer
	renderer  *Renderer
	sessionID string
	nodes     []string
}

func (l *interactive) run(ctx context.Context, in *bufio.Scanner) error {
	for in.Scan() {
		line := strings.TrimSpace(in.Text())
		if line == "" {
			continue
		}
		cmd, arg, _ := strings.Cut(line, " ")
		arg = strings.TrimSpace(arg)

		switch cmd {
		case "q", "quit", "exit":
			return nil
		case "b", "back":
			l.show(l.explorer.Back(ctx, l.sessionID))
		case "g", "genre":
			if arg == "" {
				l.renderer.Notice("usage: g <name>")
				continue
			}
			l.show(l.explorer.FocusGenre(ctx, l.sessionID, arg))
		case "h", "hover":
			id, ok := l.node(arg)
			if !ok {
				continue
			}
			card, err := l.explorer.HoverNode(ctx, l.sessionID, id)
			if err != nil {
				l.renderer.Error(err)
				continue
			}
			l.renderer.Hover(card)
		default:
			id, ok := l.node(cmd)
			if !ok {
				continue
			}
			l.show(l.explorer.ClickNode(ctx, l.sessionID, id))
		}
	}
	return in.Err()
}

// node maps a 1-based display number to a node id.
func (l *interactive) node(arg string) (string, bool) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(l.nodes) {
		l.renderer.Notice("pick a node between 1 and %d", len(l.nodes))
		return "", false
	}
	return l.nodes[n-1], true
}

func (l *interactive) show(view navigation.View, err error) {
	switch {
	case errors.Is(err, navigation.ErrInvalidTransition):
		l.renderer.Notice("not available from this view")
	case err != nil:
		l.renderer.Error(err)
	default:
		l.nodes = l.renderer.View(view)
	}
}
