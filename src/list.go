package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/contre95/vinylshelf/src/features/catalog"
)

func newListCmd() *cobra.Command {
	var (
		search    string
		genre     string
		favorites bool
		sortKey   string
		order     string
		format    string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the catalog with the same filters as the web UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if format != "table" && format != "json" {
				return fmt.Errorf("invalid format: %s (valid values: table, json)", format)
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			sess, err := a.catalog.OpenSession()
			if err != nil {
				return err
			}
			defer a.catalog.CloseSession(sess.ID)

			sess.SetQuery(catalog.Query{
				SearchTerm:    search,
				GenreID:       genre,
				FavoritesOnly: favorites,
				SortKey:       catalog.ParseSortKey(sortKey),
				SortOrder:     catalog.ParseSortOrder(order),
			})
			if err := a.catalog.LoadAll(ctx, sess); err != nil {
				return err
			}

			view := a.catalog.View(sess)
			if format == "json" {
				return outputJSON(cmd.OutOrStdout(), view.Cards)
			}
			outputTable(cmd.OutOrStdout(), view.Cards)
			return nil
		},
	}

	cmd.Flags().StringVarP(&search, "search", "s", "", "Match album or artist names containing this text")
	cmd.Flags().StringVarP(&genre, "genre", "g", "", "Only records of this genre id")
	cmd.Flags().BoolVarP(&favorites, "favorites", "f", false, "Only favorite records")
	cmd.Flags().StringVar(&sortKey, "sort", "name", "Sort key: name, artist or year")
	cmd.Flags().StringVar(&order, "order", "asc", "Sort order: asc or desc")
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table or json")

	return cmd
}

func outputJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func outputTable(w io.Writer, cards []catalog.CardView) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Name", "Artist", "Genre", "Released", "♥"})
	for _, c := range cards {
		liked := ""
		if c.Liked {
			liked = "♥"
		}
		t.AppendRow(table.Row{
			runewidth.Truncate(c.ID, 20, "..."),
			runewidth.Truncate(c.Name, 40, "..."),
			runewidth.Truncate(c.Artist, 30, "..."),
			c.Genre,
			c.ReleaseDate,
			liked,
		})
	}
	t.AppendFooter(table.Row{"", fmt.Sprintf("%d records", len(cards))})
	t.Render()
}
