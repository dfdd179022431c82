package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/contre95/vinylshelf/src/features/catalog"
)

func newRandomCmd() *cobra.Command {
	var (
		search    string
		genre     string
		favorites bool
		format    string
	)

	cmd := &cobra.Command{
		Use:   "random",
		Short: "Pick a random record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			resolver := a.catalog.NewResolver()
			if search != "" {
				if err := a.catalog.PrefetchAll(ctx, resolver); err != nil {
					return err
				}
			}
			q := catalog.DefaultQuery()
			q.SearchTerm, q.GenreID, q.FavoritesOnly = search, genre, favorites

			picked, err := a.catalog.RandomPick(ctx, resolver, q)
			if errors.Is(err, catalog.ErrNoEligibleRecord) {
				fmt.Fprintln(cmd.ErrOrStderr(), "No records match your filters.")
				return nil
			}
			if err != nil {
				return err
			}

			card := catalog.Card(picked)
			if format == "json" {
				return outputJSON(cmd.OutOrStdout(), card)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\n  %s\n  %s\n  %s\n", card.Name, card.Artist, card.Genre, card.ReleaseDate)
			return nil
		},
	}

	cmd.Flags().StringVarP(&search, "search", "s", "", "Match album or artist names containing this text")
	cmd.Flags().StringVarP(&genre, "genre", "g", "", "Only records of this genre id")
	cmd.Flags().BoolVarP(&favorites, "favorites", "f", false, "Only favorite records")
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text or json")

	return cmd
}
