package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kevinbrodzinski/nightlife/venue"
)

func venuesCmd(c *cli) *cobra.Command {
	var (
		date, hour, query, view string
		categories, vibes       []string
		features, crowd         []string
		maxDistance             float64
		asJSON, refresh         bool
	)

	cmd := &cobra.Command{
		Use:   "venues",
		Short: "Rank venues by expected crowd",
		Example: `  nightlife venues --date 2024-08-16 --time 22 --vibe cozy
  nightlife venues --crowd Busy --crowd "Very Crowded" --view trending`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := c.load(cmd)
			if err != nil {
				return err
			}
			if refresh {
				if err := app.catalog.Invalidate(cmd.Context()); err != nil {
					return err
				}
			}

			pctx, err := app.PlanningContext(date, hour)
			if err != nil {
				return err
			}
			levels, err := parseLevels(crowd)
			if err != nil {
				return err
			}

			ranked, err := app.Rank(cmd.Context(), venue.Criteria{
				Date:        pctx.Date,
				Hour:        pctx.Hour,
				Query:       query,
				Categories:  categories,
				Vibes:       vibes,
				Features:    features,
				Crowd:       levels,
				MaxDistance: maxDistance,
			})
			if err != nil {
				return err
			}

			title := fmt.Sprintf("%s at %s", venue.LongDate(pctx.Date), venue.SlotLabel(pctx.Hour))
			switch view {
			case "top":
				ranked = venue.TopList(ranked)
			case "trending":
				trending := venue.Trending(ranked, pctx.Date, app.now())
				title, ranked = trending.Title, trending.Venues
			case "", "all":
			default:
				return fmt.Errorf("unknown view %q (all, top, trending)", view)
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), ranked)
			}
			fmt.Fprintln(cmd.OutOrStdout(), title)
			if len(ranked) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No venues match these filters.")
				return nil
			}
			return writeVenues(cmd.OutOrStdout(), ranked, app.users.Favorites.IsFavorite)
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Planning date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&hour, "time", "", "Hour slot: 17-23, 00, 01, 02 (default now or 19)")
	cmd.Flags().StringVarP(&query, "query", "q", "", "Match name, category or tag")
	cmd.Flags().StringSliceVar(&categories, "category", nil, "Restrict to categories")
	cmd.Flags().StringSliceVar(&vibes, "vibe", nil, "Require any of these vibe tags")
	cmd.Flags().StringSliceVar(&features, "feature", nil, "Require any of these feature tags")
	cmd.Flags().StringSliceVar(&crowd, "crowd", nil, "Restrict to crowd levels")
	cmd.Flags().Float64Var(&maxDistance, "max-distance", 0, "Maximum distance in miles (needs a location)")
	cmd.Flags().StringVar(&view, "view", "all", "all, top or trending")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Refetch the catalog")

	return cmd
}

func parseLevels(values []string) ([]venue.Level, error) {
	levels := make([]venue.Level, 0, len(values))
	for _, v := range values {
		l, ok := venue.ParseLevel(v)
		if !ok {
			return nil, fmt.Errorf("unknown crowd level %q", v)
		}
		levels = append(levels, l)
	}
	return levels, nil
}

func writeVenues(w io.Writer, venues []venue.Processed, favorite func(string) bool) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tCROWD\tSCORE\tDISTANCE\tTAGS")
	for _, v := range venues {
		name := v.Name
		if favorite != nil && favorite(v.ID) {
			name = "* " + name
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			v.ID, name, v.Category, levelLabel(v), v.Score, distanceLabel(v), strings.Join(v.Tags, ", "))
	}
	return tw.Flush()
}

func levelLabel(v venue.Processed) string {
	if !v.KnownPopularity() {
		return "Unknown"
	}
	return v.Level.String()
}

func distanceLabel(v venue.Processed) string {
	if v.DistanceMiles == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f mi", *v.DistanceMiles)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
