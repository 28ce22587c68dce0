package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kevinbrodzinski/nightlife/itinerary"
	"github.com/kevinbrodzinski/nightlife/venue"
)

func planCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Build an itinerary from activities",
	}

	var (
		date, hour, icsPath string
		save, asJSON        bool
	)
	generate := &cobra.Command{
		Use:     "generate ACTIVITY...",
		Short:   "Pick the best venue for each activity in order",
		Example: `  nightlife plan generate dinner dancing --time 19 --save`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := c.load(cmd)
			if err != nil {
				return err
			}
			pctx, err := app.PlanningContext(date, hour)
			if err != nil {
				return err
			}
			venues, err := app.Processed(cmd.Context(), pctx)
			if err != nil {
				return err
			}

			planner := app.NewPlanner(pctx)
			for _, a := range args {
				if err := planner.ToggleSelection(a); err != nil {
					return err
				}
			}
			it, err := planner.Generate(venues)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				if err := writeJSON(out, it); err != nil {
					return err
				}
			} else {
				fmt.Fprintln(out, itinerary.PlanName(pctx))
				if err := writeItinerary(out, it); err != nil {
					return err
				}
			}

			if save {
				if app.saved.IsSaved(pctx, it) {
					fmt.Fprintln(cmd.ErrOrStderr(), "An identical plan is already saved.")
				} else {
					plan, err := app.saved.Save(cmd.Context(), pctx, it)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.ErrOrStderr(), "Saved as %s\n", plan.ID)
				}
			}
			if icsPath != "" {
				return writeICSFile(icsPath, it, itinerary.PlanName(pctx), app)
			}
			return nil
		},
	}
	generate.Flags().StringVar(&date, "date", "", "Planning date (YYYY-MM-DD, default today)")
	generate.Flags().StringVar(&hour, "time", "", "Start hour slot (default now or 19)")
	generate.Flags().BoolVar(&save, "save", false, "Save the plan")
	generate.Flags().StringVar(&icsPath, "ics", "", "Also write an iCalendar file")
	generate.Flags().BoolVar(&asJSON, "json", false, "Print JSON")

	activities := &cobra.Command{
		Use:   "activities",
		Short: "List the known activities",
		Run: func(cmd *cobra.Command, args []string) {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "VALUE\tLABEL\tCATEGORY\tDURATION")
			for _, a := range itinerary.Activities {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", a.Value, a.Label, a.RelatedCategory, a.Duration)
			}
			_ = tw.Flush()
		},
	}

	slots := &cobra.Command{
		Use:   "slots",
		Short: "List the selectable hour slots",
		Run: func(cmd *cobra.Command, args []string) {
			for _, s := range venue.Slots {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", s.Hour, s.Label)
			}
		},
	}

	cmd.AddCommand(generate, activities, slots)
	return cmd
}

func writeItinerary(w io.Writer, it itinerary.Itinerary) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i, item := range it {
		fmt.Fprintf(tw, "%d.\t%s - %s\t%s\t%s (%s)\n", i+1, item.StartLabel(), item.EndLabel(), item.Label, item.Venue.Name, item.Venue.Category)
		if item.Travel != "" {
			fmt.Fprintf(tw, "\t\t%s\t\n", item.Travel)
		}
	}
	return tw.Flush()
}

func writeICSFile(path string, it itinerary.Itinerary, name string, app *App) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := it.WriteICS(f, name, app.now()); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
