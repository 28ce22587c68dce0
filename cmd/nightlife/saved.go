package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func savedCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "saved",
		Short: "Manage saved plans",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List saved plans",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := c.load(cmd)
			if err != nil {
				return err
			}
			plans := app.saved.List()
			if len(plans) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No saved plans.")
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tSTOPS")
			for _, p := range plans {
				fmt.Fprintf(tw, "%s\t%s\t%d\n", p.ID, p.Name, len(p.Itinerary))
			}
			return tw.Flush()
		},
	}

	show := &cobra.Command{
		Use:   "show ID",
		Short: "Show a saved plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := c.load(cmd)
			if err != nil {
				return err
			}
			plan, err := app.saved.Get(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), plan.Name)
			return writeItinerary(cmd.OutOrStdout(), plan.Itinerary)
		},
	}

	del := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a saved plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := c.load(cmd)
			if err != nil {
				return err
			}
			return app.saved.Delete(cmd.Context(), args[0])
		},
	}

	clearAll := &cobra.Command{
		Use:   "clear",
		Short: "Delete every saved plan",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := c.load(cmd)
			if err != nil {
				return err
			}
			return app.saved.Clear(cmd.Context())
		},
	}

	var out string
	export := &cobra.Command{
		Use:   "export ID",
		Short: "Export a saved plan as iCalendar",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := c.load(cmd)
			if err != nil {
				return err
			}
			plan, err := app.saved.Get(args[0])
			if err != nil {
				return err
			}
			if out == "" {
				return plan.Itinerary.WriteICS(cmd.OutOrStdout(), plan.Name, app.now())
			}
			return writeICSFile(out, plan.Itinerary, plan.Name, app)
		},
	}
	export.Flags().StringVarP(&out, "out", "o", "", "Write to a file instead of stdout")

	cmd.AddCommand(list, show, del, clearAll, export)
	return cmd
}
