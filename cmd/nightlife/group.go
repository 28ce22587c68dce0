package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kevinbrodzinski/nightlife/group"
)

func groupCmd(c *cli) *cobra.Command {
	var as string

	cmd := &cobra.Command{
		Use:   "group",
		Short: "Share a plan and track who is where",
	}
	cmd.PersistentFlags().StringVar(&as, "as", "", "Member name (default your profile name)")

	member := func(app *App) string {
		if as != "" {
			return as
		}
		return app.users.Profiles.DisplayName()
	}

	create := &cobra.Command{
		Use:   "create SAVED-PLAN-ID",
		Short: "Start a group plan from a saved plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := c.load(cmd)
			if err != nil {
				return err
			}
			saved, err := app.saved.Get(args[0])
			if err != nil {
				return err
			}
			plan, err := app.groups.Create(cmd.Context(), member(app), saved.Itinerary)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), group.ShareText(plan))
			return nil
		},
	}

	join := &cobra.Command{
		Use:   "join CODE",
		Short: "Join a group plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := c.load(cmd)
			if err != nil {
				return err
			}
			plan, err := app.groups.Join(cmd.Context(), args[0], member(app))
			if err != nil {
				return err
			}
			return writePlan(cmd.OutOrStdout(), plan)
		},
	}

	leave := &cobra.Command{
		Use:   "leave CODE",
		Short: "Leave a group plan; the creator leaving ends it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := c.load(cmd)
			if err != nil {
				return err
			}
			deleted, err := app.groups.Leave(cmd.Context(), args[0], member(app))
			if err != nil {
				return err
			}
			if deleted {
				fmt.Fprintf(cmd.OutOrStdout(), "Group plan %s ended.\n", group.NormalizeCode(args[0]))
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Left group plan %s.\n", group.NormalizeCode(args[0]))
			}
			return nil
		},
	}

	status := &cobra.Command{
		Use:   "status CODE STATUS [VENUE-ID]",
		Short: "Report your status: not_arrived, on_the_way, at_venue, left_venue",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := c.load(cmd)
			if err != nil {
				return err
			}
			st, err := group.ParseStatus(args[1])
			if err != nil {
				return err
			}
			venueID := ""
			if len(args) == 3 {
				venueID = args[2]
			}
			plan, err := app.groups.UpdatePresence(cmd.Context(), args[0], member(app), venueID, st)
			if err != nil {
				return err
			}
			return writePlan(cmd.OutOrStdout(), plan)
		},
	}

	show := &cobra.Command{
		Use:   "show CODE",
		Short: "Show a group plan and member presence",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := c.load(cmd)
			if err != nil {
				return err
			}
			plan, err := app.groups.Get(args[0])
			if err != nil {
				return err
			}
			return writePlan(cmd.OutOrStdout(), plan)
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List active group plans",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := c.load(cmd)
			if err != nil {
				return err
			}
			plans := app.groups.List()
			if len(plans) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No active group plans.")
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CODE\tCREATOR\tMEMBERS\tSTOPS")
			for _, p := range plans {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d\n", p.Code, p.Creator, len(p.Members), len(p.Itinerary))
			}
			return tw.Flush()
		},
	}

	var qrPath string
	var qrSize int
	share := &cobra.Command{
		Use:   "share CODE",
		Short: "Print the share text and optionally write a QR code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := c.load(cmd)
			if err != nil {
				return err
			}
			plan, err := app.groups.Get(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), group.ShareText(plan))
			if qrPath == "" {
				return nil
			}
			png, err := group.QRCode(plan, qrSize)
			if err != nil {
				return err
			}
			if err := os.WriteFile(qrPath, png, 0644); err != nil {
				return fmt.Errorf("write %s: %w", qrPath, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "QR code written to %s\n", qrPath)
			return nil
		},
	}
	share.Flags().StringVar(&qrPath, "qr", "", "Write a PNG QR code of the join link")
	share.Flags().IntVar(&qrSize, "size", 256, "QR code size in pixels")

	cmd.AddCommand(create, join, leave, status, show, list, share)
	return cmd
}

func writePlan(w io.Writer, p group.Plan) error {
	fmt.Fprintf(w, "Group plan %s by %s\n", p.Code, p.Creator)
	if err := writeItinerary(w, p.Itinerary); err != nil {
		return err
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "MEMBER\tSTATUS\tVENUE")
	for _, m := range p.Members {
		presence := p.Presence[m]
		st := presence.Status
		if st == "" {
			st = group.StatusNotArrived
		}
		where := "-"
		if item, ok := p.Itinerary.Stop(presence.VenueID); ok {
			where = item.Venue.Name
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", m, st, where)
	}
	return tw.Flush()
}
