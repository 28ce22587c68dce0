package main

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kevinbrodzinski/nightlife/user"
	"github.com/kevinbrodzinski/nightlife/venue"
)

// meCmd groups the per-user stores: profile, friends, favorites, day saves
// and the manual location.
func meCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "me",
		Short: "Profile, friends, favorites and location",
	}
	cmd.AddCommand(profileCmd(c), friendsCmd(c), favoritesCmd(c), daysCmd(c), locationCmd(c))
	return cmd
}

func profileCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile [USERNAME]",
		Short: "Show or set your username",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := c.load(cmd)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				if _, err := app.users.Profiles.SetUsername(cmd.Context(), args[0]); err != nil {
					return err
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), app.users.Profiles.DisplayName())
			return nil
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "signout",
		Short: "Forget the username",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := c.load(cmd)
			if err != nil {
				return err
			}
			return app.users.Profiles.SignOut(cmd.Context())
		},
	})
	return cmd
}

func friendsCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "friends",
		Short: "List friends",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := c.load(cmd)
			if err != nil {
				return err
			}
			for _, f := range app.users.Friends.List() {
				fmt.Fprintln(cmd.OutOrStdout(), f)
			}
			return nil
		},
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "add NAME",
			Short: "Add a friend from the directory",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				app, err := c.load(cmd)
				if err != nil {
					return err
				}
				return app.users.Friends.Add(cmd.Context(), args[0])
			},
		},
		&cobra.Command{
			Use:   "remove NAME",
			Short: "Remove a friend",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				app, err := c.load(cmd)
				if err != nil {
					return err
				}
				return app.users.Friends.Remove(cmd.Context(), args[0])
			},
		},
		&cobra.Command{
			Use:   "directory",
			Short: "List users you can add",
			RunE: func(cmd *cobra.Command, args []string) error {
				app, err := c.load(cmd)
				if err != nil {
					return err
				}
				for _, name := range app.users.Friends.Directory() {
					marker := " "
					if app.users.Friends.IsFriend(name) {
						marker = "*"
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", marker, name)
				}
				return nil
			},
		},
	)
	return cmd
}

func favoritesCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "favorites",
		Short: "List favorite venues with tonight's crowd",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := c.load(cmd)
			if err != nil {
				return err
			}
			pctx, err := app.PlanningContext("", "")
			if err != nil {
				return err
			}
			venues, err := app.Processed(cmd.Context(), pctx)
			if err != nil {
				return err
			}
			favs := app.users.Favorites.Details(venues)
			if len(favs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No favorites yet.")
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tCROWD\tNOTIFY")
			for _, f := range favs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%t\n", f.ID, f.Name, levelLabel(f.Processed), f.Notify)
			}
			return tw.Flush()
		},
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "toggle VENUE-ID",
			Short: "Add or remove a favorite",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				app, err := c.load(cmd)
				if err != nil {
					return err
				}
				on, err := app.users.Favorites.Toggle(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), onOff(on, "Added to favorites.", "Removed from favorites."))
				return nil
			},
		},
		&cobra.Command{
			Use:   "notify VENUE-ID",
			Short: "Toggle notifications for a favorite",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				app, err := c.load(cmd)
				if err != nil {
					return err
				}
				on, err := app.users.Favorites.ToggleNotify(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), onOff(on, "Notifications on.", "Notifications off."))
				return nil
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Remove every favorite",
			RunE: func(cmd *cobra.Command, args []string) error {
				app, err := c.load(cmd)
				if err != nil {
					return err
				}
				return app.users.Favorites.Clear(cmd.Context())
			},
		},
	)
	return cmd
}

func daysCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "days [VENUE-ID]",
		Short: "List venues saved for weekdays",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := c.load(cmd)
			if err != nil {
				return err
			}
			saves := app.users.DaySaves.All()
			if len(args) == 1 {
				saves = app.users.DaySaves.DaysFor(args[0])
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "VENUE\tDAY\tNOTES")
			for _, s := range saves {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", s.VenueID, s.Weekday, s.Notes)
			}
			return tw.Flush()
		},
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "save VENUE-ID WEEKDAY [NOTES...]",
			Short: "Save a venue for a weekday",
			Args:  cobra.MinimumNArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				app, err := c.load(cmd)
				if err != nil {
					return err
				}
				day, err := user.ParseWeekday(args[1])
				if err != nil {
					return err
				}
				updated, err := app.users.DaySaves.Save(cmd.Context(), args[0], day, strings.Join(args[2:], " "))
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), onOff(updated, "Updated.", "Saved."))
				return nil
			},
		},
		&cobra.Command{
			Use:   "remove VENUE-ID WEEKDAY",
			Short: "Remove a day save",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				app, err := c.load(cmd)
				if err != nil {
					return err
				}
				day, err := user.ParseWeekday(args[1])
				if err != nil {
					return err
				}
				return app.users.DaySaves.Remove(cmd.Context(), args[0], day)
			},
		},
	)
	return cmd
}

func locationCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "location",
		Short: "Show the manual location",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := c.load(cmd)
			if err != nil {
				return err
			}
			m := app.users.Location.Manual()
			if m.Location == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "No manual location set.")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%.4f, %.4f (%s)\n", m.Location.Lat, m.Location.Lon, onOff(m.Enabled, "enabled", "disabled"))
			return nil
		},
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "set LAT LON",
			Short: "Set and enable the manual location",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				app, err := c.load(cmd)
				if err != nil {
					return err
				}
				lat, err := strconv.ParseFloat(args[0], 64)
				if err != nil {
					return fmt.Errorf("latitude: %w", err)
				}
				lon, err := strconv.ParseFloat(args[1], 64)
				if err != nil {
					return fmt.Errorf("longitude: %w", err)
				}
				return app.users.Location.Set(cmd.Context(), venue.Coordinate{Lat: lat, Lon: lon})
			},
		},
		&cobra.Command{
			Use:   "enable",
			Short: "Use the manual location",
			RunE: func(cmd *cobra.Command, args []string) error {
				app, err := c.load(cmd)
				if err != nil {
					return err
				}
				return app.users.Location.SetEnabled(cmd.Context(), true)
			},
		},
		&cobra.Command{
			Use:   "disable",
			Short: "Stop using the manual location",
			RunE: func(cmd *cobra.Command, args []string) error {
				app, err := c.load(cmd)
				if err != nil {
					return err
				}
				return app.users.Location.SetEnabled(cmd.Context(), false)
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Forget the manual location",
			RunE: func(cmd *cobra.Command, args []string) error {
				app, err := c.load(cmd)
				if err != nil {
					return err
				}
				return app.users.Location.Clear(cmd.Context())
			},
		},
	)
	return cmd
}

func onOff(on bool, yes, no string) string {
	if on {
		return yes
	}
	return no
}
