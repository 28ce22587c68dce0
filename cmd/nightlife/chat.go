package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kevinbrodzinski/nightlife/concierge"
	"github.com/kevinbrodzinski/nightlife/group"
)

func chatCmd(c *cli) *cobra.Command {
	var date, hour string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Plan the night with the concierge",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := c.load(cmd)
			if err != nil {
				return err
			}
			pctx, err := app.PlanningContext(date, hour)
			if err != nil {
				return err
			}
			app.WatchCatalog(cmd.Context())

			repl := newChatREPL(app, app.NewSession(app.NewPlanner(pctx)), cmd.OutOrStdout())
			return repl.Run(cmd.Context(), cmd.InOrStdin())
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Planning date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&hour, "time", "", "Hour slot (default now or 19)")
	return cmd
}

// chatREPL prints the session transcript and routes slash commands.
type chatREPL struct {
	app     *App
	session *concierge.Session
	out     io.Writer

	printed    int
	lastPrompt string
}

func newChatREPL(app *App, session *concierge.Session, out io.Writer) *chatREPL {
	return &chatREPL{app: app, session: session, out: out}
}

// Run reads lines until EOF or quit.
func (r *chatREPL) Run(ctx context.Context, in io.Reader) error {
	r.flush()
	scanner := bufio.NewScanner(in)

	for {
		fmt.Fprint(r.out, "you> ")

		if !scanner.Scan() {
			// EOF (Ctrl+D)
			fmt.Fprintln(r.out)
			return scanner.Err()
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "quit" || input == "exit" {
			return nil
		}

		if strings.HasPrefix(input, "/") {
			r.handleCommand(ctx, input)
		} else {
			r.lastPrompt = input
			if _, err := r.session.Send(ctx, input); err != nil && !errors.Is(err, concierge.ErrAgent) {
				fmt.Fprintf(r.out, "Error: %v\n", err)
			}
		}
		r.flush()

		if ctx.Err() != nil {
			return nil
		}
	}
}

// flush prints every message not yet shown. User lines are already on screen.
func (r *chatREPL) flush() {
	msgs := r.session.Messages()
	if r.printed > len(msgs) {
		r.printed = 0
	}
	for _, m := range msgs[r.printed:] {
		if m.Role == concierge.RoleUser || m.Loading {
			continue
		}
		fmt.Fprintf(r.out, "%s> %s\n", strings.ToLower(r.session.Persona()), m.Text)
		for _, s := range m.Suggestions {
			fmt.Fprintf(r.out, "    [%s] %s (%s, %s)\n", s.ID, s.Name, s.Category, levelLabel(s))
		}
		if len(m.Suggestions) > 0 {
			fmt.Fprintln(r.out, "    Use /add <id> to put one on the plan.")
		}
		switch m.Action.(type) {
		case concierge.ShowPlan, concierge.CompletePlan:
			if it := r.session.Planner().Itinerary(); len(it) > 0 {
				_ = writeItinerary(r.out, it)
			}
		}
	}
	r.printed = len(msgs)
}

func (r *chatREPL) handleCommand(ctx context.Context, input string) {
	parts := strings.Fields(input)
	planner := r.session.Planner()

	switch parts[0] {
	case "/help":
		fmt.Fprintln(r.out, "Available commands:")
		fmt.Fprintln(r.out, "  /add <venue-id>  - Add a suggested venue to the plan")
		fmt.Fprintln(r.out, "  /plan            - Show the current plan")
		fmt.Fprintln(r.out, "  /save            - Save the current plan")
		fmt.Fprintln(r.out, "  /load <plan-id>  - Load a saved plan")
		fmt.Fprintln(r.out, "  /share           - Create a group plan and print its code")
		fmt.Fprintln(r.out, "  /join <code>     - Join a group plan and make it the current plan")
		fmt.Fprintln(r.out, "  /reset           - Start over")
		fmt.Fprintln(r.out, "  quit/exit        - Leave the chat")

	case "/add":
		if len(parts) < 2 {
			fmt.Fprintln(r.out, "Usage: /add <venue-id>")
			return
		}
		if _, err := r.session.AddSuggestion(ctx, parts[1], r.lastPrompt); err != nil && !errors.Is(err, concierge.ErrAgent) {
			fmt.Fprintf(r.out, "Error: %v\n", err)
		}

	case "/plan":
		it := planner.Itinerary()
		if len(it) == 0 {
			fmt.Fprintln(r.out, concierge.MsgEmptyPlan)
			return
		}
		_ = writeItinerary(r.out, it)

	case "/save":
		plan, err := r.app.saved.Save(ctx, planner.Context(), planner.Itinerary())
		if err != nil {
			fmt.Fprintf(r.out, "Error: %v\n", err)
			return
		}
		fmt.Fprintf(r.out, "Saved %q as %s\n", plan.Name, plan.ID)

	case "/load":
		if len(parts) < 2 {
			fmt.Fprintln(r.out, "Usage: /load <plan-id>")
			return
		}
		plan, err := r.app.saved.Get(parts[1])
		if err != nil {
			fmt.Fprintf(r.out, "Error: %v\n", err)
			return
		}
		if err := planner.SetContext(plan.Context()); err != nil {
			fmt.Fprintf(r.out, "Error: %v\n", err)
			return
		}
		planner.Load(plan.Itinerary)
		if _, err := r.session.SendSystem(ctx, concierge.LoadedUpdate(plan.Context(), plan.Itinerary)); err != nil && !errors.Is(err, concierge.ErrAgent) {
			fmt.Fprintf(r.out, "Error: %v\n", err)
		}

	case "/share":
		plan, err := r.app.groups.Create(ctx, r.app.users.Profiles.DisplayName(), planner.Itinerary())
		if err != nil {
			fmt.Fprintf(r.out, "Error: %v\n", err)
			return
		}
		fmt.Fprintln(r.out, group.ShareText(plan))

	case "/join":
		if len(parts) < 2 {
			fmt.Fprintln(r.out, "Usage: /join <code>")
			return
		}
		plan, err := r.app.groups.Join(ctx, parts[1], r.app.users.Profiles.DisplayName())
		if err != nil {
			fmt.Fprintf(r.out, "Error: %v\n", err)
			return
		}
		planner.Load(plan.Itinerary)
		if _, err := r.session.SendSystem(ctx, concierge.JoinedUpdate(plan.Code, plan.Creator, plan.Itinerary)); err != nil && !errors.Is(err, concierge.ErrAgent) {
			fmt.Fprintf(r.out, "Error: %v\n", err)
		}

	case "/reset":
		planner.Reset()
		r.lastPrompt = ""
		r.session.Reset(concierge.Greeting(r.session.Persona(), planner.Context().Date))
		r.printed = 0

	default:
		fmt.Fprintf(r.out, "Unknown command: %s\n", parts[0])
		fmt.Fprintln(r.out, "Type /help for available commands.")
	}
}
