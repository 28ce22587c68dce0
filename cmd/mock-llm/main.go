// Package main implements an offline OpenAI-compatible LLM server for the
// nightlife planner. It answers /v1/chat/completions either from scripted
// reply files, routed by the "model" field, or, when no script matches, with
// a rule-based concierge that speaks the planner's JSON action protocol and
// generates venue catalogs on request.
//
// Usage:
//
//	mock-llm --fixtures /path/to/replies --port 11435
//
// Reply files are named by model: "mock-concierge.json" or
// "mock-concierge.txt" is the fallback reply of model "mock-concierge", and
// numbered files ("mock-concierge.1.txt", "mock-concierge.2.json") are served
// in order for successive calls before the fallback repeats. Text files are
// returned verbatim, so fenced or deliberately broken replies can be scripted.
package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		fixtureDir string
		port       int
	)

	cmd := &cobra.Command{
		Use:   "mock-llm",
		Short: "Offline OpenAI-compatible concierge",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Allow env var override
			if envDir := os.Getenv("MOCK_LLM_FIXTURES"); envDir != "" && fixtureDir == "" {
				fixtureDir = envDir
			}

			scripts := map[string]*script{}
			if fixtureDir != "" {
				loaded, err := loadScripts(os.DirFS(fixtureDir))
				if err != nil {
					return fmt.Errorf("load fixtures from %s: %w", fixtureDir, err)
				}
				scripts = loaded
			}
			for model, sc := range scripts {
				slog.Info("Scripted model", "model", model, "replies", sc.len())
			}

			srv := &http.Server{
				Addr:              fmt.Sprintf(":%d", port),
				Handler:           newServer(scripts).routes(),
				ReadHeaderTimeout: 5 * time.Second,
			}
			slog.Info("Mock LLM server listening", "addr", srv.Addr, "rules_model", rulesModel)
			return srv.ListenAndServe()
		},
	}

	cmd.Flags().StringVar(&fixtureDir, "fixtures", "", "directory containing scripted reply files")
	cmd.Flags().IntVar(&port, "port", 11435, "port to listen on")
	return cmd
}
