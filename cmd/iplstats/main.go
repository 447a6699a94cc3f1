package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/spektr-org/iplstats/render"
	"github.com/spektr-org/iplstats/server"
)

// ============================================================================
// IPLSTATS CLI — Ask questions about IPL ball-by-ball data
// ============================================================================

const version = "0.3.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "iplstats",
		Short: "Ask natural-language questions about IPL ball-by-ball statistics",
		Long: `iplstats answers cricket questions over IPL ball-by-ball data.

A language model turns each question into a query; the query runs locally
against the dataset loaded from DATABASE_URL.

Environment:
  DATABASE_URL    postgres://, mysql://, sqlite:// or a .csv path (required)
  GROQ_API_KEY    API key for the language model (required unless llm.provider is ollama)`,
		Version:      version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := bufio.NewReader(cmd.InOrStdin())
			var prompt keyPrompter
			if isTerminal(os.Stdin) {
				prompt = readKey(in, cmd.OutOrStdout())
			}

			a, err := load(cmd.Context(), configPath, prompt)
			if err != nil {
				return err
			}
			defer a.Close()

			return runLoop(cmd.Context(), a.assistant, in, cmd.OutOrStdout())
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config (default ./iplstats.yaml)")

	root.AddCommand(newAskCmd(&configPath), newServeCmd(&configPath), newSchemaCmd(&configPath))
	return root
}

// ============================================================================
// SUBCOMMANDS
// ============================================================================

func newAskCmd(configPath *string) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a single question and exit",
		Example: `  iplstats ask "Who are the top 10 run scorers in IPL history?"
  iplstats ask "Top wicket takers in IPL 2024" --format csv > wickets.csv`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch format {
			case "text", "json", "csv", "table":
			default:
				return fmt.Errorf("unknown format %q (want text, json, csv or table)", format)
			}

			a, err := load(cmd.Context(), *configPath, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			ans := a.assistant.Ask(cmd.Context(), strings.Join(args, " "))
			out := cmd.OutOrStdout()

			switch {
			case format == "json":
				if err := render.JSON(out, ans); err != nil {
					return err
				}
			case ans.Failed():
				fmt.Fprintln(cmd.ErrOrStderr(), ans.Text)
			case format == "csv":
				if err := render.CSV(out, ans.Result); err != nil {
					return err
				}
			case format == "table":
				if err := render.Table(out, ans.Result); err != nil {
					return err
				}
			default:
				fmt.Fprintln(out, ans.Text)
			}

			if ans.Failed() {
				return fmt.Errorf("%s error: %w", ans.Kind, ans.Err)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format: text, json, csv, table")
	return cmd
}

func newServeCmd(configPath *string) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the question-answering HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := load(cmd.Context(), *configPath, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			if port == 0 {
				port = a.cfg.Server.Port
			}
			e := server.New(server.NewHandler(a.assistant, a.summary))
			return server.Run(cmd.Context(), e, port)
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (default server.port)")
	return cmd
}

func newSchemaCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the discovered schema and dataset summary as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadSource(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			return render.JSON(cmd.OutOrStdout(), map[string]interface{}{
				"schema":  a.schema,
				"summary": a.summary,
			})
		},
	}
}
