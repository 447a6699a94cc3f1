package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spektr-org/iplstats/assistant"
	"github.com/spektr-org/iplstats/render"
)

// ============================================================================
// INTERACTIVE LOOP
// ============================================================================

type asker interface {
	Ask(ctx context.Context, question string) assistant.Answer
}

const questionPrompt = "\n🤔 Ask your IPL question: "

// runLoop reads one question per line until exit, quit, EOF or ctx is done.
// A failed question is reported and the loop moves on.
func runLoop(ctx context.Context, a asker, in *bufio.Reader, out io.Writer) error {
	fmt.Fprintln(out, "🏏 IPL Stats Assistant")
	fmt.Fprintln(out, strings.Repeat("=", 50))
	fmt.Fprintln(out, "You can ask questions like:")
	for _, q := range assistant.ExampleQuestions {
		fmt.Fprintf(out, "- %s\n", q)
	}
	fmt.Fprintln(out, "\nType 'quit' to exit")

	for {
		if ctx.Err() != nil {
			return nil
		}
		fmt.Fprint(out, questionPrompt)

		line, err := in.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		question := strings.TrimSpace(line)

		switch strings.ToLower(question) {
		case "exit", "quit":
			fmt.Fprintln(out, "Goodbye! 👋")
			return nil
		case "":
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(out)
				return nil
			}
			fmt.Fprintln(out, assistant.Suggestions())
			continue
		}

		answer(ctx, a, question, out)
		if errors.Is(err, io.EOF) {
			return nil
		}
	}
}

func answer(ctx context.Context, a asker, question string, out io.Writer) {
	ans := a.Ask(ctx, question)

	if ans.Query != nil {
		fmt.Fprintln(out, "\nGenerated query:")
		if err := render.JSON(out, ans.Query); err != nil {
			fmt.Fprintf(out, "(could not print query: %v)\n", err)
		}
		if ans.SQL != "" {
			fmt.Fprintf(out, "From SQL: %s\n", ans.SQL)
		}
	}
	if ans.Fallback {
		fmt.Fprintln(out, "(answered with a built-in query)")
	}

	if ans.Failed() {
		fmt.Fprintf(out, "\n❌ %s\n", ans.Text)
		return
	}
	fmt.Fprintf(out, "\nAnswer:\n%s\n", ans.Text)
}

// ============================================================================
// API KEY PROMPT
// ============================================================================

func readKey(in *bufio.Reader, out io.Writer) keyPrompter {
	return func() (string, error) {
		fmt.Fprint(out, "GROQ_API_KEY is not set. Enter your API key: ")
		line, err := in.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", err
		}
		return strings.TrimSpace(line), nil
	}
}

// isTerminal reports whether f is an interactive character device.
func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
