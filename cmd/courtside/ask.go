package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/WessleyAI/courtside/engine/rag"
)

func askCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask the sports analyst; with no question, start an interactive session",
		RunE:  runAsk,
	}
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	r, err := a.retriever()
	if err != nil {
		return err
	}
	an := a.cfg.Analyst
	analyst := rag.NewAnalyst(rag.AnalystConfig{
		APIKey:   an.APIKey,
		BaseURL:  an.BaseURL,
		Model:    an.Model,
		TopK:     an.TopK,
		MaxTurns: an.MaxTurns,
	}, r, a.metrics, a.log)

	if len(args) > 0 {
		answer, err := analyst.Ask(ctx, strings.Join(args, " "))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), answer)
		return nil
	}
	return repl(ctx, analyst, cmd.InOrStdin(), cmd.OutOrStdout())
}

type asker interface {
	Ask(ctx context.Context, question string) (string, error)
}

// repl reads one question per line until EOF, "exit" or "quit".
func repl(ctx context.Context, a asker, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, "Sports analyst ready. Type 'exit' to quit.")
	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !sc.Scan() {
			fmt.Fprintln(out)
			return sc.Err()
		}
		q := strings.TrimSpace(sc.Text())
		switch strings.ToLower(q) {
		case "":
			continue
		case "exit", "quit":
			return nil
		}
		answer, err := a.Ask(ctx, q)
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		fmt.Fprintf(out, "\n%s\n\n", answer)
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}
