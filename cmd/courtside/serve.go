package main

import (
	"context"
	"os/signal"
	"syscall"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/WessleyAI/courtside/engine/mcp"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP tool server over stdio",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
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
	g, err := a.graphStore(ctx)
	if err != nil {
		return err
	}
	var gq mcp.GraphQuerier
	if g != nil {
		gq = g
	}

	server := mcp.NewServer(r, gq, a.cfg.Analyst.TopK, version, a.metrics, a.log)
	return server.Run(ctx, &sdk.StdioTransport{})
}
