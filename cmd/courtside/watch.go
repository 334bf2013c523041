package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/WessleyAI/courtside/engine/domain"
	"github.com/WessleyAI/courtside/engine/ingest"
	"github.com/WessleyAI/courtside/pkg/natsutil"
)

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print card change notifications as they arrive on NATS",
		Args:  cobra.NoArgs,
		RunE:  runWatch,
	}
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	nc, err := a.natsConn()
	if err != nil {
		return err
	}
	if nc == nil {
		return errors.New("nats.url is not set")
	}
	subject := a.cfg.NATS.Subject
	if subject == "" {
		subject = ingest.DefaultSubject
	}

	out := cmd.OutOrStdout()
	sub, err := natsutil.Subscribe(nc, subject, func(_ context.Context, ev domain.CardEvent) {
		fmt.Fprintln(out, formatEvent(ev))
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}
	defer func() { _ = sub.Unsubscribe() }()

	a.log.Info("watching", zap.String("subject", subject))
	<-ctx.Done()
	return nil
}

func formatEvent(ev domain.CardEvent) string {
	s := fmt.Sprintf("%s [%s/%s]", ev.ID, ev.Sport, ev.ContentType)
	if ev.Status != "" {
		s += " " + string(ev.Status)
	}
	if ev.Headline != "" {
		s += " " + ev.Headline
	}
	return s
}
