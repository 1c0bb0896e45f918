// Command notify polls the proctor API as a teacher and forwards new
// evidence notifications to the log, Slack, and MQTT.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/slack-go/slack"
	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/proctor/internal/config"
	"github.com/JaimeStill/proctor/internal/notifier"
)

func main() {
	cfg, err := config.LoadNotify()
	if err != nil {
		log.Fatal("config load failed:", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("notifier stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("notifier stopped")
}

func run(ctx context.Context, cfg *notifier.Config, logger *slog.Logger) error {
	client := notifier.NewClient(cfg.APIURL, cfg.Token, cfg.RequestTimeoutDuration())

	sinks := []notifier.Sink{notifier.NewLogSink(logger)}

	var slackClient *slack.Client
	if cfg.SlackEnabled() {
		slackClient = slack.New(cfg.SlackToken)
		sinks = append(sinks, notifier.NewSlackSink(slackClient, cfg.SlackChannel))
	}

	if cfg.MQTTEnabled() {
		mq, err := notifier.ConnectMQTT(cfg.MQTTBroker, cfg.MQTTClientID, logger)
		if err != nil {
			return err
		}
		defer mq.Disconnect(250)
		sinks = append(sinks, notifier.NewMQTTSink(mq, cfg.MQTTTopic))
	}

	n := notifier.New(client, sinks, notifier.Options{
		Interval:    cfg.PollIntervalDuration(),
		MaxPerTick:  cfg.MaxPerTick,
		Concurrency: cfg.FetchConcurrency,
	}, logger)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return n.Run(ctx)
	})

	if cfg.DigestSchedule != "" {
		digest, err := notifier.NewDigest(cfg.DigestSchedule, client, slackClient, cfg.SlackChannel, logger)
		if err != nil {
			return err
		}
		g.Go(func() error {
			return digest.Run(ctx)
		})
	}

	return g.Wait()
}
