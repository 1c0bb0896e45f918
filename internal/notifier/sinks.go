package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/slack-go/slack"
)

// LogSink writes notifications to the structured log.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a LogSink.
func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger.With("sink", "log")}
}

// Notify implements Sink.
func (s *LogSink) Notify(_ context.Context, n Notification) error {
	s.logger.Info(
		n.Message(),
		"session", n.SessionID,
		"kind", n.Evidence.Kind,
		"captured_at", n.Evidence.CapturedAt,
		"media_ref", n.Evidence.MediaRef,
	)
	return nil
}

// Poster is the subset of the Slack client used by the Slack sink and digest.
type Poster interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// SlackSink posts each notification to a channel.
type SlackSink struct {
	poster  Poster
	channel string
}

// NewSlackSink creates a SlackSink.
func NewSlackSink(poster Poster, channel string) *SlackSink {
	return &SlackSink{poster: poster, channel: channel}
}

// Notify implements Sink.
func (s *SlackSink) Notify(ctx context.Context, n Notification) error {
	text := fmt.Sprintf("%s (%s)", n.Message(), n.Evidence.CapturedAt.Format(time.Kitchen))
	if n.Evidence.MediaRef != "" {
		text += "\n" + n.Evidence.MediaRef
	}

	if _, _, err := s.poster.PostMessageContext(ctx, s.channel, slack.MsgOptionText(text, false)); err != nil {
		return fmt.Errorf("slack post: %w", err)
	}
	return nil
}

// MQTTSink publishes notifications as JSON to a topic.
type MQTTSink struct {
	client  mqtt.Client
	topic   string
	timeout time.Duration
}

// NewMQTTSink wraps a connected client.
func NewMQTTSink(client mqtt.Client, topic string) *MQTTSink {
	return &MQTTSink{client: client, topic: topic, timeout: 2 * time.Second}
}

// ConnectMQTT dials broker with automatic reconnects.
func ConnectMQTT(broker, clientID string, logger *slog.Logger) (mqtt.Client, error) {
	logger = logger.With("sink", "mqtt")

	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetMaxReconnectInterval(30 * time.Second)
	opts.OnConnect = func(mqtt.Client) {
		logger.Info("mqtt connected", "broker", broker)
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		logger.Warn("mqtt connection lost", "broker", broker, "error", err)
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(5 * time.Second) {
		return nil, fmt.Errorf("mqtt connect to %s: timeout", broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect to %s: %w", broker, err)
	}
	return client, nil
}

// Notify implements Sink.
func (s *MQTTSink) Notify(_ context.Context, n Notification) error {
	payload, err := json.Marshal(struct {
		Notification
		Message string `json:"message"`
	}{n, n.Message()})
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	token := s.client.Publish(s.topic, 1, false, payload)
	if !token.WaitTimeout(s.timeout) {
		return fmt.Errorf("mqtt publish to %s: timeout", s.topic)
	}
	return token.Error()
}
