package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/slack-go/slack"

	"github.com/JaimeStill/proctor/internal/proctor"
	"github.com/JaimeStill/proctor/internal/sessions"
)

// Digest posts the suspicious-activity summary to Slack on a cron schedule.
type Digest struct {
	source   Source
	poster   Poster
	channel  string
	schedule cron.Schedule
	spec     string
	logger   *slog.Logger
}

// ParseSchedule parses a standard 5-field cron expression
// (minute hour day-of-month month day-of-week).
func ParseSchedule(spec string) (cron.Schedule, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	sched, err := parser.Parse(strings.TrimSpace(spec))
	if err != nil {
		return nil, fmt.Errorf("parse digest schedule %q: %w", spec, err)
	}
	return sched, nil
}

// NewDigest creates a Digest for spec, e.g. "0 17 * * 1-5".
func NewDigest(spec string, source Source, poster Poster, channel string, logger *slog.Logger) (*Digest, error) {
	sched, err := ParseSchedule(spec)
	if err != nil {
		return nil, err
	}

	return &Digest{
		source:   source,
		poster:   poster,
		channel:  channel,
		schedule: sched,
		spec:     spec,
		logger:   logger.With("system", "digest"),
	}, nil
}

// Run posts a digest at every scheduled time until ctx is cancelled.
func (d *Digest) Run(ctx context.Context) error {
	d.logger.Info("digest scheduled", "cron", d.spec, "channel", d.channel)

	for {
		now := time.Now()
		next := d.schedule.Next(now)
		d.logger.Debug("next digest", "at", next)

		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}

		if err := d.Post(ctx); err != nil {
			d.logger.Warn("digest not posted", "error", err)
		}
	}
}

// Post fetches the current summary and posts it.
func (d *Digest) Post(ctx context.Context) error {
	summary, err := d.source.Summary(ctx)
	if err != nil {
		return fmt.Errorf("fetch summary: %w", err)
	}

	text := FormatSummary(summary)
	if _, _, err := d.poster.PostMessageContext(ctx, d.channel, slack.MsgOptionText(text, false)); err != nil {
		return fmt.Errorf("slack post: %w", err)
	}

	d.logger.Info("digest posted", "violations", summary.TotalViolations, "sessions", len(summary.Sessions))
	return nil
}

// FormatSummary renders a summary as a Slack message.
func FormatSummary(s *sessions.Summary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "*Suspicious activity:* %d violations, %d evidence stills\n", s.TotalViolations, s.TotalEvidence)
	for _, k := range proctor.Kinds() {
		fmt.Fprintf(&b, "• %s: %d\n", k.Label(), s.Counts[k])
	}

	if len(s.Sessions) == 0 {
		b.WriteString("No flagged sessions.")
		return b.String()
	}

	b.WriteString("*Flagged sessions:*\n")
	for _, sess := range s.Sessions {
		fmt.Fprintf(&b, "• %s <%s>: %d violations\n", sess.Subject.Name, sess.Subject.Email, sess.TotalViolations)
	}
	return strings.TrimRight(b.String(), "\n")
}
