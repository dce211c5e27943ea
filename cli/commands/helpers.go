package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/AlecAivazis/survey/v2"

	"github.com/satishbabariya/posdata/cli/internal/version"
	"github.com/satishbabariya/posdata/internal/debug"
	"github.com/satishbabariya/posdata/migrate"
	"github.com/satishbabariya/posdata/provider"
	"github.com/satishbabariya/posdata/runtime/client"
	"github.com/satishbabariya/posdata/telemetry"
)

// session is an open database with the provider on top of it.
type session struct {
	client    *client.Client
	provider  *provider.Provider
	telemetry *telemetry.Collector
}

func openSession(ctx context.Context) (*session, error) {
	if cfg.DatabaseURL == "" {
		return nil, errors.New("no database configured: pass --url or set DATABASE_URL")
	}

	opts := []telemetry.Option{telemetry.WithProvider(cfg.Provider)}
	if cfg.TelemetryEndpoint != "" {
		opts = append(opts, telemetry.WithEndpoint(cfg.TelemetryEndpoint))
	}
	collector := telemetry.NewCollector(version.Version, cfg.Telemetry, opts...)

	c, err := client.Open(cfg.Provider, cfg.DatabaseURL, provider.Registry(),
		client.WithQueryTimeout(cfg.QueryTimeout),
		client.WithMaxOpenConns(cfg.MaxOpenConns),
		client.WithMiddleware(
			client.LoggingMiddleware(),
			client.SlowQueryMiddleware(time.Second),
			client.TelemetryMiddleware(collector),
		),
	)
	if err != nil {
		return nil, err
	}
	if err := c.Connect(ctx); err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to connect to %s database: %w", cfg.Provider, err)
	}

	return &session{
		client:    c,
		provider:  provider.New(c, provider.WithMaxResults(cfg.MaxResults)),
		telemetry: collector,
	}, nil
}

func (s *session) migrator() (*migrate.Migrator, error) {
	return migrate.New(s.client, provider.Registry(), version.SchemaVersion)
}

func (s *session) Close(ctx context.Context) {
	if err := s.telemetry.Flush(ctx); err != nil {
		debug.Warn("telemetry flush failed", "error", err)
	}
	if err := s.client.Close(); err != nil {
		debug.Warn("closing database failed", "error", err)
	}
}

// withSession runs fn on a fresh session that is closed afterwards. The
// context is canceled on interrupt.
func withSession(fn func(ctx context.Context, s *session) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close(context.Background())
	return fn(ctx, s)
}

// confirm asks a yes/no question unless --yes was given.
func confirm(message string) (bool, error) {
	if assumeYes {
		return true, nil
	}
	ok := false
	if err := survey.AskOne(&survey.Confirm{Message: message, Default: false}, &ok); err != nil {
		return false, err
	}
	return ok, nil
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		for part := range strings.SplitSeq(arg, ",") {
			if part == "" {
				continue
			}
			id, err := parseID(part)
			if err != nil {
				return nil, err
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", time.DateOnly} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q, use YYYY-MM-DD or RFC 3339", s)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func plural(n int64, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
