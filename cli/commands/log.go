package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/posdata/cli/internal/ui"
	"github.com/satishbabariya/posdata/cli/internal/watch"
	"github.com/satishbabariya/posdata/provider"
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Read and maintain the internal log",
}

var (
	logSearch string
	logMax    int
	logBefore string
	logFollow bool
	tailLines int
)

func init() {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the newest log entries, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(func(ctx context.Context, s *session) error {
				_, err := printLog(ctx, s, logSearch, logMax, 0)
				return err
			})
		},
	}
	listCmd.Flags().StringVarP(&logSearch, "search", "s", "", "only entries whose message contains this text")
	listCmd.Flags().IntVarP(&logMax, "max", "m", 0, "at most this many entries (default max_results)")

	addCmd := &cobra.Command{
		Use:   "add <message>",
		Short: "Append a log entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(func(ctx context.Context, s *session) error {
				entry := &provider.LogEntry{Message: args[0]}
				if err := s.provider.AddInternalLogEntry(ctx, entry); err != nil {
					return err
				}
				ui.PrintSuccess("Logged entry %d", entry.ID)
				return nil
			})
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete [id...]",
		Short: "Delete log entries by id, or all entries before a time",
		RunE: func(cmd *cobra.Command, args []string) error {
			if logBefore == "" && len(args) == 0 {
				return fmt.Errorf("pass entry ids or --before")
			}
			return withSession(func(ctx context.Context, s *session) error {
				return runLogDelete(ctx, s, args)
			})
		},
	}
	deleteCmd.Flags().StringVar(&logBefore, "before", "", "delete every entry older than this time")

	tailCmd := &cobra.Command{
		Use:   "tail",
		Short: "Show the last entries and optionally follow new ones",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(runLogTail)
		},
	}
	tailCmd.Flags().IntVarP(&tailLines, "lines", "n", 20, "number of entries to show")
	tailCmd.Flags().BoolVarP(&logFollow, "follow", "f", false, "keep printing new entries (SQLite files only)")

	logCmd.AddCommand(listCmd, addCmd, deleteCmd, tailCmd)
	rootCmd.AddCommand(logCmd)
}

// printLog prints the newest limit entries after afterID and returns the
// highest id printed.
func printLog(ctx context.Context, s *session, search string, limit int, afterID int64) (int64, error) {
	res, err := s.provider.GetAllInternalLogEntries(ctx, search, limit)
	if err != nil {
		return afterID, err
	}
	last := afterID
	for e, err := range res.All(ctx) {
		if err != nil {
			return last, err
		}
		if e.ID <= afterID {
			continue
		}
		ui.PrintLogLine(formatTime(e.Timestamp), e.ID, e.Message)
		last = max(last, e.ID)
	}
	return last, nil
}

func runLogDelete(ctx context.Context, s *session, args []string) error {
	if logBefore != "" {
		before, err := parseTime(logBefore)
		if err != nil {
			return err
		}
		ok, err := confirm(fmt.Sprintf("Delete every log entry before %s?", formatTime(before)))
		if err != nil || !ok {
			return err
		}
		n, err := s.provider.ClearInternalLog(ctx, before)
		if err != nil {
			return err
		}
		ui.PrintSuccess("Deleted %d log %s", n, plural(n, "entry", "entries"))
		return nil
	}

	ids, err := parseIDs(args)
	if err != nil {
		return err
	}
	ok, err := confirm(fmt.Sprintf("Delete %d log %s?", len(ids), plural(int64(len(ids)), "entry", "entries")))
	if err != nil || !ok {
		return err
	}
	n, err := s.provider.DeleteInternalLogEntries(ctx, ids)
	if err != nil {
		return err
	}
	ui.PrintSuccess("Deleted %d log %s", n, plural(n, "entry", "entries"))
	return nil
}

func runLogTail(ctx context.Context, s *session) error {
	last, err := printLog(ctx, s, "", tailLines, 0)
	if err != nil || !logFollow {
		return err
	}
	if s.client.Dialect().Name() != "sqlite" {
		return fmt.Errorf("--follow needs a SQLite database file")
	}

	path := sqlitePath(cfg.DatabaseURL)
	w, err := watch.NewWatcher(path, func() error {
		next, err := printLog(ctx, s, "", tailLines, last)
		last = next
		return err
	})
	if err != nil {
		return err
	}
	ui.PrintInfo("Following %s (Ctrl+C to stop)", path)
	if err := w.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// sqlitePath strips the URI form of a SQLite DSN down to the file path.
func sqlitePath(dsn string) string {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	return path
}
