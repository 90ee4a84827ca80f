package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oakmont/portal-api/internal/bootstrap"
	domainauth "github.com/oakmont/portal-api/internal/domain/auth"
)

// sessionKeyPrefix must match the prefix the auth bootstrap passes to the
// Redis session store.
const sessionKeyPrefix = "session:"

const sessionScanBatch = 100

type sessionListOptions struct {
	Email   string
	Limit   int
	Timeout time.Duration
}

type sessionClearOptions struct {
	Email   string
	All     bool
	DryRun  bool
	Yes     bool
	Timeout time.Duration
}

// sessionRow is the subset of a stored session rendered by list-sessions.
// Sealed refresh tokens are never printed.
type sessionRow struct {
	ID        string
	Email     string
	Roles     []string
	ExpiresAt time.Time
	TTL       time.Duration
}

func runListSessions(cmdCtx *commandContext, args []string) error {
	opts, err := parseSessionListFlags(args)
	if err != nil {
		return err
	}

	return withRedis(cmdCtx, opts.Timeout, func(ctx context.Context, client redis.UniversalClient) error {
		rows, scanErr := scanSessions(ctx, client, opts.Email, opts.Limit)
		if scanErr != nil {
			return scanErr
		}
		return renderSessions(os.Stdout, rows)
	})
}

func runClearSessions(cmdCtx *commandContext, args []string) error {
	opts, err := parseSessionClearFlags(args)
	if err != nil {
		return err
	}
	if !opts.All && opts.Email == "" {
		return fmt.Errorf("refusing to clear sessions without a filter; pass --email or --all")
	}
	if !opts.Yes && !opts.DryRun {
		scope := "all sessions"
		if opts.Email != "" {
			scope = fmt.Sprintf("sessions for %q", opts.Email)
		}
		if confirmErr := requireConfirmation("delete "+scope, "the Redis session store"); confirmErr != nil {
			return confirmErr
		}
	}

	return withRedis(cmdCtx, opts.Timeout, func(ctx context.Context, client redis.UniversalClient) error {
		rows, scanErr := scanSessions(ctx, client, opts.Email, 0)
		if scanErr != nil {
			return scanErr
		}

		if opts.DryRun {
			if err := renderSessions(os.Stdout, rows); err != nil {
				return err
			}
			return writef(os.Stdout, "\ndry run: %d session(s) would be deleted\n", len(rows))
		}

		deleted := 0
		for _, row := range rows {
			if delErr := client.Del(ctx, sessionKeyPrefix+row.ID).Err(); delErr != nil {
				return fmt.Errorf("delete session %s: %w", row.ID, delErr)
			}
			deleted++
		}

		cmdCtx.Logger.Info("sessions cleared", "deleted", deleted, "email_filter", opts.Email)
		return nil
	})
}

func parseSessionListFlags(args []string) (sessionListOptions, error) {
	fs := flag.NewFlagSet("list-sessions", flag.ContinueOnError)
	email := fs.String("email", "", "only sessions whose profile email contains this substring")
	limit := fs.Int("limit", 100, "maximum sessions to show (0 for all)")
	timeout := fs.Duration("timeout", 2*time.Minute, "overall command timeout")
	if err := fs.Parse(args); err != nil {
		return sessionListOptions{}, err
	}
	return sessionListOptions{Email: *email, Limit: *limit, Timeout: *timeout}, nil
}

func parseSessionClearFlags(args []string) (sessionClearOptions, error) {
	fs := flag.NewFlagSet("clear-sessions", flag.ContinueOnError)
	email := fs.String("email", "", "only sessions whose profile email contains this substring")
	all := fs.Bool("all", false, "clear every session")
	dryRun := fs.Bool("dry-run", false, "show what would be deleted without deleting")
	yes := fs.Bool("yes", false, "skip the confirmation prompt")
	timeout := fs.Duration("timeout", 2*time.Minute, "overall command timeout")
	if err := fs.Parse(args); err != nil {
		return sessionClearOptions{}, err
	}
	return sessionClearOptions{Email: *email, All: *all, DryRun: *dryRun, Yes: *yes, Timeout: *timeout}, nil
}

func withRedis(
	cmdCtx *commandContext,
	timeout time.Duration,
	f func(context.Context, redis.UniversalClient) error,
) error {
	ctx, stop := signal.NotifyContext(cmdCtx.Ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := bootstrap.ConnectRedis(bootstrap.DatabaseConfig{
		RedisConfig: cmdCtx.Config.Redis,
		Logger:      cmdCtx.Logger,
	})
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer func() {
		if cerr := client.Close(); cerr != nil {
			cmdCtx.Logger.Warn("redis close failed", "error", cerr)
		}
	}()

	return f(ctx, client)
}

func scanSessions(
	ctx context.Context,
	client redis.UniversalClient,
	emailFilter string,
	limit int,
) ([]sessionRow, error) {
	var (
		rows   []sessionRow
		cursor uint64
	)
	for {
		keys, next, err := client.Scan(ctx, cursor, sessionKeyPrefix+"*", sessionScanBatch).Result()
		if err != nil {
			return nil, fmt.Errorf("scan session keys: %w", err)
		}

		for _, key := range keys {
			row, ok, rowErr := loadSessionRow(ctx, client, key)
			if rowErr != nil {
				return nil, rowErr
			}
			if !ok {
				continue
			}
			if emailFilter != "" && !strings.Contains(strings.ToLower(row.Email), strings.ToLower(emailFilter)) {
				continue
			}
			rows = append(rows, row)
			if limit > 0 && len(rows) >= limit {
				return rows, nil
			}
		}

		cursor = next
		if cursor == 0 {
			return rows, nil
		}
	}
}

func loadSessionRow(ctx context.Context, client redis.UniversalClient, key string) (sessionRow, bool, error) {
	raw, err := client.Get(ctx, key).Result()
	if err != nil {
		// The key can expire between SCAN and GET.
		if errors.Is(err, redis.Nil) {
			return sessionRow{}, false, nil
		}
		return sessionRow{}, false, fmt.Errorf("get session %s: %w", key, err)
	}

	var sess domainauth.Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return sessionRow{}, false, fmt.Errorf("unmarshal session %s: %w", key, err)
	}

	ttl, err := client.TTL(ctx, key).Result()
	if err != nil {
		return sessionRow{}, false, fmt.Errorf("ttl for session %s: %w", key, err)
	}

	row := sessionRow{
		ID:        strings.TrimPrefix(key, sessionKeyPrefix),
		Email:     sess.Profile.Email,
		ExpiresAt: sess.ExpiresAt,
		TTL:       ttl,
	}
	for _, role := range sess.Profile.Roles {
		row.Roles = append(row.Roles, string(role))
	}
	return row, true, nil
}

func renderSessions(w io.Writer, rows []sessionRow) error {
	if len(rows) == 0 {
		return writef(w, "no active sessions found\n")
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if err := writef(tw, "SESSION ID\tEMAIL\tROLES\tEXPIRES AT\tTTL\n"); err != nil {
		return err
	}
	for _, row := range rows {
		if err := writef(tw, "%s\t%s\t%s\t%s\t%s\n",
			row.ID,
			row.Email,
			strings.Join(row.Roles, ","),
			row.ExpiresAt.UTC().Format(time.RFC3339),
			row.TTL.Round(time.Second),
		); err != nil {
			return err
		}
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flush table: %w", err)
	}

	return writef(w, "\n%d active session(s)\n", len(rows))
}
