package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/oakmont/portal-api/internal/data"
	"github.com/oakmont/portal-api/internal/domain/model"
)

type signInListOptions struct {
	Limit   int
	Offset  int
	Q       string
	UserID  string
	Outcome string
	Since   time.Duration
	Timeout time.Duration
}

func runListSignIns(cmdCtx *commandContext, args []string) error {
	opts, err := parseSignInListFlags(args)
	if err != nil {
		return err
	}

	listOpts, err := buildSignInListOptions(opts)
	if err != nil {
		return err
	}

	return withDatabase(cmdCtx, opts.Timeout, func(ctx context.Context, db *sql.DB) error {
		repo := data.NewSignInRepo(db)

		events, listErr := repo.List(ctx, listOpts)
		if listErr != nil {
			return fmt.Errorf("list sign-in events: %w", listErr)
		}
		total, countErr := repo.Count(ctx, listOpts)
		if countErr != nil {
			return fmt.Errorf("count sign-in events: %w", countErr)
		}

		return renderSignInEvents(os.Stdout, events, total, listOpts.Offset)
	})
}

func parseSignInListFlags(args []string) (signInListOptions, error) {
	fs := flag.NewFlagSet("list-signins", flag.ContinueOnError)
	limit := fs.Int("limit", 50, "maximum rows to return")
	offset := fs.Int("offset", 0, "rows to skip")
	q := fs.String("q", "", "email substring filter")
	userID := fs.String("user", "", "exact user ID filter")
	outcome := fs.String("outcome", "", "outcome filter: success or failure")
	since := fs.Duration("since", 0, "only events newer than this age, e.g. 24h (0 disables)")
	timeout := fs.Duration("timeout", 2*time.Minute, "overall command timeout")
	if err := fs.Parse(args); err != nil {
		return signInListOptions{}, err
	}
	return signInListOptions{
		Limit:   *limit,
		Offset:  *offset,
		Q:       *q,
		UserID:  *userID,
		Outcome: *outcome,
		Since:   *since,
		Timeout: *timeout,
	}, nil
}

func buildSignInListOptions(opts signInListOptions) (model.SignInEventsListOptions, error) {
	listOpts := model.SignInEventsListOptions{
		Limit:  opts.Limit,
		Offset: opts.Offset,
	}
	if opts.Q != "" {
		q := opts.Q
		listOpts.Q = &q
	}
	if opts.UserID != "" {
		userID := opts.UserID
		listOpts.UserID = &userID
	}
	if opts.Outcome != "" {
		outcome := model.SignInOutcome(strings.ToLower(opts.Outcome))
		if !outcome.Valid() {
			return listOpts, fmt.Errorf("invalid outcome %q (valid: success, failure)", opts.Outcome)
		}
		listOpts.Outcome = &outcome
	}
	if opts.Since > 0 {
		since := time.Now().Add(-opts.Since)
		listOpts.Since = &since
	}
	return listOpts, nil
}

func renderSignInEvents(w io.Writer, events []*model.SignInEvent, total int64, offset int) error {
	if len(events) == 0 {
		return writef(w, "no sign-in events found (total %d)\n", total)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if err := writef(tw, "CREATED AT\tUSER ID\tEMAIL\tMETHOD\tOUTCOME\tROLES\tDETAIL\n"); err != nil {
		return err
	}
	for _, evt := range events {
		detail := ""
		if evt.Detail != nil {
			detail = *evt.Detail
		}
		if err := writef(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			evt.CreatedAt.UTC().Format(time.RFC3339),
			evt.UserID,
			evt.Email,
			evt.Method,
			evt.Outcome,
			strings.Join(evt.RolesGranted, ","),
			detail,
		); err != nil {
			return err
		}
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flush table: %w", err)
	}

	return writef(w, "\nshowing %d of %d events (offset %d)\n", len(events), total, offset)
}
