// Package devseed populates a development database with a realistic spread
// of sign-in audit rows so the admin listing has something to show.
package devseed

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/oakmont/portal-api/internal/data"
	"github.com/oakmont/portal-api/internal/domain/model"
)

// Services bundles the dependencies needed for development seeding.
type Services struct {
	DB      *sql.DB
	signIns *data.SignInRepo
}

// NewServices constructs the repositories used for seeding from the provided DB.
func NewServices(db *sql.DB) Services {
	return Services{
		DB:      db,
		signIns: data.NewSignInRepo(db),
	}
}

// Run executes the development seeding workflow. Seeding is idempotent only
// in the sense that re-running appends more rows; the audit trail has no
// natural key to upsert on.
func Run(ctx context.Context, svcs Services, logger *slog.Logger) error {
	if svcs.signIns == nil {
		svcs.signIns = data.NewSignInRepo(svcs.DB)
	}

	seeded := 0
	for _, req := range seedSignIns() {
		if _, err := svcs.signIns.Record(ctx, &req); err != nil {
			return fmt.Errorf("seed sign-in event for %q: %w", req.Email, err)
		}
		seeded++
	}

	if logger != nil {
		logger.InfoContext(ctx, "development data seeded", "signin_events", seeded)
	}
	return nil
}

func seedSignIns() []model.RecordSignInRequest {
	return []model.RecordSignInRequest{
		{
			UserID:       "seed-ada",
			Email:        "ada@example.com",
			Method:       model.SignInMethodOAuth,
			Outcome:      model.SignInOutcomeSuccess,
			RolesGranted: []string{"Admin", "User"},
		},
		{
			UserID:       "seed-ada",
			Email:        "ada@example.com",
			Method:       model.SignInMethodRefresh,
			Outcome:      model.SignInOutcomeSuccess,
			RolesGranted: []string{"Admin", "User"},
		},
		{
			UserID:       "seed-grace",
			Email:        "grace@example.com",
			Method:       model.SignInMethodOAuth,
			Outcome:      model.SignInOutcomeSuccess,
			RolesGranted: []string{"Editor", "User"},
		},
		{
			UserID:       "seed-grace",
			Email:        "grace@example.com",
			Method:       model.SignInMethodRefresh,
			Outcome:      model.SignInOutcomeFailure,
			Detail:       "silent_auth_required",
			RolesGranted: []string{"Editor", "User"},
		},
		{
			UserID:  "unknown",
			Email:   "",
			Method:  model.SignInMethodOAuth,
			Outcome: model.SignInOutcomeFailure,
			Detail:  "provider_error",
		},
		{
			UserID:       "seed-linus",
			Email:        "linus@example.com",
			Method:       model.SignInMethodMock,
			Outcome:      model.SignInOutcomeSuccess,
			RolesGranted: []string{"Viewer", "User"},
		},
	}
}
