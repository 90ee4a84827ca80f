package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/oakmont/portal-api/internal/data/database"
	"github.com/oakmont/portal-api/internal/data/pgxutil"
	"github.com/oakmont/portal-api/internal/domain/model"
)

// SignInRepo provides database operations for the sign-in audit trail.
type SignInRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewSignInRepo creates a new SignInRepo with real time provider.
func NewSignInRepo(db *sql.DB) *SignInRepo {
	return &SignInRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewSignInRepoWithTimeProvider creates a new SignInRepo with a custom time provider (useful for tests).
func NewSignInRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *SignInRepo {
	return &SignInRepo{DB: db, timeProvider: tp}
}

// Record appends one audit row. Audit rows are immutable; there is no
// update or delete path.
func (r *SignInRepo) Record(ctx context.Context, req *model.RecordSignInRequest) (*model.SignInEvent, error) {
	if req == nil {
		return nil, errors.New("record sign-in request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var detail *string
	if d := strings.TrimSpace(req.Detail); d != "" {
		detail = &d
	}
	roles := req.RolesGranted
	if roles == nil {
		roles = []string{}
	}

	var out model.SignInEvent
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO signin_events (user_id, email, method, outcome, detail, roles_granted, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id, user_id, email, method, outcome, detail, roles_granted, created_at
		`,
			strings.TrimSpace(req.UserID),
			strings.TrimSpace(req.Email),
			req.Method,
			req.Outcome,
			detail,
			roles,
			r.timeProvider.Now().UTC(),
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.SignInEvent])
		return err
	}); err != nil {
		return nil, fmt.Errorf("record sign-in event: %w", err)
	}
	return &out, nil
}

// GetByID retrieves a single audit row.
func (r *SignInRepo) GetByID(ctx context.Context, id string) (*model.SignInEvent, error) {
	var ev model.SignInEvent
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, signInGetByIDQuery, id)
		if err != nil {
			return err
		}
		defer rows.Close()
		ev, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.SignInEvent])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSignInEventNotFound
		}
		return nil, fmt.Errorf("get sign-in event: %w", err)
	}
	return &ev, nil
}

// List retrieves audit rows with optional filters and sorting, newest first
// by default.
func (r *SignInRepo) List(
	ctx context.Context,
	opts model.SignInEventsListOptions,
) ([]*model.SignInEvent, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := max(opts.Offset, 0)

	query, args := database.BuildListQuery(r.buildListOptions(opts, limit, offset))

	var rowsOut []model.SignInEvent
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		rowsOut, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.SignInEvent])
		return err
	}); err != nil {
		return nil, fmt.Errorf("list sign-in events: %w", err)
	}

	res := make([]*model.SignInEvent, len(rowsOut))
	for i := range rowsOut {
		res[i] = &rowsOut[i]
	}
	return res, nil
}

// Count reports the number of audit rows matching the filters.
func (r *SignInRepo) Count(ctx context.Context, opts model.SignInEventsListOptions) (int64, error) {
	listOpts := r.buildListOptions(opts, 0, 0)
	listOpts.CountOnly = true
	listOpts.Limit = -1
	listOpts.Offset = -1
	query, args := database.BuildListQuery(listOpts)

	var count int64
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		return conn.QueryRow(ctx, query, args...).Scan(&count)
	}); err != nil {
		return 0, fmt.Errorf("count sign-in events: %w", err)
	}
	return count, nil
}

// --- helpers ---

const (
	sortDirAsc  = "ASC"
	sortDirDesc = "DESC"
)

const signInGetByIDQuery = `
	SELECT id, user_id, email, method, outcome, detail, roles_granted, created_at
	FROM signin_events
	WHERE id = $1`

func signInEventColumns() []string {
	return []string{
		"id",
		"user_id",
		"email",
		"method",
		"outcome",
		"detail",
		"roles_granted",
		"created_at",
	}
}

func (r *SignInRepo) buildListOptions(
	opts model.SignInEventsListOptions,
	limit, offset int,
) *database.ListQueryOptions {
	queryOpts := []database.ListQueryOption{
		database.WithColumns(signInEventColumns()...),
		database.WithLimit(limit),
		database.WithOffset(offset),
	}

	if opts.Q != nil && strings.TrimSpace(*opts.Q) != "" {
		queryOpts = append(queryOpts, database.WithCondition(
			database.WhereCond("email", database.ILike, "%"+strings.TrimSpace(*opts.Q)+"%"),
		))
	}
	if opts.UserID != nil && strings.TrimSpace(*opts.UserID) != "" {
		queryOpts = append(queryOpts, database.WithCondition(
			database.WhereCond("user_id", database.Equal, strings.TrimSpace(*opts.UserID)),
		))
	}
	if opts.Outcome != nil && opts.Outcome.Valid() {
		queryOpts = append(queryOpts, database.WithCondition(
			database.WhereCond("outcome", database.Equal, string(*opts.Outcome)),
		))
	}
	if opts.Since != nil {
		queryOpts = append(queryOpts, database.WithCondition(
			database.WhereCond("created_at", database.GreaterThanOrEqual, opts.Since.UTC()),
		))
	}

	sortCol, sortDir := validateSignInSortOptions(opts.Sort, opts.Dir)
	queryOpts = append(queryOpts, database.WithOrderBy(sortCol, sortDir))

	return database.NewListQueryOptions("signin_events", queryOpts...)
}

func validateSignInSortOptions(sort, dir string) (string, string) {
	sortCol := "created_at"
	sortDir := sortDirDesc

	if sort != "" {
		allowedSorts := map[string]string{
			"created_at": "created_at",
			"email":      "email",
		}
		if validSort, ok := allowedSorts[strings.ToLower(strings.TrimSpace(sort))]; ok {
			sortCol = validSort
		}
	}
	if dir != "" {
		allowedDirs := map[string]string{
			"asc":  sortDirAsc,
			"desc": sortDirDesc,
		}
		if validDir, ok := allowedDirs[strings.ToLower(strings.TrimSpace(dir))]; ok {
			sortDir = validDir
		}
	}
	return sortCol, sortDir
}
