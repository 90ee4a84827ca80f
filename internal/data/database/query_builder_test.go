package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildListQuery_Basic(t *testing.T) {
	opts := NewListQueryOptions("signin_events",
		WithColumns("id", "email", "created_at"),
		WithOrderBy("created_at", "DESC"),
		WithLimit(10),
		WithOffset(20),
	)

	query, args := BuildListQuery(opts)
	assert.Equal(t,
		`SELECT "id", "email", "created_at" FROM "signin_events" ORDER BY "created_at" DESC LIMIT $1 OFFSET $2`,
		query)
	assert.Equal(t, []any{10, 20}, args)
}

func TestBuildListQuery_Conditions(t *testing.T) {
	opts := NewListQueryOptions("signin_events",
		WithColumns("id"),
		WithCondition(WhereCond("user_id", Equal, "u-1")),
		WithCondition(WhereCond("email", ILike, "%ada%")),
		WithLimit(5),
	)

	query, args := BuildListQuery(opts)
	assert.Equal(t,
		`SELECT "id" FROM "signin_events" WHERE "user_id" = $1 AND "email" ILIKE $2 LIMIT $3`,
		query)
	assert.Equal(t, []any{"u-1", "%ada%", 5}, args)
}

func TestBuildListQuery_InCondition(t *testing.T) {
	opts := NewListQueryOptions("signin_events",
		WithCondition(WhereCond("outcome", In, []string{"success", "failure"})),
	)

	query, args := BuildListQuery(opts)
	assert.Equal(t,
		`SELECT * FROM "signin_events" WHERE "outcome" IN ($1, $2)`,
		query)
	assert.Equal(t, []any{"success", "failure"}, args)
}

func TestBuildListQuery_AnyCondition(t *testing.T) {
	opts := NewListQueryOptions("signin_events",
		WithCondition(WhereCond("method", Any, []string{"oauth", "refresh"})),
	)

	query, args := BuildListQuery(opts)
	assert.Equal(t,
		`SELECT * FROM "signin_events" WHERE "method" = ANY (ARRAY[$1, $2])`,
		query)
	assert.Equal(t, []any{"oauth", "refresh"}, args)
}

func TestBuildListQuery_RawCondition(t *testing.T) {
	opts := NewListQueryOptions("signin_events",
		WithCondition(WhereCond("user_id", Equal, "u-1")),
		WithCondition(WhereRawCond("roles_granted @> ARRAY[$1]", "Admin")),
	)

	query, args := BuildListQuery(opts)
	assert.Equal(t,
		`SELECT * FROM "signin_events" WHERE "user_id" = $1 AND roles_granted @> ARRAY[$2]`,
		query)
	assert.Equal(t, []any{"u-1", "Admin"}, args)
}

func TestBuildListQuery_CountOnly(t *testing.T) {
	opts := NewListQueryOptions("signin_events",
		WithCountOnly(),
		WithCondition(WhereCond("outcome", Equal, "failure")),
		WithOrderBy("created_at", "DESC"),
		WithLimit(10),
	)

	query, args := BuildListQuery(opts)
	assert.Equal(t,
		`SELECT COUNT(*) FROM "signin_events" WHERE "outcome" = $1`,
		query, "count queries must drop ordering and pagination")
	assert.Equal(t, []any{"failure"}, args)
}

func TestBuildListQuery_ColumnAlias(t *testing.T) {
	opts := NewListQueryOptions("signin_events",
		WithColumns("created_at AS occurred_at"),
	)

	query, _ := BuildListQuery(opts)
	assert.Equal(t, `SELECT "created_at" AS "occurred_at" FROM "signin_events"`, query)
}

func TestBuildListQuery_SanitizesIdentifiers(t *testing.T) {
	opts := NewListQueryOptions("signin_events",
		WithColumns(`id"; DROP TABLE signin_events; --`),
	)

	query, _ := BuildListQuery(opts)
	assert.NotContains(t, query, "DROP TABLE signin_events; --\" ")
	assert.Contains(t, query, `""`, "embedded quotes must be escaped")
}

func TestBuildListQuery_OrderDirValidation(t *testing.T) {
	opts := NewListQueryOptions("signin_events",
		WithOrderBy("created_at", "desc; DROP TABLE x"),
	)

	query, _ := BuildListQuery(opts)
	assert.Equal(t, `SELECT * FROM "signin_events" ORDER BY "created_at"`, query,
		"invalid direction must be dropped")
}

func TestBuildListQuery_NilOptions(t *testing.T) {
	query, args := BuildListQuery(nil)
	assert.Empty(t, query)
	assert.Nil(t, args)
}

func TestWhereCond_PanicsOnCustom(t *testing.T) {
	require.Panics(t, func() {
		WhereCond("field", Custom, "value")
	})
}
