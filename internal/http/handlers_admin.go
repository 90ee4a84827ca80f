package httpx

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/oakmont/portal-api/internal/domain/model"
)

// SignInEventLister reads the sign-in audit trail.
type SignInEventLister interface {
	List(ctx context.Context, opts model.SignInEventsListOptions) ([]*model.SignInEvent, error)
	Count(ctx context.Context, opts model.SignInEventsListOptions) (int64, error)
}

// AdminHandlers provides the admin audit endpoints.
type AdminHandlers struct {
	SignIns SignInEventLister
}

// ListSignIns returns a page of the sign-in audit trail.
// GET /api/admin/signins?limit=&offset=&q=&user_id=&outcome=&since=&sort=&dir=.
func (h *AdminHandlers) ListSignIns(w http.ResponseWriter, r *http.Request) {
	opts, ok := parseSignInListOptions(w, r)
	if !ok {
		return
	}

	events, err := h.SignIns.List(r.Context(), opts)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	total, err := h.SignIns.Count(r.Context(), opts)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"events": events,
		"total":  total,
		"limit":  opts.Limit,
		"offset": opts.Offset,
	})
}

// parseSignInListOptions reads paging/filter query params. On invalid input
// it writes a 400 response and reports ok=false.
func parseSignInListOptions(w http.ResponseWriter, r *http.Request) (model.SignInEventsListOptions, bool) {
	q := r.URL.Query()
	opts := model.SignInEventsListOptions{
		Limit: DefaultSignInListLimit,
		Sort:  q.Get("sort"),
		Dir:   q.Get("dir"),
	}

	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_limit", Err: errInvalidQueryParam("limit", raw)})
			return opts, false
		}
		opts.Limit = min(n, MaxSignInListLimit)
	}
	if raw := q.Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_offset", Err: errInvalidQueryParam("offset", raw)})
			return opts, false
		}
		opts.Offset = n
	}
	if raw := q.Get("q"); raw != "" {
		opts.Q = &raw
	}
	if raw := q.Get("user_id"); raw != "" {
		opts.UserID = &raw
	}
	if raw := q.Get("outcome"); raw != "" {
		outcome := model.SignInOutcome(raw)
		if !outcome.Valid() {
			WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_outcome", Err: errInvalidQueryParam("outcome", raw)})
			return opts, false
		}
		opts.Outcome = &outcome
	}
	if raw := q.Get("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_since", Err: errInvalidQueryParam("since", raw)})
			return opts, false
		}
		opts.Since = &since
	}

	return opts, true
}

type invalidQueryParamError struct {
	param string
	value string
}

func (e invalidQueryParamError) Error() string {
	return "invalid query parameter " + e.param + ": " + e.value
}

func errInvalidQueryParam(param, value string) error {
	return invalidQueryParamError{param: param, value: value}
}
