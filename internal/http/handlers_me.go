package httpx

import (
	"errors"
	"net/http"
)

// MeHandlers serves the current user's reconciled profile.
type MeHandlers struct{}

// Me returns the profile attached to the request context by RequireAuth.
// GET /api/me.
func (h *MeHandlers) Me(w http.ResponseWriter, r *http.Request) {
	profile := ProfileFromContext(r.Context())
	if profile == nil {
		// RequireAuth guards this route; a missing profile means the
		// middleware chain is misconfigured.
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: "authentication_required",
			Err:     errors.New("authentication required"),
		})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"profile":      profile,
		"highest_role": string(profile.HighestRole()),
	})
}
