package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	domainauth "github.com/oakmont/portal-api/internal/domain/auth"
	"github.com/oakmont/portal-api/internal/state"
)

func TestEventHandlers_Stream_Unauthenticated(t *testing.T) {
	h := &EventHandlers{States: state.NewRegistry(), Logger: testLogger()}

	req := httptest.NewRequest(http.MethodGet, "/auth/events", nil)
	w := httptest.NewRecorder()
	h.Stream(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestEventHandlers_Stream_DeliversSnapshots(t *testing.T) {
	states := state.NewRegistry()
	store := states.GetOrCreate("sess-1")
	store.Publish(&domainauth.Profile{Name: "Ada Lovelace"}, true)

	h := &EventHandlers{States: states, Logger: testLogger()}

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/auth/events", nil)
	req = req.WithContext(SetSessionInContext(ctx, testSession("sess-1")))
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.Stream(w, req)
	}()

	// The current snapshot is delivered immediately; a subsequent publish
	// produces a second event.
	time.Sleep(50 * time.Millisecond)
	store.SetLoading(true)
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))

	body := w.Body.String()
	assert.Contains(t, body, "event: auth_state")
	assert.Contains(t, body, "Ada Lovelace")
	assert.Contains(t, body, `"loading":true`)
}

func TestWriteSSEEvent(t *testing.T) {
	w := httptest.NewRecorder()
	err := writeSSEEvent(w, "auth_state", map[string]bool{"authenticated": true})

	assert.NoError(t, err)
	assert.Equal(t, "event: auth_state\ndata: {\"authenticated\":true}\n\n", w.Body.String())
}
