package state

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/oakmont/portal-api/internal/domain/auth"
)

func TestStore_LifecycleTransitions(t *testing.T) {
	st := NewStore()

	// Unauthenticated at rest.
	assert.False(t, st.IsAuthenticated())
	assert.False(t, st.IsLoading())
	assert.Nil(t, st.Profile())

	// Loading during assembly.
	st.SetLoading(true)
	assert.True(t, st.IsLoading())

	profile := &domainauth.Profile{Name: "Ada", Roles: []domainauth.Role{domainauth.RoleEditor}}
	st.Publish(profile, true)
	st.SetLoading(false)

	snap := st.Snapshot()
	assert.True(t, snap.Authenticated)
	assert.False(t, snap.Loading)
	require.NotNil(t, snap.Profile)
	assert.Equal(t, "Ada", snap.Profile.Name)

	// Logout returns to unauthenticated.
	st.Clear()
	assert.False(t, st.IsAuthenticated())
	assert.Nil(t, st.Profile())
}

func TestStore_AuthenticatedImpliesProfile(t *testing.T) {
	st := NewStore()
	st.Publish(nil, true)
	assert.False(t, st.IsAuthenticated(), "authenticated flag must not be set without a profile")
}

func TestStore_SubscribeDeliversInitialAndLatest(t *testing.T) {
	st := NewStore()
	ch, cancel := st.Subscribe()
	defer cancel()

	// Initial snapshot arrives without any mutation.
	select {
	case snap := <-ch:
		assert.False(t, snap.Authenticated)
	case <-time.After(time.Second):
		t.Fatal("no initial snapshot")
	}

	// Rapid successive publishes collapse to the latest value.
	st.Publish(&domainauth.Profile{Name: "first"}, true)
	st.Publish(&domainauth.Profile{Name: "second"}, true)

	select {
	case snap := <-ch:
		require.NotNil(t, snap.Profile)
		assert.Equal(t, "second", snap.Profile.Name)
	case <-time.After(time.Second):
		t.Fatal("no snapshot after publish")
	}
}

func TestStore_SubscribeCancelCloses(t *testing.T) {
	st := NewStore()
	ch, cancel := st.Subscribe()
	cancel()
	// Drain the initial snapshot; the channel must then be closed.
	for range ch {
		continue
	}
	// Publishing after cancel must not panic.
	st.Publish(&domainauth.Profile{}, true)
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()

	_, ok := reg.Get("missing")
	assert.False(t, ok)

	st := reg.GetOrCreate("sess-1")
	assert.Same(t, st, reg.GetOrCreate("sess-1"))
	assert.Equal(t, 1, reg.Len())

	st.Publish(&domainauth.Profile{Name: "Ada"}, true)
	reg.Remove("sess-1")
	assert.Equal(t, 0, reg.Len())
	assert.False(t, st.IsAuthenticated(), "removal must clear the store")

	reg.GetOrCreate("sess-2")
	reg.Reset()
	assert.Equal(t, 0, reg.Len())
}

func TestRegistry_ShutdownClosesSubscribers(t *testing.T) {
	reg := NewRegistry()
	st := reg.GetOrCreate("sess-1")
	ch, cancel := st.Subscribe()
	defer cancel()

	reg.Shutdown()
	assert.Equal(t, 0, reg.Len())

	for range ch {
		continue
	}
	// Cancelling after shutdown must not panic.
	cancel()
}
