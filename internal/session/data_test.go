package session

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRPLogoutProvider(t *testing.T) {
	data := NewData(uuid.New(),
		ProviderRecord{Provider: "calendar-only"},
		ProviderRecord{Provider: "keycloak", RPLogoutOpen: true},
	)

	name, ok := data.RPLogoutProvider()
	require.True(t, ok)
	assert.Equal(t, "keycloak", name)

	none := NewData(uuid.New(), ProviderRecord{Provider: "calendar-only"})
	_, ok = none.RPLogoutProvider()
	assert.False(t, ok)
}

func TestCloneSnapshotsProviders(t *testing.T) {
	data := NewData(uuid.New(), ProviderRecord{Provider: "a"})
	snap := data.clone()

	data.AttachProvider(ProviderRecord{Provider: "a", RPLogoutOpen: true})

	rec, ok := snap.Provider("a")
	require.True(t, ok)
	assert.False(t, rec.RPLogoutOpen)
}
