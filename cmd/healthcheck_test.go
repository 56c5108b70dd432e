package cmd

import (
	"testing"

	"github.com/iksnae/gallery-session/internal"
	"github.com/iksnae/gallery-session/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthcheck_FreshStorage(t *testing.T) {
	out := mustExecute(t, t.TempDir(), "healthcheck", "--details")
	assert.Contains(t, out, "Using sqlite storage")
	assert.Contains(t, out, "Storage write, read and remove succeeded")
	assert.Contains(t, out, "Not signed in")
	assert.Contains(t, out, "Conversation loaded (1 message(s))")
	assert.Contains(t, out, "Health check passed")
}

func TestHealthcheck_Backends(t *testing.T) {
	for _, backend := range []string{internal.BackendSQLite, internal.BackendBadger, internal.BackendMemory} {
		t.Run(backend, func(t *testing.T) {
			out := mustExecute(t, t.TempDir(), "--backend", backend, "healthcheck")
			assert.Contains(t, out, "Using "+backend+" storage")
			assert.Contains(t, out, "Health check passed")
		})
	}
}

func TestHealthcheck_ReportsStateProblems(t *testing.T) {
	dir := t.TempDir()
	testutil.SeedSlot(t, dir, internal.CredentialKey, testutil.ExpiredToken(t))
	testutil.SeedSlot(t, dir, internal.ConversationKey, `{"version":2,"messages":[]}`)

	out := mustExecute(t, dir, "healthcheck")
	assert.Contains(t, out, "expired or malformed")
	assert.Contains(t, out, "different schema version")
	assert.Contains(t, out, "Health check passed")

	// healthcheck does not navigate, so the credential is kept
	_, ok := testutil.ReadSlot(t, dir, internal.CredentialKey)
	assert.True(t, ok)
}

func TestHealthcheck_UnknownBackendFails(t *testing.T) {
	_, err := execute(t, t.TempDir(), "--backend", "redis", "healthcheck")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "health check failed")
}

func TestRoundTripSlot(t *testing.T) {
	slot := testutil.CreateInMemorySlot(t)
	require.NoError(t, roundTripSlot(slot))

	keys, err := slot.Keys()
	require.NoError(t, err)
	assert.Empty(t, keys, "check key is removed")
}
