package cmd

import (
	"encoding/json"
	"testing"

	"github.com/iksnae/gallery-session/internal"
	"github.com/iksnae/gallery-session/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInspect_JSON(t *testing.T) {
	dir := t.TempDir()
	token := testutil.UsableToken(t)
	testutil.SeedSlot(t, dir, internal.CredentialKey, token)
	seedTestState(t, dir)

	out := mustExecute(t, dir, "inspect", "--format", "json")
	assert.NotContains(t, out, token, "the credential itself is never printed")

	var entries []SlotEntry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 2)

	assert.Equal(t, internal.CredentialKey, entries[0].Key)
	assert.Equal(t, "alice", entries[0].Claims["sub"])
	assert.Equal(t, len(token), entries[0].Size)

	assert.Equal(t, internal.ConversationKey, entries[1].Key)
	assert.Contains(t, entries[1].Preview, "Find my sunset photos")
}

func TestInspect_Text(t *testing.T) {
	dir := t.TempDir()
	seedTestState(t, dir)

	out := mustExecute(t, dir, "inspect", "--preview", "0")
	assert.Contains(t, out, "Backend: sqlite")
	assert.Contains(t, out, internal.ConversationKey)
	assert.NotContains(t, out, "Find my sunset photos")
}

func TestInspect_UnsupportedFormat(t *testing.T) {
	_, err := execute(t, t.TempDir(), "inspect", "--format", "xml")
	assert.Error(t, err)
}

func TestInspectSlot_KnownKeysWithoutListing(t *testing.T) {
	slot := internal.NewMemorySlot()
	require.NoError(t, slot.Set(internal.CredentialKey, "garbage"))
	require.NoError(t, slot.Set("other", "ignored without key listing"))
	require.NoError(t, slot.Set("custom_state", `{"version":1}`))

	entries, err := inspectSlot(slot, "custom_state", 100)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "<malformed credential>", entries[0].Preview)
	assert.Equal(t, "custom_state", entries[1].Key)
}

func TestPreviewValue(t *testing.T) {
	assert.Equal(t, "{\n  \"a\": 1\n}", previewValue(`{"a":1}`, 100))
	assert.Equal(t, "abc...", previewValue("abcdef", 3))
}
