package cmd

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/iksnae/gallery-session/internal"
	"github.com/iksnae/gallery-session/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// signedInDir returns a data directory holding a usable credential
func signedInDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	testutil.SeedSlot(t, dir, internal.CredentialKey, testutil.UsableToken(t))
	return dir
}

// storedState decodes the persisted conversation of dir
func storedState(t *testing.T, dir string) internal.ConversationState {
	t.Helper()
	raw, ok := testutil.ReadSlot(t, dir, internal.ConversationKey)
	require.True(t, ok, "conversation should be persisted")

	var state internal.ConversationState
	testutil.JSONUnmarshal(t, []byte(raw), &state)
	return state
}

func TestChat_RequiresSignIn(t *testing.T) {
	for _, sub := range [][]string{{"show"}, {"say", "hi"}, {"reset"}} {
		t.Run(sub[0], func(t *testing.T) {
			dir := t.TempDir()
			_, err := execute(t, dir, append([]string{"chat"}, sub...)...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "not signed in")

			_, ok := testutil.ReadSlot(t, dir, internal.ConversationKey)
			assert.False(t, ok, "nothing is written without access")
		})
	}
}

func TestChat_ExpiredCredentialIsCleared(t *testing.T) {
	dir := t.TempDir()
	testutil.SeedSlot(t, dir, internal.CredentialKey, testutil.ExpiredToken(t))

	_, err := execute(t, dir, "chat", "show")
	require.Error(t, err)

	_, ok := testutil.ReadSlot(t, dir, internal.CredentialKey)
	assert.False(t, ok)
}

func TestChat_ShowDefaultGreeting(t *testing.T) {
	dir := signedInDir(t)

	out := mustExecute(t, dir, "chat", "show")
	assert.Contains(t, out, "AI image assistant")
	assert.Contains(t, out, "Messages: 1")

	// show does not persist
	_, ok := testutil.ReadSlot(t, dir, internal.ConversationKey)
	assert.False(t, ok)
}

func TestChat_SayAndReplyPersist(t *testing.T) {
	dir := signedInDir(t)

	userID := strings.TrimSpace(mustExecute(t, dir, "chat", "say", "find", "my", "sunset", "photos"))
	require.NotEmpty(t, userID)
	mustExecute(t, dir, "chat", "reply", "--type", "search-result", "I found 3 photos.")

	state := storedState(t, dir)
	assert.Equal(t, internal.StateVersion, state.Version)
	require.Len(t, state.Messages, 3)
	assert.Equal(t, internal.RoleAI, state.Messages[0].Role, "greeting comes first")
	assert.Equal(t, userID, state.Messages[1].ID)
	assert.Equal(t, internal.RoleUser, state.Messages[1].Role)
	assert.Equal(t, "find my sunset photos", state.Messages[1].Content)
	assert.Equal(t, internal.DefaultMessageType, state.Messages[1].Type)
	assert.Equal(t, internal.RoleAI, state.Messages[2].Role)
	assert.Equal(t, "search-result", state.Messages[2].Type)

	out := mustExecute(t, dir, "chat", "show", "--limit", "1")
	assert.Contains(t, out, "I found 3 photos.")
	assert.NotContains(t, out, "find my sunset photos")
	assert.Contains(t, out, "2 earlier message(s)")
}

func TestChat_Remove(t *testing.T) {
	dir := signedInDir(t)
	id := strings.TrimSpace(mustExecute(t, dir, "chat", "say", "hello"))

	mustExecute(t, dir, "chat", "remove", id)
	for _, msg := range storedState(t, dir).Messages {
		assert.NotEqual(t, id, msg.ID)
	}

	_, err := execute(t, dir, "chat", "remove", "no-such-id")
	assert.Error(t, err)
}

func TestChat_TagsAndQuery(t *testing.T) {
	dir := signedInDir(t)

	mustExecute(t, dir, "chat", "tags", "sunset", "beach")
	mustExecute(t, dir, "chat", "query", "sunset", "at", "the", "beach")

	state := storedState(t, dir)
	assert.Equal(t, []string{"sunset", "beach"}, state.TagSuggestions)
	assert.Equal(t, "sunset at the beach", state.LastQuery)

	mustExecute(t, dir, "chat", "tags")
	assert.Equal(t, []string{}, storedState(t, dir).TagSuggestions)
}

func TestChat_ResetAndClear(t *testing.T) {
	dir := signedInDir(t)
	mustExecute(t, dir, "chat", "say", "hello")
	mustExecute(t, dir, "chat", "query", "hello")

	mustExecute(t, dir, "chat", "clear")
	state := storedState(t, dir)
	assert.Empty(t, state.Messages)
	assert.Empty(t, state.LastQuery)

	// An empty persisted list hydrates back to the greeting
	out := mustExecute(t, dir, "chat", "show")
	assert.Contains(t, out, "AI image assistant")

	mustExecute(t, dir, "chat", "say", "again")
	mustExecute(t, dir, "chat", "reset")
	state = storedState(t, dir)
	require.Len(t, state.Messages, 1)
	assert.Equal(t, internal.RoleAI, state.Messages[0].Role)
	assert.Empty(t, state.TagSuggestions)
}

func TestChat_ImportJSON(t *testing.T) {
	dir := signedInDir(t)
	file := testutil.WriteFile(t, t.TempDir(), "history.json", []byte(`[
		{"id": 7, "role": "USER", "content": "beach"},
		{"role": "bot", "content": "Here you go", "timestamp": 1700000000000},
		"not a record"
	]`))

	out := mustExecute(t, dir, "chat", "import", file)
	assert.Contains(t, out, "Imported 2 message(s)")

	state := storedState(t, dir)
	require.Len(t, state.Messages, 2)
	assert.Equal(t, "7", state.Messages[0].ID)
	assert.Equal(t, internal.RoleUser, state.Messages[0].Role)
	assert.Equal(t, internal.RoleAI, state.Messages[1].Role)
	assert.Equal(t, int64(1700000000000), state.Messages[1].Timestamp)
	assert.NotEmpty(t, state.Messages[1].ID)
}

func TestChat_ImportYAMLStateObject(t *testing.T) {
	dir := signedInDir(t)
	file := testutil.WriteFile(t, t.TempDir(), "state.yaml", []byte(`version: 1
messages:
  - id: a
    role: user
    content: sunsets
    timestamp: 1700000000000
  - id: b
    role: ai
    type: text
    content: Found them
`))

	mustExecute(t, dir, "chat", "import", file)
	state := storedState(t, dir)
	require.Len(t, state.Messages, 2)
	assert.Equal(t, "a", state.Messages[0].ID)
	assert.Equal(t, int64(1700000000000), state.Messages[0].Timestamp)
	assert.Equal(t, "Found them", state.Messages[1].Content)
}

func TestChat_ImportKeepsNewest(t *testing.T) {
	dir := signedInDir(t)

	list := make([]map[string]any, 0, internal.MaxMessages+10)
	for i := 0; i < internal.MaxMessages+10; i++ {
		list = append(list, map[string]any{"id": i, "role": "user", "content": "m"})
	}
	file := testutil.WriteFile(t, t.TempDir(), "many.json", testutil.JSONMarshal(t, list))

	mustExecute(t, dir, "chat", "import", file)
	state := storedState(t, dir)
	require.Len(t, state.Messages, internal.MaxMessages)
	assert.Equal(t, "10", state.Messages[0].ID)
}

func TestChat_ImportRejectsNonList(t *testing.T) {
	dir := signedInDir(t)
	file := testutil.WriteFile(t, t.TempDir(), "bad.json", []byte(`{"messages": "nope"}`))

	_, err := execute(t, dir, "chat", "import", file)
	assert.Error(t, err)
}

func TestChat_UnloadableStateIsKept(t *testing.T) {
	newer := `{"version":2,"messages":[{"id":"keep-me","role":"user","content":"from v2"}]}`

	tests := []struct {
		name string
		blob string
		want error
	}{
		{"corrupt", "{not json", internal.ErrCorruptState},
		{"newer version", newer, internal.ErrSchemaMismatch},
		{"older version", `{"version":0,"messages":[{"id":"old","role":"user","content":"from v0"}]}`, internal.ErrSchemaMismatch},
	}

	edits := [][]string{
		{"say", "hello"},
		{"reply", "hi"},
		{"tags", "beach"},
		{"query", "sunset"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := signedInDir(t)
			testutil.SeedSlot(t, dir, internal.ConversationKey, tt.blob)

			out := mustExecute(t, dir, "chat", "show")
			assert.Contains(t, out, "AI image assistant")
			assert.NotContains(t, out, "from v")

			for _, edit := range edits {
				_, err := execute(t, dir, append([]string{"chat"}, edit...)...)
				require.Error(t, err, edit[0])
				assert.ErrorIs(t, err, tt.want)
				assert.Contains(t, err.Error(), "chat reset")
			}

			raw, ok := testutil.ReadSlot(t, dir, internal.ConversationKey)
			require.True(t, ok)
			assert.Equal(t, tt.blob, raw)
		})
	}
}

func TestChat_UnloadableStateRefusesRemoveAndImport(t *testing.T) {
	dir := signedInDir(t)
	blob := `{"version":2,"messages":[{"id":"keep-me","role":"user","content":"from v2"}]}`
	testutil.SeedSlot(t, dir, internal.ConversationKey, blob)

	file := testutil.WriteFile(t, t.TempDir(), "msgs.json", []byte(`[{"role":"user","content":"imported"}]`))
	_, err := execute(t, dir, "chat", "import", file)
	assert.ErrorIs(t, err, internal.ErrSchemaMismatch)

	_, err = execute(t, dir, "chat", "remove", "keep-me")
	assert.ErrorIs(t, err, internal.ErrSchemaMismatch)

	raw, _ := testutil.ReadSlot(t, dir, internal.ConversationKey)
	assert.Equal(t, blob, raw)
}

func TestChat_ForceOverwritesUnloadableState(t *testing.T) {
	dir := signedInDir(t)
	testutil.SeedSlot(t, dir, internal.ConversationKey, `{"version":2,"messages":[]}`)

	mustExecute(t, dir, "chat", "say", "--force", "hello")

	state := storedState(t, dir)
	assert.Equal(t, internal.StateVersion, state.Version)
	require.Len(t, state.Messages, 2)
	assert.Equal(t, "hello", state.Messages[1].Content)

	// once replaced, edits work without --force
	mustExecute(t, dir, "chat", "say", "again")
	assert.Len(t, storedState(t, dir).Messages, 3)
}

func TestChat_ResetReplacesUnloadableState(t *testing.T) {
	dir := signedInDir(t)
	testutil.SeedSlot(t, dir, internal.ConversationKey, "{not json")

	mustExecute(t, dir, "chat", "reset")
	state := storedState(t, dir)
	assert.Equal(t, internal.StateVersion, state.Version)
	require.Len(t, state.Messages, 1)

	mustExecute(t, dir, "chat", "say", "hello")
	assert.Len(t, storedState(t, dir).Messages, 2)
}

func TestChat_ConfiguredStateKey(t *testing.T) {
	dir := signedInDir(t)
	testutil.WriteFile(t, dir, "config.yaml", []byte("state_key: gallery_workspace\n"))

	mustExecute(t, dir, "chat", "say", "hello")

	_, ok := testutil.ReadSlot(t, dir, internal.ConversationKey)
	assert.False(t, ok)
	raw, ok := testutil.ReadSlot(t, dir, "gallery_workspace")
	require.True(t, ok)
	assert.Contains(t, raw, "hello")
}

func TestChat_ShowSince(t *testing.T) {
	dir := signedInDir(t)
	state := internal.CreateTestState()
	raw, err := json.Marshal(state)
	require.NoError(t, err)
	testutil.SeedSlot(t, dir, internal.ConversationKey, string(raw))

	out := mustExecute(t, dir, "chat", "show", "--since", "2023-11-14T22:13:21Z")
	assert.Contains(t, out, "I found 3 photos tagged sunset.")
	assert.NotContains(t, out, "Find my sunset photos")

	_, err = execute(t, dir, "chat", "show", "--since", "yesterday")
	assert.Error(t, err)
}

func TestChat_ShowRendersMarkdown(t *testing.T) {
	dir := signedInDir(t)
	mustExecute(t, dir, "chat", "reply", "Found **3** photos")

	out := mustExecute(t, dir, "chat", "show", "--render")
	assert.Contains(t, out, "Found")
	assert.Contains(t, out, "photos")
	assert.Contains(t, out, "AI image assistant")
}

func TestWrapText(t *testing.T) {
	got := wrapText(strings.Repeat("word ", 30), 20)
	for _, line := range strings.Split(got, "\n") {
		assert.LessOrEqual(t, len(line), 20)
	}
	assert.Equal(t, "short", wrapText("short", 20))
}
