package ports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parleyhq/parley/pkg/domain"
)

// RunSessionStoreContract verifies that a SessionStore implementation
// honors the interface contract. Adapter test suites call it against their
// concrete store.
func RunSessionStoreContract(t *testing.T, store SessionStore) {
	ctx := context.Background()
	sessionID := "contract-" + time.Now().Format("20060102150405")

	record := func() *domain.SessionRecord {
		return &domain.SessionRecord{
			ChapterIDs: []string{"chapter_1", "chapter_2"},
			Snapshot: domain.Snapshot{
				CurrentNodeID:   "ask_name",
				Phase:           domain.PhaseWaiting,
				WaitingForInput: true,
				Variables:       domain.Vars{"userName": "Sam", "userAge": 28.0},
				Messages: []domain.Message{
					{ID: "m1", Speaker: domain.SpeakerAI, Content: "Hello"},
				},
			},
			UpdatedAt: time.Now().UTC().Truncate(time.Second),
		}
	}

	t.Run("save and load", func(t *testing.T) {
		rec := record()
		require.NoError(t, store.Save(ctx, sessionID, rec))

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, rec.ChapterIDs, loaded.ChapterIDs)
		assert.Equal(t, rec.Snapshot.CurrentNodeID, loaded.Snapshot.CurrentNodeID)
		assert.Equal(t, rec.Snapshot.Phase, loaded.Snapshot.Phase)
		assert.Equal(t, "Sam", loaded.Snapshot.Variables["userName"])
		require.Len(t, loaded.Snapshot.Messages, 1)
		assert.Equal(t, "Hello", loaded.Snapshot.Messages[0].Content)
	})

	t.Run("overwrite", func(t *testing.T) {
		rec := record()
		rec.Snapshot.CurrentNodeID = "ask_age"
		require.NoError(t, store.Save(ctx, sessionID, rec))

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, "ask_age", loaded.Snapshot.CurrentNodeID)
	})

	t.Run("load unknown", func(t *testing.T) {
		_, err := store.Load(ctx, "unknown-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, sessionID, record()))
		require.NoError(t, store.Delete(ctx, sessionID))

		_, err := store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("delete unknown is quiet", func(t *testing.T) {
		assert.NoError(t, store.Delete(ctx, "unknown-"+sessionID))
	})
}
