package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parleyhq/parley/pkg/adapters/memory"
	"github.com/parleyhq/parley/pkg/domain"
	"github.com/parleyhq/parley/pkg/ports"
)

func TestMemoryStoreContract(t *testing.T) {
	ports.RunSessionStoreContract(t, memory.NewStore())
}

func TestMemoryStoreIsolation(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	rec := &domain.SessionRecord{
		ChapterIDs: []string{"chapter_1"},
		Snapshot:   domain.Snapshot{Variables: domain.Vars{"userName": "Sam"}},
	}
	require.NoError(t, store.Save(ctx, "s1", rec))

	// Mutating the saved record must not affect the stored copy.
	rec.Snapshot.Variables["userName"] = "Eve"

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "Sam", loaded.Snapshot.Variables["userName"])

	// Mutating a loaded record must not affect subsequent loads.
	loaded.Snapshot.Variables["userName"] = "Mallory"
	again, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "Sam", again.Snapshot.Variables["userName"])
}
