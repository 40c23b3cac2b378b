package parley_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parleyhq/parley"
	"github.com/parleyhq/parley/pkg/domain"
)

func noDelay(context.Context, time.Duration) {}

func onboardingChapter() *domain.Chapter {
	return &domain.Chapter{
		Info: domain.ChapterInfo{ID: "chapter_1", Title: "Getting to know you"},
		Variables: map[string]domain.VariableDef{
			"userName": {Type: "string"},
			"greeting": {Type: "string", Default: "Hi there"},
		},
		Nodes: []domain.Node{
			{
				ID: "welcome", Kind: domain.KindAIMessage,
				Content: "{{greeting}}! I'll ask a few questions.", NextNode: "ask_name",
			},
			{
				ID: "ask_name", Kind: domain.KindInput, InputKind: domain.InputText,
				Content: "First, what's your name?", SetsVariable: "userName",
				Validation: &domain.Validation{Required: true, MinLength: intp(2)},
				NextNode:   "ask_age",
			},
			{
				ID: "ask_age", Kind: domain.KindInput, InputKind: domain.InputNumber,
				Content: "Thanks {{userName}}. How old are you?", SetsVariable: "userAge",
				Compute: &domain.ComputeSpec{
					Name:  "ageGroup",
					Logic: "userAge < 35 ? 'young' : 'established'",
				},
				NextNode: "done",
			},
			{
				ID: "done", Kind: domain.KindAIMessage,
				Content: "All set, {{userName}}.", IsChapterEnd: true, NextChapter: "chapter_2",
			},
		},
	}
}

func followupChapter() *domain.Chapter {
	return &domain.Chapter{
		Info: domain.ChapterInfo{ID: "chapter_2", Title: "Goals"},
		Variables: map[string]domain.VariableDef{
			"goal": {Type: "string", Default: "unset"},
		},
		Nodes: []domain.Node{
			{
				ID: "welcome_back", Kind: domain.KindAIMessage,
				Content: "Welcome back, {{userName}}.",
			},
		},
	}
}

func intp(n int) *int { return &n }

// memLoader serves chapters from a map, the way tests avoid the filesystem.
type memLoader map[string]*domain.Chapter

func (m memLoader) Load(_ context.Context, id string) (*domain.Chapter, error) {
	ch, ok := m[id]
	if !ok {
		return nil, domain.ErrChapterNotFound
	}
	return ch, nil
}

func (m memLoader) List(context.Context) ([]string, error) {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	return ids, nil
}

func TestSessionFullConversation(t *testing.T) {
	sess, err := parley.New(onboardingChapter(), parley.WithSleep(noDelay))
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, sess.Start(ctx))
	node, waiting := sess.CurrentNode()
	require.True(t, waiting)
	assert.Equal(t, "ask_name", node.ID)

	require.NoError(t, sess.Submit(ctx, "Sam"))
	require.NoError(t, sess.Submit(ctx, "28"))

	snap := sess.Snapshot()
	assert.True(t, snap.Complete)
	assert.Equal(t, "Sam", snap.Variables["userName"])
	assert.Equal(t, 28.0, snap.Variables["userAge"])
	assert.Equal(t, "young", snap.Variables["ageGroup"])
	assert.Equal(t, "chapter_2", snap.NextChapter)

	last := snap.Messages[len(snap.Messages)-1]
	assert.Equal(t, "All set, Sam.", last.Content)
	assert.Equal(t, domain.SpeakerAI, last.Speaker)
}

func TestSessionSubmitValidationRejectsBeforeEngine(t *testing.T) {
	sess, err := parley.New(onboardingChapter(), parley.WithSleep(noDelay))
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, sess.Start(ctx))

	before := sess.Snapshot()
	err = sess.Submit(ctx, "S") // below MinLength
	require.Error(t, err)
	assert.Equal(t, before, sess.Snapshot(), "a rejected submission must not change state")

	require.NoError(t, sess.Submit(ctx, "Sam"))
}

func TestSessionContinueFollowsChapterReference(t *testing.T) {
	loader := memLoader{
		"chapter_1": onboardingChapter(),
		"chapter_2": followupChapter(),
	}
	sess, err := parley.New(onboardingChapter(),
		parley.WithSleep(noDelay), parley.WithChapterLoader(loader))
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, sess.Start(ctx))
	require.NoError(t, sess.Submit(ctx, "Sam"))
	require.NoError(t, sess.Submit(ctx, "40"))
	require.True(t, sess.Snapshot().Complete)

	followed, err := sess.Continue(ctx)
	require.NoError(t, err)
	assert.True(t, followed)

	snap := sess.Snapshot()
	assert.Equal(t, "Sam", snap.Variables["userName"], "variables survive the chapter boundary")
	assert.Equal(t, "unset", snap.Variables["goal"], "new chapter defaults spliced in")
	last := snap.Messages[len(snap.Messages)-1]
	assert.Equal(t, "Welcome back, Sam.", last.Content)

	// The follow-up chapter has no further reference to chase.
	followed, err = sess.Continue(ctx)
	require.NoError(t, err)
	assert.False(t, followed)
}

func TestSessionRecordRestoreRoundTrip(t *testing.T) {
	loader := memLoader{
		"chapter_1": onboardingChapter(),
		"chapter_2": followupChapter(),
	}
	sess, err := parley.New(onboardingChapter(),
		parley.WithSleep(noDelay), parley.WithChapterLoader(loader))
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, sess.Start(ctx))
	require.NoError(t, sess.Submit(ctx, "Sam"))

	rec := sess.Record()
	assert.Equal(t, []string{"chapter_1"}, rec.ChapterIDs)

	restored, err := parley.Restore(ctx, rec, loader, parley.WithSleep(noDelay))
	require.NoError(t, err)
	assert.Equal(t, sess.Snapshot(), restored.Snapshot())

	// The restored session keeps working from where it stopped.
	require.NoError(t, restored.Submit(ctx, "40"))
	assert.True(t, restored.Snapshot().Complete)
}

func TestNewRejectsEmptyChapter(t *testing.T) {
	_, err := parley.New(&domain.Chapter{Info: domain.ChapterInfo{ID: "empty"}})
	require.Error(t, err)

	_, err = parley.New(nil)
	require.Error(t, err)
}
