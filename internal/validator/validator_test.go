package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parleyhq/parley/pkg/domain"
)

func chapterOf(nodes ...domain.Node) *domain.Chapter {
	return &domain.Chapter{Info: domain.ChapterInfo{ID: "test"}, Nodes: nodes}
}

func TestCheckCleanChapter(t *testing.T) {
	ch := chapterOf(
		domain.Node{ID: "a", Kind: domain.KindAIMessage, Content: "hi", NextNode: "b"},
		domain.Node{
			ID: "b", Kind: domain.KindInput, Content: "age?", SetsVariable: "age",
			Conditional: []domain.CondNext{{Condition: "age < 35", NextNode: "a"}},
			Compute:     &domain.ComputeSpec{Name: "group", Logic: "age < 35 ? 'young' : 'old'"},
		},
	)
	assert.Empty(t, Check(ch))
}

func TestCheckDanglingReferences(t *testing.T) {
	ch := chapterOf(
		domain.Node{ID: "a", Kind: domain.KindAIMessage, Content: "hi", NextNode: "missing"},
		domain.Node{
			ID: "b", Kind: domain.KindChoice, Content: "pick",
			Options: []domain.ChoiceOption{{ID: "o1", Label: "One", Value: "1", NextNode: "also_missing"}},
		},
	)

	issues := Check(ch)
	require.True(t, HasErrors(issues))

	var msgs []string
	for _, i := range issues {
		msgs = append(msgs, i.String())
	}
	assert.Contains(t, msgs, `error: node "a": nextNode references unknown node "missing"`)
	assert.Contains(t, msgs, `error: node "b": option o1 references unknown node "also_missing"`)
}

func TestCheckUnparsableExpressions(t *testing.T) {
	ch := chapterOf(
		domain.Node{
			ID: "a", Kind: domain.KindInput, Content: "x", SetsVariable: "v",
			Conditional: []domain.CondNext{{Condition: "v <", NextNode: "a"}},
			Compute:     &domain.ComputeSpec{Name: "w", Logic: "((("},
		},
	)

	issues := Check(ch)
	require.True(t, HasErrors(issues))
	assert.Len(t, issues, 2)
}

func TestCheckUnreachableNodes(t *testing.T) {
	ch := chapterOf(
		domain.Node{ID: "a", Kind: domain.KindAIMessage, Content: "hi"},
		domain.Node{ID: "orphan", Kind: domain.KindAIMessage, Content: "never"},
	)

	issues := Check(ch)
	assert.False(t, HasErrors(issues), "unreachable nodes warn, they do not block")
	require.Len(t, issues, 1)
	assert.Equal(t, SeverityWarning, issues[0].Severity)
	assert.Equal(t, "orphan", issues[0].NodeID)
}

func TestCheckDuplicateIDs(t *testing.T) {
	ch := chapterOf(
		domain.Node{ID: "a", Kind: domain.KindAIMessage, Content: "one", NextNode: "a"},
		domain.Node{ID: "a", Kind: domain.KindAIMessage, Content: "two"},
	)

	issues := Check(ch)
	require.True(t, HasErrors(issues))

	var dups int
	for _, i := range issues {
		if i.Message == "duplicate node id" {
			dups++
		}
	}
	assert.Equal(t, 1, dups, "each duplicated id reported once")
}

func TestCheckChapterEndWithSuccessor(t *testing.T) {
	ch := chapterOf(
		domain.Node{ID: "a", Kind: domain.KindAIMessage, Content: "bye", IsChapterEnd: true, NextNode: "b"},
		domain.Node{ID: "b", Kind: domain.KindAIMessage, Content: "never"},
	)

	issues := Check(ch)
	assert.False(t, HasErrors(issues))
	require.NotEmpty(t, issues)
	assert.Equal(t, SeverityWarning, issues[0].Severity)
}
