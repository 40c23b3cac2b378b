package chapter

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parleyhq/parley/pkg/domain"
)

const chapterJSON = `{
  "chapter": {"id": "chapter_1", "title": "Getting started", "estimatedMinutes": 5},
  "variables": {
    "userName": {"type": "string", "default": null},
    "greeting": {"type": "string", "default": "Hi"}
  },
  "nodes": [
    {
      "id": "welcome",
      "type": "ai_message",
      "content": "{{greeting}}!",
      "delay": 1500,
      "nextNode": "ask_name"
    },
    {
      "id": "ask_name",
      "type": "input",
      "inputType": "text",
      "content": "What's your name?",
      "setsVariable": "userName",
      "validation": {"required": true, "minLength": 2},
      "conditionalNext": [
        {"condition": "userName == 'admin'", "nextNode": "welcome"}
      ],
      "computeVariable": {"name": "nameLength", "logic": "userName + ''"},
      "nextNode": "pick"
    },
    {
      "id": "pick",
      "type": "choice",
      "content": "Pick one.",
      "setsVariable": "pick",
      "options": [
        {"id": "opt_a", "label": "Option A", "value": "a", "nextNode": "welcome"}
      ]
    }
  ]
}`

const chapterYAML = `
chapter:
  id: chapter_1
  title: Getting started
variables:
  greeting:
    type: string
    default: Hi
nodes:
  - id: welcome
    type: ai_message
    content: "{{greeting}}!"
    delay: 1500
  - id: form
    type: multi_input
    content: Tell me more.
    inputs:
      - id: occupation
        label: Occupation
        inputType: text
        setsVariable: occupation
        required: true
`

func TestDecodeJSON(t *testing.T) {
	ch, err := Decode([]byte(chapterJSON))
	require.NoError(t, err)

	assert.Equal(t, "chapter_1", ch.Info.ID)
	assert.Equal(t, 5, ch.Info.EstimatedMinutes)
	assert.Equal(t, "welcome", ch.EntryNodeID())
	require.Len(t, ch.Nodes, 3)

	welcome := ch.Nodes[0]
	assert.Equal(t, domain.KindAIMessage, welcome.Kind)
	assert.Equal(t, 1500, welcome.DelayMillis)

	ask := ch.Nodes[1]
	require.NotNil(t, ask.Validation)
	assert.True(t, ask.Validation.Required)
	require.NotNil(t, ask.Validation.MinLength)
	assert.Equal(t, 2, *ask.Validation.MinLength)
	require.Len(t, ask.Conditional, 1)
	assert.Equal(t, "userName == 'admin'", ask.Conditional[0].Condition)
	require.NotNil(t, ask.Compute)
	assert.Equal(t, "nameLength", ask.Compute.Name)

	// A declared variable with a null default stays a declaration only.
	assert.Contains(t, ch.Variables, "userName")
	assert.Nil(t, ch.Variables["userName"].Default)
	assert.Equal(t, "Hi", ch.Variables["greeting"].Default)
}

func TestDecodeYAML(t *testing.T) {
	ch, err := DecodeYAML([]byte(chapterYAML))
	require.NoError(t, err)

	assert.Equal(t, "chapter_1", ch.Info.ID)
	require.Len(t, ch.Nodes, 2)
	assert.Equal(t, 1500, ch.Nodes[0].DelayMillis)

	form := ch.Nodes[1]
	assert.Equal(t, domain.KindMultiInput, form.Kind)
	require.Len(t, form.Fields, 1)
	assert.Equal(t, "occupation", form.Fields[0].SetsVariable)
	assert.True(t, form.Fields[0].Required)
}

func TestDecodeRejectsSchemaViolations(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"missing chapter id", `{"chapter": {}, "nodes": [{"id": "a", "type": "ai_message", "content": "x"}]}`},
		{"empty node list", `{"chapter": {"id": "c"}, "nodes": []}`},
		{"unknown node type", `{"chapter": {"id": "c"}, "nodes": [{"id": "a", "type": "video", "content": "x"}]}`},
		{"choice without options", `{"chapter": {"id": "c"}, "nodes": [{"id": "a", "type": "choice", "content": "x"}]}`},
		{"multi_input without inputs", `{"chapter": {"id": "c"}, "nodes": [{"id": "a", "type": "multi_input", "content": "x"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.doc))
			var serrs SchemaErrors
			require.ErrorAs(t, err, &serrs)
			assert.NotEmpty(t, serrs)
		})
	}
}

func TestDecodeRejectsMalformedJSON(t *testing.T) {
	_, err := Decode([]byte(`{"chapter":`))
	require.Error(t, err)
	var serrs SchemaErrors
	assert.False(t, errors.As(err, &serrs), "parse failures are not schema errors")
}

func TestDirLoader(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "chapter_1.json"), []byte(chapterJSON), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "chapter_2.yaml"), []byte(chapterYAML), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	loader := NewDir(dir)
	ctx := context.Background()

	ids, err := loader.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"chapter_1", "chapter_2"}, ids)

	ch, err := loader.Load(ctx, "chapter_1")
	require.NoError(t, err)
	assert.Equal(t, "chapter_1", ch.Info.ID)

	ch, err = loader.Load(ctx, "chapter_2")
	require.NoError(t, err)
	assert.Equal(t, domain.KindMultiInput, ch.Nodes[1].Kind)

	_, err = loader.Load(ctx, "chapter_9")
	assert.ErrorIs(t, err, domain.ErrChapterNotFound)

	_, err = loader.Load(ctx, "../chapter_1")
	assert.ErrorIs(t, err, domain.ErrChapterNotFound)
}
