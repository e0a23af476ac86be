package biz

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/sentinel-ask/pkg/llm"
	"github.com/kart-io/sentinel-ask/pkg/utils/errors"
)

func TestCompleterSendsSystemAndUser(t *testing.T) {
	chat := &fakeChat{reply: "  Brasília.\n"}
	got, err := NewCompleter(chat, "", nil).Complete(context.Background(), Prompt{
		SystemInstruction: "sys",
		UserMessage:       "user",
	})
	require.NoError(t, err)
	assert.Equal(t, "Brasília.", got)

	require.Len(t, chat.messages, 2)
	assert.Equal(t, llm.Message{Role: llm.RoleSystem, Content: "sys"}, chat.messages[0])
	assert.Equal(t, llm.Message{Role: llm.RoleUser, Content: "user"}, chat.messages[1])
}

func TestCompleterFallbackOnEmpty(t *testing.T) {
	for _, reply := range []string{"", "   ", "\n\t"} {
		got, err := NewCompleter(&fakeChat{reply: reply}, "", nil).Complete(context.Background(), Prompt{})
		require.NoError(t, err)
		assert.Equal(t, DefaultFallbackAnswer, got)
	}

	got, err := NewCompleter(&fakeChat{}, "No answer.", nil).Complete(context.Background(), Prompt{})
	require.NoError(t, err)
	assert.Equal(t, "No answer.", got)
}

func TestCompleterErrors(t *testing.T) {
	for _, cause := range []error{llm.ErrNoChoices, fmt.Errorf("status 429")} {
		_, err := NewCompleter(&fakeChat{err: cause}, "", nil).Complete(context.Background(), Prompt{})
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrCompletionProvider))
		assert.ErrorIs(t, err, cause)
	}
}
