package session

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrypster/eigentalk/internal/llm"
)

func TestHistory_AppendAndLen(t *testing.T) {
	var h history
	assert.Equal(t, 0, h.Len())

	h.Append(llm.RoleUser, "hi")
	h.Append(llm.RoleAssistant, "hello")
	assert.Equal(t, 2, h.Len())
}

func TestHistory_TailShorterThanWindow(t *testing.T) {
	var h history
	h.Append(llm.RoleUser, "one")
	h.Append(llm.RoleAssistant, "two")

	tail := h.Tail(6)
	require.Len(t, tail, 2)
	assert.Equal(t, "one", tail[0].Content)
	assert.Equal(t, "two", tail[1].Content)
}

func TestHistory_TailKeepsMostRecentOldestFirst(t *testing.T) {
	var h history
	for i := 1; i <= 10; i++ {
		h.Append(llm.RoleUser, fmt.Sprintf("msg-%d", i))
	}

	tail := h.Tail(6)
	require.Len(t, tail, 6)
	assert.Equal(t, "msg-5", tail[0].Content)
	assert.Equal(t, "msg-10", tail[5].Content)
	// Full transcript is retained even though only the tail is sent.
	assert.Equal(t, 10, h.Len())
}

func TestHistory_TailZeroWindow(t *testing.T) {
	var h history
	h.Append(llm.RoleUser, "hi")
	assert.Nil(t, h.Tail(0))
}

func TestHistory_Clear(t *testing.T) {
	var h history
	h.Append(llm.RoleUser, "hi")
	h.Clear()
	assert.Equal(t, 0, h.Len())
	assert.Nil(t, h.Tail(6))
}
