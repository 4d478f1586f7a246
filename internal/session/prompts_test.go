package session

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNarrationPrompt_ContainsMatrixAndScalars(t *testing.T) {
	ev := MatrixEvent{A: 1, B: 0, C: 0, D: 1, Det: 1, Disc: 4}
	got := NarrationPrompt(ev, sentenceNoTransition, "")

	assert.Contains(t, got, "[[1.00, 0.00], [0.00, 1.00]]")
	assert.Contains(t, got, "a=1.00, b=0.00, c=0.00, d=1.00")
	assert.Contains(t, got, "The determinant is 1.00 and discriminant is 4.00.")
	assert.Contains(t, got, sentenceNoTransition)
	assert.Contains(t, got, toneInstruction)
	assert.Contains(t, got, `Don't use phrases like "imagine"`)
}

func TestNarrationPrompt_AppendsDefinitions(t *testing.T) {
	ev := MatrixEvent{Det: 1, Disc: 1}
	defs := conceptDefinitions[ConceptBasis]
	got := NarrationPrompt(ev, sentenceNoTransition, defs)

	assert.Contains(t, got, sentenceNoTransition+" "+defs)
}

func TestMatrixContext_NoMatrixYet(t *testing.T) {
	got := matrixContext(nil)

	assert.Contains(t, got, "Current matrix unknown with determinant=0.00, discriminant=0.00.")
	assert.Contains(t, got, "No real eigenvectors exist")
	// det defaults to 0, which reads as a collapsed transformation.
	assert.Contains(t, got, "The determinant is zero, so the transformation collapses space.")
	assert.NotContains(t, got, "orientation is flipped")
}

func TestMatrixContext_NegativeDeterminant(t *testing.T) {
	got := matrixContext(&MatrixEvent{A: 1, D: 1, Det: -2, Disc: 3})

	assert.Contains(t, got, "determinant=-2.00")
	assert.Contains(t, got, "Real eigenvectors exist and are shown as orange arrows.")
	assert.Contains(t, got, "The determinant is negative, so the orientation is flipped.")
	assert.NotContains(t, got, "collapses space")
}

func TestMatrixContext_ComplexEigenvalues(t *testing.T) {
	got := matrixContext(&MatrixEvent{Det: 1, Disc: -4})

	assert.Contains(t, got, "No real eigenvectors exist for this matrix (complex eigenvalues).")
}

func TestCommentPrompt_InitialVariant(t *testing.T) {
	got := CommentPrompt(nil, "the snippet", "the paragraph", "why is that?", false)

	assert.Contains(t, got, "Paragraph: 'the paragraph'.")
	assert.Contains(t, got, "Highlighted snippet: 'the snippet'.")
	assert.Contains(t, got, "Visitor comment: 'why is that?'.")
	assert.Contains(t, got, "Try a=0, b=1, c=-1, d=0 to see rotation")
	assert.NotContains(t, got, "follow-up question in a comment thread")
}

func TestCommentPrompt_FollowupVariant(t *testing.T) {
	got := CommentPrompt(nil, "the snippet", "ignored", "and then?", true)

	assert.Contains(t, got, "This is a follow-up question in a comment thread. The user previously highlighted: 'the snippet'.")
	assert.Contains(t, got, "Their new comment: 'and then?'.")
	assert.NotContains(t, got, "Visitor comment")
	assert.NotContains(t, got, "Paragraph: 'ignored'")
}

func TestChatSystemPrompt_IncludesLastNarrative(t *testing.T) {
	got := ChatSystemPrompt(&MatrixEvent{A: 2, D: 2, Det: 4, Disc: 16}, "the arrows doubled")

	assert.Contains(t, got, "Last explanation: 'the arrows doubled'.")
	assert.Contains(t, got, "[[2.00, 0.00], [0.00, 2.00]]")
	assert.Contains(t, got, "text-message style")
	assert.False(t, strings.HasSuffix(got, "\n"), "system prompt should not end with a newline")
}
