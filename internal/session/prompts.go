package session

import (
	"fmt"
	"strings"
)

// toneInstruction is embedded in every narration prompt. The narrator
// describes what is on screen right now, so hypothetical phrasing is
// explicitly forbidden.
const toneInstruction = "Write like you're texting a friend. Keep it short, casual, and easy to understand. No markdown formatting."

// NarrationPrompt builds the single-turn prompt describing the matrix the
// user is currently looking at. changeSentence comes from the transition
// detector, definitions from the concept tracker (may be empty).
func NarrationPrompt(ev MatrixEvent, changeSentence, definitions string) string {
	definitionSnippets := ""
	if definitions != "" {
		definitionSnippets = " " + definitions
	}
	return fmt.Sprintf(`You are describing a matrix visualization that the user is currently seeing on screen.
The visualization shows a 2×2 transformation matrix and its effect on vectors in 2D space.
The current matrix is %s with values a=%.2f, b=%.2f, c=%.2f, d=%.2f.
The determinant is %.2f and discriminant is %.2f.
%s%s

IMPORTANT: Don't use phrases like "imagine" or hypotheticals - the user is already looking at this transformation.
Describe what they ARE seeing, not what they COULD see. Refer directly to the visual elements on screen.
%s`,
		FormatMatrix(&ev), ev.A, ev.B, ev.C, ev.D,
		ev.Det, ev.Disc,
		changeSentence, definitionSnippets,
		toneInstruction)
}

// matrixContext builds the shared app/matrix context block used by the
// comment and chat prompts. It describes what the visualization currently
// shows, computed from the last received matrix event. Before any matrix
// event, determinant and discriminant read as 0 and no eigenvectors are
// reported.
func matrixContext(m *MatrixEvent) string {
	var det, disc float64
	hasEigenvectors := false
	if m != nil {
		det = m.Det
		disc = m.Disc
		hasEigenvectors = disc >= 0
	}

	var b strings.Builder
	b.WriteString("You are an assistant in an educational app about linear transformations and matrices.\n")
	b.WriteString("The app shows a 2×2 transformation matrix [[a,b],[c,d]] and visualizes how it transforms vectors in 2D space.\n")
	fmt.Fprintf(&b, "Current matrix %s with determinant=%.2f, discriminant=%.2f.\n", FormatMatrix(m), det, disc)
	if hasEigenvectors {
		b.WriteString("Real eigenvectors exist and are shown as orange arrows.\n")
	} else {
		b.WriteString("No real eigenvectors exist for this matrix (complex eigenvalues).\n")
	}
	if det < 0 {
		b.WriteString("The determinant is negative, so the orientation is flipped.\n")
	} else {
		b.WriteString("\n")
	}
	if det == 0 {
		b.WriteString("The determinant is zero, so the transformation collapses space.\n")
	} else {
		b.WriteString("\n")
	}
	return b.String()
}

// commentStyleInstruction closes both comment prompt variants.
const commentStyleInstruction = "Respond to their %s in a casual, text message-like style. Be concise, friendly, and straight to the point - like you're texting with a friend. Don't use markdown formatting. When it would help illustrate a concept, suggest specific matrix values they could try%s."

// CommentPrompt builds the prompt for a comment event. For follow-ups the
// thread context is the originally highlighted snippet; for initial
// comments it is the narrated paragraph plus the snippet.
func CommentPrompt(m *MatrixEvent, snippet, paragraph, text string, isFollowup bool) string {
	var b strings.Builder
	b.WriteString(matrixContext(m))
	b.WriteString("\n")
	b.WriteString("IMPORTANT: Write in simple, accessible language as if you're texting a friend. Assume the user is new to linear algebra concepts.\n")
	b.WriteString("Keep your responses concise and conversational - like a text message, not an essay. Don't use markdown formatting.\n")
	b.WriteString("Be casual and friendly. Use short sentences, contractions (don't instead of do not), and relate concepts to what they can see on screen.\n")
	b.WriteString("When relevant, suggest specific changes they could make to the matrix sliders to illustrate your points - for example:\n")
	b.WriteString("'Try setting a=1, b=0, c=0, d=2 to see a pure scaling transformation' or\n")
	b.WriteString("'Move the c slider all the way negative to see what happens to the basis vectors'\n")
	b.WriteString("\n")

	if isFollowup {
		fmt.Fprintf(&b, "This is a follow-up question in a comment thread. The user previously highlighted: '%s'.\n", snippet)
		fmt.Fprintf(&b, "Their new comment: '%s'.\n", text)
		fmt.Fprintf(&b, commentStyleInstruction, "follow-up", "")
	} else {
		fmt.Fprintf(&b, "Paragraph: '%s'.\n", paragraph)
		fmt.Fprintf(&b, "Highlighted snippet: '%s'.\n", snippet)
		fmt.Fprintf(&b, "Visitor comment: '%s'.\n", text)
		fmt.Fprintf(&b, commentStyleInstruction, "comment", " (like 'Try a=0, b=1, c=-1, d=0 to see rotation')")
	}
	return b.String()
}

// ChatSystemPrompt builds the system message prepended to the (truncated)
// chat history. lastNarrative is the most recent narration text, included
// so the model can refer back to what it just explained.
func ChatSystemPrompt(m *MatrixEvent, lastNarrative string) string {
	var b strings.Builder
	b.WriteString(matrixContext(m))
	fmt.Fprintf(&b, "Last explanation: '%s'.\n", lastNarrative)
	b.WriteString("\n")
	b.WriteString("IMPORTANT: Write in simple, accessible language as if you're texting a friend. Assume the user is new to linear algebra concepts.\n")
	b.WriteString("Keep your responses concise and conversational - like a text message, not an essay. Don't use markdown formatting.\n")
	b.WriteString("Be casual and friendly. Use short sentences, contractions (don't instead of do not), and relate concepts to what they can see on screen.\n")
	b.WriteString("\n")
	b.WriteString("Answer their questions about the matrix in a casual, text-message style. Keep it short and sweet while still being helpful.\n")
	b.WriteString("When relevant, suggest specific changes they could make to the matrix sliders to illustrate your points - for example:\n")
	b.WriteString("'Try setting a=1, b=0, c=0, d=2 to see a pure scaling transformation' or\n")
	b.WriteString("'Move the c slider all the way negative to see what happens to the basis vectors'")
	return b.String()
}
