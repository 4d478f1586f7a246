package session

import "strings"

// snapshot holds the matrix-derived scalars from the previous matrix event,
// used to detect boundary crossings. A fresh session starts at det=1,
// disc=1, collapsed=false so the first event never reads as a flip.
type snapshot struct {
	Det       float64
	Disc      float64
	Collapsed bool
}

// Transition sentences woven into the narration prompt when the new matrix
// crosses one of the interesting boundaries.
const (
	sentenceOrientationFlip = "Determinant sign flipped → orientation reversed."
	sentenceCollapseOnset   = "All transformed arrows collapse to the origin."
	sentenceEigenAppeared   = "Real eigenvectors appeared—bold orange arrows."
	sentenceEigenVanished   = "Eigenvectors vanished; the matrix now only rotates."
	sentenceNoTransition    = "Watch how the arrows reposition."
)

// describeTransitions compares the previous scalars against the new matrix
// event and returns the applicable change sentences joined with spaces. The
// checks are independent; any combination can fire on one event. When none
// fires, the generic fallback sentence is returned instead.
func describeTransitions(prev snapshot, ev MatrixEvent) string {
	var changes []string
	if ev.Det*prev.Det < 0 {
		changes = append(changes, sentenceOrientationFlip)
	}
	if ev.Collapsed && !prev.Collapsed {
		changes = append(changes, sentenceCollapseOnset)
	}
	if prev.Disc < 0 && ev.Disc >= 0 {
		changes = append(changes, sentenceEigenAppeared)
	}
	if prev.Disc >= 0 && ev.Disc < 0 {
		changes = append(changes, sentenceEigenVanished)
	}
	if len(changes) == 0 {
		return sentenceNoTransition
	}
	return strings.Join(changes, " ")
}
