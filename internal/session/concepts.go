package session

import "strings"

// Concept identifiers introduced progressively over the course of a session.
const (
	ConceptBasis = "basis"
	ConceptTest  = "test"
	ConceptEigen = "eigen"
)

// conceptDefinitions maps concept identifiers to the one-or-two-sentence
// definitions appended to narration prompts the first time each concept
// comes up.
var conceptDefinitions = map[string]string{
	ConceptBasis: "A basis vector is one of the two arrows <1,0> and <0,1>. Together they span the plane.",
	ConceptTest:  "Test vectors are extra sample arrows so you can see how random directions move.",
	ConceptEigen: "An eigenvector keeps its direction after the transform—only its length changes by λ.",
}

// conceptsToIntroduce decides which concepts the next narration should
// define, given the set already explained and the current discriminant.
// Pure: recording the introduced concepts is the caller's job, so the
// decision can be tested and the prompt built without mutating state.
//
// Concepts unlock one per turn: "test" and "eigen" both require "basis" to
// have been explained on an earlier turn, so the first narration only ever
// defines "basis". "eigen" additionally requires real eigenvalues
// (disc >= 0), since there is nothing on screen to point at otherwise.
func conceptsToIntroduce(known map[string]bool, disc float64) []string {
	var want []string
	if !known[ConceptBasis] {
		want = append(want, ConceptBasis)
	}
	if known[ConceptBasis] && !known[ConceptTest] {
		want = append(want, ConceptTest)
	}
	if disc >= 0 && !known[ConceptEigen] && known[ConceptBasis] {
		want = append(want, ConceptEigen)
	}
	return want
}

// definitionsFor concatenates the fixed definitions for the given concept
// identifiers, space-separated, in the order given. Unknown identifiers are
// skipped.
func definitionsFor(ids []string) string {
	defs := make([]string, 0, len(ids))
	for _, id := range ids {
		if def, ok := conceptDefinitions[id]; ok {
			defs = append(defs, def)
		}
	}
	return strings.Join(defs, " ")
}
