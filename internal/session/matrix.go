package session

import "fmt"

// MatrixEvent is the inbound payload describing the 2x2 transformation the
// client is currently rendering. The derived scalars (det, disc, collapsed)
// are computed client-side; this service only reads them.
type MatrixEvent struct {
	Kind        string    `json:"kind"`
	A           float64   `json:"a"`
	B           float64   `json:"b"`
	C           float64   `json:"c"`
	D           float64   `json:"d"`
	Det         float64   `json:"det"`
	Disc        float64   `json:"disc"`
	Collapsed   bool      `json:"collapsed"`
	Trace       *float64  `json:"trace,omitempty"`
	Eigenvalues []float64 `json:"eigenvalues,omitempty"`
}

// FormatMatrix renders the four matrix entries with two decimal places in
// the fixed layout [[a, b], [c, d]]. A nil matrix renders as "unknown"
// (no matrix event has been received yet).
func FormatMatrix(m *MatrixEvent) string {
	if m == nil {
		return "unknown"
	}
	return fmt.Sprintf("[[%.2f, %.2f], [%.2f, %.2f]]", m.A, m.B, m.C, m.D)
}
