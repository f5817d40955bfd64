// SPDX-License-Identifier: MIT
package analysis

// Analyzer turns one capture buffer into a spectrum. Implementations are
// called from the game loop once per buffer.
type Analyzer interface {
	Analyze(samples []float32) []float64
}
