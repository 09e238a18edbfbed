// Package viz draws wavefunction densities in the terminal.
//
// [Canvas] is a Braille pixel canvas. [Model] is a Bubble Tea program that
// steps a scenario job on every tick and shows its density, energy history
// and norm.
//
// # Key Bindings
//
//	Space - Pause/Resume
//	N     - Single step
//	R     - Rebuild the initial state
//	+/-   - Steps per frame
//	T     - Cycle color themes
//	?     - Show help
package viz
