// Package wave provides the core primitives shared by every propagation engine.
//
// The package defines the grid-shaped containers the engines read and write:
//
//   - [Field]: a single complex scalar field stored row-major
//   - [Spinor]: a 4-component Dirac spinor, one [Field] per component
//   - [Pair]: a Klein-Gordon (field, time derivative) pair
//   - [Mat4], [Mat2]: per-grid-point small matrices stored as
//     structure-of-arrays, one [Field] per matrix entry
//
// # Example
//
//	psi := wave.NewField(g.Size())
//	op := wave.Identity4(g.Size())
//	out := op.MulVec(spinor, 1)
//
// # Thread Safety
//
// Values are plain slices. Engines never share them across goroutines except
// through [ParallelFor], which hands out disjoint index ranges.
package wave
