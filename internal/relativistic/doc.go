// Package relativistic builds per-grid-point operator exponentials for the
// relativistic engines: the 4×4 free Dirac propagator (combined or as an
// eigenbasis factorization), the vector-potential coupling, and the 2×2
// Klein-Gordon generator exponential.
//
// All exponentials are evaluated in closed form. The Dirac free Hamiltonian
// c·α·p + β·mc² is diagonalized with an explicit orthonormal eigenbasis, so
// no numerical eigensolver is involved and mass 0 needs no special casing.
package relativistic
