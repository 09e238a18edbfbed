// Package dirac propagates four-component spinors under the Dirac equation
// with a scalar potential and an optional static vector potential.
//
// Grid axes map to momentum components in order: a 1-D grid drives px, a 2-D
// grid px and py, a 3-D grid all three.
package dirac
