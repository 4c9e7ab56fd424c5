// Package volume provides reference implementations of dag.Source.
//
// Every source answers box queries conservatively: Full only when every
// voxel of the box has the same value, Mixed otherwise. All sources are
// safe for concurrent reads; Grid must not be written while a build reads it.
package volume
