// Package musicdata gives access to the dumps of a MUSIC run.
//
// A Run is located by its namelist parameter file. It memoizes, for the
// lifetime of the process, the parsed parameters, the equation of state, the
// grid, the number of dumps and the dump times. A Snapshot memoizes its own
// raw array for its lifetime; snapshots are shared through a bounded cache
// so repeated requests for one index observe the same array.
//
// Run, View and Snapshot all satisfy registry.Source.
package musicdata
