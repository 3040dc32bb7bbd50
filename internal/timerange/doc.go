// Package timerange models the scalar time ranges every other evaluation
// package is built on.
//
// A Range is a pair of Bounds. Each bound is inclusive, exclusive or open
// (unbounded), so the package can express half-open section ranges such as
// [10, 20), closed ranges such as [10, 25] and the open-ended ranges used for
// infinite sections. Intersection, hull, overlap, adjacency and containment
// follow the usual interval semantics: ranges that merely abut never overlap.
//
// Lower and upper bounds are ordered differently at a shared value (an
// inclusive lower bound starts before an exclusive one, an exclusive upper
// bound ends before an inclusive one). Use the Compare helpers rather than
// comparing Value fields directly.
package timerange
