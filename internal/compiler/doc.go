// Package compiler turns authored sequences into evaluation templates and
// fills their evaluation fields.
//
// Generation walks a sequence's tracks and sub-sections and produces the
// evaluation tracks, the sub-section tree and the flattened hierarchy of
// nested instances. Compilation gathers everything that applies at a
// time across that hierarchy, orders it by evaluation group priority,
// hierarchical bias and track priority, and caches the result in the
// template's field.
package compiler
