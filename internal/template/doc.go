// Package template holds the evaluation template generated for one
// sequence: its compiled tracks, the ledger that keeps track identifiers
// stable across regenerations, the interval trees the compiler queries and
// the evaluation field cache. Stores decide how templates are kept between
// evaluations.
package template
