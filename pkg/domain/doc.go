// Package domain holds the core data model of a Parley dialogue: nodes,
// chapters, messages, the variable store, and the interpreter state
// projection. It is pure data with no behavior beyond small accessors and
// has no dependencies outside the standard library.
package domain
