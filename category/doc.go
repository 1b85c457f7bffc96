// Package category turns user-supplied category paths into store predicates
// and folds stored family paths into the navigation hierarchy.
//
// Paths arrive from callers in root-to-leaf order while new rows store them
// leaf-to-root and legacy rows store one delimited string. MatchPath accepts
// every representation; BuildTree normalizes them all to root-to-leaf.
package category
