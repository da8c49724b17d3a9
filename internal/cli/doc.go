// Package cli holds the pieces of the formcalc command that are worth
// testing on their own: -set parsing, value rendering and the interactive
// prompt session.
package cli
