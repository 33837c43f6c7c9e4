// Package generation assigns an integer generation to every person in a
// [family.Index].
//
// # Overview
//
// A generation is the row a person is drawn on: 0 is the oldest traced
// ancestor of a run, children sit one generation below every resolvable
// parent, and mutual spouses share a generation. [Assign] computes these
// numbers in three phases:
//
//  1. Seeding: breadth-first traversal from roots, or from a focus person
//  2. Stabilization: repeated passes that push children below parents and
//     align spouses, bounded so malformed data always terminates
//  3. Normalization: shift so the smallest generation is 0
//
// # Malformed Data
//
// Source records are incomplete and sometimes contradictory. Dangling
// parent references and self references are already dropped by the index.
// Parentage cycles are detected with [Cycles] and the links on them are
// ignored; they are reported in [Result.Severed]. A marriage between a
// person and their own descendant can never satisfy both stabilization
// rules; the loop stops after its bound and [Result.Converged] is false.
//
// # Re-rooting
//
// [Options.Focus] changes only which person seeds the traversal. Because
// stabilization still applies, the difference between any two people's
// generations within one connected family is preserved; only the basis of
// normalization may move.
package generation
