// Package layout arranges a family as a generation-ordered tree.
//
// # Overview
//
// [Compute] turns a flat list of [family.Person] records into positioned
// boxes and routed connectors ready for drawing. It runs four stages, each
// consuming the previous one's output:
//
//  1. [family.NewIndex] resolves ids, parents, children and spouses
//  2. [generation.Assign] gives every person a generation row
//  3. [ComposeRows] pairs spouses, orders each row and assigns x and y
//  4. [Route] computes parent-child connectors and marriage lines
//
// The result is a [Result] in a single coordinate space: node boxes,
// [Connection] paths, [Marriage] pairs and the [Bounds] of the drawing.
//
// # Row Order
//
// Within a generation, singles come first and marriage pairs after them.
// Both are ordered by the lowercased last token of the name, then by id in
// natural order, then by input position. [WithLocale] compares surnames
// with a locale collator so that, for example, "łukasik" sorts between "l"
// and "m" for Polish data.
//
// # Re-rooting
//
// [WithFocus] seeds generation assignment from one person instead of from
// the family's roots. [Controller] keeps the focus between calls for
// interactive viewers. [WithScope] with [ScopeConnected] lays out only the
// focus person's connected family.
//
// # Degradation
//
// Compute never returns an error. Data problems are collected in
// [Diagnostics] and logged as warnings through the configured
// [github.com/charmbracelet/log] logger.
package layout
