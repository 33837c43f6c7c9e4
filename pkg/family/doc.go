// Package family provides the person model and the relationship index used
// by the kintree layout engine.
//
// # Overview
//
// Genealogical source data (historical census-like records) is incomplete
// and inconsistent: parents may be missing or point at people outside the
// loaded set, marriages may be listed on one side only, and the same field
// may arrive as an empty string, a null or not at all. This package turns
// such records into a single [Person] shape with explicit optional fields
// ([Normalize]) and builds an [Index] once per layout run so that every
// later stage resolves relationships through the same lookups:
//
//   - [Index.Person] resolves an id
//   - [Index.Parents] returns the resolvable father and mother
//   - [Index.Children] returns everyone listing a person as father or mother
//   - [Index.MutualSpouses] returns spouses that list each other
//
// # Degradation
//
// The index never fails. Entries without an id or a name are dropped,
// duplicate ids keep their first occurrence, and references to people that
// are not part of the input are treated as absent. Self references
// (a person listed as their own parent or spouse) are ignored.
//
// # Family Groups
//
// [Index.Groups] partitions people into connected family groups over
// parent, child and spouse links, and [Surnames] groups them by surname.
// Both are used by the CLI to list families and by the layout engine to
// restrict a run to a single family.
package family
