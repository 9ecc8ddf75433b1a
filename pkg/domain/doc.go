/*
Package domain contains the tree algebra behind panelstate.

Everything here is pure: no I/O, no locking, no globals. Trees are values of
the tagged union Tree; the nil *Tree stands for an absent value.

# Operations

  - Flatten: lists the scalar leaves of a tree with their dotted paths.
  - Resolve: reads the value at the path described by a shape tree.
  - Merge / Update: deep-merges partial trees; lists merge index by index.
  - Diff: computes the patch between two trees.
  - Load / Save: read with default fallback, write by merging.

Trees must be acyclic. Every walk recurses without a depth bound.
*/
package domain
