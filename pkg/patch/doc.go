// Package patch tracks the edits that turn an input text into an output text.
//
// A [Patch] stores the boundaries between changed and unchanged regions in a
// treap. Every boundary has a position in both coordinate spaces, held as
// extents relative to its subtree, so a single descent finds a boundary by
// input or by output position and a splice shifts everything after it in
// O(log n) expected time without touching the shifted nodes.
//
// Edits come in two kinds. [Patch.Splice] records an edit to the output, such
// as a user typing into a buffer. [Patch.SpliceInput] records an edit to the
// input, such as the file on disk changing underneath the buffer; it moves the
// changes after the edit and drops the ones it reaches into.
package patch
